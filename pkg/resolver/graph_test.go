package resolver_test

import (
	"testing"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/resolver"
)

func program(arena *luaast.Arena, stmts ...luaast.StmtId) *luaast.Program {
	return &luaast.Program{Statements: stmts}
}

func fakeResolve(targets map[string]string) func(string, string) (string, bool, error) {
	return func(_, specifier string) (string, bool, error) {
		if t, ok := targets[specifier]; ok {
			return t, true, nil
		}
		return "", false, nil
	}
}

func TestBuildGraphCollectsImportEdges(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	imp := arena.NewStmt(&luaast.ImportStmt{
		Module:    in.Intern("./util"),
		Default:   in.Intern("util"),
		Namespace: luaast.InvalidStringId,
	})

	modules := []resolver.ParsedModule{
		{Path: "a.luax", Interner: in, Arena: arena, Program: program(arena, imp)},
		{Path: "util.luax", Interner: in, Arena: arena, Program: program(arena)},
	}

	g, err := resolver.BuildGraph(modules, fakeResolve(map[string]string{"./util": "util.luax"}))
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(g.Nodes["a.luax"].Imports) != 1 || g.Nodes["a.luax"].Imports[0].To != "util.luax" {
		t.Fatalf("expected a.luax -> util.luax edge, got: %+v", g.Nodes["a.luax"].Imports)
	}
	if len(g.Nodes["util.luax"].ImportedBy) != 1 || g.Nodes["util.luax"].ImportedBy[0] != "a.luax" {
		t.Fatalf("expected util.luax to record a.luax as a dependent, got: %+v", g.Nodes["util.luax"].ImportedBy)
	}
}

func TestBuildGraphOmitsUnresolvedExternalImports(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	imp := arena.NewStmt(&luaast.ImportStmt{Module: in.Intern("some-external-package"), Default: in.Intern("pkg"), Namespace: luaast.InvalidStringId})

	modules := []resolver.ParsedModule{
		{Path: "a.luax", Interner: in, Arena: arena, Program: program(arena, imp)},
	}

	g, err := resolver.BuildGraph(modules, fakeResolve(nil))
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(g.Nodes["a.luax"].Imports) != 0 {
		t.Fatalf("expected the external import to be omitted, got: %+v", g.Nodes["a.luax"].Imports)
	}
}

func TestBuildGraphMarksReExportEdges(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	reexport := arena.NewStmt(&luaast.ExportStmt{
		Kind:       luaast.ExportReExportAll,
		Decl:       luaast.InvalidStmtId,
		FromModule: in.Intern("./util"),
	})

	modules := []resolver.ParsedModule{
		{Path: "a.luax", Interner: in, Arena: arena, Program: program(arena, reexport)},
		{Path: "util.luax", Interner: in, Arena: arena, Program: program(arena)},
	}

	g, err := resolver.BuildGraph(modules, fakeResolve(map[string]string{"./util": "util.luax"}))
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if len(g.Nodes["a.luax"].Imports) != 1 {
		t.Fatalf("expected the re-export to create a dependency edge, got: %+v", g.Nodes["a.luax"].Imports)
	}
}

func TestBuildGraphMarksTypeOnlyImportEdges(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	imp := arena.NewStmt(&luaast.ImportStmt{
		Module:    in.Intern("./types"),
		Namespace: luaast.InvalidStringId,
		TypeOnly:  true,
	})

	modules := []resolver.ParsedModule{
		{Path: "a.luax", Interner: in, Arena: arena, Program: program(arena, imp)},
		{Path: "types.luax", Interner: in, Arena: arena, Program: program(arena)},
	}

	g, err := resolver.BuildGraph(modules, fakeResolve(map[string]string{"./types": "types.luax"}))
	if err != nil {
		t.Fatalf("BuildGraph: %v", err)
	}
	if !g.Nodes["a.luax"].Imports[0].TypeOnly {
		t.Fatalf("expected the import to be flagged type-only")
	}
}
