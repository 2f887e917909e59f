package driver_test

import (
	"os"
	"path/filepath"
	"testing"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/driver"
	luaerrors "github.com/luanext/luanext/pkg/errors"
)

// fakeCompiler stands in for the real lexer/parser/type-checker: it
// recognizes exactly two fixture modules (a "util" module exporting one
// named declaration, and a "main" module importing it) by inspecting the
// raw source text, and builds their AST by hand rather than lexing it.
type fakeCompiler struct{}

func (fakeCompiler) parse(path string, source []byte) (*driver.ParsedSource, *luaerrors.Diagnostic) {
	arena := luaast.NewArena()
	interner := luaast.NewStringInterner()

	text := string(source)
	var statements []luaast.StmtId

	if text == "import" {
		modId := interner.Intern("./util")
		nameId := interner.Intern("helper")
		statements = append(statements, arena.NewStmt(&luaast.ImportStmt{
			Module:     modId,
			Specifiers: []luaast.ImportSpecifier{{Name: nameId, Alias: nameId}},
			Default:    luaast.InvalidStringId,
			Namespace:  luaast.InvalidStringId,
		}))
	} else {
		nameId := interner.Intern("helper")
		decl := arena.NewStmt(&luaast.FunctionDeclStmt{
			Name:    nameId,
			Returns: luaast.InvalidTypeId,
			Body:    luaast.InvalidStmtId,
		})
		statements = append(statements, arena.NewStmt(&luaast.ExportStmt{
			Kind:       luaast.ExportDecl,
			Decl:       decl,
			FromModule: luaast.InvalidStringId,
		}))
	}

	return &driver.ParsedSource{
		Arena:    arena,
		Interner: interner,
		Program:  &luaast.Program{Statements: statements},
	}, nil
}

func (fakeCompiler) typeCheck(mod *luaast.Module, registry *luaast.ModuleRegistry) (*driver.TypeCheckResult, []*luaerrors.Diagnostic) {
	helperId := mod.Interner.Intern("helper")

	for _, sid := range mod.Program.Statements {
		if st, ok := mod.Arena.Stmt(sid).(*luaast.ExportStmt); ok && st.Kind == luaast.ExportDecl {
			exports := &luaast.ModuleExports{
				Named: []luaast.ExportedDecl{{Name: helperId, Type: luaast.InvalidTypeId}},
			}
			return &driver.TypeCheckResult{
				Exports:    exports,
				DeclHashes: map[string]uint64{"helper": 1},
			}, nil
		}
	}

	// main.luax: confirm the import resolved against the registry before
	// reporting success, the way a real type-checker would.
	for _, sid := range mod.Program.Statements {
		if _, ok := mod.Arena.Stmt(sid).(*luaast.ImportStmt); ok {
			if _, ok := registry.Get(filepath.Join(filepath.Dir(mod.Path), "util.luax")); !ok {
				return nil, []*luaerrors.Diagnostic{luaerrors.At(luaerrors.TypeError, mod.Path, luaast.Span{}, "unresolved import")}
			}
		}
	}

	return &driver.TypeCheckResult{Exports: &luaast.ModuleExports{}}, nil
}

func writeFixture(t *testing.T, root string) (mainPath string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, "util.luax"), []byte("decl"), 0o644); err != nil {
		t.Fatalf("WriteFile util.luax: %v", err)
	}
	mainPath = filepath.Join(root, "main.luax")
	if err := os.WriteFile(mainPath, []byte("import"), 0o644); err != nil {
		t.Fatalf("WriteFile main.luax: %v", err)
	}
	return mainPath
}

func TestCompileResolvesImportsAndEmitsEveryReachableModule(t *testing.T) {
	root := t.TempDir()
	mainPath := writeFixture(t, root)

	cfg := config.DefaultConfig()
	cfg.Cache.Disabled = true
	cfg.Emit.OutDir = "dist"

	var fc fakeCompiler
	p := driver.New(root, cfg, fc.parse, fc.typeCheck)

	result, err := p.Compile([]string{mainPath})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if p.Handler().HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", p.Handler().Diagnostics())
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("expected 2 module outcomes, got %d", len(result.Outcomes))
	}

	for _, o := range result.Outcomes {
		if o.Skipped {
			t.Fatalf("did not expect any module skipped, got %+v", o)
		}
		if _, err := os.Stat(o.OutputPath); err != nil {
			t.Fatalf("expected generated output at %s: %v", o.OutputPath, err)
		}
	}
}

func TestCompileReportsUnresolvedImportAsIOError(t *testing.T) {
	root := t.TempDir()
	mainPath := filepath.Join(root, "main.luax")
	if err := os.WriteFile(mainPath, []byte("import"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// util.luax is deliberately absent: the import can't resolve.

	cfg := config.DefaultConfig()
	cfg.Cache.Disabled = true

	var fc fakeCompiler
	p := driver.New(root, cfg, fc.parse, fc.typeCheck)

	if _, err := p.Compile([]string{mainPath}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !p.Handler().HasErrors(luaerrors.IOError) {
		t.Fatalf("expected an IOError diagnostic for the unresolvable import")
	}
}

func TestCompileSecondRunReusesCacheOnUnchangedSource(t *testing.T) {
	root := t.TempDir()
	mainPath := writeFixture(t, root)

	cfg := config.DefaultConfig()
	cfg.Cache.Dir = ".luanext-cache"

	var fc fakeCompiler

	first := driver.New(root, cfg, fc.parse, fc.typeCheck)
	if _, err := first.Compile([]string{mainPath}); err != nil {
		t.Fatalf("first Compile: %v", err)
	}
	if first.Handler().HasErrors() {
		t.Fatalf("unexpected diagnostics on first run: %v", first.Handler().Diagnostics())
	}

	second := driver.New(root, cfg, fc.parse, fc.typeCheck)
	result, err := second.Compile([]string{mainPath})
	if err != nil {
		t.Fatalf("second Compile: %v", err)
	}
	if second.Handler().HasErrors() {
		t.Fatalf("unexpected diagnostics on second run: %v", second.Handler().Diagnostics())
	}

	hits := 0
	for _, o := range result.Outcomes {
		if o.CacheHit {
			hits++
		}
	}
	if hits == 0 {
		t.Fatalf("expected at least one module to hit cache on the second, unchanged run")
	}
}
