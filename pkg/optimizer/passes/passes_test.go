package passes_test

import (
	"testing"

	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/optimizer"
	"github.com/luanext/luanext/pkg/optimizer/passes"
)

func newModule() (*optimizer.Module, *luaast.Arena, *luaast.StringInterner) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	return &optimizer.Module{Arena: arena, Interner: in}, arena, in
}

func TestConstantFoldingCollapsesIntegerArithmetic(t *testing.T) {
	m, arena, in := newModule()
	a := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 2})
	b := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 3})
	sum := arena.NewExpr(&luaast.BinaryExpr{Op: luaast.OpAdd, Left: a, Right: b})
	decl := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("x"), Value: sum})

	_, count := passes.ConstantFolding{}.Run(m, []luaast.StmtId{decl})
	if count != 1 {
		t.Fatalf("expected 1 rewrite, got %d", count)
	}
	lit, ok := arena.Expr(arena.Stmt(decl).(*luaast.VarDeclStmt).Value).(*luaast.LiteralExpr)
	if !ok || lit.Integer != 5 {
		t.Fatalf("expected folded literal 5, got %+v", lit)
	}
}

func TestAlgebraicSimplificationDropsAddZero(t *testing.T) {
	m, arena, in := newModule()
	x := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("x")})
	zero := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 0})
	sum := arena.NewExpr(&luaast.BinaryExpr{Op: luaast.OpAdd, Left: x, Right: zero})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: sum})

	_, count := passes.AlgebraicSimplification{}.Run(m, []luaast.StmtId{stmt})
	if count != 1 {
		t.Fatalf("expected 1 rewrite, got %d", count)
	}
	result := arena.Stmt(stmt).(*luaast.ExprStmt)
	if _, ok := arena.Expr(result.Value).(*luaast.IdentifierExpr); !ok {
		t.Fatalf("expected x+0 to simplify to the bare identifier")
	}
}

func TestDeadCodeEliminationTruncatesAfterReturn(t *testing.T) {
	m, arena, in := newModule()
	ret := arena.NewStmt(&luaast.ReturnStmt{})
	unreachable := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("y")})

	out, count := passes.DeadCodeElimination{}.Run(m, []luaast.StmtId{ret, unreachable})
	if count != 1 {
		t.Fatalf("expected 1 rewrite, got %d", count)
	}
	if len(out) != 1 {
		t.Fatalf("expected the trailing statement dropped, got %d statements", len(out))
	}
}

func TestJumpThreadingInlinesTrueBranch(t *testing.T) {
	m, arena, in := newModule()
	inner := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("z")})
	thenBlock := arena.NewStmt(&luaast.BlockStmt{Statements: []luaast.StmtId{inner}})
	cond := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitBoolean, Bool: true})
	ifStmt := arena.NewStmt(&luaast.IfStmt{Cond: cond, ThenBlock: thenBlock, ElseBlock: luaast.InvalidStmtId})

	out, count := passes.JumpThreading{}.Run(m, []luaast.StmtId{ifStmt})
	if count != 1 {
		t.Fatalf("expected 1 rewrite, got %d", count)
	}
	if len(out) != 1 || out[0] != inner {
		t.Fatalf("expected the then-branch statement spliced in directly, got %+v", out)
	}
}

func TestDevirtualizationRewritesSealedClassCall(t *testing.T) {
	m, arena, in := newModule()
	className := in.Intern("Point")
	methodName := in.Intern("length")

	method := luaast.ClassMember{Name: methodName, IsMethod: true, Body: arena.NewStmt(&luaast.BlockStmt{})}
	class := arena.NewStmt(&luaast.ClassDeclStmt{Name: className, Sealed: true, Members: []luaast.ClassMember{method}})

	receiver := arena.NewExpr(&luaast.IdentifierExpr{
		ExprMeta: luaast.ExprMeta{ReceiverClass: className},
		Name:     in.Intern("p"),
	})
	call := arena.NewExpr(&luaast.MethodCallExpr{Receiver: receiver, Name: methodName})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: call})

	// Devirtualization reads the class hierarchy from the whole-program
	// analysis, which the driver builds before running the passes.
	wp := analysis.NewWholeProgramAnalysis()
	wp.AddModule("point.luax", arena, in, []luaast.StmtId{class, stmt})
	wp.Finalize()
	m.WholeProgram = wp

	_, count := passes.Devirtualization{}.Run(m, []luaast.StmtId{class, stmt})
	if count != 1 {
		t.Fatalf("expected 1 rewrite, got %d", count)
	}
	result := arena.Stmt(stmt).(*luaast.ExprStmt)
	if _, ok := arena.Expr(result.Value).(*luaast.CallExpr); !ok {
		t.Fatalf("expected the method call rewritten into a direct CallExpr")
	}
}

func TestStubPassesReportNoRewrites(t *testing.T) {
	m, arena, _ := newModule()
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 1})})

	for _, p := range []optimizer.Pass{passes.LoopOptimization{}, passes.GenericSpecialization{}, passes.TablePreallocation{}} {
		_, count := p.Run(m, []luaast.StmtId{stmt})
		if count != 0 {
			t.Fatalf("%s: expected a no-op stub pass, got %d rewrites", p.Name(), count)
		}
	}
}

func TestAllRegistersEveryStatementScopedPass(t *testing.T) {
	all := passes.All()
	if len(all) != 19 {
		t.Fatalf("expected 19 statement-scoped passes, got %d", len(all))
	}
	seen := make(map[string]bool)
	for _, p := range all {
		if seen[p.Name()] {
			t.Fatalf("duplicate pass name %q", p.Name())
		}
		seen[p.Name()] = true
	}
}

func TestRunModuleGraphPassesSkipsUnreachableModules(t *testing.T) {
	g := analysis.NewModuleGraph()
	g.AddNode(&analysis.ModuleNode{Path: "main", Imports: []analysis.ImportInfo{{FromModule: "util", Referenced: true}}})
	g.AddNode(&analysis.ModuleNode{Path: "util"})
	g.AddNode(&analysis.ModuleNode{Path: "orphan"})
	g.SetEntries([]string{"main"})

	result := passes.RunModuleGraphPasses(g)
	if len(result.SkippedModules) != 1 || result.SkippedModules[0] != "orphan" {
		t.Fatalf("expected orphan skipped, got %+v", result.SkippedModules)
	}
}
