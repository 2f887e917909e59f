package optimizer_test

import (
	"testing"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// doubleLiterals is a minimal Pass used to exercise the driver's
// fixed-point loop: it doubles every not-yet-visited integer literal
// exactly once, marking a literal visited via Span.StartLine, so Run
// converges after exactly one sweep that performs a rewrite.
type doubleLiterals struct{}

func (doubleLiterals) Name() string                        { return "double-literals" }
func (doubleLiterals) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (doubleLiterals) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	count := optimizer.RewriteAllExprs(m.Arena, statements, func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		lit, ok := arena.Expr(id).(*luaast.LiteralExpr)
		if !ok || lit.Kind != luaast.LitInteger || lit.Span.StartLine < 0 {
			return id, false
		}
		doubled := *lit
		doubled.Integer *= 2
		doubled.Span.StartLine = -1
		return arena.NewExpr(&doubled), true
	})
	return statements, count
}

func TestRewriteExprTreeVisitsNestedBinary(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()

	a := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 2})
	b := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 3})
	sum := arena.NewExpr(&luaast.BinaryExpr{Op: luaast.OpAdd, Left: a, Right: b})
	decl := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("x"), Value: sum})

	visited := 0
	count := 0
	newSum := optimizer.RewriteExprTree(arena, sum, func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		if _, ok := arena.Expr(id).(*luaast.LiteralExpr); ok {
			visited++
		}
		return id, false
	}, &count)

	if visited != 2 {
		t.Fatalf("expected both literal children visited, got %d", visited)
	}
	if newSum != sum {
		t.Fatalf("expected the node id unchanged when fn never rewrites")
	}
	if arena.Stmt(decl) == nil {
		t.Fatalf("expected the declaration statement to remain reachable")
	}
}

func TestRunConvergesWhenPassReportsNoMoreRewrites(t *testing.T) {
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()

	lit := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 5})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: lit})
	statements := []luaast.StmtId{stmt}

	m := &optimizer.Module{Arena: arena, Interner: in}
	cfg := &config.OptimizerConfig{Level: config.OptMinimal, IterationCap: 8}

	out, trail := optimizer.Run(m, statements, []optimizer.Pass{doubleLiterals{}}, cfg)

	result, ok := arena.Stmt(out[0]).(*luaast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt back")
	}
	doubled, ok := arena.Expr(result.Value).(*luaast.LiteralExpr)
	if !ok || doubled.Integer != 10 {
		t.Fatalf("expected literal doubled to 10, got %+v", doubled)
	}

	nonZeroIterations := 0
	for _, r := range trail {
		if r.Rewrites > 0 {
			nonZeroIterations++
		}
	}
	if nonZeroIterations != 1 {
		t.Fatalf("expected exactly one iteration to perform rewrites, got %d (trail=%+v)", nonZeroIterations, trail)
	}
}

func TestApplicableFiltersByLevel(t *testing.T) {
	passes := []optimizer.Pass{doubleLiterals{}}
	if len(optimizer.Applicable(passes, config.OptNone)) != 0 {
		t.Fatalf("expected no passes applicable at OptNone")
	}
	if len(optimizer.Applicable(passes, config.OptMinimal)) != 1 {
		t.Fatalf("expected the pass applicable at OptMinimal")
	}
}
