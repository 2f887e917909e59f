package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// AlgebraicSimplification rewrites x+0, 0+x and x-0 to x, x*1 and 1*x to
// x, x*0 and 0*x to 0 when the other operand has no side effects, and
// `not not not x` to `not x`. It does not collapse `not not x` and applies
// no boolean identities (`and`/`or` operands are left as written). Runs
// from OptMinimal.
type AlgebraicSimplification struct{}

func (AlgebraicSimplification) Name() string                        { return "algebraic-simplification" }
func (AlgebraicSimplification) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (p AlgebraicSimplification) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	count := optimizer.RewriteAllExprs(arena, statements, p.rewrite)
	return statements, count
}

func (AlgebraicSimplification) rewrite(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
	switch e := arena.Expr(id).(type) {
	case *luaast.BinaryExpr:
		if isZeroLiteral(arena, e.Right) && (e.Op == luaast.OpAdd || e.Op == luaast.OpSub) {
			return e.Left, true
		}
		if isZeroLiteral(arena, e.Left) && e.Op == luaast.OpAdd {
			return e.Right, true
		}
		if isOneLiteral(arena, e.Right) && e.Op == luaast.OpMul {
			return e.Left, true
		}
		if isOneLiteral(arena, e.Left) && e.Op == luaast.OpMul {
			return e.Right, true
		}
		if e.Op == luaast.OpMul && ((isZeroLiteral(arena, e.Left) && !mayHaveSideEffects(arena, e.Right)) ||
			(isZeroLiteral(arena, e.Right) && !mayHaveSideEffects(arena, e.Left))) {
			return zeroLiteral(arena, e.Meta().Span), true
		}
	case *luaast.UnaryExpr:
		if e.Op == luaast.OpNot {
			if inner, ok := arena.Expr(e.Operand).(*luaast.UnaryExpr); ok && inner.Op == luaast.OpNot {
				if innerOfInner, ok2 := arena.Expr(inner.Operand).(*luaast.UnaryExpr); ok2 && innerOfInner.Op == luaast.OpNot {
					return inner.Operand, true
				}
			}
		}
	}
	return id, false
}

func isZeroLiteral(arena *luaast.Arena, id luaast.ExprId) bool {
	lit, ok := arena.Expr(id).(*luaast.LiteralExpr)
	if !ok {
		return false
	}
	switch lit.Kind {
	case luaast.LitInteger:
		return lit.Integer == 0
	case luaast.LitNumber:
		return lit.Number == 0
	}
	return false
}

func isOneLiteral(arena *luaast.Arena, id luaast.ExprId) bool {
	lit, ok := arena.Expr(id).(*luaast.LiteralExpr)
	if !ok {
		return false
	}
	switch lit.Kind {
	case luaast.LitInteger:
		return lit.Integer == 1
	case luaast.LitNumber:
		return lit.Number == 1
	}
	return false
}

func zeroLiteral(arena *luaast.Arena, span luaast.Span) luaast.ExprId {
	meta := luaast.ExprMeta{Span: span, AnnotatedType: luaast.InvalidTypeId, ReceiverClass: luaast.InvalidStringId}
	return arena.NewExpr(&luaast.LiteralExpr{ExprMeta: meta, Kind: luaast.LitInteger, Integer: 0})
}
