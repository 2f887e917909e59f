package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// StringConcatOptimization drops a no-op `"" .. x` / `x .. ""` concat and
// folds two adjacent string-literal operands of `..` into one literal.
type StringConcatOptimization struct{}

func (StringConcatOptimization) Name() string                        { return "string-concat-optimization" }
func (StringConcatOptimization) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (p StringConcatOptimization) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	count := optimizer.RewriteAllExprs(m.Arena, statements, p.rewrite(m.Interner))
	return statements, count
}

func (StringConcatOptimization) rewrite(interner *luaast.StringInterner) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		bin, ok := arena.Expr(id).(*luaast.BinaryExpr)
		if !ok || bin.Op != luaast.OpConcat {
			return id, false
		}

		if isEmptyString(arena, interner, bin.Left) {
			return bin.Right, true
		}
		if isEmptyString(arena, interner, bin.Right) {
			return bin.Left, true
		}

		lhs, lok := arena.Expr(bin.Left).(*luaast.LiteralExpr)
		rhs, rok := arena.Expr(bin.Right).(*luaast.LiteralExpr)
		if lok && rok && lhs.Kind == luaast.LitString && rhs.Kind == luaast.LitString {
			merged := interner.Intern(interner.Resolve(lhs.String) + interner.Resolve(rhs.String))
			return arena.NewExpr(&luaast.LiteralExpr{ExprMeta: bin.ExprMeta, Kind: luaast.LitString, String: merged}), true
		}

		return id, false
	}
}

func isEmptyString(arena *luaast.Arena, interner *luaast.StringInterner, id luaast.ExprId) bool {
	lit, ok := arena.Expr(id).(*luaast.LiteralExpr)
	return ok && lit.Kind == luaast.LitString && interner.Resolve(lit.String) == ""
}
