package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// ConstantFolding collapses arithmetic, comparison and boolean operators
// whose operands are both literals into a single literal.
type ConstantFolding struct{}

func (ConstantFolding) Name() string                        { return "constant-folding" }
func (ConstantFolding) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (p ConstantFolding) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	count := optimizer.RewriteAllExprs(arena, statements, p.rewrite)
	return statements, count
}

func (ConstantFolding) rewrite(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
	bin, ok := arena.Expr(id).(*luaast.BinaryExpr)
	if !ok {
		return id, false
	}
	lhs, lok := arena.Expr(bin.Left).(*luaast.LiteralExpr)
	rhs, rok := arena.Expr(bin.Right).(*luaast.LiteralExpr)
	if !lok || !rok {
		return id, false
	}

	if lhs.Kind == luaast.LitInteger && rhs.Kind == luaast.LitInteger {
		if v, ok := foldIntBinary(bin.Op, lhs.Integer, rhs.Integer); ok {
			return arena.NewExpr(&luaast.LiteralExpr{ExprMeta: bin.ExprMeta, Kind: luaast.LitInteger, Integer: v}), true
		}
		if v, ok := foldIntComparison(bin.Op, lhs.Integer, rhs.Integer); ok {
			return arena.NewExpr(&luaast.LiteralExpr{ExprMeta: bin.ExprMeta, Kind: luaast.LitBoolean, Bool: v}), true
		}
	}

	if (lhs.Kind == luaast.LitInteger || lhs.Kind == luaast.LitNumber) && (rhs.Kind == luaast.LitInteger || rhs.Kind == luaast.LitNumber) {
		lv := asFloat(lhs)
		rv := asFloat(rhs)
		if v, ok := foldFloatBinary(bin.Op, lv, rv); ok {
			return arena.NewExpr(&luaast.LiteralExpr{ExprMeta: bin.ExprMeta, Kind: luaast.LitNumber, Number: v}), true
		}
	}

	return id, false
}

func asFloat(lit *luaast.LiteralExpr) float64 {
	if lit.Kind == luaast.LitInteger {
		return float64(lit.Integer)
	}
	return lit.Number
}

func foldIntBinary(op luaast.BinaryOp, a, b int64) (int64, bool) {
	switch op {
	case luaast.OpAdd:
		return a + b, true
	case luaast.OpSub:
		return a - b, true
	case luaast.OpMul:
		return a * b, true
	case luaast.OpIntDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case luaast.OpMod:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case luaast.OpBitAnd:
		return a & b, true
	case luaast.OpBitOr:
		return a | b, true
	case luaast.OpBitXor:
		return a ^ b, true
	case luaast.OpShl:
		return a << uint(b), true
	case luaast.OpShr:
		return a >> uint(b), true
	}
	return 0, false
}

func foldIntComparison(op luaast.BinaryOp, a, b int64) (bool, bool) {
	switch op {
	case luaast.OpEq:
		return a == b, true
	case luaast.OpNotEq:
		return a != b, true
	case luaast.OpLt:
		return a < b, true
	case luaast.OpLtEq:
		return a <= b, true
	case luaast.OpGt:
		return a > b, true
	case luaast.OpGtEq:
		return a >= b, true
	}
	return false, false
}

func foldFloatBinary(op luaast.BinaryOp, a, b float64) (float64, bool) {
	switch op {
	case luaast.OpAdd:
		return a + b, true
	case luaast.OpSub:
		return a - b, true
	case luaast.OpMul:
		return a * b, true
	case luaast.OpDiv:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	}
	return 0, false
}
