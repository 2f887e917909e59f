package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// operatorMethodNames maps a BinaryOp to the metamethod-style method name
// LuaX's `operator +(other: T): T { ... }` overload syntax lowers to on
// the class (mirroring the Lua metamethod names codegen emits into
// __add/__sub/etc. in the class's metatable).
var operatorMethodNames = map[luaast.BinaryOp]string{
	luaast.OpAdd: "__add",
	luaast.OpSub: "__sub",
	luaast.OpMul: "__mul",
	luaast.OpDiv: "__div",
	luaast.OpMod: "__mod",
	luaast.OpPow: "__pow",
}

// OperatorInlining replaces `a + b` (and the other overloadable operators)
// with the body of the class's operator method when a's static class is
// known and that method is a single `return <expr>` — the same shape
// FunctionInlining accepts for free functions.
type OperatorInlining struct{}

func (OperatorInlining) Name() string                        { return "operator-inlining" }
func (OperatorInlining) MinLevel() config.OptimizationLevel { return config.OptAggressive }

func (p OperatorInlining) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	classes := collectClasses(m.Arena, statements)
	count := optimizer.RewriteAllExprs(m.Arena, statements, p.rewrite(m.Interner, classes))
	return statements, count
}

func (OperatorInlining) rewrite(interner *luaast.StringInterner, classes map[luaast.StringId]*luaast.ClassDeclStmt) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		bin, ok := arena.Expr(id).(*luaast.BinaryExpr)
		if !ok {
			return id, false
		}
		methodName, overloadable := operatorMethodNames[bin.Op]
		if !overloadable {
			return id, false
		}
		leftMeta := arena.Expr(bin.Left).Meta()
		if leftMeta.ReceiverClass == luaast.InvalidStringId {
			return id, false
		}
		cls, ok := classes[leftMeta.ReceiverClass]
		if !ok {
			return id, false
		}
		nameId := interner.Intern(methodName)
		member, ok := findMethod(cls, nameId)
		if !ok || len(member.Params) != 1 {
			return id, false
		}
		blk, ok := arena.Stmt(member.Body).(*luaast.BlockStmt)
		if !ok || len(blk.Statements) != 1 {
			return id, false
		}
		ret, ok := arena.Stmt(blk.Statements[0]).(*luaast.ReturnStmt)
		if !ok || len(ret.Values) != 1 {
			return id, false
		}

		self := interner.Intern("self")
		subs := map[luaast.StringId]luaast.ExprId{
			self:                  bin.Left,
			member.Params[0].Name: bin.Right,
		}
		return substituteParams(arena, ret.Values[0], subs), true
	}
}

func findMethod(cls *luaast.ClassDeclStmt, name luaast.StringId) (*luaast.ClassMember, bool) {
	for i := range cls.Members {
		if cls.Members[i].IsMethod && cls.Members[i].Name == name {
			return &cls.Members[i], true
		}
	}
	return nil, false
}
