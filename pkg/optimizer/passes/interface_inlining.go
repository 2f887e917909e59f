package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// InterfaceMethodInlining inlines an interface's default method body at a
// call site when the receiver's static class is known, the class
// implements that interface, and the class itself does not override the
// method — in Lua terms, the call would otherwise resolve through the
// class's __index chain up to a shared default-method table; when the
// receiver class is statically known there's no need to pay for that
// lookup.
type InterfaceMethodInlining struct{}

func (InterfaceMethodInlining) Name() string                        { return "interface-method-inlining" }
func (InterfaceMethodInlining) MinLevel() config.OptimizationLevel { return config.OptAggressive }

func (p InterfaceMethodInlining) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	classes := collectClasses(m.Arena, statements)
	interfaces := collectInterfaces(m.Arena, statements)
	count := optimizer.RewriteAllExprs(m.Arena, statements, p.rewrite(classes, interfaces))
	return statements, count
}

func collectInterfaces(arena *luaast.Arena, statements []luaast.StmtId) map[luaast.StringId]*luaast.InterfaceDeclStmt {
	out := make(map[luaast.StringId]*luaast.InterfaceDeclStmt)
	for _, sid := range statements {
		if iface, ok := arena.Stmt(sid).(*luaast.InterfaceDeclStmt); ok {
			out[iface.Name] = iface
		}
	}
	return out
}

func (InterfaceMethodInlining) rewrite(classes map[luaast.StringId]*luaast.ClassDeclStmt, interfaces map[luaast.StringId]*luaast.InterfaceDeclStmt) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		call, ok := arena.Expr(id).(*luaast.MethodCallExpr)
		if !ok {
			return id, false
		}
		meta := arena.Expr(call.Receiver).Meta()
		if meta.ReceiverClass == luaast.InvalidStringId {
			return id, false
		}
		cls, ok := classes[meta.ReceiverClass]
		if !ok {
			return id, false
		}
		if _, overridden := findMethod(cls, call.Name); overridden {
			return id, false
		}

		for _, ifaceName := range cls.Implements {
			iface, ok := interfaces[ifaceName]
			if !ok {
				continue
			}
			member, ok := findInterfaceDefault(iface, call.Name)
			if !ok || len(member.Params) != len(call.Args) {
				continue
			}
			blk, ok := arena.Stmt(member.Default).(*luaast.BlockStmt)
			if !ok || len(blk.Statements) != 1 {
				continue
			}
			ret, ok := arena.Stmt(blk.Statements[0]).(*luaast.ReturnStmt)
			if !ok || len(ret.Values) != 1 {
				continue
			}
			subs := make(map[luaast.StringId]luaast.ExprId, len(member.Params))
			for i, param := range member.Params {
				subs[param.Name] = call.Args[i]
			}
			return substituteParams(arena, ret.Values[0], subs), true
		}
		return id, false
	}
}

func findInterfaceDefault(iface *luaast.InterfaceDeclStmt, name luaast.StringId) (*luaast.InterfaceMember, bool) {
	for i := range iface.Members {
		m := &iface.Members[i]
		if m.IsMethod && m.Name == name && m.Default != luaast.InvalidStmtId {
			return m, true
		}
	}
	return nil, false
}
