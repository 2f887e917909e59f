package passes

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// Devirtualization rewrites `receiver:method(args)` into a direct
// `ClassName.method(receiver, args)` call when the receiver's static class
// is known (ExprMeta.ReceiverClass, set by the type checker) and the
// whole-program class hierarchy guarantees the method actually reached
// via the generated __index metatable chain can't differ by runtime
// subclass: the method is Final, the class is Sealed, or no class
// anywhere in the compiled program extends it at all. That last case is
// what a single module's own class table could never answer on its own —
// a receiver's class, and any subclass of it, can be declared in a
// different module entirely.
type Devirtualization struct{}

func (Devirtualization) Name() string                        { return "devirtualization" }
func (Devirtualization) MinLevel() config.OptimizationLevel { return config.OptAggressive }

func (p Devirtualization) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	if m.WholeProgram == nil {
		return statements, 0
	}
	localClasses := collectClasses(m.Arena, statements)
	count := optimizer.RewriteAllExprs(m.Arena, statements, p.rewrite(m.Interner, m.WholeProgram.Classes, localClasses))
	return statements, count
}

// collectClasses indexes this module's own ClassDeclStmts by their
// StringId in this module's interner. The whole-program ClassHierarchy
// only carries name/sealed/final shape, not method bodies, so rewriting
// a call site still needs the local declaration to find the method's own
// StringId once the hierarchy has cleared the call for devirtualization.
func collectClasses(arena *luaast.Arena, statements []luaast.StmtId) map[luaast.StringId]*luaast.ClassDeclStmt {
	out := make(map[luaast.StringId]*luaast.ClassDeclStmt)
	for _, sid := range statements {
		if cls, ok := arena.Stmt(sid).(*luaast.ClassDeclStmt); ok {
			out[cls.Name] = cls
		}
	}
	return out
}

func (Devirtualization) rewrite(interner *luaast.StringInterner, hierarchy *analysis.ClassHierarchy, localClasses map[luaast.StringId]*luaast.ClassDeclStmt) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		call, ok := arena.Expr(id).(*luaast.MethodCallExpr)
		if !ok {
			return id, false
		}
		meta := arena.Expr(call.Receiver).Meta()
		if meta.ReceiverClass == luaast.InvalidStringId {
			return id, false
		}
		className := interner.Resolve(meta.ReceiverClass)
		methodName := interner.Resolve(call.Name)
		if !hierarchy.MethodResolvesStatically(className, methodName) {
			return id, false
		}

		cls, ok := localClasses[meta.ReceiverClass]
		if !ok {
			// The class is declared in another module: the hierarchy
			// already cleared the call for devirtualization, but there's
			// no local ClassMember to read a method StringId from, so
			// call through the receiver's own class-name identifier.
			classRef := arena.NewExpr(&luaast.IdentifierExpr{Name: meta.ReceiverClass})
			return rewriteCall(arena, call, classRef, call.Name), true
		}
		method, ok := lookupMethod(cls, call.Name)
		if !ok {
			return id, false
		}
		classRef := arena.NewExpr(&luaast.IdentifierExpr{Name: cls.Name})
		return rewriteCall(arena, call, classRef, method.Name), true
	}
}

func rewriteCall(arena *luaast.Arena, call *luaast.MethodCallExpr, classRef luaast.ExprId, methodName luaast.StringId) luaast.ExprId {
	callee := arena.NewExpr(&luaast.MemberExpr{Receiver: classRef, Name: methodName})
	args := make([]luaast.ExprId, 0, len(call.Args)+1)
	args = append(args, call.Receiver)
	args = append(args, call.Args...)
	return arena.NewExpr(&luaast.CallExpr{ExprMeta: call.ExprMeta, Callee: callee, Args: args})
}

func lookupMethod(cls *luaast.ClassDeclStmt, name luaast.StringId) (*luaast.ClassMember, bool) {
	for i := range cls.Members {
		m := &cls.Members[i]
		if m.IsMethod && m.Name == name {
			return m, true
		}
	}
	return nil, false
}
