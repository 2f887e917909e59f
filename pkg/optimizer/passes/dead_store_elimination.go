package passes

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// DeadStoreElimination drops a `local x = <expr>` (non-const) declaration
// whose name is never referenced again anywhere later in the same
// statement list, turning the initializer into a bare ExprStmt if it may
// have side effects (a call anywhere in it), or removing it entirely
// otherwise.
//
// A name that SSA form ever assigns a phi to is reassigned along
// divergent control-flow paths somewhere in this function, so liveness
// for it falls back to a whole-list scan; every other name uses a
// tighter scan that stops the moment the same list level redeclares the
// name (a later use past that point belongs to the new binding, not the
// one under consideration).
type DeadStoreElimination struct{}

func (DeadStoreElimination) Name() string                        { return "dead-store-elimination" }
func (DeadStoreElimination) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (p DeadStoreElimination) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	var fa *analysis.FunctionAnalysis
	if m.Analysis != nil {
		fa = m.Analysis.TopLevel()
	}
	phid := phiAssignedNames(fa)
	return optimizer.RewriteAllStmtLists(arena, statements, func(arena *luaast.Arena, statements []luaast.StmtId) ([]luaast.StmtId, bool) {
		return eliminate(arena, statements, phid)
	})
}

func phiAssignedNames(fa *analysis.FunctionAnalysis) map[luaast.StringId]bool {
	out := make(map[luaast.StringId]bool)
	if fa == nil || fa.Ssa == nil {
		return out
	}
	for _, phi := range fa.Ssa.Phis {
		out[phi.Result.Name] = true
	}
	return out
}

func eliminate(arena *luaast.Arena, statements []luaast.StmtId, phid map[luaast.StringId]bool) ([]luaast.StmtId, bool) {
	changed := false
	out := make([]luaast.StmtId, 0, len(statements))
	for i, sid := range statements {
		if decl, ok := arena.Stmt(sid).(*luaast.VarDeclStmt); ok && !decl.Const {
			var live bool
			if phid[decl.Name] {
				live = referencesName(arena, statements, decl.Name)
			} else {
				live = referencesNameBeforeShadow(arena, statements[i+1:], decl.Name)
			}
			if !live {
				changed = true
				if mayHaveSideEffects(arena, decl.Value) {
					out = append(out, arena.NewStmt(&luaast.ExprStmt{Value: decl.Value}))
				}
				continue
			}
		}
		out = append(out, sid)
	}
	if !changed {
		return statements, false
	}
	return out, true
}

// referencesName reports whether name is read anywhere in statements,
// recursing into nested block bodies (if/while/for/repeat/function/try
// arms), unlike a single ExprFieldsOf sweep which only sees a
// statement's own top-level expression fields.
func referencesName(arena *luaast.Arena, statements []luaast.StmtId, name luaast.StringId) bool {
	for _, sid := range statements {
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, field := range optimizer.ExprFieldsOf(s) {
			if identifierReferences(arena, *field, name) {
				return true
			}
		}
		for _, nested := range optimizer.NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				if referencesName(arena, blk.Statements, name) {
					return true
				}
			}
		}
	}
	return false
}

// referencesNameBeforeShadow is referencesName bounded to stop scanning
// the moment this same list level redeclares name: everything past that
// point is a different SSA version and can't keep this declaration alive.
func referencesNameBeforeShadow(arena *luaast.Arena, statements []luaast.StmtId, name luaast.StringId) bool {
	for _, sid := range statements {
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, field := range optimizer.ExprFieldsOf(s) {
			if identifierReferences(arena, *field, name) {
				return true
			}
		}
		for _, nested := range optimizer.NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				if referencesName(arena, blk.Statements, name) {
					return true
				}
			}
		}
		if decl, ok := s.(*luaast.VarDeclStmt); ok && decl.Name == name {
			return false
		}
	}
	return false
}

func identifierReferences(arena *luaast.Arena, id luaast.ExprId, name luaast.StringId) bool {
	refs := make(map[luaast.StringId]bool)
	collectIdentifiers(arena, id, refs)
	return refs[name]
}

func collectIdentifiers(arena *luaast.Arena, id luaast.ExprId, into map[luaast.StringId]bool) {
	if id == luaast.InvalidExprId {
		return
	}
	switch e := arena.Expr(id).(type) {
	case *luaast.IdentifierExpr:
		into[e.Name] = true
	case *luaast.BinaryExpr:
		collectIdentifiers(arena, e.Left, into)
		collectIdentifiers(arena, e.Right, into)
	case *luaast.UnaryExpr:
		collectIdentifiers(arena, e.Operand, into)
	case *luaast.CallExpr:
		collectIdentifiers(arena, e.Callee, into)
		for _, a := range e.Args {
			collectIdentifiers(arena, a, into)
		}
	case *luaast.MemberExpr:
		collectIdentifiers(arena, e.Receiver, into)
	case *luaast.IndexExpr:
		collectIdentifiers(arena, e.Receiver, into)
		collectIdentifiers(arena, e.Index, into)
	case *luaast.MethodCallExpr:
		collectIdentifiers(arena, e.Receiver, into)
		for _, a := range e.Args {
			collectIdentifiers(arena, a, into)
		}
	case *luaast.ConditionalExpr:
		collectIdentifiers(arena, e.Cond, into)
		collectIdentifiers(arena, e.Then, into)
		collectIdentifiers(arena, e.Else, into)
	case *luaast.NullCoalesceExpr:
		collectIdentifiers(arena, e.Left, into)
		collectIdentifiers(arena, e.Right, into)
	}
}

// mayHaveSideEffects conservatively assumes any call expression can have a
// side effect, matching the worst-case default the analysis package's
// SideEffectInfo falls back to for unresolved callees.
func mayHaveSideEffects(arena *luaast.Arena, id luaast.ExprId) bool {
	switch e := arena.Expr(id).(type) {
	case *luaast.CallExpr, *luaast.MethodCallExpr:
		return true
	case *luaast.BinaryExpr:
		return mayHaveSideEffects(arena, e.Left) || mayHaveSideEffects(arena, e.Right)
	case *luaast.UnaryExpr:
		return mayHaveSideEffects(arena, e.Operand)
	}
	return false
}
