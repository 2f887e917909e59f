package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// SparseConditionalConstantPropagation propagates literal values bound by
// `const x = <literal>` to their uses within the same statement list (a
// variable reassigned anywhere in the list is never treated as constant,
// a conservative approximation of the lattice-based whole-function
// analysis the pass is named for) and resolves `if`/`while` conditions
// that fold to a known boolean once propagation is applied, via
// JumpThreading on the next fixed-point iteration.
type SparseConditionalConstantPropagation struct{}

func (SparseConditionalConstantPropagation) Name() string {
	return "sparse-conditional-constant-propagation"
}
func (SparseConditionalConstantPropagation) MinLevel() config.OptimizationLevel {
	return config.OptModerate
}

func (p SparseConditionalConstantPropagation) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	count := 0
	p.propagateRecursive(arena, statements, &count)
	return statements, count
}

func (p SparseConditionalConstantPropagation) propagateRecursive(arena *luaast.Arena, statements []luaast.StmtId, count *int) {
	constants := collectBlockConstants(arena, statements)
	for _, sid := range statements {
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, field := range optimizer.ExprFieldsOf(s) {
			*field = optimizer.RewriteExprTree(arena, *field, substituteConstants(constants), count)
		}
		for _, nested := range optimizer.NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				p.propagateRecursive(arena, blk.Statements, count)
			}
		}
	}
}

// collectBlockConstants finds every name declared `const` with a literal
// initializer and never targeted by an AssignStmt anywhere in the list.
func collectBlockConstants(arena *luaast.Arena, statements []luaast.StmtId) map[luaast.StringId]*luaast.LiteralExpr {
	candidates := make(map[luaast.StringId]*luaast.LiteralExpr)
	reassigned := make(map[luaast.StringId]bool)

	for _, sid := range statements {
		switch s := arena.Stmt(sid).(type) {
		case *luaast.VarDeclStmt:
			if s.Const {
				if lit, ok := arena.Expr(s.Value).(*luaast.LiteralExpr); ok {
					candidates[s.Name] = lit
				}
			}
		case *luaast.AssignStmt:
			if ident, ok := arena.Expr(s.Target).(*luaast.IdentifierExpr); ok {
				reassigned[ident.Name] = true
			}
		}
	}
	for name := range reassigned {
		delete(candidates, name)
	}
	return candidates
}

func substituteConstants(constants map[luaast.StringId]*luaast.LiteralExpr) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		ident, ok := arena.Expr(id).(*luaast.IdentifierExpr)
		if !ok {
			return id, false
		}
		lit, ok := constants[ident.Name]
		if !ok {
			return id, false
		}
		replacement := *lit
		replacement.ExprMeta = ident.ExprMeta
		return arena.NewExpr(&replacement), true
	}
}
