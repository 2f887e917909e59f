package passes

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// CopyPropagation replaces uses of a variable bound by a simple `local x =
// y` with y directly, for as long as neither x nor y is written to again in
// the same statement list. A name SSA form ever gives a phi to is
// reassigned along divergent control-flow paths somewhere in this
// function, so binding a copy for it by name alone isn't sound — the
// name could mean a different incoming version depending on which path
// reached this point — and propagation skips establishing a copy for
// either side of such a name.
type CopyPropagation struct{}

func (CopyPropagation) Name() string                        { return "copy-propagation" }
func (CopyPropagation) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (p CopyPropagation) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	var fa *analysis.FunctionAnalysis
	if m.Analysis != nil {
		fa = m.Analysis.TopLevel()
	}
	phid := phiAssignedNames(fa)
	count := 0
	p.propagateRecursive(arena, statements, phid, &count)
	return statements, count
}

func (p CopyPropagation) propagateRecursive(arena *luaast.Arena, statements []luaast.StmtId, phid map[luaast.StringId]bool, count *int) {
	p.propagateList(arena, statements, phid, count)
	for _, sid := range statements {
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, nested := range optimizer.NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				p.propagateRecursive(arena, blk.Statements, phid, count)
			}
		}
	}
}

func (p CopyPropagation) propagateList(arena *luaast.Arena, statements []luaast.StmtId, phid map[luaast.StringId]bool, count *int) {
	copies := make(map[luaast.StringId]luaast.StringId)

	invalidate := func(name luaast.StringId) {
		delete(copies, name)
		for k, v := range copies {
			if v == name {
				delete(copies, k)
			}
		}
	}

	for _, sid := range statements {
		switch s := arena.Stmt(sid).(type) {
		case *luaast.VarDeclStmt:
			s.Value = optimizer.RewriteExprTree(arena, s.Value, p.substitute(copies), count)
			if id, ok := arena.Expr(s.Value).(*luaast.IdentifierExpr); ok && !phid[s.Name] && !phid[id.Name] {
				copies[s.Name] = id.Name
			} else {
				invalidate(s.Name)
			}
		case *luaast.AssignStmt:
			s.Value = optimizer.RewriteExprTree(arena, s.Value, p.substitute(copies), count)
			if target, ok := arena.Expr(s.Target).(*luaast.IdentifierExpr); ok {
				invalidate(target.Name)
			}
		default:
			for _, field := range optimizer.ExprFieldsOf(s) {
				*field = optimizer.RewriteExprTree(arena, *field, p.substitute(copies), count)
			}
		}
	}
}

func (CopyPropagation) substitute(copies map[luaast.StringId]luaast.StringId) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		ident, ok := arena.Expr(id).(*luaast.IdentifierExpr)
		if !ok {
			return id, false
		}
		if src, ok := copies[ident.Name]; ok {
			return arena.NewExpr(&luaast.IdentifierExpr{ExprMeta: ident.ExprMeta, Name: src}), true
		}
		return id, false
	}
}
