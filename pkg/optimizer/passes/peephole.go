package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// Peephole applies small local rewrites that constant folding and
// algebraic simplification don't cover on their own, chiefly collapsing a
// ConditionalExpr whose condition is a literal to whichever branch is
// taken.
type Peephole struct{}

func (Peephole) Name() string                        { return "peephole" }
func (Peephole) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (p Peephole) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	count := optimizer.RewriteAllExprs(arena, statements, p.rewrite)
	return statements, count
}

func (Peephole) rewrite(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
	switch e := arena.Expr(id).(type) {
	case *luaast.ConditionalExpr:
		if lit, ok := arena.Expr(e.Cond).(*luaast.LiteralExpr); ok && lit.Kind == luaast.LitBoolean {
			if lit.Bool {
				return e.Then, true
			}
			return e.Else, true
		}
	case *luaast.NullCoalesceExpr:
		if lit, ok := arena.Expr(e.Left).(*luaast.LiteralExpr); ok && lit.Kind == luaast.LitNil {
			return e.Right, true
		}
	}
	return id, false
}
