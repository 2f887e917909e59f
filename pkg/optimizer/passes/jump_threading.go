package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// JumpThreading collapses statement-level control flow whose condition is
// a literal: `if true/false` resolves to the taken branch's statements
// spliced in place, and a `while false` loop (which can never execute) is
// dropped entirely.
type JumpThreading struct{}

func (JumpThreading) Name() string                        { return "jump-threading" }
func (JumpThreading) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (p JumpThreading) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	return optimizer.RewriteAllStmtLists(arena, statements, p.thread)
}

func (JumpThreading) thread(arena *luaast.Arena, statements []luaast.StmtId) ([]luaast.StmtId, bool) {
	changed := false
	out := make([]luaast.StmtId, 0, len(statements))
	for _, sid := range statements {
		switch s := arena.Stmt(sid).(type) {
		case *luaast.IfStmt:
			if lit, ok := arena.Expr(s.Cond).(*luaast.LiteralExpr); ok && lit.Kind == luaast.LitBoolean && len(s.ElseIfs) == 0 {
				changed = true
				taken := s.ThenBlock
				if !lit.Bool {
					taken = s.ElseBlock
				}
				if taken != luaast.InvalidStmtId {
					if blk, ok := arena.Stmt(taken).(*luaast.BlockStmt); ok {
						out = append(out, blk.Statements...)
					}
				}
				continue
			}
		case *luaast.WhileStmt:
			if lit, ok := arena.Expr(s.Cond).(*luaast.LiteralExpr); ok && lit.Kind == luaast.LitBoolean && !lit.Bool {
				changed = true
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
