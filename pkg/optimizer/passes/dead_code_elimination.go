package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// DeadCodeElimination truncates a statement list right after its first
// unconditional exit (return/break/continue/throw), since nothing after it
// in the same block can run: clone into a working buffer, stop at the
// first terminal statement, allocate a fresh slice only if the block
// actually shrank.
type DeadCodeElimination struct{}

func (DeadCodeElimination) Name() string                        { return "dead-code-elimination" }
func (DeadCodeElimination) MinLevel() config.OptimizationLevel { return config.OptMinimal }

func (p DeadCodeElimination) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	return optimizer.RewriteAllStmtLists(arena, statements, p.truncate)
}

func (DeadCodeElimination) truncate(arena *luaast.Arena, statements []luaast.StmtId) ([]luaast.StmtId, bool) {
	for i, sid := range statements {
		if isTerminal(arena.Stmt(sid)) && i+1 < len(statements) {
			out := make([]luaast.StmtId, i+1)
			copy(out, statements[:i+1])
			return out, true
		}
	}
	return statements, false
}

func isTerminal(s luaast.Stmt) bool {
	switch s.(type) {
	case *luaast.ReturnStmt, *luaast.BreakStmt, *luaast.ContinueStmt, *luaast.ThrowStmt:
		return true
	}
	return false
}
