package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// selfRecursionUnrollDepth bounds how many times a self-recursive callee's
// own call sites are, in turn, inlined into the freshly-spliced copy
// before giving up and leaving the remaining call as a real call.
const selfRecursionUnrollDepth = 2

// AggressiveInlining inlines the same single `return <expr>` callees as
// FunctionInlining (it admits no larger bodies), but also admits
// self-recursive ones and unrolls them a bounded number of times, at the
// cost of code size, only once OptAggressive is selected.
type AggressiveInlining struct{}

func (AggressiveInlining) Name() string                        { return "aggressive-inlining" }
func (AggressiveInlining) MinLevel() config.OptimizationLevel { return config.OptAggressive }

func (p AggressiveInlining) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	callees := collectWideInlineCandidates(arena, statements)
	count := 0
	for depth := 0; depth <= selfRecursionUnrollDepth; depth++ {
		round := optimizer.RewriteAllExprs(arena, statements, inlineCall(callees))
		count += round
		if round == 0 {
			break
		}
	}
	return statements, count
}

// collectWideInlineCandidates is collectInlineCandidates without the
// self-recursion exclusion: a self-recursive single-return callee is still
// registered so its call sites can be unrolled a bounded number of times
// by the depth loop in Run, rather than rejected outright.
func collectWideInlineCandidates(arena *luaast.Arena, statements []luaast.StmtId) map[luaast.StringId]*luaast.FunctionDeclStmt {
	out := make(map[luaast.StringId]*luaast.FunctionDeclStmt)
	for _, sid := range statements {
		fn, ok := arena.Stmt(sid).(*luaast.FunctionDeclStmt)
		if !ok {
			continue
		}
		blk, ok := arena.Stmt(fn.Body).(*luaast.BlockStmt)
		if !ok || len(blk.Statements) != 1 {
			continue
		}
		ret, ok := arena.Stmt(blk.Statements[0]).(*luaast.ReturnStmt)
		if !ok || len(ret.Values) != 1 {
			continue
		}
		out[fn.Name] = fn
	}
	return out
}
