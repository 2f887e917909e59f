package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// TailCallOptimization sets FunctionDeclStmt.IsTailPos when the function's
// body ends in `return <call>`. The codegen does not read the flag. It
// performs no AST restructuring of its own.
type TailCallOptimization struct{}

func (TailCallOptimization) Name() string                        { return "tail-call-optimization" }
func (TailCallOptimization) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (p TailCallOptimization) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	count := 0
	p.tagRecursive(arena, statements, &count)
	return statements, count
}

func (p TailCallOptimization) tagRecursive(arena *luaast.Arena, statements []luaast.StmtId, count *int) {
	for _, sid := range statements {
		fn, ok := arena.Stmt(sid).(*luaast.FunctionDeclStmt)
		if !ok {
			continue
		}
		blk, ok := arena.Stmt(fn.Body).(*luaast.BlockStmt)
		if !ok || len(blk.Statements) == 0 {
			continue
		}
		last := arena.Stmt(blk.Statements[len(blk.Statements)-1])
		ret, ok := last.(*luaast.ReturnStmt)
		if !ok || len(ret.Values) != 1 {
			continue
		}
		if _, isCall := arena.Expr(ret.Values[0]).(*luaast.CallExpr); isCall && !fn.IsTailPos {
			fn.IsTailPos = true
			*count++
		}
		p.tagRecursive(arena, blk.Statements, count)
	}
}
