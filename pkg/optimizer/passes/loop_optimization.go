package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// LoopOptimization is a registered placeholder: loop-invariant code motion
// and induction-variable simplification are not implemented. Kept as a
// registered, inert pass rather than dropped from the table, so the pass
// list and the fixed-point trail still name it; it never reports a
// rewrite.
type LoopOptimization struct{}

func (LoopOptimization) Name() string                        { return "loop-optimization" }
func (LoopOptimization) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (LoopOptimization) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	return statements, 0
}
