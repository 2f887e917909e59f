package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// GenericSpecialization is a registered no-op: true monomorphization of a
// generic function at each distinct type-argument signature would need the
// type checker's resolved type arguments, which this pass has no access to
// since types are erased before codegen. Kept as a placeholder pass for the
// same reason as LoopOptimization.
type GenericSpecialization struct{}

func (GenericSpecialization) Name() string                        { return "generic-specialization" }
func (GenericSpecialization) MinLevel() config.OptimizationLevel { return config.OptAggressive }

func (GenericSpecialization) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	return statements, 0
}
