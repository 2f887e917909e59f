// Package passes implements the per-module optimizer passes and is kept
// separate from pkg/optimizer to avoid a two-way import: optimizer owns
// the Pass contract and the rewrite/driver plumbing every pass is built
// from, and passes imports optimizer to implement it — never the reverse.
package passes

import "github.com/luanext/luanext/pkg/optimizer"

// All returns every statement-tree-scoped pass in declaration order. The
// four module-graph-scoped passes (dead import/export elimination,
// re-export flattening, unused module elimination) are invoked separately
// via RunModuleGraphPasses, since they operate on the whole-program
// analysis.ModuleGraph rather than one module's AST.
func All() []optimizer.Pass {
	return []optimizer.Pass{
		AlgebraicSimplification{},
		ConstantFolding{},
		DeadCodeElimination{},
		Peephole{},
		JumpThreading{},
		CopyPropagation{},
		CommonSubexpressionElimination{},
		SparseConditionalConstantPropagation{},
		DeadStoreElimination{},
		FunctionInlining{},
		LoopOptimization{},
		TailCallOptimization{},
		StringConcatOptimization{},
		TablePreallocation{},
		Devirtualization{},
		OperatorInlining{},
		InterfaceMethodInlining{},
		GenericSpecialization{},
		AggressiveInlining{},
	}
}
