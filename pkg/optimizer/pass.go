// Package optimizer runs the fixed-point, arena-allocated pass pipeline
// over a single module's statements. Individual passes live in the
// sibling passes package and implement Pass; this package owns the
// pass-independent plumbing: the Pass contract, the level filter, the
// rewrite helpers every expression/statement pass is built from, and the
// fixed-point driver loop.
package optimizer

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
)

// Module bundles the per-compilation-unit state a pass needs: the arena
// owning every node a pass touches, the string interner backing every
// StringId a pass resolves to actual text, the per-module CFG/SSA/alias/
// side-effect bundle (rebuilt by Run at the start of every fixed-point
// sweep so it always reflects the statement tree about to be rewritten),
// and the whole-program class hierarchy and cross-module side-effect
// summary built once, sequentially, ahead of the per-module worker pool
// and shared read-only by every module's Pass thereafter.
type Module struct {
	Arena        *luaast.Arena
	Interner     *luaast.StringInterner
	Analysis     *analysis.AnalysisContext
	WholeProgram *analysis.WholeProgramAnalysis
}

// Pass is one optimizer transformation. Run is applied once per
// fixed-point iteration to the whole module and returns the number of
// individual rewrites it performed; the driver treats a pass's panic as a
// compiler bug (never recovered) and a returned zero as "no more work to
// do this iteration".
type Pass interface {
	Name() string
	MinLevel() config.OptimizationLevel
	Run(m *Module, statements []luaast.StmtId) (newStatements []luaast.StmtId, count int)
}

// Applicable filters passes down to those whose minimum level is at or
// below the configured optimization level.
func Applicable(passes []Pass, level config.OptimizationLevel) []Pass {
	out := make([]Pass, 0, len(passes))
	for _, p := range passes {
		if level >= p.MinLevel() {
			out = append(out, p)
		}
	}
	return out
}
