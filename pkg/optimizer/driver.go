package optimizer

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
)

// PassResult records one pass's contribution to a single fixed-point
// iteration, surfaced for diagnostics/tests rather than for control flow.
type PassResult struct {
	Pass      string
	Iteration int
	Rewrites  int
}

// Run drives every applicable pass to a fixed point: it repeats a full
// sweep over passes until one sweep performs zero total rewrites or the
// configured iteration cap is reached, whichever comes first. Passes never
// return an error; a pass that panics is a compiler bug and propagates
// straight out of Run rather than being recovered.
//
// m.Analysis is rebuilt from the statement tree at the start of every
// sweep, so SSA-based passes always see CFG/dominance/SSA/alias/side-
// effect data current for what the previous sweep actually rewrote,
// never a stale snapshot from before this Run call.
func Run(m *Module, statements []luaast.StmtId, passes []Pass, cfg *config.OptimizerConfig) ([]luaast.StmtId, []PassResult) {
	applicable := Applicable(passes, cfg.Level)
	var trail []PassResult

	cap := cfg.IterationCap
	if cap <= 0 {
		cap = 1
	}

	for iter := 1; iter <= cap; iter++ {
		ctx := analysis.NewAnalysisContext()
		ctx.Compute(m.Arena, statements)
		m.Analysis = ctx

		total := 0
		for _, p := range applicable {
			rewritten, count := p.Run(m, statements)
			trail = append(trail, PassResult{Pass: p.Name(), Iteration: iter, Rewrites: count})
			if count > 0 {
				statements = rewritten
				total += count
			}
		}
		if total == 0 {
			break
		}
	}

	return statements, trail
}
