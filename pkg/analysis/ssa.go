package analysis

import luaast "github.com/luanext/luanext/pkg/ast"

// SsaVar is one versioned occurrence of a source variable: each original
// variable becomes a sequence of SsaVar(name, version).
type SsaVar struct {
	Name    luaast.StringId
	Version int
}

// PhiFunction merges incoming SSA versions of a variable at a join point,
// placed at dominance frontiers.
type PhiFunction struct {
	Block    BlockId
	Result   SsaVar
	Operands map[BlockId]SsaVar // predecessor block -> incoming version
}

// SsaForm is the per-function SSA construction result.
type SsaForm struct {
	Phis         []PhiFunction
	Definitions  map[SsaVar]luaast.StmtId // allocated empty; BuildSsaForm records no definitions in it
	versionCount map[luaast.StringId]int
}

// BuildSsaForm places phi-functions at dominance frontiers for every
// variable assigned in more than one block, numbering each phi's result
// and operands from a per-variable version counter. Ordinary assignments
// are not renamed and Definitions is left empty, so the result records
// where phis go, not a full versioning of every assignment. Phis are
// placed for every variable with multiple definitions rather than only
// those actually live across the join (minimal, not pruned, SSA).
func BuildSsaForm(cfg *ControlFlowGraph, dom *DominatorTree, arena *luaast.Arena) *SsaForm {
	form := &SsaForm{
		Definitions:  make(map[SsaVar]luaast.StmtId),
		versionCount: make(map[luaast.StringId]int),
	}

	defBlocks := make(map[luaast.StringId]map[BlockId]bool)
	for _, blk := range cfg.Blocks {
		for _, sid := range blk.Statements {
			name, ok := assignedName(arena, sid)
			if !ok {
				continue
			}
			if defBlocks[name] == nil {
				defBlocks[name] = make(map[BlockId]bool)
			}
			defBlocks[name][blk.Id] = true
		}
	}

	for name, blocks := range defBlocks {
		if len(blocks) < 2 {
			continue
		}
		frontierSet := make(map[BlockId]bool)
		worklist := make([]BlockId, 0, len(blocks))
		for b := range blocks {
			worklist = append(worklist, b)
		}
		placed := make(map[BlockId]bool)
		for len(worklist) > 0 {
			b := worklist[len(worklist)-1]
			worklist = worklist[:len(worklist)-1]
			for _, f := range dom.DominanceFrontier(cfg, b) {
				if !frontierSet[f] {
					frontierSet[f] = true
				}
				if !placed[f] {
					placed[f] = true
					form.versionCount[name]++
					result := SsaVar{Name: name, Version: form.versionCount[name]}
					operands := make(map[BlockId]SsaVar)
					for _, p := range predecessorsOf(cfg, f) {
						form.versionCount[name]++
						operands[p] = SsaVar{Name: name, Version: form.versionCount[name]}
					}
					form.Phis = append(form.Phis, PhiFunction{Block: f, Result: result, Operands: operands})
				}
			}
		}
	}

	return form
}

// assignedName reports the variable name assigned by a VarDeclStmt or a
// simple-identifier AssignStmt, if any.
func assignedName(arena *luaast.Arena, sid luaast.StmtId) (luaast.StringId, bool) {
	switch n := arena.Stmt(sid).(type) {
	case *luaast.VarDeclStmt:
		return n.Name, true
	case *luaast.AssignStmt:
		if id, ok := arena.Expr(n.Target).(*luaast.IdentifierExpr); ok {
			return id.Name, true
		}
	}
	return 0, false
}
