package analysis

// DominatorTree is computed from a ControlFlowGraph by the standard
// iterative Cooper-Harvey-Kennedy algorithm.
type DominatorTree struct {
	idom             []BlockId // idom[b] = immediate dominator of b; idom[entry] = entry
	reversePostorder []BlockId
	postorderIndex   map[BlockId]int
}

// BuildDominatorTree runs the CHK fixed-point algorithm over cfg.
func BuildDominatorTree(cfg *ControlFlowGraph) *DominatorTree {
	n := len(cfg.Blocks)
	rpo := reversePostorder(cfg)
	rpoIndex := make(map[BlockId]int, n)
	for i, b := range rpo {
		rpoIndex[b] = i
	}

	idom := make([]BlockId, n)
	for i := range idom {
		idom[i] = InvalidBlockId
	}
	idom[cfg.Entry] = cfg.Entry

	preds := make([][]BlockId, n)
	for _, blk := range cfg.Blocks {
		for _, succ := range cfg.Successors(blk.Id) {
			preds[succ] = append(preds[succ], blk.Id)
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == cfg.Entry {
				continue
			}
			var newIdom BlockId = InvalidBlockId
			for _, p := range preds[b] {
				if idom[p] == InvalidBlockId {
					continue
				}
				if newIdom == InvalidBlockId {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, p)
			}
			if newIdom != InvalidBlockId && idom[b] != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}

	return &DominatorTree{idom: idom, reversePostorder: rpo, postorderIndex: rpoIndex}
}

func intersect(idom []BlockId, rpoIndex map[BlockId]int, a, b BlockId) BlockId {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(cfg *ControlFlowGraph) []BlockId {
	visited := make([]bool, len(cfg.Blocks))
	var post []BlockId

	var dfs func(b BlockId)
	dfs = func(b BlockId) {
		if b == InvalidBlockId || int(b) >= len(visited) || visited[b] {
			return
		}
		visited[b] = true
		for _, succ := range cfg.Successors(b) {
			dfs(succ)
		}
		post = append(post, b)
	}
	dfs(cfg.Entry)

	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}

// ImmediateDominator returns b's immediate dominator, or InvalidBlockId if
// b is unreachable.
func (t *DominatorTree) ImmediateDominator(b BlockId) BlockId {
	if int(b) >= len(t.idom) {
		return InvalidBlockId
	}
	return t.idom[b]
}

// Dominates reports whether a dominates b (every path from entry to b
// passes through a). A block unreachable from the entry has no immediate
// dominator, so no block dominates it and Dominates returns false.
func (t *DominatorTree) Dominates(a, b BlockId) bool {
	for b != InvalidBlockId {
		if b == a {
			return true
		}
		next := t.idom[b]
		if next == b {
			return a == b
		}
		b = next
	}
	return false
}

// DominanceFrontier computes the dominance frontier of b: the set of nodes
// where b's dominance ends, used to place SSA phi-functions.
func (t *DominatorTree) DominanceFrontier(cfg *ControlFlowGraph, b BlockId) []BlockId {
	var frontier []BlockId
	for _, n := range cfg.Blocks {
		preds := predecessorsOf(cfg, n.Id)
		for _, p := range preds {
			if t.Dominates(b, p) && !t.strictlyDominates(b, n.Id) {
				frontier = append(frontier, n.Id)
				break
			}
		}
	}
	return frontier
}

func (t *DominatorTree) strictlyDominates(a, b BlockId) bool {
	return a != b && t.Dominates(a, b)
}

func predecessorsOf(cfg *ControlFlowGraph, b BlockId) []BlockId {
	blk := cfg.Block(b)
	if blk == nil {
		return nil
	}
	return blk.Preds
}
