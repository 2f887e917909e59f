package resolver

import "strings"

// Cycle is one circular import chain, the full path from the first module
// back to itself, plus whether every edge in it is type-only.
type Cycle struct {
	Path     []string
	AllTypes bool
}

// CycleError reports one or more value-import cycles found in the graph.
// A cycle made entirely of type-only edges is not an error: see
// DetectCycles.
type CycleError struct {
	Cycles []Cycle
}

func (e *CycleError) Error() string {
	chains := make([]string, len(e.Cycles))
	for i, c := range e.Cycles {
		chains[i] = strings.Join(c.Path, " -> ")
	}
	return "circular dependency detected:\n  " + strings.Join(chains, "\n  ")
}

// DetectCycles walks the graph depth-first looking for back edges. A cycle
// built entirely of type-only import edges is permitted — those imports
// erase to nothing at runtime, so there is no actual circular `require()`
// chain underneath them — and is simply reported, not treated as an error.
// Any cycle containing at least one value edge is a compile error, since
// Lua's `require` has no forward-reference mechanism for a module that
// hasn't finished returning its own export table yet.
func DetectCycles(g *Graph) []Cycle {
	var cycles []Cycle
	visited := make(map[string]bool)
	onStack := make(map[string]bool)
	var path []string
	var edgesTypeOnly []bool

	var visit func(node string)
	visit = func(node string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		n, exists := g.Nodes[node]
		if exists {
			for _, e := range n.Imports {
				edgesTypeOnly = append(edgesTypeOnly, e.TypeOnly)
				if !visited[e.To] {
					visit(e.To)
				} else if onStack[e.To] {
					start := 0
					for i, p := range path {
						if p == e.To {
							start = i
							break
						}
					}
					cyclePath := append(append([]string{}, path[start:]...), e.To)
					allTypes := true
					for _, t := range edgesTypeOnly[start:] {
						if !t {
							allTypes = false
							break
						}
					}
					cycles = append(cycles, Cycle{Path: cyclePath, AllTypes: allTypes})
				}
				edgesTypeOnly = edgesTypeOnly[:len(edgesTypeOnly)-1]
			}
		}

		path = path[:len(path)-1]
		onStack[node] = false
	}

	for node := range g.Nodes {
		if !visited[node] {
			visit(node)
		}
	}
	return cycles
}

// ValueCycles reports an error naming every cycle with at least one
// non-type-only edge, or nil if none exist.
func ValueCycles(cycles []Cycle) error {
	var bad []Cycle
	for _, c := range cycles {
		if !c.AllTypes {
			bad = append(bad, c)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return &CycleError{Cycles: bad}
}

// TopologicalOrder returns module paths in compile order: a module always
// appears after every module it imports. Uses Kahn's algorithm over the
// import edges (in-degree counts how many modules a node still waits on).
// If the graph contains a cycle, the cyclic modules are appended at the end
// in map-iteration order as a best-effort fallback; callers should run
// DetectCycles/ValueCycles first and fail the build rather than rely on
// this fallback for a graph with real value cycles.
func TopologicalOrder(g *Graph) []string {
	inDegree := make(map[string]int, len(g.Nodes))
	for path := range g.Nodes {
		inDegree[path] = 0
	}
	for _, n := range g.Nodes {
		inDegree[n.Path] += len(distinctTargets(n.Imports))
	}

	var queue []string
	for path, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, path)
		}
	}

	result := make([]string, 0, len(g.Nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, current)

		node, ok := g.Nodes[current]
		if !ok {
			continue
		}
		for _, dependent := range node.ImportedBy {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(g.Nodes) {
		seen := make(map[string]bool, len(result))
		for _, r := range result {
			seen[r] = true
		}
		for path := range g.Nodes {
			if !seen[path] {
				result = append(result, path)
			}
		}
	}

	return result
}

func distinctTargets(edges []Edge) []string {
	seen := make(map[string]bool, len(edges))
	var out []string
	for _, e := range edges {
		if !seen[e.To] {
			seen[e.To] = true
			out = append(out, e.To)
		}
	}
	return out
}
