package driver

import "github.com/luanext/luanext/pkg/resolver"

// levelsOf groups a topological order into dependency levels: level 0 has
// no imports (within the retained set), level k depends only on modules
// in levels < k. Modules within a level have no edges between them, so
// compileModules can run an entire level concurrently while still
// compiling a module only after everything it imports.
func levelsOf(graph *resolver.Graph, order []string) [][]string {
	keep := make(map[string]bool, len(order))
	for _, path := range order {
		keep[path] = true
	}

	level := make(map[string]int, len(order))
	var levels [][]string

	for _, path := range order {
		maxDep := -1
		if node, ok := graph.Nodes[path]; ok {
			for _, edge := range node.Imports {
				if !keep[edge.To] {
					continue
				}
				if l, ok := level[edge.To]; ok && l > maxDep {
					maxDep = l
				}
			}
		}
		lvl := maxDep + 1
		level[path] = lvl
		for len(levels) <= lvl {
			levels = append(levels, nil)
		}
		levels[lvl] = append(levels[lvl], path)
	}

	return levels
}
