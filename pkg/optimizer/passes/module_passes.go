package passes

import "github.com/luanext/luanext/pkg/analysis"

// Module-level passes operate on the whole-program analysis.ModuleGraph
// rather than a single module's statement tree, so they don't implement
// optimizer.Pass (whose Run signature is scoped to one module's AST); the
// driver invokes these directly, once per compilation, after discovery and
// type checking and before any module's per-statement passes run, so
// skipped modules are never optimized or emitted.

// ModuleEliminationResult summarizes what the four module-graph passes
// decided for one compilation.
type ModuleEliminationResult struct {
	// DroppedImports maps a module path to the import clauses it no
	// longer needs to emit (dead import elimination).
	DroppedImports map[string][]analysis.ImportInfo
	// DroppedExports maps a module path to the export wrappers it no
	// longer needs to emit; the underlying declarations are still
	// compiled (dead export elimination).
	DroppedExports map[string][]analysis.ExportInfo
	// FlattenedReExports maps a module path to the modules its wildcard
	// re-export chain ultimately resolves to (re-export flattening).
	FlattenedReExports map[string][]string
	// SkippedModules lists module paths unreachable from any entry point
	// (unused module elimination); entry points themselves are never
	// listed here even if nothing imports them.
	SkippedModules []string
}

// RunModuleGraphPasses applies dead import elimination, dead export
// elimination, re-export flattening and unused module elimination over
// the whole-program module graph in one pass each. The driver calls it
// only at OptModerate or above.
func RunModuleGraphPasses(graph *analysis.ModuleGraph) ModuleEliminationResult {
	result := ModuleEliminationResult{
		DroppedImports:     make(map[string][]analysis.ImportInfo),
		DroppedExports:     make(map[string][]analysis.ExportInfo),
		FlattenedReExports: make(map[string][]string),
	}

	reachable := graph.ReachableFromEntries()
	for path, node := range graph.Nodes {
		if !reachable[path] {
			result.SkippedModules = append(result.SkippedModules, path)
			continue
		}

		if unused := graph.UnreferencedImports(path); len(unused) > 0 {
			result.DroppedImports[path] = unused
		}
		if unused := graph.UnusedExports(path); len(unused) > 0 {
			result.DroppedExports[path] = unused
		}
		if len(node.ReExports) > 0 {
			if terminal := graph.FlattenReExportChain(path); len(terminal) > 0 && !(len(terminal) == 1 && terminal[0] == path) {
				result.FlattenedReExports[path] = terminal
			}
		}
	}

	return result
}
