package driver

import (
	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/optimizer/passes"
)

// ModuleEliminationSummary mirrors passes.ModuleEliminationResult with
// plain string dependency counts, suitable for a driver caller (CLI
// output, tests) that doesn't need the full analysis.ImportInfo/
// ExportInfo detail.
type ModuleEliminationSummary struct {
	SkippedModules     []string
	DroppedImportCount int
	DroppedExportCount int
	FlattenedReExports map[string][]string
}

// runModuleGraphPasses builds the whole-program analysis.ModuleGraph from
// every discovered module's import/export surface and runs dead-import
// elimination, dead-export elimination, re-export flattening and
// unused-module elimination over it in one pass each.
func (p *Pipeline) runModuleGraphPasses(modules map[string]*moduleRecord, entries []string) ModuleEliminationSummary {
	graph := analysis.NewModuleGraph()
	for path, rec := range modules {
		graph.AddNode(p.moduleNodeOf(path, rec))
	}
	graph.SetEntries(entries)

	result := passes.RunModuleGraphPasses(graph)

	dropped := 0
	for _, imports := range result.DroppedImports {
		dropped += len(imports)
	}
	exported := 0
	for _, exports := range result.DroppedExports {
		exported += len(exports)
	}

	return ModuleEliminationSummary{
		SkippedModules:     result.SkippedModules,
		DroppedImportCount: dropped,
		DroppedExportCount: exported,
		FlattenedReExports: result.FlattenedReExports,
	}
}

func (p *Pipeline) moduleNodeOf(path string, rec *moduleRecord) *analysis.ModuleNode {
	node := &analysis.ModuleNode{Path: path}

	specs := importSpecifiersOf(rec.parsed.Arena, rec.parsed.Interner, rec.parsed.Program)
	unreferenced := make(map[string]bool)
	if rec.check != nil {
		for _, spec := range rec.check.UnreferencedImportSpecifiers {
			unreferenced[spec] = true
		}
	}
	for _, spec := range specs {
		target, ok, err := p.resolver.Resolve(path, spec)
		if err != nil || !ok {
			continue // external or unresolvable; not part of the module graph
		}
		node.Imports = append(node.Imports, analysis.ImportInfo{
			FromModule: target,
			Referenced: !unreferenced[spec],
		})
	}

	node.ReExports = p.reExportsOf(path, rec)

	if rec.check != nil && rec.check.Exports != nil {
		unused := make(map[string]bool, len(rec.check.UnusedExportNames))
		for _, n := range rec.check.UnusedExportNames {
			unused[n] = true
		}
		in := rec.parsed.Interner
		for _, decl := range rec.check.Exports.Named {
			name := in.Resolve(decl.Name)
			node.Exports = append(node.Exports, analysis.ExportInfo{Name: name, Used: !unused[name]})
		}
		if rec.check.Exports.HasDefault && rec.check.Exports.Default != nil {
			name := in.Resolve(rec.check.Exports.Default.Name)
			node.Exports = append(node.Exports, analysis.ExportInfo{Name: name, Used: !unused[name]})
		}
	}

	return node
}

// reExportsOf collects `export { x } from M` and `export * from M` clauses
// as analysis.ReExportInfo, the input to re-export-chain flattening.
// FromModule is the resolved module path (matching the graph's node keys),
// not the raw specifier text.
func (p *Pipeline) reExportsOf(path string, rec *moduleRecord) []analysis.ReExportInfo {
	arena, in, prog := rec.parsed.Arena, rec.parsed.Interner, rec.parsed.Program
	var out []analysis.ReExportInfo
	for _, sid := range prog.Statements {
		st, ok := arena.Stmt(sid).(*luaast.ExportStmt)
		if !ok || st.FromModule == luaast.InvalidStringId {
			continue
		}
		spec := in.Resolve(st.FromModule)
		target, resolvedOK, err := p.resolver.Resolve(path, spec)
		if err != nil || !resolvedOK {
			continue
		}
		switch st.Kind {
		case luaast.ExportReExportAll:
			out = append(out, analysis.ReExportInfo{Kind: analysis.ReExportAll, FromModule: target})
		case luaast.ExportReExportNamed:
			names := make([]string, 0, len(st.Specifiers))
			for _, s := range st.Specifiers {
				names = append(names, in.Resolve(s.Name))
			}
			out = append(out, analysis.ReExportInfo{Kind: analysis.ReExportNamed, FromModule: target, Names: names})
		}
	}
	return out
}
