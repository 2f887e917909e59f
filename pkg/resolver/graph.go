package resolver

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// Edge is one resolved import out of a module. TypeOnly is true only when
// every binding the statement pulls in is type-only (`import type { ... }`
// or every named specifier marked `type`), since a cycle made up entirely
// of such edges compiles away before any `require()` call exists at
// runtime and is therefore safe to permit.
type Edge struct {
	To       string
	TypeOnly bool
}

// Node is one module's row in the dependency graph.
type Node struct {
	Path       string
	Imports    []Edge
	ImportedBy []string
}

// Graph is the whole-program module dependency graph: nodes are resolved
// module paths, edges are import/re-export statements.
type Graph struct {
	Nodes map[string]*Node
}

// ParsedModule is the minimal view of a parsed module the graph builder
// needs: its resolved path, the interner that gave its StringIds meaning,
// and its top-level statement list.
type ParsedModule struct {
	Path     string
	Interner *luaast.StringInterner
	Arena    *luaast.Arena
	Program  *luaast.Program
}

// BuildGraph extracts every import and re-export edge from each module's
// top-level statements, resolves each specifier via resolve, and assembles
// the dependency graph. An edge whose target resolve can't place on disk
// (an external package, or a specifier naming neither a relative path nor
// a configured alias) is simply omitted: the graph only tracks internal
// workspace dependencies.
func BuildGraph(modules []ParsedModule, resolve func(fromPath, specifier string) (string, bool, error)) (*Graph, error) {
	g := &Graph{Nodes: make(map[string]*Node, len(modules))}
	for _, m := range modules {
		g.Nodes[m.Path] = &Node{Path: m.Path}
	}

	for _, m := range modules {
		edges, err := extractEdges(m, resolve)
		if err != nil {
			return nil, fmt.Errorf("resolver: module %s: %w", m.Path, err)
		}
		node := g.Nodes[m.Path]
		for _, e := range edges {
			target, exists := g.Nodes[e.To]
			if !exists {
				continue
			}
			node.Imports = append(node.Imports, e)
			target.ImportedBy = append(target.ImportedBy, m.Path)
		}
	}

	return g, nil
}

func extractEdges(m ParsedModule, resolve func(string, string) (string, bool, error)) ([]Edge, error) {
	var edges []Edge
	for _, sid := range m.Program.Statements {
		switch st := m.Arena.Stmt(sid).(type) {
		case *luaast.ImportStmt:
			edge, ok, err := resolveEdge(m.Path, m.Interner.Resolve(st.Module), st.TypeOnly || allSpecifiersTypeOnly(st.Specifiers), resolve)
			if err != nil {
				return nil, err
			}
			if ok {
				edges = append(edges, edge)
			}
		case *luaast.ExportStmt:
			if st.Kind != luaast.ExportReExportNamed && st.Kind != luaast.ExportReExportAll {
				continue
			}
			edge, ok, err := resolveEdge(m.Path, m.Interner.Resolve(st.FromModule), st.TypeOnly || allSpecifiersTypeOnly(st.Specifiers), resolve)
			if err != nil {
				return nil, err
			}
			if ok {
				edges = append(edges, edge)
			}
		}
	}
	return edges, nil
}

func allSpecifiersTypeOnly(specs []luaast.ImportSpecifier) bool {
	if len(specs) == 0 {
		return false
	}
	for _, s := range specs {
		if !s.TypeOnly {
			return false
		}
	}
	return true
}

func resolveEdge(fromPath, specifier string, typeOnly bool, resolve func(string, string) (string, bool, error)) (Edge, bool, error) {
	target, ok, err := resolve(fromPath, specifier)
	if err != nil {
		return Edge{}, false, err
	}
	if !ok {
		return Edge{}, false, nil
	}
	return Edge{To: target, TypeOnly: typeOnly}, true, nil
}
