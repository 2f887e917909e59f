package resolver_test

import (
	"testing"

	"github.com/luanext/luanext/pkg/resolver"
)

func graphOf(edges map[string][]resolver.Edge) *resolver.Graph {
	g := &resolver.Graph{Nodes: make(map[string]*resolver.Node)}
	for path := range edges {
		g.Nodes[path] = &resolver.Node{Path: path}
	}
	for path, es := range edges {
		g.Nodes[path].Imports = es
		for _, e := range es {
			if target, ok := g.Nodes[e.To]; ok {
				target.ImportedBy = append(target.ImportedBy, path)
			}
		}
	}
	return g
}

func TestDetectCyclesFlagsValueCycleAsError(t *testing.T) {
	g := graphOf(map[string][]resolver.Edge{
		"a.luax": {{To: "b.luax"}},
		"b.luax": {{To: "a.luax"}},
	})

	cycles := resolver.DetectCycles(g)
	if len(cycles) == 0 {
		t.Fatalf("expected a detected cycle")
	}
	if err := resolver.ValueCycles(cycles); err == nil {
		t.Fatalf("expected a value cycle to be reported as an error")
	}
}

func TestDetectCyclesPermitsAllTypeOnlyCycle(t *testing.T) {
	g := graphOf(map[string][]resolver.Edge{
		"a.luax": {{To: "b.luax", TypeOnly: true}},
		"b.luax": {{To: "a.luax", TypeOnly: true}},
	})

	cycles := resolver.DetectCycles(g)
	if len(cycles) == 0 {
		t.Fatalf("expected the cycle to still be detected")
	}
	if err := resolver.ValueCycles(cycles); err != nil {
		t.Fatalf("expected an all-type-only cycle to be permitted, got: %v", err)
	}
}

func TestTopologicalOrderPlacesDependenciesFirst(t *testing.T) {
	g := graphOf(map[string][]resolver.Edge{
		"a.luax": {{To: "b.luax"}},
		"b.luax": {{To: "c.luax"}},
		"c.luax": {},
	})

	order := resolver.TopologicalOrder(g)
	index := make(map[string]int, len(order))
	for i, p := range order {
		index[p] = i
	}
	if index["c.luax"] > index["b.luax"] || index["b.luax"] > index["a.luax"] {
		t.Fatalf("expected c before b before a, got order: %v", order)
	}
}
