// Package sourcemap generates and consumes source-map-v3 documents mapping
// emitted Lua output positions back to LuaNext source positions.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/go-sourcemap/sourcemap"
)

// Mapping is one position correspondence between the original LuaNext
// source and the generated Lua output. GenLine, SourceLine and
// SourceColumn are 1-based to match ast.Span; GenColumn is the 0-based
// column the emitter tracks. Generate converts to source-map-v3's 0-based
// encoding.
type Mapping struct {
	GenLine      int
	GenColumn    int
	SourceLine   int
	SourceColumn int
	Name         string // "" if this mapping carries no identifier name
}

// Generator accumulates Mapping records during code generation and emits a
// source-map-v3 JSON document.
type Generator struct {
	file    string
	sources []string
	mappings []Mapping
}

// NewGenerator creates a Generator for one output file mapping back to a
// single source file.
func NewGenerator(outputFile, sourceFile string) *Generator {
	return &Generator{
		file:    outputFile,
		sources: []string{sourceFile},
		mappings: make([]Mapping, 0),
	}
}

// AddMapping records one position correspondence.
func (g *Generator) AddMapping(m Mapping) {
	g.mappings = append(g.mappings, m)
}

// document is the on-disk JSON shape of a source-map-v3 file.
type document struct {
	Version    int      `json:"version"`
	File       string   `json:"file"`
	SourceRoot string   `json:"sourceRoot"`
	Sources    []string `json:"sources"`
	Names      []string `json:"names"`
	Mappings   string   `json:"mappings"`
}

// Generate serializes the accumulated mappings into a source-map-v3 JSON
// document with base64-VLQ-encoded segments.
func (g *Generator) Generate() ([]byte, error) {
	sorted := make([]Mapping, len(g.mappings))
	copy(sorted, g.mappings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].GenLine != sorted[j].GenLine {
			return sorted[i].GenLine < sorted[j].GenLine
		}
		return sorted[i].GenColumn < sorted[j].GenColumn
	})

	names := make([]string, 0)
	nameIndex := make(map[string]int)
	for _, m := range sorted {
		if m.Name != "" {
			if _, ok := nameIndex[m.Name]; !ok {
				nameIndex[m.Name] = len(names)
				names = append(names, m.Name)
			}
		}
	}

	mappings, err := encodeMappings(sorted, nameIndex)
	if err != nil {
		return nil, err
	}

	doc := document{
		Version:  3,
		File:     g.file,
		Sources:  g.sources,
		Names:    names,
		Mappings: mappings,
	}
	return json.Marshal(doc)
}

// encodeMappings renders sorted Mapping records (already sorted by
// GenLine, GenColumn) into the "mappings" field: ";"-separated generated
// lines, each a ","-separated list of VLQ segments, every field other than
// generated-column delta-encoded against the previous segment's value
// within scope rules defined by the v3 spec (source index and line/column
// reset per-line only for generated column; source index, source line,
// source column and name index are cumulative across the whole document).
func encodeMappings(sorted []Mapping, nameIndex map[string]int) (string, error) {
	var out []byte
	prevGenLine := 1
	prevGenCol := 0
	prevSourceIndex := 0
	prevSourceLine := 0
	prevSourceCol := 0
	prevNameIndex := 0

	for i, m := range sorted {
		if m.GenLine < 1 || m.SourceLine < 1 {
			return "", fmt.Errorf("sourcemap: mapping %d has a non-positive line (gen=%d, source=%d)", i, m.GenLine, m.SourceLine)
		}
		for prevGenLine < m.GenLine {
			out = append(out, ';')
			prevGenLine++
			prevGenCol = 0
		}
		if i > 0 && sorted[i-1].GenLine == m.GenLine {
			out = append(out, ',')
		}

		out = encodeVLQ(out, m.GenColumn-prevGenCol)
		prevGenCol = m.GenColumn

		out = encodeVLQ(out, 0-prevSourceIndex) // single source: always index 0
		prevSourceIndex = 0

		srcLine0 := m.SourceLine - 1
		out = encodeVLQ(out, srcLine0-prevSourceLine)
		prevSourceLine = srcLine0

		srcCol0 := m.SourceColumn - 1
		out = encodeVLQ(out, srcCol0-prevSourceCol)
		prevSourceCol = srcCol0

		if m.Name != "" {
			idx := nameIndex[m.Name]
			out = encodeVLQ(out, idx-prevNameIndex)
			prevNameIndex = idx
		}
	}
	return string(out), nil
}

// Consumer wraps go-sourcemap's reader for looking up original positions
// from generated ones, used by tests to round-trip what Generate produced.
type Consumer struct {
	sm *sourcemap.Consumer
}

// NewConsumer parses a source-map-v3 JSON document.
func NewConsumer(data []byte) (*Consumer, error) {
	sm, err := sourcemap.Parse("", data)
	if err != nil {
		return nil, fmt.Errorf("sourcemap: failed to parse: %w", err)
	}
	return &Consumer{sm: sm}, nil
}

// Source looks up the original (file, line, column, name) for a 1-based
// generated position.
func (c *Consumer) Source(genLine, genColumn int) (file string, line, column int, name string, ok bool) {
	file, name, line, column, ok = c.sm.Source(genLine-1, genColumn-1)
	if !ok {
		return "", 0, 0, "", false
	}
	return file, line + 1, column + 1, name, true
}
