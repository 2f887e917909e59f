package codegen

import (
	"strings"

	"github.com/luanext/luanext/pkg/sourcemap"
)

// Format selects how generously the emitter whitespaces its output.
type Format int

const (
	// Minified disables all indentation and line breaks.
	Minified Format = iota
	// Compact uses a single space per indent level and keeps line breaks.
	Compact
	// Readable uses four-space indentation; selected by Emit.Pretty
	// (Compact is used otherwise).
	Readable
)

func (f Format) indentUnit() string {
	switch f {
	case Minified:
		return ""
	case Compact:
		return " "
	default:
		return "    "
	}
}

// Emitter is the low-level text writer every code-generation routine
// writes through. It tracks the current output line/column so that, when a
// source-map Generator is attached, every AST node's mapping is recorded
// at its actual emitted position rather than a predicted one.
type Emitter struct {
	buf    strings.Builder
	format Format
	indent int

	line int
	col  int

	sourceMap *sourcemap.Generator
}

// NewEmitter creates an Emitter for the given format. sm may be nil, in
// which case Mark is a no-op.
func NewEmitter(format Format, sm *sourcemap.Generator) *Emitter {
	return &Emitter{format: format, line: 1, col: 0, sourceMap: sm}
}

// Write appends raw text, advancing line/column bookkeeping for every
// character including embedded newlines.
func (e *Emitter) Write(s string) {
	for _, r := range s {
		if r == '\n' {
			e.line++
			e.col = 0
			continue
		}
		e.col++
	}
	e.buf.WriteString(s)
}

// Writeln appends text followed by a line break, except under Minified
// formatting where no line breaks are ever emitted (a single trailing
// space separates statements instead, to keep tokens from fusing).
func (e *Emitter) Writeln(s string) {
	e.Write(s)
	if e.format == Minified {
		e.Write(" ")
		return
	}
	e.Write("\n")
}

// Indent increases the indent level by one.
func (e *Emitter) Indent() { e.indent++ }

// Dedent decreases the indent level by one, floored at zero.
func (e *Emitter) Dedent() {
	if e.indent > 0 {
		e.indent--
	}
}

// WriteIndent writes the current indent level's worth of indent units.
// Under Minified formatting this writes nothing.
func (e *Emitter) WriteIndent() {
	if e.format == Minified {
		return
	}
	e.Write(strings.Repeat(e.format.indentUnit(), e.indent))
}

// Mark records a source-map mapping from (sourceLine, sourceColumn) to the
// emitter's current output position, optionally naming the identifier at
// this position. A no-op if no source-map Generator is attached.
func (e *Emitter) Mark(sourceLine, sourceColumn int, name string) {
	if e.sourceMap == nil {
		return
	}
	e.sourceMap.AddMapping(sourcemap.Mapping{
		GenLine:      e.line,
		GenColumn:    e.col,
		SourceLine:   sourceLine,
		SourceColumn: sourceColumn,
		Name:         name,
	})
}

// String returns the accumulated output.
func (e *Emitter) String() string { return e.buf.String() }

// Position returns the emitter's current 1-based line and 0-based column.
func (e *Emitter) Position() (line, col int) { return e.line, e.col }
