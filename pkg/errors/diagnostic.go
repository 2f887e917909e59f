// Package errors provides the diagnostic types every pipeline stage
// reports through: a four-kind taxonomy (parse, type, internal, I/O),
// a rustc-style source-snippet formatter keyed by ast.Span instead of
// go/token, and a Handler that accumulates diagnostics across a whole
// compilation run without aborting on the first one.
package errors

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// Kind categorizes a Diagnostic for both display (a distinct header per
// kind) and control flow (a ParseError usually aborts that module's
// pipeline outright; a TypeError can be collected alongside others and
// reported together at the end of type-checking).
type Kind int

const (
	ParseError Kind = iota
	TypeError
	InternalError
	IOError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "Parse Error"
	case TypeError:
		return "Type Error"
	case InternalError:
		return "Internal Error"
	case IOError:
		return "I/O Error"
	default:
		return "Error"
	}
}

// Diagnostic is one reported problem: a message, the module and span it
// occurred at (Span is the zero value for a diagnostic with no useful
// source position, e.g. most IOError cases), and optional rustc-style
// trimmings (a hint, a suggested fix, or a list of missing items for an
// exhaustiveness failure).
type Diagnostic struct {
	Kind    Kind
	Message string
	Path    string
	Span    luaast.Span
	Hint    string
	Missing []string
	Cause   error
}

// New creates a bare diagnostic with no source position.
func New(kind Kind, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message}
}

// At attaches a module path and span to the diagnostic.
func At(kind Kind, path string, span luaast.Span, message string) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message, Path: path, Span: span}
}

// Wrap builds an InternalError or IOError diagnostic around a lower-level
// Go error, keeping it as Cause for %w-style unwrapping.
func Wrap(kind Kind, path string, cause error) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: cause.Error(), Path: path, Cause: cause}
}

// WithHint attaches a one-line suggested fix.
func (d *Diagnostic) WithHint(hint string) *Diagnostic {
	d.Hint = hint
	return d
}

// WithMissing attaches the list of missing match arms for a non-exhaustive
// match diagnostic.
func (d *Diagnostic) WithMissing(items []string) *Diagnostic {
	d.Missing = items
	return d
}

// Error implements the error interface with a compact one-line form;
// Format (in format.go) produces the full rustc-style rendering with a
// source snippet.
func (d *Diagnostic) Error() string {
	if d.Path != "" && d.Span.StartLine > 0 {
		return fmt.Sprintf("%s: %s:%d:%d: %s", d.Kind, d.Path, d.Span.StartLine, d.Span.StartCol, d.Message)
	}
	if d.Path != "" {
		return fmt.Sprintf("%s: %s: %s", d.Kind, d.Path, d.Message)
	}
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}

func (d *Diagnostic) Unwrap() error {
	return d.Cause
}
