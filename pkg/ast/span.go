// Package ast defines LuaNext's arena-allocated abstract syntax tree.
//
// Every node lives in an Arena and is addressed by an integer id rather than
// a pointer: StmtId, ExprId, and TypeId index into the Arena's central
// vectors. A pass that rewrites a subtree allocates a fresh node in the
// arena and overwrites the id stored in the parent's field; the displaced
// node is simply unreachable from Program.Statements afterward, not freed.
// This is the portable equivalent of the source compiler's bump-arena +
// lifetime-parameter design (see DESIGN.md).
package ast

// Span is a half-open source range, 1-indexed like the rest of the pipeline's
// diagnostics.
type Span struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Join returns the smallest span covering both a and b. Used when a pass
// synthesizes a node from two existing ones (e.g. folding a binary op).
func (a Span) Join(b Span) Span {
	if a == (Span{}) {
		return b
	}
	if b == (Span{}) {
		return a
	}
	out := a
	if b.EndLine > out.EndLine || (b.EndLine == out.EndLine && b.EndCol > out.EndCol) {
		out.EndLine, out.EndCol = b.EndLine, b.EndCol
	}
	if b.StartLine < out.StartLine || (b.StartLine == out.StartLine && b.StartCol < out.StartCol) {
		out.StartLine, out.StartCol = b.StartLine, b.StartCol
	}
	return out
}
