// Package codegen lowers an optimized LuaNext AST to textual Lua for a
// chosen dialect, optionally alongside a source map.
package codegen

import luaast "github.com/luanext/luanext/pkg/ast"

// Strategy is the per-dialect capability set the Generator consults for
// everything that differs across Lua 5.1–5.5 and LuaJIT: bitwise operators,
// integer division, continue, and how a bare top-level variable is
// declared.
type Strategy interface {
	Name() string

	// BitwiseOp lowers one of the six bitwise binary operators given the
	// already-rendered text of both operands.
	BitwiseOp(op luaast.BinaryOp, left, right string) string
	// UnaryBitwiseNot lowers `~x`.
	UnaryBitwiseNot(operand string) string
	// IntegerDivide lowers `a // b` (LuaNext's integer-divide operator).
	IntegerDivide(left, right string) string
	// Continue lowers a `continue` or `continue label` statement.
	Continue(label string) string

	// SupportsNativeBitwise reports whether the dialect has bitwise
	// operators in its grammar (5.3+) rather than needing a library call.
	SupportsNativeBitwise() bool
	// SupportsNativeIntegerDivide reports whether `//` exists natively.
	SupportsNativeIntegerDivide() bool
	// SupportsGoto reports whether `goto`/labels exist (5.2+).
	SupportsGoto() bool
	// SupportsNativeContinue reports whether `continue` is a keyword
	// (Lua 5.5 only); everything else needs a goto or repeat-until trick.
	SupportsNativeContinue() bool
	// GlobalDeclarationPrefix returns the keyword preceding a top-level
	// variable declaration meant to be a true global ("global " on 5.5,
	// "" — bare assignment — on every other dialect).
	GlobalDeclarationPrefix() string

	// Preamble returns the dialect's runtime polyfill, emitted once at
	// the top of the program before any require(), or "" if the dialect
	// needs none.
	Preamble() string
}
