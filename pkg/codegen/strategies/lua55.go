package strategies

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// Lua55 targets Lua 5.5: native bitwise/integer-divide, native `continue`
// keyword, and true lexical globals via the `global` keyword rather than a
// bare top-level assignment.
type Lua55 struct{}

func (Lua55) Name() string { return "5.5" }

func (Lua55) BitwiseOp(op luaast.BinaryOp, left, right string) string {
	switch op {
	case luaast.OpBitAnd:
		return fmt.Sprintf("(%s & %s)", left, right)
	case luaast.OpBitOr:
		return fmt.Sprintf("(%s | %s)", left, right)
	case luaast.OpBitXor:
		return fmt.Sprintf("(%s ~ %s)", left, right)
	case luaast.OpShl:
		return fmt.Sprintf("(%s << %s)", left, right)
	case luaast.OpShr:
		return fmt.Sprintf("(%s >> %s)", left, right)
	default:
		return fmt.Sprintf("--[[unsupported bitwise op]](%s, %s)", left, right)
	}
}

func (Lua55) UnaryBitwiseNot(operand string) string {
	return fmt.Sprintf("(~%s)", operand)
}

func (Lua55) IntegerDivide(left, right string) string {
	return fmt.Sprintf("(%s // %s)", left, right)
}

func (Lua55) Continue(label string) string {
	return "continue"
}

func (Lua55) SupportsNativeBitwise() bool      { return true }
func (Lua55) SupportsNativeIntegerDivide() bool { return true }
func (Lua55) SupportsGoto() bool                { return true }
func (Lua55) SupportsNativeContinue() bool      { return true }
func (Lua55) GlobalDeclarationPrefix() string   { return "global " }

func (Lua55) Preamble() string { return "" }
