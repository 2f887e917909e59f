package strategies

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// Lua53 targets Lua 5.3: native bitwise operators and native `//`, but
// continue still needs goto (no `continue` keyword until 5.5).
type Lua53 struct{}

func (Lua53) Name() string { return "5.3" }

func (Lua53) BitwiseOp(op luaast.BinaryOp, left, right string) string {
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

func (Lua53) UnaryBitwiseNot(operand string) string {
	return fmt.Sprintf("(~%s)", operand)
}

func (Lua53) IntegerDivide(left, right string) string {
	return fmt.Sprintf("(%s // %s)", left, right)
}

func (Lua53) Continue(label string) string {
	if label != "" {
		return "goto __continue_" + label
	}
	return "goto __continue"
}

func (Lua53) SupportsNativeBitwise() bool      { return true }
func (Lua53) SupportsNativeIntegerDivide() bool { return true }
func (Lua53) SupportsGoto() bool                { return true }
func (Lua53) SupportsNativeContinue() bool      { return false }
func (Lua53) GlobalDeclarationPrefix() string   { return "" }

func (Lua53) Preamble() string { return "" }
