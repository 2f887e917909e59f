package strategies

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// Lua54 targets Lua 5.4: same native-operator surface as 5.3 for this
// matrix (bitwise, integer divide), still goto-based continue.
type Lua54 struct{}

func (Lua54) Name() string { return "5.4" }

func (Lua54) BitwiseOp(op luaast.BinaryOp, left, right string) string {
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

func (Lua54) UnaryBitwiseNot(operand string) string {
	return fmt.Sprintf("(~%s)", operand)
}

func (Lua54) IntegerDivide(left, right string) string {
	return fmt.Sprintf("(%s // %s)", left, right)
}

func (Lua54) Continue(label string) string {
	if label != "" {
		return "goto __continue_" + label
	}
	return "goto __continue"
}

func (Lua54) SupportsNativeBitwise() bool      { return true }
func (Lua54) SupportsNativeIntegerDivide() bool { return true }
func (Lua54) SupportsGoto() bool                { return true }
func (Lua54) SupportsNativeContinue() bool      { return false }
func (Lua54) GlobalDeclarationPrefix() string   { return "" }

func (Lua54) Preamble() string { return "" }
