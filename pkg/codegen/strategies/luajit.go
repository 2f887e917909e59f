package strategies

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// LuaJIT targets LuaJIT: bitwise ops via the built-in bit.* library (no
// preamble needed, it ships with the runtime), no native integer divide,
// goto-based continue.
type LuaJIT struct{}

func (LuaJIT) Name() string { return "luajit" }

func (LuaJIT) BitwiseOp(op luaast.BinaryOp, left, right string) string {
	switch op {
	case luaast.OpBitAnd:
		return fmt.Sprintf("bit.band(%s, %s)", left, right)
	case luaast.OpBitOr:
		return fmt.Sprintf("bit.bor(%s, %s)", left, right)
	case luaast.OpBitXor:
		return fmt.Sprintf("bit.bxor(%s, %s)", left, right)
	case luaast.OpShl:
		return fmt.Sprintf("bit.lshift(%s, %s)", left, right)
	case luaast.OpShr:
		return fmt.Sprintf("bit.rshift(%s, %s)", left, right)
	default:
		return fmt.Sprintf("--[[unsupported bitwise op]](%s, %s)", left, right)
	}
}

func (LuaJIT) UnaryBitwiseNot(operand string) string {
	return fmt.Sprintf("bit.bnot(%s)", operand)
}

func (LuaJIT) IntegerDivide(left, right string) string {
	return fmt.Sprintf("math.floor(%s / %s)", left, right)
}

func (LuaJIT) Continue(label string) string {
	if label != "" {
		return "goto __continue_" + label
	}
	return "goto __continue"
}

func (LuaJIT) SupportsNativeBitwise() bool      { return false }
func (LuaJIT) SupportsNativeIntegerDivide() bool { return false }
func (LuaJIT) SupportsGoto() bool                { return true }
func (LuaJIT) SupportsNativeContinue() bool      { return false }
func (LuaJIT) GlobalDeclarationPrefix() string   { return "" }

func (LuaJIT) Preamble() string { return "" }
