// Package strategies implements one codegen.Strategy per target Lua
// dialect.
package strategies

import (
	"fmt"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// bitPreamble is the pure-Lua bitwise polyfill injected for dialects with
// no native bitwise operator and no built-in bit library (5.1 only).
const bitPreamble = `local function _bit_and(a, b)
  local r, p = 0, 1
  while a > 0 and b > 0 do
    local ba, bb = a % 2, b % 2
    if ba == 1 and bb == 1 then r = r + p end
    a, b, p = (a - ba) / 2, (b - bb) / 2, p * 2
  end
  return r
end
local function _bit_or(a, b)
  local r, p = 0, 1
  while a > 0 or b > 0 do
    local ba, bb = a % 2, b % 2
    if ba == 1 or bb == 1 then r = r + p end
    a, b, p = (a - ba) / 2, (b - bb) / 2, p * 2
  end
  return r
end
local function _bit_xor(a, b)
  local r, p = 0, 1
  while a > 0 or b > 0 do
    local ba, bb = a % 2, b % 2
    if ba ~= bb then r = r + p end
    a, b, p = (a - ba) / 2, (b - bb) / 2, p * 2
  end
  return r
end
local function _bit_not(a)
  return -a - 1
end
local function _bit_shl(a, n)
  return a * (2 ^ n)
end
local function _bit_shr(a, n)
  return math.floor(a / (2 ^ n))
end
`

// Lua51 targets vanilla Lua 5.1: no bitwise operators, no goto/labels, no
// native integer division.
type Lua51 struct{}

func (Lua51) Name() string { return "5.1" }

func (Lua51) BitwiseOp(op luaast.BinaryOp, left, right string) string {
	switch op {
	case luaast.OpBitAnd:
		return fmt.Sprintf("_bit_and(%s, %s)", left, right)
	case luaast.OpBitOr:
		return fmt.Sprintf("_bit_or(%s, %s)", left, right)
	case luaast.OpBitXor:
		return fmt.Sprintf("_bit_xor(%s, %s)", left, right)
	case luaast.OpShl:
		return fmt.Sprintf("_bit_shl(%s, %s)", left, right)
	case luaast.OpShr:
		return fmt.Sprintf("_bit_shr(%s, %s)", left, right)
	default:
		return fmt.Sprintf("--[[unsupported bitwise op]](%s, %s)", left, right)
	}
}

func (Lua51) UnaryBitwiseNot(operand string) string {
	return fmt.Sprintf("_bit_not(%s)", operand)
}

func (Lua51) IntegerDivide(left, right string) string {
	return fmt.Sprintf("math.floor(%s / %s)", left, right)
}

// Continue lowers via the standard `repeat ... until true` trick: the loop
// body is wrapped so that a `break` inside the once-around repeat skips to
// the enclosing loop's next iteration. The Generator is responsible for
// wrapping the body in the repeat/until; Continue itself just emits the
// inner break (5.1 has no goto to jump to a label instead).
func (Lua51) Continue(label string) string {
	return "break"
}

func (Lua51) SupportsNativeBitwise() bool      { return false }
func (Lua51) SupportsNativeIntegerDivide() bool { return false }
func (Lua51) SupportsGoto() bool                { return false }
func (Lua51) SupportsNativeContinue() bool      { return false }
func (Lua51) GlobalDeclarationPrefix() string   { return "" }

func (Lua51) Preamble() string { return bitPreamble }
