package codegen

import (
	"fmt"
	"strconv"
	"strings"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// exprText renders an expression to inline Lua text. Rich control-flow
// expressions (match, try, error-chain, throw-in-expression-position) are
// rendered as immediately-invoked function-expression wrappers so they may
// appear anywhere a plain expression is legal.
//
// Source-map marks are recorded at statement granularity by emitStmt; a
// per-expression mark would require threading the live Emitter through
// every nested call below instead of building plain strings, which the
// IIFE-heavy lowerings here make impractical. Statement-level mappings are
// still enough to jump from a runtime error's line back to its source.
func (g *Generator) exprText(eid luaast.ExprId) string {
	e := g.arena.Expr(eid)
	if e == nil {
		return "nil"
	}

	switch ex := e.(type) {
	case *luaast.LiteralExpr:
		return g.literalText(ex)
	case *luaast.IdentifierExpr:
		return g.name(ex.Name)
	case *luaast.BinaryExpr:
		return g.binaryText(ex)
	case *luaast.UnaryExpr:
		return g.unaryText(ex)
	case *luaast.CallExpr:
		return g.callText(ex)
	case *luaast.MemberExpr:
		return g.memberText(ex)
	case *luaast.IndexExpr:
		return g.indexText(ex)
	case *luaast.MethodCallExpr:
		return g.methodCallText(ex)
	case *luaast.ObjectLiteralExpr:
		return g.objectLiteralText(ex)
	case *luaast.ArrayLiteralExpr:
		return g.arrayLiteralText(ex)
	case *luaast.ArrowFunctionExpr:
		return g.arrowText(ex)
	case *luaast.ConditionalExpr:
		return g.conditionalText(ex)
	case *luaast.PipeExpr:
		return fmt.Sprintf("%s(%s)", g.exprText(ex.Func), g.exprText(ex.Value))
	case *luaast.NullCoalesceExpr:
		return g.nullCoalesceText(ex)
	case *luaast.ErrorChainExpr:
		return g.errorChainText(ex)
	case *luaast.TryExpr:
		return g.tryExprText(ex)
	case *luaast.MatchExpr:
		return g.matchText(ex)
	case *luaast.TemplateLiteralExpr:
		return g.templateLiteralText(ex)
	case *luaast.TemplatePatternExpr:
		// Only meaningful inside a match arm; matchText handles it
		// directly rather than routing through exprText.
		return "nil"
	case *luaast.AssertTypeExpr:
		return g.assertTypeText(ex)
	case *luaast.AsExpr:
		// A type-level cast with no runtime behavior in Lua.
		return g.exprText(ex.Value)
	case *luaast.InstanceofExpr:
		return g.instanceofText(ex)
	default:
		return "nil"
	}
}

func (g *Generator) literalText(l *luaast.LiteralExpr) string {
	switch l.Kind {
	case luaast.LitNil:
		return "nil"
	case luaast.LitBoolean:
		return strconv.FormatBool(l.Bool)
	case luaast.LitInteger:
		return strconv.FormatInt(l.Integer, 10)
	case luaast.LitNumber:
		return strconv.FormatFloat(l.Number, 'g', -1, 64)
	case luaast.LitString:
		return strconv.Quote(g.name(l.String))
	default:
		return "nil"
	}
}

func (g *Generator) binaryText(b *luaast.BinaryExpr) string {
	left := g.exprText(b.Left)
	right := g.exprText(b.Right)

	switch b.Op {
	case luaast.OpBitAnd, luaast.OpBitOr, luaast.OpBitXor, luaast.OpShl, luaast.OpShr:
		return g.strategy.BitwiseOp(b.Op, left, right)
	case luaast.OpIntDiv:
		return g.strategy.IntegerDivide(left, right)
	case luaast.OpConcat:
		return "(" + left + " .. " + right + ")"
	case luaast.OpEq:
		return "(" + left + " == " + right + ")"
	case luaast.OpNotEq:
		return "(" + left + " ~= " + right + ")"
	case luaast.OpAnd:
		return "(" + left + " and " + right + ")"
	case luaast.OpOr:
		return "(" + left + " or " + right + ")"
	default:
		return "(" + left + " " + simpleBinaryOp(b.Op) + " " + right + ")"
	}
}

func simpleBinaryOp(op luaast.BinaryOp) string {
	switch op {
	case luaast.OpAdd:
		return "+"
	case luaast.OpSub:
		return "-"
	case luaast.OpMul:
		return "*"
	case luaast.OpDiv:
		return "/"
	case luaast.OpMod:
		return "%"
	case luaast.OpPow:
		return "^"
	case luaast.OpLt:
		return "<"
	case luaast.OpLtEq:
		return "<="
	case luaast.OpGt:
		return ">"
	case luaast.OpGtEq:
		return ">="
	default:
		return "?"
	}
}

func (g *Generator) unaryText(u *luaast.UnaryExpr) string {
	operand := g.exprText(u.Operand)
	switch u.Op {
	case luaast.OpNeg:
		return "(-" + operand + ")"
	case luaast.OpNot:
		return "(not " + operand + ")"
	case luaast.OpLen:
		return "(#" + operand + ")"
	case luaast.OpBitNot:
		return g.strategy.UnaryBitwiseNot(operand)
	default:
		return operand
	}
}

func (g *Generator) callText(c *luaast.CallExpr) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = g.exprText(a)
	}
	return g.exprText(c.Callee) + "(" + strings.Join(args, ", ") + ")"
}

func (g *Generator) memberText(m *luaast.MemberExpr) string {
	receiver := g.exprText(m.Receiver)
	if !m.Optional {
		return receiver + "." + g.name(m.Name)
	}
	// A bare read through `?.` not covered by the assignment-target
	// lowering in emitAssign: `(obj ~= nil and obj.field or nil)`.
	return "(" + receiver + " ~= nil and " + receiver + "." + g.name(m.Name) + " or nil)"
}

func (g *Generator) indexText(ix *luaast.IndexExpr) string {
	receiver := g.exprText(ix.Receiver)
	index := g.exprText(ix.Index)
	if !ix.Optional {
		return receiver + "[" + index + "]"
	}
	return "(" + receiver + " ~= nil and " + receiver + "[" + index + "] or nil)"
}

func (g *Generator) methodCallText(mc *luaast.MethodCallExpr) string {
	args := make([]string, len(mc.Args))
	for i, a := range mc.Args {
		args[i] = g.exprText(a)
	}
	receiver := g.exprText(mc.Receiver)
	call := receiver + ":" + g.name(mc.Name) + "(" + strings.Join(args, ", ") + ")"
	if !mc.Optional {
		return call
	}
	return "(" + receiver + " ~= nil and " + call + " or nil)"
}

func (g *Generator) objectLiteralText(o *luaast.ObjectLiteralExpr) string {
	if !hasSpread(o.Properties) {
		var b strings.Builder
		b.WriteString("{")
		for i, p := range o.Properties {
			if i > 0 {
				b.WriteString(", ")
			}
			g.writeObjectProperty(&b, p)
		}
		b.WriteString("}")
		return b.String()
	}

	// A spread property (`...rest`) has no table-constructor equivalent in
	// Lua, so a literal containing one is built imperatively inside an
	// IIFE: start from an empty table, copy each spread source's keys in
	// encounter order, then apply the literal's own keys last so they win
	// over anything a spread contributed, matching object-spread's
	// left-to-right, later-wins semantics.
	sub := g.subEmitter()
	tmp := sub.nextTemp()
	sub.emitter.Write("local " + tmp + " = {} ")
	for _, p := range o.Properties {
		if p.Kind == luaast.ObjectPropertySpread {
			k, v := sub.nextTemp(), sub.nextTemp()
			sub.emitter.Write(fmt.Sprintf("for %s, %s in pairs(%s) do %s[%s] = %s end ", k, v, g.exprText(p.Spread), tmp, k, v))
			continue
		}
		var b strings.Builder
		g.writeObjectProperty(&b, p)
		key, val := splitObjectAssign(b.String())
		sub.emitter.Write(tmp + "[" + key + "] = " + val + " ")
	}
	sub.emitter.Write("return " + tmp + " ")
	return "(function() " + sub.emitter.String() + "end)()"
}

func hasSpread(props []luaast.ObjectProperty) bool {
	for _, p := range props {
		if p.Kind == luaast.ObjectPropertySpread {
			return true
		}
	}
	return false
}

func (g *Generator) writeObjectProperty(b *strings.Builder, p luaast.ObjectProperty) {
	switch p.Kind {
	case luaast.ObjectPropertyRegular:
		b.WriteString("[" + strconv.Quote(g.name(p.Name)) + "] = " + g.exprText(p.Value))
	case luaast.ObjectPropertyComputed:
		b.WriteString("[" + g.exprText(p.KeyExpr) + "] = " + g.exprText(p.Value))
	}
}

// splitObjectAssign splits a "[key] = value" fragment produced by
// writeObjectProperty back into its two halves for the imperative-build
// path above, which needs to assign through a named temp table rather than
// a table-constructor entry.
func splitObjectAssign(fragment string) (key, value string) {
	idx := strings.Index(fragment, "] = ")
	if idx < 0 {
		return fragment, "nil"
	}
	return fragment[1:idx], fragment[idx+4:]
}

func (g *Generator) arrayLiteralText(a *luaast.ArrayLiteralExpr) string {
	var b strings.Builder
	b.WriteString("{")
	for i, el := range a.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		switch el.Kind {
		case luaast.ArrayElementRegular:
			b.WriteString(g.exprText(el.Value))
		case luaast.ArrayElementSpread:
			b.WriteString("table.unpack(" + g.exprText(el.Value) + ")")
		}
	}
	b.WriteString("}")
	return b.String()
}

func (g *Generator) arrowText(a *luaast.ArrowFunctionExpr) string {
	var b strings.Builder
	b.WriteString("function(" + g.paramList(a.Params) + ") ")

	sub := g.subEmitter()
	sub.emitBody(a.Body)
	b.WriteString(strings.TrimSpace(sub.emitter.String()))
	b.WriteString(" end")
	return b.String()
}

func (g *Generator) conditionalText(c *luaast.ConditionalExpr) string {
	return "(" + g.exprText(c.Cond) + " and " + g.exprText(c.Then) + " or " + g.exprText(c.Else) + ")"
}

// nullCoalesceText lowers `a ?? b`. A bare identifier or literal is
// rendered with the short ternary-style idiom; any other expression form
// (member/index reads included) is spilled to a temp inside an IIFE so `a`
// is evaluated once and so a falsy-but-non-nil `a` (0, false, "") is still
// returned correctly.
func (g *Generator) nullCoalesceText(n *luaast.NullCoalesceExpr) string {
	if isSimpleExpr(g.arena.Expr(n.Left)) {
		left := g.exprText(n.Left)
		return "(" + left + " ~= nil and " + left + " or " + g.exprText(n.Right) + ")"
	}

	sub := g.subEmitter()
	tmp := sub.nextTemp()
	sub.emitter.Write("local " + tmp + " = " + g.exprText(n.Left) + " ")
	sub.emitter.Write("if " + tmp + " ~= nil then return " + tmp + " end ")
	sub.emitter.Write("return " + g.exprText(n.Right) + " ")
	return "(function() " + sub.emitter.String() + "end)()"
}

func isSimpleExpr(e luaast.Expr) bool {
	switch e.(type) {
	case *luaast.IdentifierExpr, *luaast.LiteralExpr:
		return true
	default:
		return false
	}
}

// errorChainText lowers `a !! b`: evaluate a inside a protected call,
// falling back to b if a throws.
func (g *Generator) errorChainText(ec *luaast.ErrorChainExpr) string {
	sub := g.subEmitter()
	ok, val := sub.nextTemp(), sub.nextTemp()
	sub.emitter.Write(fmt.Sprintf("local %s, %s = pcall(function() return %s end) ", ok, val, g.exprText(ec.Try)))
	sub.emitter.Write(fmt.Sprintf("if %s then return %s end ", ok, val))
	sub.emitter.Write("return " + g.exprText(ec.Recover) + " ")
	return "(function() " + sub.emitter.String() + "end)()"
}

// tryExprText lowers `try expr` used in expression position: evaluate expr,
// returning nil instead of propagating a thrown error.
func (g *Generator) tryExprText(t *luaast.TryExpr) string {
	sub := g.subEmitter()
	ok, val := sub.nextTemp(), sub.nextTemp()
	sub.emitter.Write(fmt.Sprintf("local %s, %s = pcall(function() return %s end) ", ok, val, g.exprText(t.Inner)))
	sub.emitter.Write(fmt.Sprintf("if %s then return %s end ", ok, val))
	sub.emitter.Write("return nil ")
	return "(function() " + sub.emitter.String() + "end)()"
}

func (g *Generator) templateLiteralText(t *luaast.TemplateLiteralExpr) string {
	parts := make([]string, 0, len(t.Parts)*2)
	for _, p := range t.Parts {
		if text := g.name(p.Text); text != "" {
			parts = append(parts, strconv.Quote(text))
		}
		if p.Expr != luaast.InvalidExprId {
			parts = append(parts, "tostring(" + g.exprText(p.Expr) + ")")
		}
	}
	if len(parts) == 0 {
		return `""`
	}
	return "(" + strings.Join(parts, " .. ") + ")"
}

// assertTypeText lowers `assertType<T>(expr)`: evaluate expr once, check it
// structurally matches T's runtime shape, throw if not, otherwise return it.
func (g *Generator) assertTypeText(a *luaast.AssertTypeExpr) string {
	sub := g.subEmitter()
	tmp := sub.nextTemp()
	sub.emitter.Write("local " + tmp + " = " + g.exprText(a.Value) + " ")
	check := sub.typeCheckExpr(tmp, a.Target)
	sub.emitter.Write("if not (" + check + ") then error(\"assertType failed\") end ")
	sub.emitter.Write("return " + tmp + " ")
	return "(function() " + sub.emitter.String() + "end)()"
}

func (g *Generator) instanceofText(i *luaast.InstanceofExpr) string {
	value := g.exprText(i.Value)
	class := g.name(i.Class)
	return "(type(" + value + ") == \"table\" and getmetatable(" + value + ") == " + class + ")"
}

// subEmitter returns a nested Generator sharing this one's arena, interner,
// strategy and config, starting from a copy of its temp counter, but
// writing into a fresh Emitter —
// used by every IIFE lowering above so the wrapped body's statements can
// reuse emitStmt/emitBody without disturbing the enclosing emitter's
// position bookkeeping.
func (g *Generator) subEmitter() *Generator {
	return &Generator{
		arena:           g.arena,
		interner:        g.interner,
		strategy:        g.strategy,
		cfg:             g.cfg,
		emitter:         NewEmitter(Compact, nil),
		preambleWritten: true,
		tempCounter:     g.tempCounter,
	}
}
