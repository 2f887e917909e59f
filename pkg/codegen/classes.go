package codegen

import (
	"fmt"
	"strconv"
	"strings"

	luaast "github.com/luanext/luanext/pkg/ast"
)

// emitClassDecl lowers a class to a table acting as its own metatable:
// `__index = self` makes instance method/field lookups fall through to the
// class table, a `new` function builds instances and sets each declared
// field to nil, and single inheritance is wired with
// `setmetatable(Child, {__index = Base})` so an unresolved member on the
// child falls through to the parent class table in turn.
func (g *Generator) emitClassDecl(c *luaast.ClassDeclStmt) {
	name := g.name(c.Name)

	g.emitter.WriteIndent()
	g.emitter.Writeln(name + " = {}")
	g.emitter.WriteIndent()
	g.emitter.Writeln(name + ".__index = " + name)

	if c.Extends != luaast.InvalidStringId {
		base := g.name(c.Extends)
		g.emitter.WriteIndent()
		g.emitter.Writeln("setmetatable(" + name + ", { __index = " + base + " })")
	}

	var fields []luaast.ClassMember
	for _, m := range c.Members {
		if m.IsMethod {
			g.emitClassMethod(name, m)
		} else {
			fields = append(fields, m)
		}
	}

	g.emitConstructor(name, c, fields)
}

func (g *Generator) emitClassMethod(className string, m luaast.ClassMember) {
	g.emitter.WriteIndent()
	if m.Static {
		g.emitter.Write(fmt.Sprintf("function %s.%s(%s)", className, g.name(m.Name), g.paramList(m.Params)))
	} else {
		g.emitter.Write(fmt.Sprintf("function %s:%s(%s)", className, g.name(m.Name), g.paramList(m.Params)))
	}
	g.emitter.Writeln("")
	g.emitter.Indent()
	g.emitBody(m.Body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

// emitConstructor emits `ClassName.new(...)`: allocates the instance table
// with the class table as its metatable so method/field lookup falls
// through, then assigns nil to every declared field in declaration order.
// No field initializer values are emitted; fields start out nil.
func (g *Generator) emitConstructor(name string, c *luaast.ClassDeclStmt, fields []luaast.ClassMember) {
	g.emitter.WriteIndent()
	g.emitter.Writeln(fmt.Sprintf("function %s.new(...)", name))
	g.emitter.Indent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("local self = setmetatable({}, " + name + ")")

	if c.Extends != luaast.InvalidStringId {
		g.emitter.WriteIndent()
		g.emitter.Writeln(fmt.Sprintf("%s.new(self, ...)", g.name(c.Extends)))
	}

	for _, f := range fields {
		g.emitter.WriteIndent()
		g.emitter.Writeln("self." + g.name(f.Name) + " = nil")
	}

	g.emitter.WriteIndent()
	g.emitter.Writeln("return self")
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

// emitEnumDecl lowers an enum to a table with one key per variant. A plain
// enum's variants are opaque string tags; a rich (tagged-union) enum's
// variants become constructor functions returning `{ tag = Name, args... }`
// with a fresh `{ __index = Enum }` metatable attached to each constructed
// value.
func (g *Generator) emitEnumDecl(e *luaast.EnumDeclStmt) {
	name := g.name(e.Name)
	g.emitter.WriteIndent()
	g.emitter.Writeln(name + " = {}")

	for _, v := range e.Variants {
		variantName := g.name(v.Name)
		switch {
		case len(v.Args) > 0:
			g.emitRichVariant(name, variantName, v)
		case v.Value != luaast.InvalidExprId:
			g.emitter.WriteIndent()
			g.emitter.Writeln(fmt.Sprintf("%s.%s = %s", name, variantName, g.exprText(v.Value)))
		default:
			g.emitter.WriteIndent()
			g.emitter.Writeln(fmt.Sprintf("%s.%s = %s", name, variantName, strconv.Quote(variantName)))
		}
	}
}

func (g *Generator) emitRichVariant(enumName, variantName string, v luaast.EnumVariant) {
	params := make([]string, len(v.Args))
	for i := range v.Args {
		params[i] = fmt.Sprintf("a%d", i+1)
	}
	g.emitter.WriteIndent()
	g.emitter.Writeln(fmt.Sprintf("%s.%s = function(%s)", enumName, variantName, strings.Join(params, ", ")))
	g.emitter.Indent()
	g.emitter.WriteIndent()
	g.emitter.Writeln(fmt.Sprintf("return setmetatable({ tag = %s, args = { %s } }, { __index = %s })",
		strconv.Quote(variantName), strings.Join(params, ", "), enumName))
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

// typeCheckExpr renders a structural runtime-type-check expression for
// assertType<T> and the type-narrowing needed by match/instanceof style
// constructs. valueVar already names a local holding the evaluated value.
func (g *Generator) typeCheckExpr(valueVar string, tid luaast.TypeId) string {
	t := g.arena.Type(tid)
	if t == nil {
		return "true"
	}
	switch ty := t.(type) {
	case luaast.PrimitiveType:
		return g.primitiveCheck(valueVar, ty.Kind)
	case *luaast.PrimitiveType:
		return g.primitiveCheck(valueVar, ty.Kind)
	case *luaast.ArrayType, luaast.ArrayType:
		return "type(" + valueVar + ") == \"table\""
	case *luaast.ObjectType, luaast.ObjectType:
		return "type(" + valueVar + ") == \"table\""
	case *luaast.ClassRefType:
		return "type(" + valueVar + ") == \"table\" and getmetatable(" + valueVar + ") == " + g.name(ty.Class)
	case luaast.ClassRefType:
		return "type(" + valueVar + ") == \"table\" and getmetatable(" + valueVar + ") == " + g.name(ty.Class)
	case *luaast.UnionType:
		return g.unionCheck(valueVar, ty.Members)
	case luaast.UnionType:
		return g.unionCheck(valueVar, ty.Members)
	case *luaast.LiteralType:
		return g.literalTypeCheck(valueVar, *ty)
	case luaast.LiteralType:
		return g.literalTypeCheck(valueVar, ty)
	default:
		return "true"
	}
}

func (g *Generator) unionCheck(valueVar string, members []luaast.TypeId) string {
	parts := make([]string, len(members))
	for i, m := range members {
		parts[i] = "(" + g.typeCheckExpr(valueVar, m) + ")"
	}
	return strings.Join(parts, " or ")
}

func (g *Generator) literalTypeCheck(valueVar string, lt luaast.LiteralType) string {
	switch lt.Kind {
	case luaast.LiteralTypeString:
		return valueVar + " == " + strconv.Quote(g.name(lt.String))
	case luaast.LiteralTypeNumber:
		return valueVar + " == " + strconv.FormatFloat(lt.Number, 'g', -1, 64)
	case luaast.LiteralTypeBoolean:
		return valueVar + " == " + strconv.FormatBool(lt.Bool)
	}
	return "true"
}

func (g *Generator) primitiveCheck(valueVar string, kind luaast.PrimitiveKind) string {
	switch kind {
	case luaast.PrimitiveNil:
		return valueVar + " == nil"
	case luaast.PrimitiveBoolean:
		return "type(" + valueVar + ") == \"boolean\""
	case luaast.PrimitiveInteger:
		if g.strategy.SupportsNativeIntegerDivide() {
			return "math.type(" + valueVar + ") == \"integer\""
		}
		return "type(" + valueVar + ") == \"number\" and " + valueVar + " % 1 == 0"
	case luaast.PrimitiveNumber:
		return "type(" + valueVar + ") == \"number\""
	case luaast.PrimitiveString:
		return "type(" + valueVar + ") == \"string\""
	case luaast.PrimitiveAny, luaast.PrimitiveUnknown:
		return "true"
	case luaast.PrimitiveNever:
		return "false"
	default:
		return "true"
	}
}
