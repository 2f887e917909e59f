package codegen

import (
	"fmt"
	"strconv"
	"strings"

	luaast "github.com/luanext/luanext/pkg/ast"
	luaerrors "github.com/luanext/luanext/pkg/errors"
)

// matchText lowers a match expression to an IIFE: the scrutinee is
// evaluated once into a temp, then each arm is tried as an `if`/`elseif`
// chain, falling through to `error("no match")` if no arm and no
// catch-all `_` pattern applies.
func (g *Generator) matchText(m *luaast.MatchExpr) string {
	sub := g.subEmitter()
	scrutinee := sub.nextTemp()
	sub.emitter.Write("local " + scrutinee + " = " + g.exprText(m.Scrutinee) + " ")

	for i, arm := range m.Arms {
		keyword := "if"
		if i > 0 {
			keyword = "elseif"
		}
		cond, binding := g.matchArmCondition(scrutinee, arm)
		sub.emitter.Write(keyword + " " + cond + " then ")
		if binding != "" {
			sub.emitter.Write(binding + " ")
		}
		sub.emitter.Write("return " + g.exprText(arm.Body) + " ")
	}
	sub.emitter.Write("end ")
	sub.emitter.Write(`error("no match")`)
	return "(function() " + sub.emitter.String() + " end)()"
}

// matchArmCondition renders the boolean test for one match arm plus, for a
// template-pattern arm, the full `local a, b = string.match(...)` statement
// that binds its captures inside the arm's body. A guard (`if cond`) is
// conjoined into the test.
func (g *Generator) matchArmCondition(scrutinee string, arm luaast.MatchArm) (cond, binding string) {
	switch arm.Kind {
	case luaast.MatchArmTemplate:
		tp, ok := g.arena.Expr(arm.TemplateExpr).(*luaast.TemplatePatternExpr)
		if !ok {
			cond = "false"
		} else {
			cond, binding = g.templatePatternCondition(scrutinee, tp)
		}
	default:
		pattern := g.arena.Expr(arm.Pattern)
		if id, ok := pattern.(*luaast.IdentifierExpr); ok && g.name(id.Name) == "_" {
			cond = "true"
		} else {
			cond = scrutinee + " == " + g.exprText(arm.Pattern)
		}
	}

	if arm.Guard != luaast.InvalidExprId {
		cond = "(" + cond + ") and (" + g.exprText(arm.Guard) + ")"
	}
	return cond, binding
}

// templatePatternCondition lowers a backtick match-arm pattern to a
// `string.match` call against a Lua pattern built by escaping every literal
// segment's magic characters and inserting a `(.-)` capture group between
// each pair of literal segments. Captures must bind a simple identifier
// (TemplatePatternCapture carries only a name, so this is guaranteed by
// construction) and may not be adjacent — two captures with no literal
// text between them make the match ambiguous, since Lua patterns have no
// way to require a non-greedy boundary between two unbounded captures.
// Adjacency is a compile-time failure, reported through the Generator's
// Handler exactly like a type error rather than deferred into the emitted
// Lua as a runtime `error(...)` call: the arm condition still lowers to
// something syntactically inert (`false`, never matching) so the rest of
// the module keeps generating and other diagnostics in it still surface.
func (g *Generator) templatePatternCondition(scrutinee string, tp *luaast.TemplatePatternExpr) (cond, binding string) {
	for i := 0; i < len(tp.Captures)-1; i++ {
		if tp.Literals[i+1] == luaast.InvalidStringId || g.name(tp.Literals[i+1]) == "" {
			g.report(luaerrors.At(luaerrors.ParseError, g.path, tp.Meta().Span,
				"Adjacent template pattern captures have no literal text between them to anchor the match"))
			return "false", ""
		}
	}

	var pattern strings.Builder
	pattern.WriteString("^")
	for i, lit := range tp.Literals {
		pattern.WriteString(escapeLuaPattern(g.name(lit)))
		if i < len(tp.Captures) {
			pattern.WriteString("(.-)")
		}
	}
	pattern.WriteString("$")
	quoted := strconv.Quote(pattern.String())

	if len(tp.Captures) == 0 {
		return fmt.Sprintf("string.match(%s, %s) ~= nil", scrutinee, quoted), ""
	}

	names := make([]string, len(tp.Captures))
	for i, c := range tp.Captures {
		names[i] = g.name(c.Name)
	}
	cond = fmt.Sprintf("string.match(%s, %s) ~= nil", scrutinee, quoted)
	binding = fmt.Sprintf("local %s = string.match(%s, %s)", strings.Join(names, ", "), scrutinee, quoted)
	return cond, binding
}
