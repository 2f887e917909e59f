package codegen_test

import (
	"strings"
	"testing"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/codegen"
	"github.com/luanext/luanext/pkg/codegen/strategies"
	"github.com/luanext/luanext/pkg/config"
	luaerrors "github.com/luanext/luanext/pkg/errors"
)

func newGen(t *testing.T, dialect config.Dialect) (*codegen.Generator, *luaast.Arena, *luaast.StringInterner) {
	t.Helper()
	strategy, err := strategies.For(dialect)
	if err != nil {
		t.Fatalf("strategies.For: %v", err)
	}
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	cfg := config.DefaultConfig()
	cfg.Target = dialect
	g := codegen.New(arena, in, strategy, cfg, "out.lua", "")
	return g, arena, in
}

func TestVarDeclAtTopLevelFollowsDialectGlobalConvention(t *testing.T) {
	g, arena, in := newGen(t, config.Lua55)
	lit := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 1})
	decl := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("x"), Value: lit})

	code, _, err := g.Generate([]luaast.StmtId{decl})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "global x = 1") {
		t.Fatalf("expected a `global` prefix under Lua 5.5, got: %q", code)
	}
}

func TestVarDeclAtTopLevelIsBareAssignmentPre55(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	lit := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 1})
	decl := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("x"), Value: lit})

	code, _, err := g.Generate([]luaast.StmtId{decl})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "x = 1") || strings.Contains(code, "local x") || strings.Contains(code, "global x") {
		t.Fatalf("expected a bare global assignment on 5.4, got: %q", code)
	}
}

func TestBitwiseOperatorRoutesThroughLua51Polyfill(t *testing.T) {
	g, arena, in := newGen(t, config.Lua51)
	a := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("a")})
	b := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("b")})
	and := arena.NewExpr(&luaast.BinaryExpr{Op: luaast.OpBitAnd, Left: a, Right: b})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: and})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "_bit_and(a, b)") {
		t.Fatalf("expected the pure-Lua bit polyfill call, got: %q", code)
	}
	if !strings.Contains(code, "function _bit_and") {
		t.Fatalf("expected the preamble to define _bit_and, got: %q", code)
	}
}

func TestBitwiseOperatorIsNativeOnLua54(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	a := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("a")})
	b := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("b")})
	and := arena.NewExpr(&luaast.BinaryExpr{Op: luaast.OpBitAnd, Left: a, Right: b})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: and})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "(a & b)") {
		t.Fatalf("expected a native `&` operator on 5.4, got: %q", code)
	}
}

func TestContinueLowersToBreakUnderRepeatUntilOnLua51(t *testing.T) {
	g, arena, _ := newGen(t, config.Lua51)
	cont := arena.NewStmt(&luaast.ContinueStmt{Label: luaast.InvalidStringId})
	body := arena.NewStmt(&luaast.BlockStmt{Statements: []luaast.StmtId{cont}})
	cond := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitBoolean, Bool: true})
	loop := arena.NewStmt(&luaast.WhileStmt{Cond: cond, Body: body})

	code, _, err := g.Generate([]luaast.StmtId{loop})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "repeat") || !strings.Contains(code, "until true") {
		t.Fatalf("expected continue's body wrapped in repeat/until true on 5.1, got: %q", code)
	}
	if strings.Count(code, "break") != 2 {
		t.Fatalf("expected exactly two breaks (the lowered continue and the post-repeat flag check), got: %q", code)
	}
}

func TestBreakSetsFlagUnderRepeatUntilOnLua51(t *testing.T) {
	g, arena, _ := newGen(t, config.Lua51)
	brk := arena.NewStmt(&luaast.BreakStmt{Label: luaast.InvalidStringId})
	body := arena.NewStmt(&luaast.BlockStmt{Statements: []luaast.StmtId{brk}})
	cond := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitBoolean, Bool: true})
	loop := arena.NewStmt(&luaast.WhileStmt{Cond: cond, Body: body})

	code, _, err := g.Generate([]luaast.StmtId{loop})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "= true") {
		t.Fatalf("expected break to set the loop's flag variable, got: %q", code)
	}
	if !strings.Contains(code, "if __luanext_tmp1 then break end") {
		t.Fatalf("expected the post-repeat flag check to break the real loop, got: %q", code)
	}
}

func TestClassDeclEmitsIndexSelfAndConstructor(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	cls := arena.NewStmt(&luaast.ClassDeclStmt{
		Name:    in.Intern("Point"),
		Extends: luaast.InvalidStringId,
		Members: []luaast.ClassMember{
			{Name: in.Intern("x"), Body: luaast.InvalidStmtId},
			{Name: in.Intern("y"), Body: luaast.InvalidStmtId},
		},
	})

	code, _, err := g.Generate([]luaast.StmtId{cls})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "Point.__index = Point") {
		t.Fatalf("expected __index = self idiom, got: %q", code)
	}
	if !strings.Contains(code, "function Point.new(") {
		t.Fatalf("expected a constructor, got: %q", code)
	}
}

func TestClassInheritanceWiresSetmetatable(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	cls := arena.NewStmt(&luaast.ClassDeclStmt{
		Name:    in.Intern("Child"),
		Extends: in.Intern("Base"),
	})

	code, _, err := g.Generate([]luaast.StmtId{cls})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "setmetatable(Child, { __index = Base })") {
		t.Fatalf("expected single-inheritance wiring, got: %q", code)
	}
}

func TestForwardDeclarationsPrecedeTwoOrMoreClasses(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	a := arena.NewStmt(&luaast.ClassDeclStmt{Name: in.Intern("A"), Extends: luaast.InvalidStringId})
	b := arena.NewStmt(&luaast.ClassDeclStmt{Name: in.Intern("B"), Extends: luaast.InvalidStringId})

	code, _, err := g.Generate([]luaast.StmtId{a, b})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "local A") || !strings.Contains(code, "local B") {
		t.Fatalf("expected forward declarations for both classes, got: %q", code)
	}
	if strings.Index(code, "local A") > strings.Index(code, "A = {}") {
		t.Fatalf("expected the forward declaration before the class body, got: %q", code)
	}
}

func TestEnumPlainVariantLowersToStringTag(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	enum := arena.NewStmt(&luaast.EnumDeclStmt{
		Name: in.Intern("Color"),
		Variants: []luaast.EnumVariant{
			{Name: in.Intern("Red"), Value: luaast.InvalidExprId},
			{Name: in.Intern("Blue"), Value: luaast.InvalidExprId},
		},
	})

	code, _, err := g.Generate([]luaast.StmtId{enum})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, `Color.Red = "Red"`) {
		t.Fatalf("expected a string-tag variant, got: %q", code)
	}
}

func TestRichEnumVariantLowersToConstructorFunction(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	enum := arena.NewStmt(&luaast.EnumDeclStmt{
		Name: in.Intern("Option"),
		Rich: true,
		Variants: []luaast.EnumVariant{
			{Name: in.Intern("Some"), Value: luaast.InvalidExprId, Args: []luaast.TypeId{arena.NewType(luaast.Primitives(luaast.PrimitiveAny))}},
			{Name: in.Intern("None"), Value: luaast.InvalidExprId},
		},
	})

	code, _, err := g.Generate([]luaast.StmtId{enum})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "Option.Some = function(a1)") {
		t.Fatalf("expected a constructor function for the tagged variant, got: %q", code)
	}
}

func TestInterfaceAndTypeAliasEmitNothing(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	iface := arena.NewStmt(&luaast.InterfaceDeclStmt{Name: in.Intern("Shape")})
	alias := arena.NewStmt(&luaast.TypeAliasDeclStmt{Name: in.Intern("ID"), Aliased: arena.NewType(luaast.Primitives(luaast.PrimitiveString))})

	code, _, err := g.Generate([]luaast.StmtId{iface, alias})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.TrimSpace(code) != "" {
		t.Fatalf("expected type-only declarations to emit nothing, got: %q", code)
	}
}

func TestOptionalChainAssignmentGuardsNilReceiver(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	obj := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("obj")})
	target := arena.NewExpr(&luaast.MemberExpr{Receiver: obj, Name: in.Intern("x"), Optional: true})
	value := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 1})
	assign := arena.NewStmt(&luaast.AssignStmt{Target: target, Value: value})

	code, _, err := g.Generate([]luaast.StmtId{assign})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "if obj ~= nil then") || !strings.Contains(code, "obj.x = 1") {
		t.Fatalf("expected a guarded assignment, got: %q", code)
	}
}

func TestImportRewritesThroughConfiguredAlias(t *testing.T) {
	strategy, _ := strategies.For(config.Lua54)
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	cfg := config.DefaultConfig()
	cfg.Alias["@/utils"] = "./src/utils"
	g := codegen.New(arena, in, strategy, cfg, "out.lua", "")

	imp := arena.NewStmt(&luaast.ImportStmt{
		Module:    in.Intern("@/utils/math"),
		Default:   in.Intern("mathUtils"),
		Namespace: luaast.InvalidStringId,
	})

	code, _, err := g.Generate([]luaast.StmtId{imp})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, `require("./src/utils/math")`) {
		t.Fatalf("expected the alias-resolved require path, got: %q", code)
	}
}

func TestNullCoalesceOnSimpleIdentifierUsesTernaryIdiom(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	a := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("a")})
	b := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("b")})
	nc := arena.NewExpr(&luaast.NullCoalesceExpr{Left: a, Right: b})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: nc})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "(a ~= nil and a or b)") {
		t.Fatalf("expected the short ternary idiom, got: %q", code)
	}
}

func TestErrorChainLowersToPcallIIFE(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	a := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("risky")})
	b := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 0})
	chain := arena.NewExpr(&luaast.ErrorChainExpr{Try: a, Recover: b})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: chain})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, "pcall(function()") {
		t.Fatalf("expected a pcall-based IIFE, got: %q", code)
	}
}

func TestInstanceofChecksMetatable(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	val := arena.NewExpr(&luaast.IdentifierExpr{Name: in.Intern("v")})
	inst := arena.NewExpr(&luaast.InstanceofExpr{Value: val, Class: in.Intern("Point")})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: inst})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(code, `getmetatable(v) == Point`) {
		t.Fatalf("expected a metatable-identity check, got: %q", code)
	}
}

func TestAdjacentTemplatePatternCapturesReportDiagnosticInsteadOfRuntimeError(t *testing.T) {
	g, arena, in := newGen(t, config.Lua54)
	handler := luaerrors.NewHandler()
	g.SetHandler(handler)

	scrutinee := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitString, String: in.Intern("test")})
	a := in.Intern("a")
	b := in.Intern("b")
	tp := arena.NewExpr(&luaast.TemplatePatternExpr{
		Literals: []luaast.StringId{in.Intern(""), luaast.InvalidStringId, in.Intern("")},
		Captures: []luaast.TemplatePatternCapture{{Name: a}, {Name: b}},
	})
	body := arena.NewExpr(&luaast.IdentifierExpr{Name: a})
	match := arena.NewExpr(&luaast.MatchExpr{
		Scrutinee: scrutinee,
		Arms: []luaast.MatchArm{
			{Kind: luaast.MatchArmTemplate, TemplateExpr: tp, Guard: luaast.InvalidExprId, Body: body},
		},
	})
	stmt := arena.NewStmt(&luaast.ExprStmt{Value: match})

	code, _, err := g.Generate([]luaast.StmtId{stmt})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(code, "Adjacent template pattern captures") {
		t.Fatalf("expected the adjacent-captures failure reported as a diagnostic, not emitted into the Lua, got: %q", code)
	}

	diags := handler.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("expected exactly one diagnostic reported, got %d", len(diags))
	}
	if diags[0].Kind != luaerrors.ParseError {
		t.Fatalf("expected a ParseError diagnostic, got %v", diags[0].Kind)
	}
	if !strings.Contains(diags[0].Message, "Adjacent template pattern captures") {
		t.Fatalf("expected the adjacent-captures message, got: %q", diags[0].Message)
	}
	if !handler.HasErrors() {
		t.Fatalf("expected handler.HasErrors() to report the failure")
	}
}

func TestSourceMapIsProducedWhenEnabled(t *testing.T) {
	strategy, _ := strategies.For(config.Lua54)
	arena := luaast.NewArena()
	in := luaast.NewStringInterner()
	cfg := config.DefaultConfig()
	cfg.Emit.SourceMap = true
	g := codegen.New(arena, in, strategy, cfg, "out.lua", "in.luax")

	lit := arena.NewExpr(&luaast.LiteralExpr{Kind: luaast.LitInteger, Integer: 1})
	decl := arena.NewStmt(&luaast.VarDeclStmt{Name: in.Intern("x"), Value: lit})

	_, sm, err := g.Generate([]luaast.StmtId{decl})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(sm) == 0 {
		t.Fatalf("expected a non-empty source map document")
	}
	if !strings.Contains(string(sm), `"version":3`) {
		t.Fatalf("expected a source-map-v3 document, got: %s", sm)
	}
}
