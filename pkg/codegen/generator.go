package codegen

import (
	"fmt"
	"strings"

	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	luaerrors "github.com/luanext/luanext/pkg/errors"
	"github.com/luanext/luanext/pkg/sourcemap"
)

// Generator lowers one module's optimized AST to textual Lua for a target
// dialect. One Generator instance is scoped to a single module; a
// compilation with multiple modules creates one Generator per module so
// that they may run concurrently (the arena and interner are read-only by
// the time codegen runs).
type Generator struct {
	arena    *luaast.Arena
	interner *luaast.StringInterner
	strategy Strategy
	cfg      *config.Config
	path     string
	handler  *luaerrors.Handler

	emitter         *Emitter
	preambleWritten bool
	tempCounter     int

	// loopFlags is a stack of break-flag variable names, one per enclosing
	// loop currently being emitted under a dialect with neither goto nor a
	// native continue keyword (Lua 5.1 only). See emitLoopBody.
	loopFlags []string
}

// New creates a Generator. sourceFile names the original LuaNext file for
// source-map "sources" entries; pass "" to disable source-map tracking.
func New(arena *luaast.Arena, interner *luaast.StringInterner, strategy Strategy, cfg *config.Config, outputFile, sourceFile string) *Generator {
	format := Readable
	if cfg.Emit.Minified {
		format = Minified
	} else if !cfg.Emit.Pretty {
		format = Compact
	}

	var sm *sourcemap.Generator
	if cfg.Emit.SourceMap && sourceFile != "" {
		sm = sourcemap.NewGenerator(outputFile, sourceFile)
	}

	return &Generator{
		arena:    arena,
		interner: interner,
		strategy: strategy,
		cfg:      cfg,
		path:     sourceFile,
		emitter:  NewEmitter(format, sm),
	}
}

// SetHandler attaches the diagnostic sink codegen reports genuine
// compile-time failures through (a match arm that can never be lowered to
// a runnable Lua pattern, for instance). A Generator with no handler
// attached silently drops such diagnostics rather than panicking, so
// existing callers that never call SetHandler keep their prior behavior
// until they opt in.
func (g *Generator) SetHandler(h *luaerrors.Handler) {
	g.handler = h
}

func (g *Generator) report(d *luaerrors.Diagnostic) {
	if g.handler != nil {
		g.handler.Report(d)
	}
}

// Generate lowers a module's top-level statements to Lua source text. If
// source maps are enabled, the second return is the source-map-v3 JSON
// document; otherwise it is nil.
func (g *Generator) Generate(statements []luaast.StmtId) (string, []byte, error) {
	g.emitPreamble()
	g.emitStmtList(statements, true)

	code := g.emitter.String()
	if g.emitter.sourceMap == nil {
		return code, nil, nil
	}
	data, err := g.emitter.sourceMap.Generate()
	if err != nil {
		return code, nil, fmt.Errorf("codegen: generating source map: %w", err)
	}
	return code, data, nil
}

func (g *Generator) name(id luaast.StringId) string {
	if id == luaast.InvalidStringId {
		return ""
	}
	return g.interner.Resolve(id)
}

func (g *Generator) nextTemp() string {
	g.tempCounter++
	return fmt.Sprintf("__luanext_tmp%d", g.tempCounter)
}

func (g *Generator) emitPreamble() {
	if g.preambleWritten {
		return
	}
	g.preambleWritten = true
	if p := g.strategy.Preamble(); p != "" {
		g.emitter.Write(p)
	}
}

// emitStmtList renders every statement in order, inserting forward
// declarations ahead of any run of two-or-more class declarations in the
// same list so that an earlier class's methods may reference a later one.
func (g *Generator) emitStmtList(statements []luaast.StmtId, topLevel bool) {
	g.emitForwardDeclarations(statements)
	for _, sid := range statements {
		g.emitStmt(sid, topLevel)
	}
}

func (g *Generator) emitForwardDeclarations(statements []luaast.StmtId) {
	var classNames []string
	for _, sid := range statements {
		if cls, ok := g.arena.Stmt(sid).(*luaast.ClassDeclStmt); ok {
			classNames = append(classNames, g.name(cls.Name))
		}
	}
	if len(classNames) < 2 {
		return
	}
	for _, n := range classNames {
		g.emitter.WriteIndent()
		g.emitter.Writeln("local " + n)
	}
}

func (g *Generator) markStmt(s luaast.Stmt) {
	span := s.Meta().Span
	g.emitter.Mark(span.StartLine, span.StartCol, "")
}

func (g *Generator) markExpr(e luaast.Expr, name string) {
	span := e.Meta().Span
	g.emitter.Mark(span.StartLine, span.StartCol, name)
}

// emitStmt renders one statement. topLevel distinguishes a module-scope
// variable declaration (subject to the dialect's global-declaration
// convention) from one nested inside a function or block (always local).
func (g *Generator) emitStmt(sid luaast.StmtId, topLevel bool) {
	s := g.arena.Stmt(sid)
	if s == nil {
		return
	}
	g.markStmt(s)

	switch st := s.(type) {
	case *luaast.VarDeclStmt:
		g.emitVarDecl(st, topLevel)
	case *luaast.AssignStmt:
		g.emitAssign(st)
	case *luaast.FunctionDeclStmt:
		g.emitFunctionDecl(st)
	case *luaast.ClassDeclStmt:
		g.emitClassDecl(st)
	case *luaast.InterfaceDeclStmt:
		// Type-only; emits nothing.
	case *luaast.TypeAliasDeclStmt:
		// Type-only; emits nothing.
	case *luaast.EnumDeclStmt:
		g.emitEnumDecl(st)
	case *luaast.ImportStmt:
		g.emitImport(st)
	case *luaast.ExportStmt:
		g.emitExport(st)
	case *luaast.IfStmt:
		g.emitIf(st)
	case *luaast.WhileStmt:
		g.emitWhile(st)
	case *luaast.RepeatStmt:
		g.emitRepeat(st)
	case *luaast.ForStmt:
		g.emitFor(st)
	case *luaast.ReturnStmt:
		g.emitReturn(st)
	case *luaast.BreakStmt:
		g.emitBreak(st)
	case *luaast.ContinueStmt:
		g.emitter.WriteIndent()
		if !g.strategy.SupportsGoto() && len(g.loopFlags) > 0 {
			// Under the flag-based emulation (see emitLoopBody), a
			// continue is just the inner repeat-until's escape hatch.
			g.emitter.Writeln("break")
		} else {
			g.emitter.Writeln(g.strategy.Continue(g.name(st.Label)))
		}
	case *luaast.ThrowStmt:
		g.emitter.WriteIndent()
		g.emitter.Writeln("error(" + g.exprText(st.Value) + ")")
	case *luaast.TryStmt:
		g.emitTryStmt(st)
	case *luaast.LabeledStmt:
		g.emitStmt(st.Body, topLevel)
		if g.strategy.SupportsGoto() {
			g.emitter.WriteIndent()
			g.emitter.Writeln("::__break_" + g.name(st.Label) + "::")
		}
	case *luaast.ExprStmt:
		g.emitter.WriteIndent()
		g.emitter.Writeln(g.exprText(st.Value))
	case *luaast.BlockStmt:
		g.emitStmtList(st.Statements, false)
	}
}

// emitBreak renders a break statement. An unlabeled break inside a loop
// being emulated with the flag trick (see emitLoopBody) must also set that
// loop's flag before breaking the inner repeat-until, so the wrapper can
// tell a real break apart from a continue once control returns to it.
func (g *Generator) emitBreak(st *luaast.BreakStmt) {
	g.emitter.WriteIndent()
	if st.Label != luaast.InvalidStringId {
		if g.strategy.SupportsGoto() {
			g.emitter.Writeln("goto __break_" + g.name(st.Label))
		} else {
			// Labeled break out of a non-innermost loop has no
			// goto-free encoding; unsupported on dialects without goto
			// (Lua 5.1). Falls back to the innermost loop's flag, which
			// is only correct when the label names that same loop.
			g.emitUnlabeledBreak()
		}
		return
	}
	g.emitUnlabeledBreak()
}

func (g *Generator) emitUnlabeledBreak() {
	if !g.strategy.SupportsGoto() && len(g.loopFlags) > 0 {
		flag := g.loopFlags[len(g.loopFlags)-1]
		g.emitter.Write(flag + " = true ")
	}
	g.emitter.Writeln("break")
}

// emitLoopBody renders a loop's body statements, honoring continue/break
// semantics for the active dialect. Dialects with goto or a native
// continue keyword need nothing special: emitLoopContinueLabel already
// places the `::__continue::` label, and break means break. Lua 5.1 has
// neither, so the body is wrapped in `repeat ... until true`: a continue
// lowers to a bare `break` that only escapes the repeat, landing back in
// the enclosing loop for its next iteration, while a real break sets a
// flag before doing the same, and the code emitted after the repeat
// checks that flag to break the actual enclosing loop.
func (g *Generator) emitLoopBody(body luaast.StmtId) {
	if g.strategy.SupportsGoto() {
		g.emitBody(body)
		g.emitLoopContinueLabel()
		return
	}
	if g.strategy.SupportsNativeContinue() {
		g.emitBody(body)
		return
	}

	flag := g.nextTemp()
	g.loopFlags = append(g.loopFlags, flag)
	g.emitter.WriteIndent()
	g.emitter.Writeln("local " + flag + " = false")
	g.emitter.WriteIndent()
	g.emitter.Writeln("repeat")
	g.emitter.Indent()
	g.emitBody(body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("until true")
	g.loopFlags = g.loopFlags[:len(g.loopFlags)-1]

	g.emitter.WriteIndent()
	g.emitter.Writeln("if " + flag + " then break end")
}

// emitVarDecl renders a variable declaration. Nested declarations always
// use `local`; a true top-level declaration follows the dialect's global
// convention — Lua 5.5 uses an explicit `global` keyword, every earlier
// dialect relies on a bare assignment implicitly creating a global, so no
// keyword precedes it at all.
func (g *Generator) emitVarDecl(st *luaast.VarDeclStmt, topLevel bool) {
	g.emitter.WriteIndent()
	prefix := "local "
	if topLevel {
		prefix = g.strategy.GlobalDeclarationPrefix()
	}
	if st.Value == luaast.InvalidExprId {
		if prefix == "" {
			// A bare `name` with no assignment declares nothing in Lua;
			// nothing to do for a global with no initializer.
			return
		}
		g.emitter.Writeln(prefix + g.name(st.Name))
		return
	}
	g.emitter.Writeln(prefix + g.name(st.Name) + " = " + g.exprText(st.Value))
}

func (g *Generator) emitAssign(st *luaast.AssignStmt) {
	target := g.arena.Expr(st.Target)

	if opt, ok := optionalReceiver(target); ok {
		g.emitOptionalChainAssign(st, opt)
		return
	}

	g.emitter.WriteIndent()
	targetText := g.exprText(st.Target)
	g.emitter.Writeln(targetText + " = " + g.compoundRHS(targetText, st.Op, st.Value))
}

// compoundRHS renders the right-hand side of an assignment, desugaring a
// compound operator (`+=`, `..=`, ...) into `target <op> value` since Lua
// has no compound assignment operators of its own.
func (g *Generator) compoundRHS(targetText string, op luaast.AssignOp, value luaast.ExprId) string {
	valueText := g.exprText(value)
	switch op {
	case luaast.AssignAdd:
		return targetText + " + " + valueText
	case luaast.AssignSub:
		return targetText + " - " + valueText
	case luaast.AssignMul:
		return targetText + " * " + valueText
	case luaast.AssignDiv:
		return targetText + " / " + valueText
	case luaast.AssignConcat:
		return targetText + " .. " + valueText
	default:
		return valueText
	}
}

// optionalReceiver reports whether e is a MemberExpr/IndexExpr using `?.`
// safe navigation, returning its receiver expression.
func optionalReceiver(e luaast.Expr) (luaast.ExprId, bool) {
	switch t := e.(type) {
	case *luaast.MemberExpr:
		if t.Optional {
			return t.Receiver, true
		}
	case *luaast.IndexExpr:
		if t.Optional {
			return t.Receiver, true
		}
	}
	return luaast.InvalidExprId, false
}

// emitOptionalChainAssign lowers `obj?.x = v` to
// `if obj ~= nil then obj.x = v end`, spilling obj to a temp first when it
// is not already a bare identifier, to avoid evaluating a complex receiver
// expression twice.
func (g *Generator) emitOptionalChainAssign(st *luaast.AssignStmt, receiver luaast.ExprId) {
	receiverText := g.exprText(receiver)
	rewrittenTarget := receiverText

	if _, simple := g.arena.Expr(receiver).(*luaast.IdentifierExpr); !simple {
		tmp := g.nextTemp()
		g.emitter.WriteIndent()
		g.emitter.Writeln("local " + tmp + " = " + receiverText)
		rewrittenTarget = tmp
	}

	suffix := ""
	switch t := g.arena.Expr(st.Target).(type) {
	case *luaast.MemberExpr:
		suffix = "." + g.name(t.Name)
	case *luaast.IndexExpr:
		suffix = "[" + g.exprText(t.Index) + "]"
	}
	fullTarget := rewrittenTarget + suffix

	g.emitter.WriteIndent()
	g.emitter.Writeln("if " + rewrittenTarget + " ~= nil then")
	g.emitter.Indent()
	g.emitter.WriteIndent()
	g.emitter.Writeln(fullTarget + " = " + g.compoundRHS(fullTarget, st.Op, st.Value))
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

func (g *Generator) emitFunctionDecl(st *luaast.FunctionDeclStmt) {
	g.emitter.WriteIndent()
	g.emitter.Write("local function " + g.name(st.Name) + "(" + g.paramList(st.Params) + ")")
	g.emitter.Writeln("")
	g.emitter.Indent()
	g.emitBody(st.Body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

func (g *Generator) paramList(params []luaast.FunctionParam) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Rest {
			names = append(names, "...")
			continue
		}
		names = append(names, g.name(p.Name))
	}
	return strings.Join(names, ", ")
}

func (g *Generator) emitBody(sid luaast.StmtId) {
	blk, ok := g.arena.Stmt(sid).(*luaast.BlockStmt)
	if !ok {
		return
	}
	g.emitStmtList(blk.Statements, false)
}

func (g *Generator) emitImport(st *luaast.ImportStmt) {
	source := g.name(st.Module)
	if resolved, ok := g.cfg.ResolveAlias(source); ok {
		source = resolved
	}

	g.emitter.WriteIndent()
	switch {
	case st.Namespace != luaast.InvalidStringId:
		g.emitter.Writeln(fmt.Sprintf("local %s = require(%q)", g.name(st.Namespace), source))
	case st.Default != luaast.InvalidStringId:
		g.emitter.Writeln(fmt.Sprintf("local %s = require(%q)", g.name(st.Default), source))
	case len(st.Specifiers) > 0:
		tmp := g.nextTemp()
		g.emitter.Writeln(fmt.Sprintf("local %s = require(%q)", tmp, source))
		for _, spec := range st.Specifiers {
			binding := g.name(spec.Alias)
			if binding == "" {
				binding = g.name(spec.Name)
			}
			g.emitter.WriteIndent()
			g.emitter.Writeln(fmt.Sprintf("local %s = %s.%s", binding, tmp, g.name(spec.Name)))
		}
	}
}

func (g *Generator) emitExport(st *luaast.ExportStmt) {
	switch st.Kind {
	case luaast.ExportDecl:
		if st.Decl != luaast.InvalidStmtId {
			g.emitStmt(st.Decl, true)
		}
	case luaast.ExportReExportNamed, luaast.ExportReExportAll:
		// Re-exports have no runtime effect of their own: the module
		// graph's re-export-flattening pass attributes the underlying
		// exports directly to whichever module requires this one.
	}
}

func (g *Generator) emitIf(st *luaast.IfStmt) {
	g.emitter.WriteIndent()
	g.emitter.Write("if " + g.exprText(st.Cond) + " then")
	g.emitter.Writeln("")
	g.emitter.Indent()
	g.emitBody(st.ThenBlock)
	g.emitter.Dedent()

	for _, clause := range st.ElseIfs {
		g.emitter.WriteIndent()
		g.emitter.Write("elseif " + g.exprText(clause.Cond) + " then")
		g.emitter.Writeln("")
		g.emitter.Indent()
		g.emitBody(clause.Block)
		g.emitter.Dedent()
	}

	if st.ElseBlock != luaast.InvalidStmtId {
		g.emitter.WriteIndent()
		g.emitter.Writeln("else")
		g.emitter.Indent()
		g.emitBody(st.ElseBlock)
		g.emitter.Dedent()
	}

	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

func (g *Generator) emitWhile(st *luaast.WhileStmt) {
	g.emitter.WriteIndent()
	g.emitter.Write("while " + g.exprText(st.Cond) + " do")
	g.emitter.Writeln("")
	g.emitter.Indent()
	g.emitLoopBody(st.Body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

// emitRepeat lowers a repeat/until loop. On Lua 5.1, the flag-based
// continue/break emulation in emitLoopBody nests its own repeat/until true
// inside this one; the user's until condition still belongs to the outer
// repeat and is unaffected.
func (g *Generator) emitRepeat(st *luaast.RepeatStmt) {
	g.emitter.WriteIndent()
	g.emitter.Writeln("repeat")
	g.emitter.Indent()
	g.emitLoopBody(st.Body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("until " + g.exprText(st.Cond))
}

// emitLoopContinueLabel places the `::__continue::` label a goto-based
// Continue() jumps to, for dialects without a native continue keyword.
func (g *Generator) emitLoopContinueLabel() {
	if g.strategy.SupportsGoto() && !g.strategy.SupportsNativeContinue() {
		g.emitter.WriteIndent()
		g.emitter.Writeln("::__continue::")
	}
}

func (g *Generator) emitFor(st *luaast.ForStmt) {
	g.emitter.WriteIndent()
	switch st.Kind {
	case luaast.ForNumeric:
		step := ""
		if st.Step != luaast.InvalidExprId {
			step = ", " + g.exprText(st.Step)
		}
		g.emitter.Write(fmt.Sprintf("for %s = %s, %s%s do", g.name(st.Var), g.exprText(st.Start), g.exprText(st.Stop), step))
	case luaast.ForGeneric:
		names := make([]string, len(st.Names))
		for i, n := range st.Names {
			names[i] = g.name(n)
		}
		g.emitter.Write(fmt.Sprintf("for %s in %s do", strings.Join(names, ", "), g.exprText(st.Iterable)))
	}
	g.emitter.Writeln("")
	g.emitter.Indent()
	g.emitLoopBody(st.Body)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end")
}

func (g *Generator) emitReturn(st *luaast.ReturnStmt) {
	g.emitter.WriteIndent()
	if len(st.Values) == 0 {
		g.emitter.Writeln("return")
		return
	}
	texts := make([]string, len(st.Values))
	for i, v := range st.Values {
		texts[i] = g.exprText(v)
	}
	g.emitter.Writeln("return " + strings.Join(texts, ", "))
}

func (g *Generator) emitTryStmt(st *luaast.TryStmt) {
	g.emitter.WriteIndent()
	okVar, errVar := g.nextTemp(), g.nextTemp()
	g.emitter.Writeln(fmt.Sprintf("local %s, %s = pcall(function()", okVar, errVar))
	g.emitter.Indent()
	g.emitBody(st.Block)
	g.emitter.Dedent()
	g.emitter.WriteIndent()
	g.emitter.Writeln("end)")

	if st.Catch != nil {
		g.emitter.WriteIndent()
		g.emitter.Writeln(fmt.Sprintf("if not %s then", okVar))
		g.emitter.Indent()
		if st.Catch.Param != luaast.InvalidStringId {
			g.emitter.WriteIndent()
			g.emitter.Writeln("local " + g.name(st.Catch.Param) + " = " + errVar)
		}
		g.emitBody(st.Catch.Block)
		g.emitter.Dedent()
		g.emitter.WriteIndent()
		g.emitter.Writeln("end")
	}

	if st.Finally != luaast.InvalidStmtId {
		g.emitBody(st.Finally)
	}
}
