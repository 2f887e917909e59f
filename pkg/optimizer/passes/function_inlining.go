package passes

import (
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// inlineSizeBudget caps the number of statements a callee's body may have
// to be considered for inlining at OptModerate. Candidates must also be a
// single `return <expr>` statement, so in practice only one-statement
// bodies are inlined. AggressiveInlining keeps that same shape and instead
// allows self-recursive callees, unrolled up to selfRecursionUnrollDepth
// extra rounds.
const inlineSizeBudget = 3

// FunctionInlining replaces a call to a top-level function consisting of a
// single `return <expr>` statement (and no parameters referencing
// mutable captured state beyond simple substitution) with the callee's
// body, substituting call-site arguments for parameters.
type FunctionInlining struct{}

func (FunctionInlining) Name() string                        { return "function-inlining" }
func (FunctionInlining) MinLevel() config.OptimizationLevel { return config.OptModerate }

func (p FunctionInlining) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	callees := collectInlineCandidates(arena, statements, inlineSizeBudget)
	count := optimizer.RewriteAllExprs(arena, statements, inlineCall(callees))
	return statements, count
}

// collectInlineCandidates finds every non-recursive top-level function
// whose body is exactly `return <expr>`, keyed by name.
func collectInlineCandidates(arena *luaast.Arena, statements []luaast.StmtId, budget int) map[luaast.StringId]*luaast.FunctionDeclStmt {
	out := make(map[luaast.StringId]*luaast.FunctionDeclStmt)
	for _, sid := range statements {
		fn, ok := arena.Stmt(sid).(*luaast.FunctionDeclStmt)
		if !ok {
			continue
		}
		blk, ok := arena.Stmt(fn.Body).(*luaast.BlockStmt)
		if !ok || len(blk.Statements) > budget {
			continue
		}
		ret, ok := arena.Stmt(blk.Statements[len(blk.Statements)-1]).(*luaast.ReturnStmt)
		if !ok || len(ret.Values) != 1 || len(blk.Statements) != 1 {
			continue
		}
		if callsSelf(arena, ret.Values[0], fn.Name) {
			continue
		}
		out[fn.Name] = fn
	}
	return out
}

func callsSelf(arena *luaast.Arena, id luaast.ExprId, name luaast.StringId) bool {
	switch e := arena.Expr(id).(type) {
	case *luaast.CallExpr:
		if callee, ok := arena.Expr(e.Callee).(*luaast.IdentifierExpr); ok && callee.Name == name {
			return true
		}
		for _, a := range e.Args {
			if callsSelf(arena, a, name) {
				return true
			}
		}
	case *luaast.BinaryExpr:
		return callsSelf(arena, e.Left, name) || callsSelf(arena, e.Right, name)
	}
	return false
}

func inlineCall(callees map[luaast.StringId]*luaast.FunctionDeclStmt) optimizer.ExprRewriteFunc {
	return func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		call, ok := arena.Expr(id).(*luaast.CallExpr)
		if !ok {
			return id, false
		}
		callee, ok := arena.Expr(call.Callee).(*luaast.IdentifierExpr)
		if !ok {
			return id, false
		}
		fn, ok := callees[callee.Name]
		if !ok || len(fn.Params) != len(call.Args) {
			return id, false
		}
		blk := arena.Stmt(fn.Body).(*luaast.BlockStmt)
		ret := arena.Stmt(blk.Statements[0]).(*luaast.ReturnStmt)

		substitutions := make(map[luaast.StringId]luaast.ExprId, len(fn.Params))
		for i, param := range fn.Params {
			substitutions[param.Name] = call.Args[i]
		}
		return substituteParams(arena, ret.Values[0], substitutions), true
	}
}

func substituteParams(arena *luaast.Arena, id luaast.ExprId, subs map[luaast.StringId]luaast.ExprId) luaast.ExprId {
	count := 0
	return optimizer.RewriteExprTree(arena, id, func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool) {
		ident, ok := arena.Expr(id).(*luaast.IdentifierExpr)
		if !ok {
			return id, false
		}
		repl, ok := subs[ident.Name]
		return repl, ok
	}, &count)
}
