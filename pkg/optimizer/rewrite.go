package optimizer

import luaast "github.com/luanext/luanext/pkg/ast"

// ExprRewriteFunc inspects id (whose own children have already been
// visited) and optionally returns a replacement id. count is incremented by
// RewriteExprTree whenever it returns true.
type ExprRewriteFunc func(arena *luaast.Arena, id luaast.ExprId) (luaast.ExprId, bool)

// RewriteExprTree walks id's subexpressions bottom-up, rewriting each
// node's own fields in place (no other parent ever aliases a child
// expression node, so in-place field mutation during the walk is safe) and
// then applies fn to the node itself, returning a (possibly different) id
// for the caller to install into its own owning field.
func RewriteExprTree(arena *luaast.Arena, id luaast.ExprId, fn ExprRewriteFunc, count *int) luaast.ExprId {
	if id == luaast.InvalidExprId {
		return id
	}

	switch e := arena.Expr(id).(type) {
	case *luaast.BinaryExpr:
		e.Left = RewriteExprTree(arena, e.Left, fn, count)
		e.Right = RewriteExprTree(arena, e.Right, fn, count)
	case *luaast.UnaryExpr:
		e.Operand = RewriteExprTree(arena, e.Operand, fn, count)
	case *luaast.CallExpr:
		e.Callee = RewriteExprTree(arena, e.Callee, fn, count)
		for i := range e.Args {
			e.Args[i] = RewriteExprTree(arena, e.Args[i], fn, count)
		}
	case *luaast.MemberExpr:
		e.Receiver = RewriteExprTree(arena, e.Receiver, fn, count)
	case *luaast.IndexExpr:
		e.Receiver = RewriteExprTree(arena, e.Receiver, fn, count)
		e.Index = RewriteExprTree(arena, e.Index, fn, count)
	case *luaast.MethodCallExpr:
		e.Receiver = RewriteExprTree(arena, e.Receiver, fn, count)
		for i := range e.Args {
			e.Args[i] = RewriteExprTree(arena, e.Args[i], fn, count)
		}
	case *luaast.ConditionalExpr:
		e.Cond = RewriteExprTree(arena, e.Cond, fn, count)
		e.Then = RewriteExprTree(arena, e.Then, fn, count)
		e.Else = RewriteExprTree(arena, e.Else, fn, count)
	case *luaast.NullCoalesceExpr:
		e.Left = RewriteExprTree(arena, e.Left, fn, count)
		e.Right = RewriteExprTree(arena, e.Right, fn, count)
	case *luaast.PipeExpr:
		e.Value = RewriteExprTree(arena, e.Value, fn, count)
		e.Func = RewriteExprTree(arena, e.Func, fn, count)
	case *luaast.ErrorChainExpr:
		e.Try = RewriteExprTree(arena, e.Try, fn, count)
		e.Recover = RewriteExprTree(arena, e.Recover, fn, count)
	case *luaast.TryExpr:
		e.Inner = RewriteExprTree(arena, e.Inner, fn, count)
	case *luaast.AssertTypeExpr:
		e.Value = RewriteExprTree(arena, e.Value, fn, count)
	case *luaast.AsExpr:
		e.Value = RewriteExprTree(arena, e.Value, fn, count)
	case *luaast.InstanceofExpr:
		e.Value = RewriteExprTree(arena, e.Value, fn, count)
	case *luaast.ObjectLiteralExpr:
		for i := range e.Properties {
			e.Properties[i].KeyExpr = RewriteExprTree(arena, e.Properties[i].KeyExpr, fn, count)
			e.Properties[i].Value = RewriteExprTree(arena, e.Properties[i].Value, fn, count)
			e.Properties[i].Spread = RewriteExprTree(arena, e.Properties[i].Spread, fn, count)
		}
	case *luaast.ArrayLiteralExpr:
		for i := range e.Elements {
			e.Elements[i].Value = RewriteExprTree(arena, e.Elements[i].Value, fn, count)
		}
	case *luaast.MatchExpr:
		e.Scrutinee = RewriteExprTree(arena, e.Scrutinee, fn, count)
		for i := range e.Arms {
			e.Arms[i].Pattern = RewriteExprTree(arena, e.Arms[i].Pattern, fn, count)
			e.Arms[i].TemplateExpr = RewriteExprTree(arena, e.Arms[i].TemplateExpr, fn, count)
			e.Arms[i].Guard = RewriteExprTree(arena, e.Arms[i].Guard, fn, count)
			e.Arms[i].Body = RewriteExprTree(arena, e.Arms[i].Body, fn, count)
		}
	case *luaast.TemplateLiteralExpr:
		for i := range e.Parts {
			e.Parts[i].Expr = RewriteExprTree(arena, e.Parts[i].Expr, fn, count)
		}
	}

	if newId, ok := fn(arena, id); ok {
		*count++
		return newId
	}
	return id
}

// ExprFieldsOf returns every top-level ExprId field a statement owns
// directly (not through a nested block), as pointers so RewriteAllExprs
// can install a rewritten id back into the statement.
func ExprFieldsOf(s luaast.Stmt) []*luaast.ExprId {
	switch n := s.(type) {
	case *luaast.VarDeclStmt:
		return []*luaast.ExprId{&n.Value}
	case *luaast.AssignStmt:
		return []*luaast.ExprId{&n.Target, &n.Value}
	case *luaast.IfStmt:
		fields := []*luaast.ExprId{&n.Cond}
		for i := range n.ElseIfs {
			fields = append(fields, &n.ElseIfs[i].Cond)
		}
		return fields
	case *luaast.WhileStmt:
		return []*luaast.ExprId{&n.Cond}
	case *luaast.RepeatStmt:
		return []*luaast.ExprId{&n.Cond}
	case *luaast.ForStmt:
		return []*luaast.ExprId{&n.Start, &n.Stop, &n.Step, &n.Iterable}
	case *luaast.ReturnStmt:
		fields := make([]*luaast.ExprId, len(n.Values))
		for i := range n.Values {
			fields[i] = &n.Values[i]
		}
		return fields
	case *luaast.ThrowStmt:
		return []*luaast.ExprId{&n.Value}
	case *luaast.ExprStmt:
		return []*luaast.ExprId{&n.Value}
	default:
		return nil
	}
}

// NestedBlocksOf returns the StmtIds of every nested block a statement owns
// (if/while/for/repeat bodies, function/class-method bodies), for
// RewriteAllExprs and statement-list passes to recurse into.
func NestedBlocksOf(s luaast.Stmt) []luaast.StmtId {
	switch n := s.(type) {
	case *luaast.IfStmt:
		ids := []luaast.StmtId{n.ThenBlock}
		for _, ei := range n.ElseIfs {
			ids = append(ids, ei.Block)
		}
		if n.ElseBlock != luaast.InvalidStmtId {
			ids = append(ids, n.ElseBlock)
		}
		return ids
	case *luaast.WhileStmt:
		return []luaast.StmtId{n.Body}
	case *luaast.RepeatStmt:
		return []luaast.StmtId{n.Body}
	case *luaast.ForStmt:
		return []luaast.StmtId{n.Body}
	case *luaast.FunctionDeclStmt:
		return []luaast.StmtId{n.Body}
	case *luaast.TryStmt:
		ids := []luaast.StmtId{n.Block}
		if n.Catch != nil {
			ids = append(ids, n.Catch.Block)
		}
		if n.Finally != luaast.InvalidStmtId {
			ids = append(ids, n.Finally)
		}
		return ids
	case *luaast.LabeledStmt:
		return []luaast.StmtId{n.Body}
	case *luaast.ClassDeclStmt:
		var ids []luaast.StmtId
		for _, m := range n.Members {
			if m.IsMethod && m.Body != luaast.InvalidStmtId {
				ids = append(ids, m.Body)
			}
		}
		return ids
	default:
		return nil
	}
}

// RewriteAllExprs applies fn to every expression reachable from statements,
// recursing into nested blocks, and returns the total rewrite count.
func RewriteAllExprs(arena *luaast.Arena, statements []luaast.StmtId, fn ExprRewriteFunc) int {
	count := 0
	for _, sid := range statements {
		if sid == luaast.InvalidStmtId {
			continue
		}
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, field := range ExprFieldsOf(s) {
			*field = RewriteExprTree(arena, *field, fn, &count)
		}
		for _, nested := range NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				count += RewriteAllExprs(arena, blk.Statements, fn)
			}
		}
	}
	return count
}

// StmtListRewriteFunc transforms one statement list, returning the
// (possibly reordered/shortened) list and whether it changed. Implementers
// must allocate a fresh slice rather than truncate/mutate the input
// slice's backing array in place, matching the arena's clone-then-replace
// discipline.
type StmtListRewriteFunc func(arena *luaast.Arena, statements []luaast.StmtId) ([]luaast.StmtId, bool)

// RewriteAllStmtLists applies fn to statements and to every nested block's
// statement list, post-order (children before parents), installing any
// changed list back into its owning BlockStmt/Program. Returns the
// (possibly new) top-level list and the total number of lists changed.
func RewriteAllStmtLists(arena *luaast.Arena, statements []luaast.StmtId, fn StmtListRewriteFunc) ([]luaast.StmtId, int) {
	count := 0
	for _, sid := range statements {
		if sid == luaast.InvalidStmtId {
			continue
		}
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		for _, nested := range NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				newStmts, c := RewriteAllStmtLists(arena, blk.Statements, fn)
				if c > 0 {
					blk.Statements = newStmts
					count += c
				}
			}
		}
	}

	newTop, changed := fn(arena, statements)
	if changed {
		count++
		return newTop, count
	}
	return statements, count
}
