package ast

// StmtVisitor is called for every statement reachable from a walk, in
// pre-order. Returning false skips that statement's children.
type StmtVisitor func(id StmtId, s Stmt) bool

// ExprVisitor is called for every expression reachable from a walk.
type ExprVisitor func(id ExprId, e Expr) bool

// WalkStmts walks ids and everything reachable from them, in order:
// standard recursive descent rather than go/ast.Inspect's callback-driven
// design, since arena ids aren't go/ast nodes.
func WalkStmts(a *Arena, ids []StmtId, visit StmtVisitor, visitExpr ExprVisitor) {
	for _, id := range ids {
		walkStmt(a, id, visit, visitExpr)
	}
}

func walkStmt(a *Arena, id StmtId, visit StmtVisitor, visitExpr ExprVisitor) {
	if id == InvalidStmtId {
		return
	}
	s := a.Stmt(id)
	if s == nil {
		return
	}
	if visit != nil && !visit(id, s) {
		return
	}

	we := func(eid ExprId) {
		if eid != InvalidExprId {
			walkExpr(a, eid, visitExpr)
		}
	}
	wes := func(eids []ExprId) {
		for _, eid := range eids {
			we(eid)
		}
	}
	ws := func(sid StmtId) { walkStmt(a, sid, visit, visitExpr) }
	wss := func(sids []StmtId) { WalkStmts(a, sids, visit, visitExpr) }

	switch n := s.(type) {
	case *VarDeclStmt:
		we(n.Value)
	case *AssignStmt:
		we(n.Target)
		we(n.Value)
	case *FunctionDeclStmt:
		ws(n.Body)
	case *ClassDeclStmt:
		for _, m := range n.Members {
			ws(m.Body)
		}
	case *InterfaceDeclStmt:
		for _, m := range n.Members {
			ws(m.Default)
		}
	case *EnumDeclStmt:
		for _, v := range n.Variants {
			we(v.Value)
		}
	case *TypeAliasDeclStmt:
		// type-only, no expression/statement children
	case *ImportStmt:
	case *ExportStmt:
		ws(n.Decl)
	case *IfStmt:
		we(n.Cond)
		ws(n.ThenBlock)
		for _, ei := range n.ElseIfs {
			we(ei.Cond)
			ws(ei.Block)
		}
		ws(n.ElseBlock)
	case *WhileStmt:
		we(n.Cond)
		ws(n.Body)
	case *RepeatStmt:
		ws(n.Body)
		we(n.Cond)
	case *ForStmt:
		we(n.Start)
		we(n.Stop)
		we(n.Step)
		we(n.Iterable)
		ws(n.Body)
	case *ReturnStmt:
		wes(n.Values)
	case *BreakStmt:
	case *ContinueStmt:
	case *ThrowStmt:
		we(n.Value)
	case *TryStmt:
		ws(n.Block)
		if n.Catch != nil {
			ws(n.Catch.Block)
		}
		ws(n.Finally)
	case *LabeledStmt:
		ws(n.Body)
	case *ExprStmt:
		we(n.Value)
	case *BlockStmt:
		wss(n.Statements)
	}
}

func walkExpr(a *Arena, id ExprId, visit ExprVisitor) {
	if id == InvalidExprId {
		return
	}
	e := a.Expr(id)
	if e == nil {
		return
	}
	if visit != nil && !visit(id, e) {
		return
	}
	we := func(eid ExprId) {
		if eid != InvalidExprId {
			walkExpr(a, eid, visit)
		}
	}
	wes := func(eids []ExprId) {
		for _, eid := range eids {
			we(eid)
		}
	}

	switch n := e.(type) {
	case *LiteralExpr, *IdentifierExpr:
	case *BinaryExpr:
		we(n.Left)
		we(n.Right)
	case *UnaryExpr:
		we(n.Operand)
	case *CallExpr:
		we(n.Callee)
		wes(n.Args)
	case *MemberExpr:
		we(n.Receiver)
	case *IndexExpr:
		we(n.Receiver)
		we(n.Index)
	case *MethodCallExpr:
		we(n.Receiver)
		wes(n.Args)
	case *ObjectLiteralExpr:
		for _, p := range n.Properties {
			we(p.KeyExpr)
			we(p.Value)
			we(p.Spread)
		}
	case *ArrayLiteralExpr:
		for _, el := range n.Elements {
			we(el.Value)
		}
	case *ArrowFunctionExpr:
		// body is a statement; callers that need it should special-case
		// ArrowFunctionExpr since ExprVisitor can't recurse into Stmt.
	case *ConditionalExpr:
		we(n.Cond)
		we(n.Then)
		we(n.Else)
	case *PipeExpr:
		we(n.Value)
		we(n.Func)
	case *NullCoalesceExpr:
		we(n.Left)
		we(n.Right)
	case *ErrorChainExpr:
		we(n.Try)
		we(n.Recover)
	case *TryExpr:
		we(n.Inner)
	case *MatchExpr:
		we(n.Scrutinee)
		for _, arm := range n.Arms {
			we(arm.Pattern)
			we(arm.TemplateExpr)
			we(arm.Guard)
			we(arm.Body)
		}
	case *TemplateLiteralExpr:
		for _, p := range n.Parts {
			we(p.Expr)
		}
	case *TemplatePatternExpr:
	case *AssertTypeExpr:
		we(n.Value)
	case *AsExpr:
		we(n.Value)
	case *InstanceofExpr:
		we(n.Value)
	}
}
