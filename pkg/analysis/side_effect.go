package analysis

import luaast "github.com/luanext/luanext/pkg/ast"

// SideEffects is a conservative per-callable summary: reads/writes
// globals, reads/writes heap, may throw, may not return.
type SideEffects struct {
	ReadsGlobals  bool
	WritesGlobals bool
	ReadsHeap     bool
	WritesHeap    bool
	MayThrow      bool
	MayNotReturn  bool
}

// Or merges another summary in, conservatively (true wins).
func (s *SideEffects) Or(o SideEffects) {
	s.ReadsGlobals = s.ReadsGlobals || o.ReadsGlobals
	s.WritesGlobals = s.WritesGlobals || o.WritesGlobals
	s.ReadsHeap = s.ReadsHeap || o.ReadsHeap
	s.WritesHeap = s.WritesHeap || o.WritesHeap
	s.MayThrow = s.MayThrow || o.MayThrow
	s.MayNotReturn = s.MayNotReturn || o.MayNotReturn
}

// IsPure reports whether the summary permits treating a call as free of
// observable effects.
func (s SideEffects) IsPure() bool {
	return !s.ReadsGlobals && !s.WritesGlobals && !s.WritesHeap && !s.MayThrow
}

// SideEffectInfo holds the program-wide per-function summaries computed by
// SideEffectAnalyzer.
type SideEffectInfo struct {
	Functions map[luaast.StringId]SideEffects
}

func (i *SideEffectInfo) Of(name luaast.StringId) SideEffects {
	if se, ok := i.Functions[name]; ok {
		return se
	}
	// Unknown callee (external, or not yet analyzed): assume the worst.
	return SideEffects{ReadsGlobals: true, WritesGlobals: true, ReadsHeap: true, WritesHeap: true, MayThrow: true, MayNotReturn: true}
}

// SideEffectAnalyzer computes the program-wide side-effect summary. It is
// intentionally flow- and context-insensitive: any write
// through a member/index expression is treated as a heap write, any
// function call's callee is looked up in the running summary table (an
// unresolved callee is conservatively treated as impure; a function
// declared in the same statement list starts from an empty summary and
// accumulates effects over the rounds), and any throw/try-less error
// propagation marks MayThrow.
type SideEffectAnalyzer struct {
	arena *luaast.Arena
}

func NewSideEffectAnalyzer(arena *luaast.Arena) *SideEffectAnalyzer {
	return &SideEffectAnalyzer{arena: arena}
}

// Analyze computes a summary per top-level function declaration plus one
// for the top-level scope itself (keyed by luaast.InvalidStringId).
func (sa *SideEffectAnalyzer) Analyze(statements []luaast.StmtId) *SideEffectInfo {
	info := &SideEffectInfo{Functions: make(map[luaast.StringId]SideEffects)}

	// Two passes: first collect every declared function name so calls to
	// functions declared later in the file still resolve, then compute each
	// summary from the (possibly partially-populated) table — mutually
	// recursive functions are handled by iterating until the summaries
	// stabilize or a small fixed number of rounds elapses.
	var names []luaast.StringId
	for _, sid := range statements {
		if fn, ok := sa.arena.Stmt(sid).(*luaast.FunctionDeclStmt); ok {
			names = append(names, fn.Name)
			info.Functions[fn.Name] = SideEffects{}
		}
	}

	for round := 0; round < 4; round++ {
		changed := false
		for _, sid := range statements {
			fn, ok := sa.arena.Stmt(sid).(*luaast.FunctionDeclStmt)
			if !ok {
				continue
			}
			before := info.Functions[fn.Name]
			computed := sa.summarizeBody(fn.Body, info)
			if computed != before {
				info.Functions[fn.Name] = computed
				changed = true
			}
		}
		if !changed {
			break
		}
	}

	topLevel := sa.summarizeStatements(statements, info)
	info.Functions[luaast.InvalidStringId] = topLevel

	return info
}

func (sa *SideEffectAnalyzer) summarizeBody(body luaast.StmtId, info *SideEffectInfo) SideEffects {
	blk, ok := sa.arena.Stmt(body).(*luaast.BlockStmt)
	if !ok {
		return SideEffects{}
	}
	return sa.summarizeStatements(blk.Statements, info)
}

func (sa *SideEffectAnalyzer) summarizeStatements(statements []luaast.StmtId, info *SideEffectInfo) SideEffects {
	var se SideEffects
	var exprVisit luaast.ExprVisitor
	exprVisit = func(_ luaast.ExprId, e luaast.Expr) bool {
		switch n := e.(type) {
		case *luaast.CallExpr:
			if id, ok := sa.arena.Expr(n.Callee).(*luaast.IdentifierExpr); ok {
				se.Or(info.Of(id.Name))
			} else {
				se.ReadsGlobals, se.ReadsHeap, se.MayThrow = true, true, true
			}
		case *luaast.MethodCallExpr:
			se.ReadsHeap, se.MayThrow = true, true
		case *luaast.IdentifierExpr:
			// Plain reads of a simple identifier are local-variable reads
			// unless resolved to a global by the type checker; this package
			// does not have binding resolution, so identifier reads are not
			// counted as global reads on their own (conservative only at
			// call sites and assignments).
		}
		return true
	}

	luaast.WalkStmts(sa.arena, statements, func(_ luaast.StmtId, s luaast.Stmt) bool {
		switch n := s.(type) {
		case *luaast.AssignStmt:
			switch sa.arena.Expr(n.Target).(type) {
			case *luaast.MemberExpr, *luaast.IndexExpr:
				se.WritesHeap = true
			case *luaast.IdentifierExpr:
				se.WritesGlobals = true
			}
		case *luaast.ThrowStmt:
			se.MayThrow = true
		case *luaast.TryStmt:
			// a try/catch here contains (not propagates) thrown errors from
			// its block; MayThrow is only set by statements outside any
			// enclosing try, which this flow-insensitive summary does not
			// distinguish — conservatively still mark MayThrow if the
			// finally clause itself can throw (approximated as false).
			_ = n
		case *luaast.WhileStmt:
		case *luaast.ForStmt:
			if n.Kind == luaast.ForGeneric {
				se.ReadsHeap = true
			}
		}
		return true
	}, exprVisit)

	return se
}
