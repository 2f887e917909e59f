package passes

import (
	"fmt"

	"github.com/luanext/luanext/pkg/analysis"
	luaast "github.com/luanext/luanext/pkg/ast"
	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/optimizer"
)

// CommonSubexpressionElimination elides a recomputed pure expression when
// an identical one was already bound to a local earlier in the same
// statement list, rewriting the later occurrence into a reference to that
// local. Binary/unary/identifier/literal shapes are eligible regardless of
// mutation, since they never read through a pointer-like base; field and
// index reads are eligible too, but only stay remembered until a later
// statement writes to a location analysis.AliasInfo says may alias them —
// a write through an unrelated base never invalidates them.
type CommonSubexpressionElimination struct{}

func (CommonSubexpressionElimination) Name() string { return "common-subexpression-elimination" }
func (CommonSubexpressionElimination) MinLevel() config.OptimizationLevel {
	return config.OptModerate
}

func (p CommonSubexpressionElimination) Run(m *optimizer.Module, statements []luaast.StmtId) ([]luaast.StmtId, int) {
	arena := m.Arena
	var fa *analysis.FunctionAnalysis
	if m.Analysis != nil {
		fa = m.Analysis.TopLevel()
	}
	count := 0
	p.eliminateRecursive(arena, fa, statements, &count)
	return statements, count
}

func (p CommonSubexpressionElimination) eliminateRecursive(arena *luaast.Arena, fa *analysis.FunctionAnalysis, statements []luaast.StmtId, count *int) {
	seen := make(map[string]luaast.StringId)
	locs := make(map[string]analysis.MemoryLocation)

	invalidateAliased := func(written analysis.MemoryLocation) {
		if fa == nil || fa.AliasInfo == nil {
			// No alias info available for this scope: conservatively drop
			// every remembered field/index read rather than risk reusing
			// a stale one.
			for key, loc := range locs {
				if loc.Kind != analysis.LocVariable {
					delete(seen, key)
					delete(locs, key)
				}
			}
			return
		}
		for key, loc := range locs {
			if loc.Kind != analysis.LocVariable && fa.AliasInfo.MayAlias(loc, written) {
				delete(seen, key)
				delete(locs, key)
			}
		}
	}

	// forgetBoundTo drops every remembered expression bound to name, so a
	// later occurrence is never rewritten into a reference to a name whose
	// value has since changed.
	forgetBoundTo := func(name luaast.StringId) {
		for key, bound := range seen {
			if bound == name {
				delete(seen, key)
				delete(locs, key)
			}
		}
	}

	for _, sid := range statements {
		s := arena.Stmt(sid)
		if s == nil {
			continue
		}
		switch n := s.(type) {
		case *luaast.VarDeclStmt:
			// A redeclaration shadows the old binding.
			forgetBoundTo(n.Name)
			key, ok := pureKey(arena, n.Value)
			if ok {
				if existing, found := seen[key]; found {
					n.Value = arena.NewExpr(&luaast.IdentifierExpr{Name: existing})
					*count++
				} else {
					seen[key] = n.Name
					if loc, ok := locationOf(arena, n.Value); ok {
						locs[key] = loc
					}
				}
			}
			if !n.Const {
				// A later reassignment of this name invalidates any
				// remembered expression that resolved to it.
				invalidateAliased(analysis.MemoryLocation{Kind: analysis.LocVariable, Base: n.Name})
			}
		case *luaast.AssignStmt:
			if loc, ok := locationOf(arena, n.Target); ok {
				if loc.Kind == analysis.LocVariable {
					forgetBoundTo(loc.Base)
				}
				invalidateAliased(loc)
			}
		case *luaast.ExprStmt:
			if mayHaveSideEffects(arena, n.Value) {
				// A call of unknown effect may write through any alias;
				// conservatively drop every field/index memo.
				for key, loc := range locs {
					if loc.Kind != analysis.LocVariable {
						delete(seen, key)
						delete(locs, key)
					}
				}
			}
		}
		for _, nested := range optimizer.NestedBlocksOf(s) {
			if blk, ok := arena.Stmt(nested).(*luaast.BlockStmt); ok {
				p.eliminateRecursive(arena, fa, blk.Statements, count)
			}
		}
	}
}

// pureKey returns a structural key for id if it is built purely from
// binary/unary operators, identifiers, literals, or field/index reads off
// of one of those — the shape this pass treats as safely
// redundant-computation-eligible, modulo the invalidation
// eliminateRecursive applies for the field/index case.
func pureKey(arena *luaast.Arena, id luaast.ExprId) (string, bool) {
	switch e := arena.Expr(id).(type) {
	case *luaast.IdentifierExpr:
		return fmt.Sprintf("id:%d", e.Name), true
	case *luaast.LiteralExpr:
		return fmt.Sprintf("lit:%d:%v:%v:%v:%d", e.Kind, e.Bool, e.Integer, e.Number, e.String), true
	case *luaast.BinaryExpr:
		l, ok1 := pureKey(arena, e.Left)
		r, ok2 := pureKey(arena, e.Right)
		if !ok1 || !ok2 {
			return "", false
		}
		return fmt.Sprintf("bin:%d(%s,%s)", e.Op, l, r), true
	case *luaast.UnaryExpr:
		v, ok := pureKey(arena, e.Operand)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("un:%d(%s)", e.Op, v), true
	case *luaast.MemberExpr:
		r, ok := pureKey(arena, e.Receiver)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("mem:%d(%s)", e.Name, r), true
	case *luaast.IndexExpr:
		r, ok1 := pureKey(arena, e.Receiver)
		i, ok2 := pureKey(arena, e.Index)
		if !ok1 || !ok2 {
			return "", false
		}
		return fmt.Sprintf("idx(%s,%s)", r, i), true
	}
	return "", false
}

// locationOf mirrors analysis.AliasAnalyzer's own (unexported) location
// resolution closely enough to key the same MemoryLocation shape for a
// variable/field/index expression, so AliasInfo.MayAlias can be asked
// about it directly.
func locationOf(arena *luaast.Arena, id luaast.ExprId) (analysis.MemoryLocation, bool) {
	if id == luaast.InvalidExprId {
		return analysis.MemoryLocation{}, false
	}
	switch e := arena.Expr(id).(type) {
	case *luaast.IdentifierExpr:
		return analysis.MemoryLocation{Kind: analysis.LocVariable, Base: e.Name}, true
	case *luaast.MemberExpr:
		if recv, ok := locationOf(arena, e.Receiver); ok && recv.Kind == analysis.LocVariable {
			return analysis.MemoryLocation{Kind: analysis.LocField, Base: recv.Base, Field: e.Name}, true
		}
		return analysis.MemoryLocation{}, false
	case *luaast.IndexExpr:
		if recv, ok := locationOf(arena, e.Receiver); ok && recv.Kind == analysis.LocVariable {
			return analysis.MemoryLocation{Kind: analysis.LocIndex, Base: recv.Base}, true
		}
		return analysis.MemoryLocation{}, false
	default:
		return analysis.MemoryLocation{}, false
	}
}
