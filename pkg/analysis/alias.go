package analysis

import luaast "github.com/luanext/luanext/pkg/ast"

// MemoryLocationKind distinguishes the three location shapes alias
// analysis reasons about: variable, field, index.
type MemoryLocationKind int

const (
	LocVariable MemoryLocationKind = iota
	LocField
	LocIndex
)

// MemoryLocation is a location that alias analysis can reason about.
// Field locations are keyed by (base variable, field name); index
// locations collapse every dynamic subscript of a base to one location
// (spec: field-sensitive over named fields, but no attempt to distinguish
// individual array indices).
type MemoryLocation struct {
	Kind  MemoryLocationKind
	Base  luaast.StringId
	Field luaast.StringId // valid for LocField
}

// AliasInfo records, for a single function, the may-alias classes
// discovered: memory locations that might denote the same storage.
type AliasInfo struct {
	// mayAlias[a] is the set of locations that might alias a (including a
	// itself). Symmetric by construction.
	mayAlias map[MemoryLocation]map[MemoryLocation]bool
}

func newAliasInfo() *AliasInfo {
	return &AliasInfo{mayAlias: make(map[MemoryLocation]map[MemoryLocation]bool)}
}

func (a *AliasInfo) link(x, y MemoryLocation) {
	if a.mayAlias[x] == nil {
		a.mayAlias[x] = make(map[MemoryLocation]bool)
	}
	if a.mayAlias[y] == nil {
		a.mayAlias[y] = make(map[MemoryLocation]bool)
	}
	a.mayAlias[x][y] = true
	a.mayAlias[y][x] = true
}

// MayAlias reports whether x and y might refer to the same storage.
func (a *AliasInfo) MayAlias(x, y MemoryLocation) bool {
	if x == y {
		return true
	}
	return a.mayAlias[x][y]
}

// AliasAnalyzer produces a may-alias relation over MemoryLocation, field-
// sensitive and flow-insensitive: it ignores statement order
// and conservatively links any two locations that are ever assigned from
// one another, rather than tracking points-to sets precisely.
type AliasAnalyzer struct {
	arena *luaast.Arena
}

func NewAliasAnalyzer(arena *luaast.Arena) *AliasAnalyzer {
	return &AliasAnalyzer{arena: arena}
}

// Analyze scans every statement in the function body for assignments whose
// right-hand side is itself a variable/field/index expression, linking the
// two locations as possibly-aliasing.
func (az *AliasAnalyzer) Analyze(statements []luaast.StmtId) *AliasInfo {
	info := newAliasInfo()
	var visit func(sid luaast.StmtId)
	visit = func(sid luaast.StmtId) {
		luaast.WalkStmts(az.arena, []luaast.StmtId{sid}, func(_ luaast.StmtId, s luaast.Stmt) bool {
			switch n := s.(type) {
			case *luaast.VarDeclStmt:
				if loc, ok := az.locationOf(n.Value); ok {
					info.link(MemoryLocation{Kind: LocVariable, Base: n.Name}, loc)
				}
			case *luaast.AssignStmt:
				target, tok := az.locationOf(n.Target)
				value, vok := az.locationOf(n.Value)
				if tok && vok {
					info.link(target, value)
				}
			}
			return true
		}, nil)
	}
	for _, sid := range statements {
		visit(sid)
	}
	return info
}

func (az *AliasAnalyzer) locationOf(eid luaast.ExprId) (MemoryLocation, bool) {
	if eid == luaast.InvalidExprId {
		return MemoryLocation{}, false
	}
	switch e := az.arena.Expr(eid).(type) {
	case *luaast.IdentifierExpr:
		return MemoryLocation{Kind: LocVariable, Base: e.Name}, true
	case *luaast.MemberExpr:
		if recv, ok := az.locationOf(e.Receiver); ok && recv.Kind == LocVariable {
			return MemoryLocation{Kind: LocField, Base: recv.Base, Field: e.Name}, true
		}
		return MemoryLocation{}, false
	case *luaast.IndexExpr:
		if recv, ok := az.locationOf(e.Receiver); ok && recv.Kind == LocVariable {
			return MemoryLocation{Kind: LocIndex, Base: recv.Base}, true
		}
		return MemoryLocation{}, false
	default:
		return MemoryLocation{}, false
	}
}
