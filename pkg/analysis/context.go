package analysis

import luaast "github.com/luanext/luanext/pkg/ast"

// FunctionAnalysis bundles the per-function CFG, dominance tree, SSA form,
// and alias info that later passes read together.
type FunctionAnalysis struct {
	Cfg        *ControlFlowGraph
	Dominators *DominatorTree
	Ssa        *SsaForm
	AliasInfo  *AliasInfo
}

// AnalysisContext is the program-wide analysis bundle built once per
// optimizer run and shared read-only across passes. It is rebuilt at
// optimizer entry and whenever a pass declares it has invalidated
// structural analyses.
type AnalysisContext struct {
	arena             *luaast.Arena
	functionAnalyses  map[luaast.StringId]*FunctionAnalysis
	sideEffects       *SideEffectInfo
	moduleGraph       *ModuleGraph
}

// TopLevelKey is the sentinel used to key the top-level scope's
// FunctionAnalysis: luaast.InvalidStringId, which can never collide with a
// real interned name.
const TopLevelKey = luaast.InvalidStringId

func NewAnalysisContext() *AnalysisContext {
	return &AnalysisContext{functionAnalyses: make(map[luaast.StringId]*FunctionAnalysis)}
}

// Compute builds CFG -> dominance -> SSA -> alias for the top-level scope
// and every function declaration in statements, plus the program-wide
// side-effect summary.
func (c *AnalysisContext) Compute(arena *luaast.Arena, statements []luaast.StmtId) {
	c.arena = arena

	c.functionAnalyses[TopLevelKey] = analyzeFunctionBody(arena, statements)

	for _, sid := range statements {
		if fn, ok := arena.Stmt(sid).(*luaast.FunctionDeclStmt); ok {
			body := arena.Stmt(fn.Body)
			var bodyStatements []luaast.StmtId
			if blk, ok := body.(*luaast.BlockStmt); ok {
				bodyStatements = blk.Statements
			}
			c.functionAnalyses[fn.Name] = analyzeFunctionBody(arena, bodyStatements)
		}
	}

	c.sideEffects = NewSideEffectAnalyzer(arena).Analyze(statements)
}

// SetModuleGraph attaches the whole-program module graph, built separately
// since it spans every module in the compilation rather than a single
// module's AST.
func (c *AnalysisContext) SetModuleGraph(g *ModuleGraph) {
	c.moduleGraph = g
}

func analyzeFunctionBody(arena *luaast.Arena, statements []luaast.StmtId) *FunctionAnalysis {
	cfg := Build(arena, statements)
	dominators := BuildDominatorTree(cfg)
	ssa := BuildSsaForm(cfg, dominators, arena)
	aliasInfo := NewAliasAnalyzer(arena).Analyze(statements)

	return &FunctionAnalysis{Cfg: cfg, Dominators: dominators, Ssa: ssa, AliasInfo: aliasInfo}
}

func (c *AnalysisContext) TopLevel() *FunctionAnalysis {
	return c.functionAnalyses[TopLevelKey]
}

func (c *AnalysisContext) FunctionAnalysis(name luaast.StringId) (*FunctionAnalysis, bool) {
	fa, ok := c.functionAnalyses[name]
	return fa, ok
}

func (c *AnalysisContext) SideEffects() *SideEffectInfo {
	return c.sideEffects
}

func (c *AnalysisContext) ModuleGraph() *ModuleGraph {
	return c.moduleGraph
}

// AnalyzedFunctions returns every function name with a computed analysis,
// including TopLevelKey.
func (c *AnalysisContext) AnalyzedFunctions() []luaast.StringId {
	names := make([]luaast.StringId, 0, len(c.functionAnalyses))
	for name := range c.functionAnalyses {
		names = append(names, name)
	}
	return names
}
