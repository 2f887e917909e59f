package analysis

import luaast "github.com/luanext/luanext/pkg/ast"

// ClassInfo is one class's whole-program-visible shape: enough for a pass
// examining a method call against this class to decide whether the call
// can be resolved statically, independent of which module's arena and
// interner declared the class.
type ClassInfo struct {
	Name         string
	ModulePath   string
	Extends      string // "" if the class has no superclass
	Sealed       bool
	FinalMethods map[string]bool
}

// ClassHierarchy is the whole-program view of every class declared
// anywhere in the compilation, keyed by class name, plus the subclass
// edges derived from every class's Extends clause. It is built once,
// sequentially, across every module before the per-module optimizer and
// codegen worker pool fans out, then handed to every worker as a
// read-only shared reference: nothing mutates it once Finalize has run.
type ClassHierarchy struct {
	Classes    map[string]*ClassInfo
	subclasses map[string][]string
}

func NewClassHierarchy() *ClassHierarchy {
	return &ClassHierarchy{
		Classes:    make(map[string]*ClassInfo),
		subclasses: make(map[string][]string),
	}
}

// AddModule scans one module's top-level class declarations, resolving
// their names through that module's own interner, and merges them into
// the hierarchy. A class name collision across two modules keeps
// whichever declaration was added first; the resolver layer is what
// keeps module-qualified names distinct before they ever reach here.
func (h *ClassHierarchy) AddModule(modulePath string, arena *luaast.Arena, interner *luaast.StringInterner, statements []luaast.StmtId) {
	for _, sid := range statements {
		cls, ok := arena.Stmt(sid).(*luaast.ClassDeclStmt)
		if !ok {
			continue
		}
		name := interner.Resolve(cls.Name)
		if _, exists := h.Classes[name]; exists {
			continue
		}
		info := &ClassInfo{
			Name:         name,
			ModulePath:   modulePath,
			Sealed:       cls.Sealed,
			FinalMethods: make(map[string]bool),
		}
		if cls.Extends != luaast.InvalidStringId {
			info.Extends = interner.Resolve(cls.Extends)
		}
		for _, m := range cls.Members {
			if m.IsMethod && m.Final {
				info.FinalMethods[interner.Resolve(m.Name)] = true
			}
		}
		h.Classes[name] = info
	}
}

// Finalize derives the subclass index from every class's Extends clause.
// Call once after every module has been added via AddModule and before
// the hierarchy is shared with any worker.
func (h *ClassHierarchy) Finalize() {
	for name, info := range h.Classes {
		if info.Extends != "" {
			h.subclasses[info.Extends] = append(h.subclasses[info.Extends], name)
		}
	}
}

// Lookup returns the class named name, if any class anywhere in the
// compilation declared it.
func (h *ClassHierarchy) Lookup(name string) (*ClassInfo, bool) {
	c, ok := h.Classes[name]
	return c, ok
}

// MethodResolvesStatically reports whether calling method on a receiver
// statically typed as className is guaranteed to reach the same
// implementation no matter what runtime subclass the receiver actually
// is: either the method itself is declared final, the class is sealed
// (no subclass can exist at all), or — the case a single module's own
// class table can never answer — no class anywhere in the whole
// compiled program actually extends it.
func (h *ClassHierarchy) MethodResolvesStatically(className, method string) bool {
	cls, ok := h.Classes[className]
	if !ok {
		return false
	}
	if cls.Sealed || cls.FinalMethods[method] {
		return true
	}
	return len(h.subclasses[className]) == 0
}

// ProgramSideEffects aggregates every module's flow-insensitive
// per-function side-effect summary (SideEffectAnalyzer) into one
// whole-program lookup keyed by (module path, function name), so a pass
// examining a call to a function declared in another module can ask
// whether it's safe to treat as pure without holding that module's own
// AnalysisContext.
type ProgramSideEffects struct {
	perModule map[string]*SideEffectInfo
}

func NewProgramSideEffects() *ProgramSideEffects {
	return &ProgramSideEffects{perModule: make(map[string]*SideEffectInfo)}
}

func (p *ProgramSideEffects) AddModule(modulePath string, info *SideEffectInfo) {
	p.perModule[modulePath] = info
}

// Of returns the known side effects of modulePath's top-level function
// name, falling back to the same conservative all-true worst case
// SideEffectInfo.Of uses for any callee it has no summary for — here,
// either an unanalyzed module or a name that module never declared.
func (p *ProgramSideEffects) Of(modulePath string, name luaast.StringId) SideEffects {
	info, ok := p.perModule[modulePath]
	if !ok {
		return SideEffects{ReadsGlobals: true, WritesGlobals: true, ReadsHeap: true, WritesHeap: true, MayThrow: true, MayNotReturn: true}
	}
	return info.Of(name)
}

// WholeProgramAnalysis is the cross-module analysis phase: a class
// hierarchy and per-module side-effect summaries built sequentially
// across every module in the compilation, ahead of the per-module
// optimizer/codegen worker pool, and handed to every worker as an
// immutable shared reference.
type WholeProgramAnalysis struct {
	Classes     *ClassHierarchy
	SideEffects *ProgramSideEffects
}

func NewWholeProgramAnalysis() *WholeProgramAnalysis {
	return &WholeProgramAnalysis{
		Classes:     NewClassHierarchy(),
		SideEffects: NewProgramSideEffects(),
	}
}

// AddModule folds one module's class declarations and side-effect
// summary into the whole-program view.
func (w *WholeProgramAnalysis) AddModule(modulePath string, arena *luaast.Arena, interner *luaast.StringInterner, statements []luaast.StmtId) {
	w.Classes.AddModule(modulePath, arena, interner, statements)
	w.SideEffects.AddModule(modulePath, NewSideEffectAnalyzer(arena).Analyze(statements))
}

// Finalize closes out the hierarchy's subclass index. Call once after
// every module has been folded in via AddModule.
func (w *WholeProgramAnalysis) Finalize() {
	w.Classes.Finalize()
}
