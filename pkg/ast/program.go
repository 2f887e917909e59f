package ast

import "sync"

// Program is the root of one module's AST: an ordered sequence of top-level
// statements plus a span. After optimization the Arena may
// contain nodes no longer reachable from Statements; only the reachable
// subset matters.
type Program struct {
	Span       Span
	Statements []StmtId
}

// ExportedDecl describes one named export's resolved type, enough to
// reconstruct a ModuleRegistry entry without reparsing.
type ExportedDecl struct {
	Name      StringId
	Type      TypeId
	IsDefault bool
}

// ModuleExports is everything other modules need to type-check against an
// import of this module.
type ModuleExports struct {
	Named          []ExportedDecl
	Default        *ExportedDecl
	HasDefault     bool
}

// Module bundles one compiled file's AST, arena, and interned-string context.
// Each worker owns its own arena slice; only the StringInterner may be
// shared across Modules in the same compilation.
type Module struct {
	Path     string
	Interner *StringInterner
	Arena    *Arena
	Common   CommonIdentifiers
	Program  *Program
	Exports  *ModuleExports
}

// ModuleRegistry resolves cross-module type references: the type-check
// stage consumes it, and a cache hit populates it without reparsing. Safe
// for concurrent reads once built; writes
// during the sequential type-checking stage are serialized by the driver,
// but the mutex keeps it safe regardless.
type ModuleRegistry struct {
	mu      sync.RWMutex
	modules map[string]*ModuleExports
}

func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{modules: make(map[string]*ModuleExports)}
}

func (r *ModuleRegistry) Set(path string, exports *ModuleExports) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modules[path] = exports
}

func (r *ModuleRegistry) Get(path string) (*ModuleExports, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.modules[path]
	return e, ok
}
