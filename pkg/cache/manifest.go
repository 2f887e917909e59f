package cache

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// SchemaVersion is bumped whenever the on-disk manifest/module format
// changes; a version mismatch discards the whole cache.
// v2 adds CachedModule.SerializableExports.
const SchemaVersion = 2

const (
	CacheDirName     = ".luanext-cache"
	ManifestFileName = "manifest.bin"
	ModulesDirName   = "modules"
)

// DeclDependent names a declaration that calls into another declaration,
// for the declaration-dependency graph.
type DeclDependent struct {
	Module string `msgpack:"module"`
	Name   string `msgpack:"name"`
}

// CacheEntry is one module's row in the manifest.
type CacheEntry struct {
	SourcePath   string   `msgpack:"source_path"`
	SourceHash   string   `msgpack:"source_hash"`
	CacheHash    string   `msgpack:"cache_hash"`
	CachedAt     int64    `msgpack:"cached_at"`
	Dependencies []string `msgpack:"dependencies"`
}

// Manifest is the top-level index of the on-disk cache.
type Manifest struct {
	Version      uint32                             `msgpack:"version"`
	ConfigHash   string                             `msgpack:"config_hash"`
	Modules      map[string]*CacheEntry             `msgpack:"modules"`
	Dependents   map[string][]string                `msgpack:"dependents"` // reverse dependency graph: module -> importers
	DeclHashes   map[string]map[string]uint64        `msgpack:"decl_hashes"`
	DeclDeps     map[string]map[string][]DeclDependent `msgpack:"decl_deps"` // module -> decl name -> callers
}

func NewManifest(configHash string) *Manifest {
	return &Manifest{
		Version:    SchemaVersion,
		ConfigHash: configHash,
		Modules:    make(map[string]*CacheEntry),
		Dependents: make(map[string][]string),
		DeclHashes: make(map[string]map[string]uint64),
		DeclDeps:   make(map[string]map[string][]DeclDependent),
	}
}

func (m *Manifest) IsVersionCompatible() bool {
	return m.Version == SchemaVersion
}

func (m *Manifest) ToBytes() ([]byte, error) {
	return msgpack.Marshal(m)
}

func ManifestFromBytes(data []byte) (*Manifest, error) {
	var m Manifest
	if err := msgpack.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("corrupt manifest: %w", err)
	}
	if m.Modules == nil {
		m.Modules = make(map[string]*CacheEntry)
	}
	if m.Dependents == nil {
		m.Dependents = make(map[string][]string)
	}
	if m.DeclHashes == nil {
		m.DeclHashes = make(map[string]map[string]uint64)
	}
	if m.DeclDeps == nil {
		m.DeclDeps = make(map[string]map[string][]DeclDependent)
	}
	return &m, nil
}

// InsertEntry adds or updates a module's cache entry and maintains the
// reverse dependency graph (module -> list of modules that import it).
func (m *Manifest) InsertEntry(path string, entry *CacheEntry) {
	if old, ok := m.Modules[path]; ok {
		m.removeDependentEdges(path, old.Dependencies)
	}
	m.Modules[path] = entry
	for _, dep := range entry.Dependencies {
		if !containsStr(m.Dependents[dep], path) {
			m.Dependents[dep] = append(m.Dependents[dep], path)
		}
	}
}

func (m *Manifest) removeDependentEdges(importer string, deps []string) {
	for _, dep := range deps {
		m.Dependents[dep] = removeStr(m.Dependents[dep], importer)
	}
}

func (m *Manifest) RemoveEntry(path string) {
	if entry, ok := m.Modules[path]; ok {
		m.removeDependentEdges(path, entry.Dependencies)
	}
	delete(m.Modules, path)
	delete(m.Dependents, path)
	delete(m.DeclHashes, path)
	delete(m.DeclDeps, path)
}

func (m *Manifest) GetEntry(path string) (*CacheEntry, bool) {
	e, ok := m.Modules[path]
	return e, ok
}

// Importers returns the modules that directly import path, per the reverse
// dependency graph.
func (m *Manifest) Importers(path string) []string {
	return m.Dependents[path]
}

// CleanupStaleEntries drops manifest rows for source files no longer
// present on disk.
func (m *Manifest) CleanupStaleEntries(currentPaths map[string]bool) []string {
	var removed []string
	for path := range m.Modules {
		if !currentPaths[path] {
			removed = append(removed, path)
		}
	}
	for _, path := range removed {
		m.RemoveEntry(path)
	}
	return removed
}

func (m *Manifest) UpdateDeclarationHashes(modulePath string, hashes map[string]uint64) {
	m.DeclHashes[modulePath] = hashes
}

func (m *Manifest) GetDeclarationHashes(modulePath string) (map[string]uint64, bool) {
	h, ok := m.DeclHashes[modulePath]
	return h, ok
}

func (m *Manifest) UpdateDeclarationDependencies(modulePath string, deps map[string][]DeclDependent) {
	m.DeclDeps[modulePath] = deps
}

func (m *Manifest) GetDeclarationDependencies(modulePath string) (map[string][]DeclDependent, bool) {
	d, ok := m.DeclDeps[modulePath]
	return d, ok
}

// GetChangedDeclarations compares newHashes against the previously recorded
// hashes for modulePath and returns the names whose signature changed or is
// new.
func (m *Manifest) GetChangedDeclarations(modulePath string, newHashes map[string]uint64) []string {
	old, ok := m.DeclHashes[modulePath]
	var changed []string
	if !ok {
		for name := range newHashes {
			changed = append(changed, name)
		}
		return changed
	}
	for name, newHash := range newHashes {
		if oldHash, present := old[name]; !present || oldHash != newHash {
			changed = append(changed, name)
		}
	}
	return changed
}

// GetDependentsOfDeclaration returns the (module, declaration) pairs that
// call declarationName in modulePath, searching both the module's own
// internal dependency list and every other module's cross-module entries.
func (m *Manifest) GetDependentsOfDeclaration(modulePath, declarationName string) []DeclDependent {
	var out []DeclDependent
	if deps, ok := m.DeclDeps[modulePath]; ok {
		out = append(out, deps[declarationName]...)
	}
	for ownerModule, deps := range m.DeclDeps {
		if ownerModule == modulePath {
			continue
		}
		for callee, callers := range deps {
			if callee != declarationName {
				continue
			}
			for _, c := range callers {
				if c.Module == modulePath {
					out = append(out, c)
				}
			}
		}
	}
	return out
}

func containsStr(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}

func removeStr(xs []string, x string) []string {
	out := xs[:0]
	for _, s := range xs {
		if s != x {
			out = append(out, s)
		}
	}
	return out
}
