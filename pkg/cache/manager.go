package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
)

// Stats holds the cache performance counters (hit/miss/invalidation
// totals).
type Stats struct {
	Hits                  int64
	MissesNoEntry         int64
	MissesSourceChanged   int64
	MissesDeclsChanged    int64
	Invalidations         int64
}

func (s *Stats) snapshot() Stats {
	return Stats{
		Hits:                atomic.LoadInt64(&s.Hits),
		MissesNoEntry:       atomic.LoadInt64(&s.MissesNoEntry),
		MissesSourceChanged: atomic.LoadInt64(&s.MissesSourceChanged),
		MissesDeclsChanged:  atomic.LoadInt64(&s.MissesDeclsChanged),
		Invalidations:       atomic.LoadInt64(&s.Invalidations),
	}
}

// Manager owns the on-disk manifest plus the modules/ directory of
// per-module cache blobs, and is the package's only exported entry point
// for the rest of the driver: Load/Save/Lookup/Write plus
// declaration-level invalidation finer than whole-module rebuilds.
type Manager struct {
	dir        string
	manifest   *Manifest
	engine     *InvalidationEngine
	configHash string
	stats      Stats
}

// Load opens (or initializes) the cache rooted at dir for the given config
// hash. A schema-version or config-hash mismatch against a pre-existing
// manifest discards it outright rather than failing.
func Load(dir, configHash string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Join(dir, ModulesDirName), 0o755); err != nil {
		return nil, fmt.Errorf("cache: creating cache dir: %w", err)
	}

	manifestPath := filepath.Join(dir, ManifestFileName)
	data, err := os.ReadFile(manifestPath)
	var manifest *Manifest
	switch {
	case err == nil:
		m, parseErr := ManifestFromBytes(data)
		if parseErr != nil || !m.IsVersionCompatible() || m.ConfigHash != configHash {
			// Corrupt, stale-schema, or stale-config: start fresh rather
			// than surface an error to the caller.
			manifest = NewManifest(configHash)
		} else {
			manifest = m
		}
	case os.IsNotExist(err):
		manifest = NewManifest(configHash)
	default:
		return nil, fmt.Errorf("cache: reading manifest: %w", err)
	}

	return &Manager{
		dir:        dir,
		manifest:   manifest,
		engine:     NewInvalidationEngine(manifest),
		configHash: configHash,
	}, nil
}

// Save persists the manifest to disk. Callers should call this once after a
// compilation run, not after every single module.
func (mgr *Manager) Save() error {
	data, err := mgr.manifest.ToBytes()
	if err != nil {
		return fmt.Errorf("cache: encoding manifest: %w", err)
	}
	tmp := filepath.Join(mgr.dir, ManifestFileName+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: writing manifest: %w", err)
	}
	return os.Rename(tmp, filepath.Join(mgr.dir, ManifestFileName))
}

// SourceUnchanged reports whether modulePath's previously cached source
// hash equals sourceHash, returning the declaration-signature hashes
// recorded for it if so. A driver can use this before running the type
// checker: an unchanged source hash means the previously recorded
// declaration hashes are still accurate, so they can stand in for a fresh
// type-check's output when calling Lookup, skipping re-type-checking a
// module whose text hasn't moved at all.
func (mgr *Manager) SourceUnchanged(modulePath, sourceHash string) (map[string]uint64, bool) {
	entry, ok := mgr.manifest.GetEntry(modulePath)
	if !ok || entry.SourceHash != sourceHash {
		return nil, false
	}
	hashes, ok := mgr.manifest.GetDeclarationHashes(modulePath)
	return hashes, ok
}

// LookupResult is what Lookup returns for one module.
type LookupResult struct {
	Verdict Verdict
	Module  *CachedModule // non-nil only on VerdictHit
	// ChangedDeclarations and AffectedDependents are populated only for
	// VerdictMissDeclarationsChanged: the directly-changed declaration
	// names, and every (module, declaration) that transitively depends on
	// one of them and therefore also needs recompilation.
	ChangedDeclarations []string
	AffectedDependents  []DeclDependent
}

// Lookup implements the cache HIT/MISS protocol for a single module.
func (mgr *Manager) Lookup(modulePath, sourceHash string, newDeclHashes map[string]uint64) (LookupResult, error) {
	verdict, changed := mgr.engine.Check(modulePath, sourceHash, newDeclHashes)

	switch verdict {
	case VerdictHit:
		entry, _ := mgr.manifest.GetEntry(modulePath)
		blob, err := os.ReadFile(mgr.modulePath(entry.CacheHash))
		if err != nil {
			// Manifest says hit but the blob vanished from disk: degrade
			// to a miss rather than erroring the whole compilation.
			atomic.AddInt64(&mgr.stats.MissesNoEntry, 1)
			return LookupResult{Verdict: VerdictMissNoEntry}, nil
		}
		cached, err := CachedModuleFromBytes(blob)
		if err != nil {
			atomic.AddInt64(&mgr.stats.MissesNoEntry, 1)
			return LookupResult{Verdict: VerdictMissNoEntry}, nil
		}
		if cached.SerializableExports == nil {
			// A hit with no recorded exports can't stand in for a fresh
			// type-check: nothing downstream could resolve imports against
			// it, so report a miss exactly as if there were no entry.
			atomic.AddInt64(&mgr.stats.MissesNoEntry, 1)
			return LookupResult{Verdict: VerdictMissNoEntry}, nil
		}
		atomic.AddInt64(&mgr.stats.Hits, 1)
		return LookupResult{Verdict: VerdictHit, Module: cached}, nil

	case VerdictMissNoEntry:
		atomic.AddInt64(&mgr.stats.MissesNoEntry, 1)
		return LookupResult{Verdict: verdict}, nil

	case VerdictMissSourceChanged:
		atomic.AddInt64(&mgr.stats.MissesSourceChanged, 1)
		return LookupResult{Verdict: verdict}, nil

	case VerdictMissDeclarationsChanged:
		atomic.AddInt64(&mgr.stats.MissesDeclsChanged, 1)
		affected := mgr.engine.TransitiveClosure(modulePath, changed)
		atomic.AddInt64(&mgr.stats.Invalidations, int64(len(affected))+1)
		return LookupResult{
			Verdict:             verdict,
			ChangedDeclarations: changed,
			AffectedDependents:  affected,
		}, nil

	default:
		return LookupResult{Verdict: verdict}, nil
	}
}

// Write stores a freshly compiled module's cache blob and updates the
// manifest entry, declaration hashes and declaration-dependency graph in
// one step.
func (mgr *Manager) Write(modulePath string, cached *CachedModule, dependencies []string, declHashes map[string]uint64, declDeps map[string][]DeclDependent, nowUnix int64) error {
	blob, err := cached.ToBytes()
	if err != nil {
		return fmt.Errorf("cache: encoding module %s: %w", modulePath, err)
	}
	cacheHash := cached.SourceHash
	if err := os.WriteFile(mgr.modulePath(cacheHash), blob, 0o644); err != nil {
		return fmt.Errorf("cache: writing module %s: %w", modulePath, err)
	}

	mgr.manifest.InsertEntry(modulePath, &CacheEntry{
		SourcePath:   modulePath,
		SourceHash:   cached.SourceHash,
		CacheHash:    cacheHash,
		CachedAt:     nowUnix,
		Dependencies: dependencies,
	})
	mgr.manifest.UpdateDeclarationHashes(modulePath, declHashes)
	mgr.manifest.UpdateDeclarationDependencies(modulePath, declDeps)
	return nil
}

// Invalidate drops a single module's manifest entry (but not its on-disk
// blob, which Cleanup reclaims later) so the next Lookup reports a miss.
func (mgr *Manager) Invalidate(modulePath string) {
	mgr.manifest.RemoveEntry(modulePath)
	atomic.AddInt64(&mgr.stats.Invalidations, 1)
}

// InvalidateAll discards the entire manifest, forcing a full rebuild on the
// next run (used when the schema or configuration itself changes).
func (mgr *Manager) InvalidateAll() {
	mgr.manifest = NewManifest(mgr.configHash)
	mgr.engine = NewInvalidationEngine(mgr.manifest)
}

// Cleanup drops manifest rows for modules no longer present in
// currentPaths and removes any modules/*.bin blob no manifest entry
// references, reclaiming disk space from stale builds.
func (mgr *Manager) Cleanup(currentPaths map[string]bool) error {
	mgr.manifest.CleanupStaleEntries(currentPaths)

	live := make(map[string]bool, len(mgr.manifest.Modules))
	for _, entry := range mgr.manifest.Modules {
		live[entry.CacheHash] = true
	}

	modulesDir := filepath.Join(mgr.dir, ModulesDirName)
	entries, err := os.ReadDir(modulesDir)
	if err != nil {
		return fmt.Errorf("cache: reading modules dir: %w", err)
	}
	for _, de := range entries {
		hash := trimBinExt(de.Name())
		if !live[hash] {
			_ = os.Remove(filepath.Join(modulesDir, de.Name()))
		}
	}
	return nil
}

// Stats returns a point-in-time snapshot of the cache's performance
// counters.
func (mgr *Manager) Stats() Stats {
	return mgr.stats.snapshot()
}

func (mgr *Manager) modulePath(cacheHash string) string {
	return filepath.Join(mgr.dir, ModulesDirName, cacheHash+".bin")
}

func trimBinExt(name string) string {
	const ext = ".bin"
	if len(name) > len(ext) && name[len(name)-len(ext):] == ext {
		return name[:len(name)-len(ext)]
	}
	return name
}
