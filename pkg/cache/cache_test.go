package cache

import (
	"path/filepath"
	"testing"
)

func TestHashBytesDeterministic(t *testing.T) {
	a := HashBytes([]byte("local x = 1"))
	b := HashBytes([]byte("local x = 1"))
	c := HashBytes([]byte("local x = 2"))
	if a != b {
		t.Fatalf("expected identical input to hash identically")
	}
	if a == c {
		t.Fatalf("expected different input to hash differently")
	}
}

func TestManifestInsertAndDependents(t *testing.T) {
	m := NewManifest("cfg-hash")
	m.InsertEntry("a.lx", &CacheEntry{SourcePath: "a.lx", SourceHash: "h1", Dependencies: []string{"b.lx"}})
	m.InsertEntry("c.lx", &CacheEntry{SourcePath: "c.lx", SourceHash: "h2", Dependencies: []string{"b.lx"}})

	importers := m.Importers("b.lx")
	if len(importers) != 2 {
		t.Fatalf("expected 2 importers of b.lx, got %d: %v", len(importers), importers)
	}

	// Re-inserting a.lx with no dependency on b.lx should drop the edge.
	m.InsertEntry("a.lx", &CacheEntry{SourcePath: "a.lx", SourceHash: "h1b"})
	importers = m.Importers("b.lx")
	if len(importers) != 1 || importers[0] != "c.lx" {
		t.Fatalf("expected only c.lx to import b.lx after a.lx dropped the dependency, got %v", importers)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	m := NewManifest("cfg-hash")
	m.InsertEntry("a.lx", &CacheEntry{SourcePath: "a.lx", SourceHash: "h1", CacheHash: "ch1"})
	m.UpdateDeclarationHashes("a.lx", map[string]uint64{"foo": 42})

	data, err := m.ToBytes()
	if err != nil {
		t.Fatalf("ToBytes: %v", err)
	}
	restored, err := ManifestFromBytes(data)
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if !restored.IsVersionCompatible() {
		t.Fatalf("expected restored manifest to be version-compatible")
	}
	if restored.ConfigHash != "cfg-hash" {
		t.Fatalf("config hash did not survive round trip")
	}
	entry, ok := restored.GetEntry("a.lx")
	if !ok || entry.SourceHash != "h1" {
		t.Fatalf("entry did not survive round trip: %+v", entry)
	}
	hashes, ok := restored.GetDeclarationHashes("a.lx")
	if !ok || hashes["foo"] != 42 {
		t.Fatalf("declaration hashes did not survive round trip: %+v", hashes)
	}
}

func TestFromBytesCorruptDataDegradesGracefully(t *testing.T) {
	if _, err := ManifestFromBytes([]byte("not msgpack")); err == nil {
		t.Fatalf("expected an error for corrupt manifest bytes")
	}
	if _, err := CachedModuleFromBytes([]byte("not msgpack")); err == nil {
		t.Fatalf("expected an error for corrupt module bytes")
	}
}

func TestInvalidationEngineVerdicts(t *testing.T) {
	m := NewManifest("cfg")
	engine := NewInvalidationEngine(m)

	if v, _ := engine.Check("a.lx", "h1", nil); v != VerdictMissNoEntry {
		t.Fatalf("expected miss-no-entry for unseen module, got %v", v)
	}

	m.InsertEntry("a.lx", &CacheEntry{SourcePath: "a.lx", SourceHash: "h1"})
	m.UpdateDeclarationHashes("a.lx", map[string]uint64{"f": 1})

	if v, _ := engine.Check("a.lx", "h2", map[string]uint64{"f": 1}); v != VerdictMissSourceChanged {
		t.Fatalf("expected miss-source-changed, got %v", v)
	}

	if v, _ := engine.Check("a.lx", "h1", map[string]uint64{"f": 1}); v != VerdictHit {
		t.Fatalf("expected hit when source and declarations are unchanged, got %v", v)
	}

	v, changed := engine.Check("a.lx", "h1", map[string]uint64{"f": 2})
	if v != VerdictMissDeclarationsChanged {
		t.Fatalf("expected miss-declarations-changed, got %v", v)
	}
	if len(changed) != 1 || changed[0] != "f" {
		t.Fatalf("expected [f] to be reported changed, got %v", changed)
	}
}

func TestTransitiveClosurePropagatesAcrossModules(t *testing.T) {
	m := NewManifest("cfg")
	// b.lx's function `callsF` calls a.lx's `f`.
	m.UpdateDeclarationDependencies("a.lx", map[string][]DeclDependent{
		"f": {{Module: "b.lx", Name: "callsF"}},
	})
	// c.lx's `callsCallsF` calls b.lx's `callsF`.
	m.UpdateDeclarationDependencies("b.lx", map[string][]DeclDependent{
		"callsF": {{Module: "c.lx", Name: "callsCallsF"}},
	})

	engine := NewInvalidationEngine(m)
	closure := engine.TransitiveClosure("a.lx", []string{"f"})

	if len(closure) != 2 {
		t.Fatalf("expected transitive closure of size 2, got %d: %+v", len(closure), closure)
	}
	affected := AffectedModules(closure)
	if len(affected) != 2 {
		t.Fatalf("expected 2 affected modules, got %v", affected)
	}
}

func TestManagerLookupWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Load(dir, "cfg-hash")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	res, err := mgr.Lookup("a.lx", "srchash1", map[string]uint64{"f": 1})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Verdict != VerdictMissNoEntry {
		t.Fatalf("expected initial lookup to miss, got %v", res.Verdict)
	}

	cached := &CachedModule{
		Path:                "a.lx",
		SourceHash:          "srchash1",
		ExportNames:         []string{"f"},
		SerializableExports: &SerializableModuleExports{Named: []SerializableExportedDecl{{Name: "f", TypeDesc: "function"}}},
	}
	if err := mgr.Write("a.lx", cached, nil, map[string]uint64{"f": 1}, nil, 1000); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err = mgr.Lookup("a.lx", "srchash1", map[string]uint64{"f": 1})
	if err != nil {
		t.Fatalf("Lookup after write: %v", err)
	}
	if res.Verdict != VerdictHit {
		t.Fatalf("expected hit after write, got %v", res.Verdict)
	}
	if res.Module == nil || res.Module.Path != "a.lx" {
		t.Fatalf("expected cached module to round trip, got %+v", res.Module)
	}

	if err := mgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// A fresh Manager over the same dir should see the persisted hit.
	mgr2, err := Load(dir, "cfg-hash")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	res, err = mgr2.Lookup("a.lx", "srchash1", map[string]uint64{"f": 1})
	if err != nil {
		t.Fatalf("Lookup on reloaded manager: %v", err)
	}
	if res.Verdict != VerdictHit {
		t.Fatalf("expected hit on reloaded manager, got %v", res.Verdict)
	}

	stats := mgr.Stats()
	if stats.Hits == 0 {
		t.Fatalf("expected at least one hit counted, got %+v", stats)
	}
}

func TestManagerLookupMissesWithoutSerializableExports(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Load(dir, "cfg-hash")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// A cached module with no recorded exports (e.g. written by a build
	// that never ran the type checker) can't stand in for a real hit:
	// nothing downstream could resolve imports against it.
	cached := &CachedModule{Path: "a.lx", SourceHash: "srchash1", ExportNames: []string{"f"}}
	if err := mgr.Write("a.lx", cached, nil, map[string]uint64{"f": 1}, nil, 1000); err != nil {
		t.Fatalf("Write: %v", err)
	}

	res, err := mgr.Lookup("a.lx", "srchash1", map[string]uint64{"f": 1})
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Verdict != VerdictMissNoEntry {
		t.Fatalf("expected miss when serializable_exports is absent, got %v", res.Verdict)
	}
	if res.Module != nil {
		t.Fatalf("expected no module on a miss verdict, got %+v", res.Module)
	}

	stats := mgr.Stats()
	if stats.Hits != 0 {
		t.Fatalf("expected no hits counted, got %+v", stats)
	}
	if stats.MissesNoEntry == 0 {
		t.Fatalf("expected the absent-exports lookup to count as a no-entry miss, got %+v", stats)
	}
}

func TestManagerConfigHashMismatchDiscardsCache(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Load(dir, "cfg-v1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cached := &CachedModule{Path: "a.lx", SourceHash: "srchash1"}
	if err := mgr.Write("a.lx", cached, nil, nil, nil, 1000); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := mgr.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	mgr2, err := Load(dir, "cfg-v2")
	if err != nil {
		t.Fatalf("reload with new config hash: %v", err)
	}
	res, err := mgr2.Lookup("a.lx", "srchash1", nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Verdict != VerdictMissNoEntry {
		t.Fatalf("expected config-hash change to discard the cache, got %v", res.Verdict)
	}
}

func TestManagerCleanupRemovesStaleModulesAndBlobs(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Load(dir, "cfg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := mgr.Write("a.lx", &CachedModule{Path: "a.lx", SourceHash: "h1"}, nil, nil, nil, 1); err != nil {
		t.Fatalf("Write a: %v", err)
	}
	if err := mgr.Write("b.lx", &CachedModule{Path: "b.lx", SourceHash: "h2"}, nil, nil, nil, 1); err != nil {
		t.Fatalf("Write b: %v", err)
	}

	if err := mgr.Cleanup(map[string]bool{"a.lx": true}); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	if _, ok := mgr.manifest.GetEntry("b.lx"); ok {
		t.Fatalf("expected b.lx entry to be cleaned up")
	}
	if _, ok := mgr.manifest.GetEntry("a.lx"); !ok {
		t.Fatalf("expected a.lx entry to survive cleanup")
	}

	entries, err := filepath.Glob(filepath.Join(dir, ModulesDirName, "*.bin"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one surviving module blob, got %v", entries)
	}
}

func TestManagerSourceUnchangedReturnsPriorDeclarationHashes(t *testing.T) {
	dir := t.TempDir()
	mgr, err := Load(dir, "cfg")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, ok := mgr.SourceUnchanged("a.lx", "h1"); ok {
		t.Fatalf("expected no prior entry to report unchanged")
	}

	if err := mgr.Write("a.lx", &CachedModule{Path: "a.lx", SourceHash: "h1"}, nil, map[string]uint64{"f": 7}, nil, 1); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, ok := mgr.SourceUnchanged("a.lx", "h2"); ok {
		t.Fatalf("expected a changed source hash to report not-unchanged")
	}

	hashes, ok := mgr.SourceUnchanged("a.lx", "h1")
	if !ok {
		t.Fatalf("expected the matching source hash to report unchanged")
	}
	if hashes["f"] != 7 {
		t.Fatalf("expected the prior declaration hashes to be returned, got %+v", hashes)
	}
}
