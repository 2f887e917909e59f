package cache

// InvalidationEngine implements the four-step precise invalidation protocol:
//
//  1. Schema/config mismatch invalidates everything.
//  2. A changed source hash invalidates that module outright.
//  3. An unchanged source hash but changed declaration-signature hash
//     invalidates only the declarations whose signature moved, plus
//     whatever calls them transitively (via the declaration-dependency
//     graph), rather than the whole module.
//  4. Nothing changed: cache hit, reuse the cached module verbatim.
//
type InvalidationEngine struct {
	manifest *Manifest
}

func NewInvalidationEngine(manifest *Manifest) *InvalidationEngine {
	return &InvalidationEngine{manifest: manifest}
}

// Verdict describes what a single module's lookup resolved to.
type Verdict int

const (
	VerdictHit Verdict = iota
	VerdictMissNoEntry
	VerdictMissSourceChanged
	VerdictMissDeclarationsChanged
)

func (v Verdict) String() string {
	switch v {
	case VerdictHit:
		return "hit"
	case VerdictMissNoEntry:
		return "miss(no-entry)"
	case VerdictMissSourceChanged:
		return "miss(source-changed)"
	case VerdictMissDeclarationsChanged:
		return "miss(declarations-changed)"
	default:
		return "miss(unknown)"
	}
}

// Check runs steps 2-4 for a single module (step 1, the schema/config
// check, is global and handled by Manager before any per-module lookup).
// It returns the verdict and, for VerdictMissDeclarationsChanged, the names
// of the declarations that actually changed (not the full invalidation
// closure — see TransitiveClosure).
func (e *InvalidationEngine) Check(modulePath, sourceHash string, newDeclHashes map[string]uint64) (Verdict, []string) {
	entry, ok := e.manifest.GetEntry(modulePath)
	if !ok {
		return VerdictMissNoEntry, nil
	}
	if entry.SourceHash != sourceHash {
		return VerdictMissSourceChanged, nil
	}
	changed := e.manifest.GetChangedDeclarations(modulePath, newDeclHashes)
	if len(changed) > 0 {
		return VerdictMissDeclarationsChanged, changed
	}
	return VerdictHit, nil
}

// TransitiveClosure walks the declaration-dependency graph outward from a
// set of directly-changed declarations in modulePath, returning every
// (module, declaration) pair that must also be treated as invalidated
// because it calls, directly or indirectly, something whose signature
// moved, transitively.
func (e *InvalidationEngine) TransitiveClosure(modulePath string, changedDecls []string) []DeclDependent {
	seen := make(map[DeclDependent]bool)
	var queue []DeclDependent
	for _, name := range changedDecls {
		root := DeclDependent{Module: modulePath, Name: name}
		if !seen[root] {
			seen[root] = true
			queue = append(queue, root)
		}
	}

	var out []DeclDependent
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dependents := e.manifest.GetDependentsOfDeclaration(cur.Module, cur.Name)
		for _, dep := range dependents {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	return out
}

// AffectedModules reduces a TransitiveClosure result to the distinct set of
// module paths that must be recompiled.
func AffectedModules(deps []DeclDependent) []string {
	seen := make(map[string]bool)
	var out []string
	for _, d := range deps {
		if !seen[d.Module] {
			seen[d.Module] = true
			out = append(out, d.Module)
		}
	}
	return out
}
