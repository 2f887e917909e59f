// Package resolver turns a module's import/export statements into resolved
// file paths, builds the whole-program module dependency graph from those
// edges, and orders modules so that a module is always type-checked after
// everything it depends on.
package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/luanext/luanext/pkg/config"
)

// SourceExtension is the canonical file extension a bare import specifier
// resolves against when it names a directory-relative module with no
// extension of its own (`import "./util"` -> `./util.luax`).
const SourceExtension = ".luax"

// Resolver turns an import specifier written in some module into an
// absolute path on disk, honoring the project's configured path aliases.
// It never touches import *statements* themselves — that's the caller's
// job via ast.ImportStmt/ExportStmt — only specifier-to-path resolution.
type Resolver struct {
	root *string
	cfg  *config.Config
	stat func(string) (os.FileInfo, error)
}

// New creates a Resolver rooted at workspaceRoot, an absolute path imports
// are resolved relative to once an alias has rewritten them.
func New(workspaceRoot string, cfg *config.Config) *Resolver {
	root := workspaceRoot
	return &Resolver{root: &root, cfg: cfg, stat: os.Stat}
}

// Resolve turns the specifier of an import/re-export written inside
// fromPath into an absolute file path. A relative specifier (`./`, `../`)
// resolves against fromPath's directory; anything else is checked against
// the configured alias map and, on a match, resolved against the workspace
// root. A specifier matching neither is an external package reference —
// ok is false and err is nil, since that's not a resolution failure, just
// outside this resolver's remit.
func (r *Resolver) Resolve(fromPath, specifier string) (resolved string, ok bool, err error) {
	var candidate string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"):
		candidate = filepath.Join(filepath.Dir(fromPath), specifier)
	default:
		rewritten, matched := r.cfg.ResolveAlias(specifier)
		if !matched {
			return "", false, nil
		}
		candidate = filepath.Join(*r.root, rewritten)
	}

	path, err := r.withExtension(candidate)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}

// withExtension finds the actual file backing candidate: as written, with
// SourceExtension appended, or as an index.luax inside it if candidate
// names a directory.
func (r *Resolver) withExtension(candidate string) (string, error) {
	for _, try := range []string{candidate, candidate + SourceExtension, filepath.Join(candidate, "index"+SourceExtension)} {
		if info, err := r.stat(try); err == nil && !info.IsDir() {
			return try, nil
		}
	}
	return "", &NotFoundError{Specifier: candidate}
}

// NotFoundError reports an import specifier that resolved to no file on
// disk under any of the extensions tried.
type NotFoundError struct {
	Specifier string
}

func (e *NotFoundError) Error() string {
	return "module not found: " + e.Specifier
}
