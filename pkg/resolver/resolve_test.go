package resolver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/luanext/luanext/pkg/config"
	"github.com/luanext/luanext/pkg/resolver"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestResolveRelativeSpecifierAppendsExtension(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "util.luax"))

	r := resolver.New(root, config.DefaultConfig())
	got, ok, err := r.Resolve(filepath.Join(root, "src", "main.luax"), "./util")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ok {
		t.Fatalf("expected the relative specifier to resolve")
	}
	if got != filepath.Join(root, "src", "util.luax") {
		t.Fatalf("Resolve = %q", got)
	}
}

func TestResolveAliasedSpecifierRewritesAgainstWorkspaceRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "utils", "math.luax"))

	cfg := config.DefaultConfig()
	cfg.Alias["@/utils"] = "src/utils"
	r := resolver.New(root, cfg)

	got, ok, err := r.Resolve(filepath.Join(root, "src", "main.luax"), "@/utils/math")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !ok || got != filepath.Join(root, "src", "utils", "math.luax") {
		t.Fatalf("Resolve = %q, %v", got, ok)
	}
}

func TestResolveUnmatchedBareSpecifierIsExternalNotAnError(t *testing.T) {
	root := t.TempDir()
	r := resolver.New(root, config.DefaultConfig())

	_, ok, err := r.Resolve(filepath.Join(root, "main.luax"), "some-external-package")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ok {
		t.Fatalf("expected an unmatched bare specifier to be treated as external")
	}
}

func TestResolveMissingRelativeFileIsNotFoundError(t *testing.T) {
	root := t.TempDir()
	r := resolver.New(root, config.DefaultConfig())

	_, _, err := r.Resolve(filepath.Join(root, "main.luax"), "./missing")
	if err == nil {
		t.Fatalf("expected a NotFoundError")
	}
	var nf *resolver.NotFoundError
	if !asNotFound(err, &nf) {
		t.Fatalf("expected a *resolver.NotFoundError, got: %v", err)
	}
}

func asNotFound(err error, target **resolver.NotFoundError) bool {
	nf, ok := err.(*resolver.NotFoundError)
	if ok {
		*target = nf
	}
	return ok
}
