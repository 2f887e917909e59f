package errors_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	luaast "github.com/luanext/luanext/pkg/ast"
	luaerrors "github.com/luanext/luanext/pkg/errors"
)

func TestDiagnosticErrorFormsCompactMessage(t *testing.T) {
	d := luaerrors.At(luaerrors.TypeError, "main.luax", luaast.Span{StartLine: 3, StartCol: 5}, "cannot assign string to number")
	got := d.Error()
	if !strings.Contains(got, "Type Error") || !strings.Contains(got, "main.luax:3:5") {
		t.Fatalf("Error() = %q", got)
	}
}

func TestDiagnosticWrapPreservesCause(t *testing.T) {
	cause := errors.New("permission denied")
	d := luaerrors.Wrap(luaerrors.IOError, "main.luax", cause)
	if errors.Unwrap(d) != cause {
		t.Fatalf("expected Unwrap to return the wrapped cause")
	}
}

func TestDiagnosticFormatRendersSourceSnippetWithCaret(t *testing.T) {
	luaerrors.ClearSourceCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.luax")
	source := "let x: number = 1\nlet y: string = x\nprint(y)\n"
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := luaerrors.At(luaerrors.TypeError, path, luaast.Span{StartLine: 2, StartCol: 17, EndLine: 2, EndCol: 18}, "type mismatch: expected string, found number").
		WithHint("convert with tostring(x)")

	out := d.Format()
	if !strings.Contains(out, "let y: string = x") {
		t.Fatalf("expected the offending line in the snippet, got:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("expected a caret underline, got:\n%s", out)
	}
	if !strings.Contains(out, "hint: convert with tostring(x)") {
		t.Fatalf("expected the hint to be rendered, got:\n%s", out)
	}
}

func TestDiagnosticFormatIncludesMissingItems(t *testing.T) {
	luaerrors.ClearSourceCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.luax")
	if err := os.WriteFile(path, []byte("match shape {\n  Circle -> 1\n}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d := luaerrors.At(luaerrors.TypeError, path, luaast.Span{StartLine: 1, StartCol: 1}, "non-exhaustive match").
		WithMissing([]string{"Square", "Triangle"})

	out := d.Format()
	if !strings.Contains(out, "Square") || !strings.Contains(out, "Triangle") {
		t.Fatalf("expected missing items listed, got:\n%s", out)
	}
}

func TestDiagnosticFormatWithoutSpanFallsBackToCompactForm(t *testing.T) {
	d := luaerrors.New(luaerrors.InternalError, "arena index out of range")
	out := d.Format()
	if out != d.Error() {
		t.Fatalf("expected Format() to fall back to Error() with no span, got: %q vs %q", out, d.Error())
	}
}

func TestDiagnosticFormatMissingSourceFileFallsBackGracefully(t *testing.T) {
	luaerrors.ClearSourceCache()
	d := luaerrors.At(luaerrors.ParseError, "/nonexistent/does-not-exist.luax", luaast.Span{StartLine: 1, StartCol: 1}, "unexpected token")
	out := d.Format()
	if !strings.Contains(out, "Parse Error") {
		t.Fatalf("expected the header to still render, got: %q", out)
	}
}

func TestSourceCacheServesRepeatedReadsFromSameFile(t *testing.T) {
	luaerrors.ClearSourceCache()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.luax")
	if err := os.WriteFile(path, []byte("let x = 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d1 := luaerrors.At(luaerrors.TypeError, path, luaast.Span{StartLine: 1, StartCol: 1}, "first")
	d2 := luaerrors.At(luaerrors.TypeError, path, luaast.Span{StartLine: 1, StartCol: 1}, "second")

	out1 := d1.Format()
	if err := os.WriteFile(path, []byte("let x = 2\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	out2 := d2.Format()

	if !strings.Contains(out1, "let x = 1") || !strings.Contains(out2, "let x = 1") {
		t.Fatalf("expected the cached content (pre-rewrite) to be reused for both diagnostics, got:\n%s\n---\n%s", out1, out2)
	}
}
