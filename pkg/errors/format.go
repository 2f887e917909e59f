package errors

import (
	"fmt"
	"os"
	"strings"
	"sync"

	luaast "github.com/luanext/luanext/pkg/ast"
)

const sourceCacheCapacity = 100

// sourceCache memoizes the split lines of recently read source files so
// that formatting many diagnostics against the same module only reads it
// off disk once. Bounded FIFO eviction keeps it from growing unbounded
// across a long-running driver or language-server process.
type sourceCache struct {
	mu    sync.Mutex
	lines map[string][]string
	order []string
}

var sources = &sourceCache{lines: make(map[string][]string)}

func (c *sourceCache) get(path string) ([]string, error) {
	c.mu.Lock()
	if ls, ok := c.lines[path]; ok {
		c.mu.Unlock()
		return ls, nil
	}
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ls := strings.Split(string(data), "\n")

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.lines[path]; !ok {
		if len(c.order) >= sourceCacheCapacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.lines, oldest)
		}
		c.order = append(c.order, path)
	}
	c.lines[path] = ls
	return ls, nil
}

// ClearSourceCache discards all cached file contents. Tests that write
// then rewrite a fixture file at the same path should call this between
// runs so stale lines aren't served.
func ClearSourceCache() {
	sources.mu.Lock()
	defer sources.mu.Unlock()
	sources.lines = make(map[string][]string)
	sources.order = nil
}

const contextLines = 2

// Format renders the diagnostic rustc-style: a header line, a source
// snippet with line-number gutters and a caret underline beneath the
// offending span, then an optional hint and missing-items list. Falls
// back to the plain Error() form when there is no usable span or the
// source file can't be read (most commonly an IOError reporting on the
// very file that failed to read).
func (d *Diagnostic) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", d.Kind, d.Message)

	if d.Path == "" || d.Span.StartLine <= 0 {
		return d.Error()
	}
	fmt.Fprintf(&b, "  --> %s:%d:%d\n", d.Path, d.Span.StartLine, d.Span.StartCol)

	lines, err := sources.get(d.Path)
	if err != nil {
		return d.Error()
	}
	snippet, highlight, ok := windowAround(lines, d.Span.StartLine, contextLines)
	if ok {
		gutterWidth := len(fmt.Sprintf("%d", d.Span.StartLine+contextLines))
		for i, line := range snippet {
			lineNo := d.Span.StartLine - highlight + i
			fmt.Fprintf(&b, " %*d | %s\n", gutterWidth, lineNo, line)
			if i == highlight {
				b.WriteString(strings.Repeat(" ", gutterWidth+3))
				b.WriteString(caretUnderline(line, d.Span.StartCol, caretWidth(d.Span)))
				b.WriteString("\n")
			}
		}
	}

	if d.Hint != "" {
		fmt.Fprintf(&b, "  = hint: %s\n", d.Hint)
	}
	if len(d.Missing) > 0 {
		fmt.Fprintf(&b, "  = missing: %s\n", strings.Join(d.Missing, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// caretWidth derives how many columns to underline from a span that may
// cross multiple lines; a single-line span underlines its own width,
// anything else (or a degenerate zero-width span) underlines one column.
func caretWidth(span luaast.Span) int {
	if span.EndLine == span.StartLine && span.EndCol > span.StartCol {
		return span.EndCol - span.StartCol
	}
	return 1
}

func caretUnderline(line string, col, width int) string {
	if col < 1 {
		col = 1
	}
	if width < 1 {
		width = 1
	}
	pad := col - 1
	if pad > len(line) {
		pad = len(line)
	}
	return strings.Repeat(" ", pad) + strings.Repeat("^", width)
}

// windowAround returns up to contextLines before and after the 1-indexed
// target line (clamped to the file's bounds), along with the index of the
// target line within the returned slice.
func windowAround(lines []string, targetLine, context int) (snippet []string, highlightIdx int, ok bool) {
	if targetLine < 1 || targetLine > len(lines) {
		return nil, 0, false
	}
	start := targetLine - context
	if start < 1 {
		start = 1
	}
	end := targetLine + context
	if end > len(lines) {
		end = len(lines)
	}
	return lines[start-1 : end], targetLine - start, true
}
