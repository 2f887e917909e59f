package errors

import "sync"

// Handler accumulates diagnostics across a compilation run so the driver
// can keep going after a type error in one module to surface errors in
// the rest of the workspace in a single pass, rather than stopping at the
// first failure. Safe for concurrent use by the worker-pool driver.
type Handler struct {
	mu          sync.Mutex
	diagnostics []*Diagnostic
}

// NewHandler creates an empty Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Report records a diagnostic. Nil is ignored so call sites can report
// the result of a function that returns (value, *Diagnostic) without an
// extra nil check.
func (h *Handler) Report(d *Diagnostic) {
	if d == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diagnostics = append(h.diagnostics, d)
}

// HasErrors reports whether any diagnostic of the given kinds (or any
// kind at all, if none are given) has been recorded.
func (h *Handler) HasErrors(kinds ...Kind) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(kinds) == 0 {
		return len(h.diagnostics) > 0
	}
	for _, d := range h.diagnostics {
		for _, k := range kinds {
			if d.Kind == k {
				return true
			}
		}
	}
	return false
}

// Diagnostics returns a snapshot of every diagnostic recorded so far, in
// report order.
func (h *Handler) Diagnostics() []*Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Diagnostic, len(h.diagnostics))
	copy(out, h.diagnostics)
	return out
}

// Count returns the number of recorded diagnostics of the given kind, or
// the total count if no kind is given.
func (h *Handler) Count(kinds ...Kind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(kinds) == 0 {
		return len(h.diagnostics)
	}
	n := 0
	for _, d := range h.diagnostics {
		for _, k := range kinds {
			if d.Kind == k {
				n++
			}
		}
	}
	return n
}

// Reset clears every recorded diagnostic, for reuse across incremental
// rebuilds of the same Handler.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.diagnostics = nil
}
