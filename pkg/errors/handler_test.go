package errors_test

import (
	"testing"

	luaerrors "github.com/luanext/luanext/pkg/errors"
)

func TestHandlerAccumulatesAcrossReports(t *testing.T) {
	h := luaerrors.NewHandler()
	h.Report(luaerrors.New(luaerrors.ParseError, "unexpected token"))
	h.Report(luaerrors.New(luaerrors.TypeError, "type mismatch"))
	h.Report(nil)

	if h.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", h.Count())
	}
	if !h.HasErrors(luaerrors.ParseError) {
		t.Fatalf("expected HasErrors(ParseError) to be true")
	}
	if h.HasErrors(luaerrors.InternalError) {
		t.Fatalf("expected HasErrors(InternalError) to be false")
	}
}

func TestHandlerDiagnosticsPreservesReportOrder(t *testing.T) {
	h := luaerrors.NewHandler()
	h.Report(luaerrors.New(luaerrors.ParseError, "first"))
	h.Report(luaerrors.New(luaerrors.TypeError, "second"))

	got := h.Diagnostics()
	if len(got) != 2 || got[0].Message != "first" || got[1].Message != "second" {
		t.Fatalf("Diagnostics() = %+v", got)
	}
}

func TestHandlerResetClearsRecordedDiagnostics(t *testing.T) {
	h := luaerrors.NewHandler()
	h.Report(luaerrors.New(luaerrors.ParseError, "boom"))
	h.Reset()

	if h.Count() != 0 {
		t.Fatalf("expected Count() == 0 after Reset, got %d", h.Count())
	}
	if h.HasErrors() {
		t.Fatalf("expected HasErrors() to be false after Reset")
	}
}
