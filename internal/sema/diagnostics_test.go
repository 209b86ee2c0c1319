package sema

import (
	"testing"

	"strata/internal/diag"
	"strata/internal/source"
)

func expectPanic(t *testing.T, what string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("%s: expected panic", what)
		}
	}()
	fn()
}

func TestSemanticDiagnosticsSeal(t *testing.T) {
	scope := NewSemanticDiagnostics(modM)
	if scope.Module() != modM {
		t.Fatalf("Module = %d", scope.Module())
	}
	sp := source.Span{File: 1, Start: 0, End: 1}
	notes := []diag.Note{{Span: sp, Msg: "here"}}
	scope.Report(diag.SemaTraitUnknownBound, diag.SevError, sp, "unknown trait 'Q'", notes)
	diag.ReportWarning(scope, diag.SemaTraitDuplicateBound, sp, "duplicate bound").Emit()
	notes[0].Msg = "mutated"

	d := scope.Build()
	if d.Len() != 2 || !d.HasErrors() {
		t.Fatalf("Len=%d HasErrors=%v", d.Len(), d.HasErrors())
	}
	if got := d.Items()[0].Notes[0].Msg; got != "here" {
		t.Fatalf("notes aliased caller slice: %q", got)
	}

	expectPanic(t, "report after seal", func() {
		scope.Report(diag.SemaError, diag.SevError, sp, "late", nil)
	})
	expectPanic(t, "double seal", func() { scope.Build() })
}

func TestDiagnosticsValue(t *testing.T) {
	var empty Diagnostics
	if !empty.IsEmpty() || empty.HasErrors() || empty.Items() != nil {
		t.Fatal("zero Diagnostics must be empty")
	}
	if !empty.Equal(NewSemanticDiagnostics(modM).Build()) {
		t.Fatal("empty sets must be equal")
	}

	build := func(msg string) Diagnostics {
		s := NewSemanticDiagnostics(modM)
		diag.ReportWarning(s, diag.SemaTraitDuplicateBound, source.Span{File: 1}, msg).Emit()
		return s.Build()
	}
	a, b, c := build("x"), build("x"), build("y")
	if !a.Equal(b) || a.Equal(c) {
		t.Fatal("Equal compares content")
	}
	if a.HasErrors() {
		t.Fatal("warnings only")
	}

	items := a.Items()
	items[0].Message = "changed"
	if a.Items()[0].Message != "x" {
		t.Fatal("Items must return a copy")
	}
}
