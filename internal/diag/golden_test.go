package diag

import (
	"testing"

	"strata/internal/source"
)

func TestFormatGoldenDiagnostics(t *testing.T) {
	fs := source.NewFileSetWithBase("/workspace")
	file := fs.Add("/workspace/core/core.st", []byte("trait A<X:>;\ntrait B;\n"), 0)

	diags := []Diagnostic{
		{
			Severity: SevWarning,
			Code:     SemaError,
			Message:  "another",
			Primary:  source.Span{File: file, Start: 13, End: 18},
		},
		{
			Severity: SevError,
			Code:     SemaTraitMalformedBound,
			Message:  "first line\nsecond",
			Primary:  source.Span{File: file, Start: 8, End: 10},
			Notes: []Note{
				{Span: source.Span{File: 99}, Msg: "unresolvable"},
				{Span: source.Span{File: file, Start: 6, End: 7}, Msg: "declared here"},
			},
		},
	}

	expected := "note SEM3102 core/core.st:1:7 declared here\n" +
		"error SEM3102 core/core.st:1:9 first line second\n" +
		"warning SEM3001 core/core.st:2:1 another"

	if got := FormatGoldenDiagnostics(diags, fs, true); got != expected {
		t.Fatalf("unexpected golden diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
	if got := FormatGoldenDiagnostics(nil, fs, true); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestBagSortDedupAndLimit(t *testing.T) {
	bag := NewBag(3)
	sp := func(start uint32) source.Span { return source.Span{File: 1, Start: start, End: start + 1} }

	bag.Add(New(SevError, SemaTraitUnknownBound, sp(5), "unknown"))
	bag.Add(New(SevWarning, SemaTraitDuplicateBound, sp(1), "dup"))
	bag.Add(New(SevError, SemaTraitUnknownBound, sp(5), "unknown"))
	if bag.Add(New(SevError, SemaError, sp(0), "over limit")) {
		t.Fatal("Add must refuse diagnostics past the limit")
	}

	bag.Dedup()
	bag.Sort()
	items := bag.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 items after dedup, got %d", len(items))
	}
	if items[0].Primary.Start != 1 || items[1].Primary.Start != 5 {
		t.Fatalf("unexpected order: %+v", items)
	}
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}

	other := NewBag(1)
	other.Add(New(SevError, SemaError, sp(9), "merged"))
	bag.Merge(other)
	if bag.Len() != 3 {
		t.Fatalf("Merge: Len = %d, want 3", bag.Len())
	}

	if !bag.Truncate(1) || bag.Len() != 1 || bag.Items()[0].Primary.Start != 1 {
		t.Fatalf("Truncate(1) left %+v", bag.Items())
	}
	if bag.Add(New(SevError, SemaError, sp(2), "after truncate")) {
		t.Fatal("Truncate must lower the limit")
	}
	if bag.Truncate(5) {
		t.Fatal("Truncate past Len must report nothing dropped")
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(10)
	b := ReportError(BagReporter{Bag: bag}, SemaTraitSelfBound, source.Span{File: 1}, "self bound").
		WithNote(source.Span{File: 1, Start: 2, End: 3}, "trait declared here")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", bag.Len())
	}
	if got := bag.Items()[0]; len(got.Notes) != 1 || got.Severity != SevError {
		t.Fatalf("unexpected diagnostic %+v", got)
	}
	if !b.Diagnostic().Equal(bag.Items()[0]) {
		t.Fatal("builder diagnostic must equal the emitted one")
	}
}

func TestSeverityNames(t *testing.T) {
	cases := []struct {
		sev          Severity
		upper, lower string
	}{
		{SevInfo, "INFO", "info"},
		{SevWarning, "WARNING", "warning"},
		{SevError, "ERROR", "error"},
		{Severity(9), "UNKNOWN", "info"},
	}
	for _, tc := range cases {
		if got := tc.sev.String(); got != tc.upper {
			t.Errorf("Severity(%d).String() = %q, want %q", tc.sev, got, tc.upper)
		}
		if got := tc.sev.Label(); got != tc.lower {
			t.Errorf("Severity(%d).Label() = %q, want %q", tc.sev, got, tc.lower)
		}
	}
}
