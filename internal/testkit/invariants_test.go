package testkit

import (
	"strings"
	"testing"

	"strata/internal/ast"
	"strata/internal/source"
)

func TestCheckSpanInvariantsRejectsEscapingTrait(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.st", []byte("trait A;"))
	sf := fs.Get(id)

	good := &ast.File{
		Source: id,
		Span:   source.Span{File: id, Start: 0, End: 8},
		Traits: []*ast.TraitItem{{
			NameSpan: source.Span{File: id, Start: 6, End: 7},
			Span:     source.Span{File: id, Start: 0, End: 8},
		}},
	}
	if err := CheckSpanInvariants(good, sf); err != nil {
		t.Fatalf("valid file rejected: %v", err)
	}

	bad := *good
	bad.Traits = []*ast.TraitItem{{
		NameSpan: source.Span{File: id, Start: 6, End: 7},
		Span:     source.Span{File: id, Start: 0, End: 12},
	}}
	err := CheckSpanInvariants(&bad, sf)
	if err == nil || !strings.Contains(err.Error(), "escapes file") {
		t.Fatalf("err = %v, want escape error", err)
	}
}
