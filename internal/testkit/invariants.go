// Package testkit holds structural checks shared by parser and workspace tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"strata/internal/ast"
	"strata/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Span starts at 0, stays within content and points at sf
// 2) trait spans are non-empty, inside file.Span and in source order
// 3) names, attributes and generic lists sit inside their trait span
// 4) bounds sit inside their parameter's bounds span
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}

	// 1) file span sanity
	if f.Span.File != sf.ID || f.Source != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	if f.Span.Start != 0 || f.Span.End > lenContent {
		return fmt.Errorf("file span %v outside content of %d bytes", f.Span, lenContent)
	}
	if lenContent > 0 && f.Span.Empty() && len(f.Traits) > 0 {
		return fmt.Errorf("file span is empty: %v", f.Span)
	}

	var prevEnd uint32
	for i, tr := range f.Traits {
		if tr == nil {
			return fmt.Errorf("nil trait at %d", i)
		}
		// 2)
		if tr.Span.Empty() {
			return fmt.Errorf("trait %d: empty span %v", i, tr.Span)
		}
		if !within(tr.Span, f.Span) {
			return fmt.Errorf("trait %d: span %v escapes file %v", i, tr.Span, f.Span)
		}
		if tr.Span.Start < prevEnd {
			return fmt.Errorf("trait %d: span %v overlaps previous trait ending at %d", i, tr.Span, prevEnd)
		}
		prevEnd = tr.Span.End

		// 3)
		if !within(tr.NameSpan, tr.Span) {
			return fmt.Errorf("trait %d: name %v outside %v", i, tr.NameSpan, tr.Span)
		}
		for j, a := range tr.Attrs {
			if !within(a.Span, tr.Span) {
				return fmt.Errorf("trait %d attr %d: %v outside %v", i, j, a.Span, tr.Span)
			}
		}
		if len(tr.GenericParams) > 0 && !within(tr.GenericsSpan, f.Span) {
			return fmt.Errorf("trait %d: generics %v escape file", i, tr.GenericsSpan)
		}
		for j := range tr.GenericParams {
			p := &tr.GenericParams[j]
			if !within(p.Span, tr.GenericsSpan) {
				return fmt.Errorf("trait %d param %d: %v outside generics %v", i, j, p.Span, tr.GenericsSpan)
			}
			if !within(p.NameSpan, p.Span) {
				return fmt.Errorf("trait %d param %d: name %v outside %v", i, j, p.NameSpan, p.Span)
			}
			// 4)
			for k, b := range p.Bounds {
				if !within(b.Span, p.BoundsSpan) {
					return fmt.Errorf("trait %d param %d bound %d: %v outside %v", i, j, k, b.Span, p.BoundsSpan)
				}
			}
		}
	}
	return nil
}

func within(inner, outer source.Span) bool {
	return inner.File == outer.File && inner.Start >= outer.Start && inner.End <= outer.End && inner.Start <= inner.End
}
