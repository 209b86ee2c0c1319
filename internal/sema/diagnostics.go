package sema

import (
	"fmt"
	"slices"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/symbols"
)

// Diagnostics is a sealed, immutable set of findings for one trait.
// The zero value is the empty set.
type Diagnostics struct {
	items []diag.Diagnostic
}

func (d Diagnostics) Len() int      { return len(d.items) }
func (d Diagnostics) IsEmpty() bool { return len(d.items) == 0 }

func (d Diagnostics) HasErrors() bool {
	for i := range d.items {
		if d.items[i].Severity >= diag.SevError {
			return true
		}
	}
	return false
}

// Items returns a deep copy of the diagnostics in report order.
func (d Diagnostics) Items() []diag.Diagnostic {
	if len(d.items) == 0 {
		return nil
	}
	out := make([]diag.Diagnostic, len(d.items))
	for i := range d.items {
		out[i] = d.items[i].Clone()
	}
	return out
}

func (d Diagnostics) Equal(other Diagnostics) bool {
	return slices.EqualFunc(d.items, other.items, diag.Diagnostic.Equal)
}

// SemanticDiagnostics collects the diagnostics of one trait resolution.
// It is owned by a single resolver call and sealed by Build; it is not safe
// for concurrent use.
type SemanticDiagnostics struct {
	module symbols.ModuleID
	items  []diag.Diagnostic
	sealed bool
}

// NewSemanticDiagnostics opens a scope bound to module.
func NewSemanticDiagnostics(module symbols.ModuleID) *SemanticDiagnostics {
	return &SemanticDiagnostics{module: module}
}

// Module returns the module the scope reports against.
func (s *SemanticDiagnostics) Module() symbols.ModuleID { return s.module }

// Report implements diag.Reporter. Reporting into a sealed scope panics.
func (s *SemanticDiagnostics) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	if s.sealed {
		panic(fmt.Sprintf("sema: report %s into sealed diagnostics scope of module %d", code.ID(), s.module))
	}
	s.items = append(s.items, diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Primary:  primary,
		Notes:    slices.Clone(notes),
	})
}

// Build seals the scope. It must be called exactly once.
func (s *SemanticDiagnostics) Build() Diagnostics {
	if s.sealed {
		panic(fmt.Sprintf("sema: diagnostics scope of module %d sealed twice", s.module))
	}
	s.sealed = true
	items := s.items
	s.items = nil
	return Diagnostics{items: slices.Clip(items)}
}

var _ diag.Reporter = (*SemanticDiagnostics)(nil)
