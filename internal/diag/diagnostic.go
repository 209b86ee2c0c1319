package diag

import (
	"slices"

	"strata/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is a single finding. Values are treated as immutable once
// reported; Clone before modifying a shared one.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(slices.Clip(d.Notes), Note{Span: sp, Msg: msg})
	return d
}

// Clone returns a deep copy.
func (d Diagnostic) Clone() Diagnostic {
	d.Notes = slices.Clone(d.Notes)
	return d
}

// Equal compares two diagnostics field by field, notes included.
func (d Diagnostic) Equal(other Diagnostic) bool {
	return d.Severity == other.Severity &&
		d.Code == other.Code &&
		d.Message == other.Message &&
		d.Primary == other.Primary &&
		slices.Equal(d.Notes, other.Notes)
}
