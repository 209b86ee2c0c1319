package diag

import (
	"fmt"
	"sort"
	"strings"

	"strata/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
}

// FormatGoldenDiagnostics renders diagnostics one per line in a stable order:
//
//	error SEM3102 core.st:3:9 bound of `X` is empty
//
// Diagnostics whose span does not resolve in fs are dropped. Returns "" when
// nothing remains.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendDiagnostic(rendered, &diags[i], fs, includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendDiagnostic(out []goldenDiagnostic, d *Diagnostic, fs *source.FileSet, includeNotes bool) []goldenDiagnostic {
	if start, _, ok := fs.Resolve(d.Primary); ok {
		out = append(out, goldenDiagnostic{
			Severity: d.Severity.Label(),
			Code:     d.Code.ID(),
			Path:     fs.RelPath(d.Primary.File),
			Line:     start.Line,
			Column:   start.Col,
			Message:  sanitizeMessage(d.Message),
		})
	}
	if !includeNotes {
		return out
	}
	for _, note := range d.Notes {
		start, _, ok := fs.Resolve(note.Span)
		if !ok {
			continue
		}
		out = append(out, goldenDiagnostic{
			Severity: "note",
			Code:     d.Code.ID(),
			Path:     fs.RelPath(note.Span.File),
			Line:     start.Line,
			Column:   start.Col,
			Message:  sanitizeMessage(note.Msg),
		})
	}
	return out
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\r", "\n")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
