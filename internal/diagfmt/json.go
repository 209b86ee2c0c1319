package diagfmt

import (
	"encoding/json"
	"io"

	"strata/internal/diag"
	"strata/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string        `json:"severity"`
	Code     string        `json:"code"`
	Title    string        `json:"title"`
	Message  string        `json:"message"`
	Location *LocationJSON `json:"location,omitempty"`
	Notes    []NoteJSON    `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Truncated   bool             `json:"truncated,omitempty"`
}

// makeLocation returns nil for spans outside the file set.
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) *LocationJSON {
	if fs.Get(span.File) == nil {
		return nil
	}
	loc := &LocationJSON{
		File:      formatPath(fs, span.File, pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		start, end, _ := fs.Resolve(span)
		loc.StartLine, loc.StartCol = start.Line, start.Col
		loc.EndLine, loc.EndCol = end.Line, end.Col
	}
	return loc
}

// BuildDiagnosticsOutput converts diagnostics into the JSON document shape.
func BuildDiagnosticsOutput(diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	limit := len(diags)
	if opts.Max > 0 && opts.Max < limit {
		limit = opts.Max
	}
	out := DiagnosticsOutput{
		Diagnostics: make([]DiagnosticJSON, 0, limit),
		Truncated:   limit < len(diags),
	}
	for i := range diags[:limit] {
		d := &diags[i]
		dj := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			dj.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				dj.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}
		out.Diagnostics = append(out.Diagnostics, dj)
	}
	out.Count = len(out.Diagnostics)
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(diags, fs, opts))
}
