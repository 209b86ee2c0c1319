package diagfmt

import (
	"io"

	"strata/internal/diag"
	"strata/internal/source"
)

// Short writes the stable one-line-per-diagnostic form used by golden
// tests. Diagnostics without a resolvable location are omitted.
func Short(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, withNotes bool) error {
	out := diag.FormatGoldenDiagnostics(diags, fs, withNotes)
	if out == "" {
		return nil
	}
	_, err := io.WriteString(w, out+"\n")
	return err
}
