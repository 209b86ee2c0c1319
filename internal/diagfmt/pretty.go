package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"strata/internal/diag"
	"strata/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgBlue, color.Bold),
		note:   color.New(color.FgCyan),
		code:   color.New(color.Faint),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes human-oriented diagnostics in input order:
//
//	app.st:1:13: error SEM3102: expected a trait bound after ':' in 'X'
//	   1 | trait Pair<X:>;
//	     |             ^
//	  note: ...
func Pretty(w io.Writer, diags []diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var b strings.Builder
	for i := range diags {
		d := &diags[i]
		sev := p.severity(d.Severity)
		fmt.Fprintf(&b, "%s: %s %s: %s\n",
			location(fs, d.Primary, opts.PathMode),
			sev.Sprint(d.Severity.Label()),
			p.code.Sprint(d.Code.ID()),
			clip(d.Message, opts.Width),
		)
		if opts.ShowSource {
			writeSnippet(&b, fs, d.Primary, p)
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if fs.Get(n.Span.File) == nil {
				fmt.Fprintf(&b, "  %s %s\n", p.note.Sprint("note:"), clip(n.Msg, opts.Width))
				continue
			}
			fmt.Fprintf(&b, "  %s %s: %s\n", p.note.Sprint("note:"), location(fs, n.Span, opts.PathMode), clip(n.Msg, opts.Width))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func location(fs *source.FileSet, sp source.Span, mode PathMode) string {
	start, _, ok := fs.Resolve(sp)
	if !ok {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", formatPath(fs, sp.File, mode), start.Line, start.Col)
}

func writeSnippet(b *strings.Builder, fs *source.FileSet, sp source.Span, p palette) {
	f := fs.Get(sp.File)
	if f == nil {
		return
	}
	start, end, _ := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	from := min(int(start.Col-1), len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(int(end.Col-1), len(line))
	}
	to = max(to, from)

	num := strconv.FormatUint(uint64(start.Line), 10)
	pad := strings.Repeat(" ", len(num))
	fmt.Fprintf(b, " %s %s %s\n", p.gutter.Sprint(num), p.gutter.Sprint("|"), line)

	// табы сохраняются, чтобы маркер совпал с исходной строкой
	var lead strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			lead.WriteByte('\t')
			continue
		}
		lead.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[from:to]), 1)
	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(b, " %s %s %s%s\n", pad, p.gutter.Sprint("|"), lead.String(), p.caret.Sprint(marker))
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
