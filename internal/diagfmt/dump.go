package diagfmt

import (
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"strata/internal/driver"
)

var dumpHeader = []string{"TRAIT", "STATUS", "GENERICS", "ATTRIBUTES", "DIAGS"}

// DumpTraits renders summaries as an aligned table. Column widths are
// measured in terminal cells, so wide runes in names keep the grid intact.
func DumpTraits(w io.Writer, traits []driver.TraitSummary, opts DumpOpts) error {
	rows := make([][]string, 0, len(traits)+1)
	rows = append(rows, slices.Clone(dumpHeader))
	for _, t := range traits {
		status := "ok"
		if !t.Resolved {
			status = "unresolved"
		}
		rows = append(rows, []string{
			t.Name,
			status,
			orDash(strings.Join(t.Generics, ", ")),
			orDash(strings.Join(t.Attributes, " ")),
			strconv.Itoa(t.Diagnostics),
		})
	}

	widths := make([]int, len(dumpHeader))
	for r := range rows {
		for c := range rows[r] {
			if opts.Width > 0 {
				rows[r][c] = runewidth.Truncate(rows[r][c], opts.Width, "...")
			}
			widths[c] = max(widths[c], runewidth.StringWidth(rows[r][c]))
		}
	}

	head := color.New(color.Bold)
	bad := color.New(color.FgRed)
	if opts.Color {
		head.EnableColor()
		bad.EnableColor()
	} else {
		head.DisableColor()
		bad.DisableColor()
	}

	var b strings.Builder
	for r, row := range rows {
		for c, cell := range row {
			text := cell
			if c < len(row)-1 {
				text = runewidth.FillRight(cell, widths[c])
			}
			switch {
			case r == 0:
				text = head.Sprint(text)
			case c == 1 && cell != "ok":
				text = bad.Sprint(text)
			}
			b.WriteString(text)
			if c < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
