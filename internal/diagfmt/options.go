package diagfmt

import (
	"path/filepath"

	"strata/internal/source"
)

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto prints paths relative to the file set base when possible.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// ParsePathMode maps a flag value to a PathMode.
func ParsePathMode(s string) (PathMode, bool) {
	switch s {
	case "", "auto":
		return PathModeAuto, true
	case "absolute", "abs":
		return PathModeAbsolute, true
	case "relative", "rel":
		return PathModeRelative, true
	case "basename", "base":
		return PathModeBasename, true
	}
	return PathModeAuto, false
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	PathMode  PathMode
	Width     int // максимальная ширина строки, 0 - не ограничено
	ShowNotes bool
	// ShowSource prints the offending line with a caret underline.
	ShowSource bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	IncludePositions bool // добавить line/col
	PathMode         PathMode
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}

// DumpOpts configures the trait table.
type DumpOpts struct {
	Color bool
	// Width caps every column; 0 disables truncation.
	Width int
}

func formatPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return ""
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(filepath.FromSlash(f.Path)); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	default:
		return fs.RelPath(id)
	}
}
