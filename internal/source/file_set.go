package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
)

// FileSet owns the module source files loaded for one session.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string
}

// NewFileSet creates an empty FileSet. FileID 0 is reserved so that a zero
// Span never points at a real file.
func NewFileSet() *FileSet {
	return NewFileSetWithBase("")
}

// NewFileSetWithBase создаёт FileSet с заданной базовой директорией.
func NewFileSetWithBase(baseDir string) *FileSet {
	return &FileSet{
		files:   []File{{}},
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

func (fileSet *FileSet) SetBaseDir(dir string) {
	fileSet.baseDir = dir
}

// BaseDir returns the directory relative paths are rendered against.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// Re-adding a path creates a new FileID; GetLatest then points at it.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s too large: %w", path, err))
	}
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk, strips a BOM, normalizes CRLF and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path comes from the workspace manifest
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory file with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id or nil when the id was never issued.
func (fileSet *FileSet) Get(id FileID) *File {
	if id == 0 || int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// GetLatest returns the most recent FileID registered for path.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Len returns the number of real files.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files) - 1
}

// Resolve converts a span into line and column positions.
func (fileSet *FileSet) Resolve(span Span) (start, end LineCol, ok bool) {
	f := fileSet.Get(span.File)
	if f == nil {
		return LineCol{}, LineCol{}, false
	}
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End), true
}

// Text returns the bytes covered by span, clamped to the file.
func (fileSet *FileSet) Text(span Span) string {
	f := fileSet.Get(span.File)
	if f == nil {
		return ""
	}
	end := min(int(span.End), len(f.Content))
	start := min(int(span.Start), end)
	return string(f.Content[start:end])
}

// RelPath renders the file path relative to BaseDir, falling back to the stored path.
func (fileSet *FileSet) RelPath(id FileID) string {
	f := fileSet.Get(id)
	if f == nil {
		return ""
	}
	base := fileSet.BaseDir()
	if base == "" || !filepath.IsAbs(f.Path) {
		return f.Path
	}
	rel, err := filepath.Rel(base, filepath.FromSlash(f.Path))
	if err != nil {
		return f.Path
	}
	return filepath.ToSlash(rel)
}

// GetLine возвращает строку с заданным номером (1-based) из файла.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	var start int
	if lineNum > 1 {
		if int(lineNum-2) >= len(f.LineIdx) {
			return ""
		}
		start = int(f.LineIdx[lineNum-2]) + 1
	}
	end := len(f.Content)
	if int(lineNum-1) < len(f.LineIdx) {
		end = int(f.LineIdx[lineNum-1])
	}
	if start > end {
		return ""
	}
	return string(f.Content[start:end])
}
