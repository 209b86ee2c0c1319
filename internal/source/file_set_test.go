package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("core.st", []byte("trait A;"), 0)
	if id1 == 0 {
		t.Fatal("FileID 0 is reserved")
	}
	id2 := fs.Add("core.st", []byte("trait B;"), 0)
	if id2 == id1 {
		t.Fatal("re-adding a path must allocate a new FileID")
	}
	latest, ok := fs.GetLatest("core.st")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d, %v; want %d", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "trait A;" {
		t.Errorf("old file content changed: %q", got)
	}
	if fs.Len() != 2 {
		t.Errorf("Len = %d, want 2", fs.Len())
	}
	if fs.Get(0) != nil || fs.Get(99) != nil {
		t.Error("Get must return nil for unissued ids")
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("m.st", []byte("trait A;\n@foo\ntrait B<X>;\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"start of file", 0, LineCol{Line: 1, Col: 1}},
		{"newline belongs to its line", 8, LineCol{Line: 1, Col: 9}},
		{"second line", 9, LineCol{Line: 2, Col: 1}},
		{"inside third line", 22, LineCol{Line: 3, Col: 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, _, ok := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if !ok {
				t.Fatal("Resolve failed")
			}
			if start != tt.want {
				t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, start, tt.want)
			}
		})
	}

	if _, _, ok := fs.Resolve(Span{}); ok {
		t.Error("zero span must not resolve")
	}
	if got := fs.Text(Span{File: id, Start: 9, End: 13}); got != "@foo" {
		t.Errorf("Text = %q", got)
	}
	if got := fs.Get(id).GetLine(3); got != "trait B<X>;" {
		t.Errorf("GetLine(3) = %q", got)
	}
}

func TestFileSetLoadNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.st")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFtrait A;\r\ntrait B;\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "trait A;\ntrait B;\n" {
		t.Errorf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b", f.Flags)
	}
	if rel := fs.RelPath(id); rel != "crlf.st" {
		t.Errorf("RelPath = %q", rel)
	}
}
