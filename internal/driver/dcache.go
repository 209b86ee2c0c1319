package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/workspace"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 2

// DiskCache хранит результаты проверки модулей по их Digest на диске.
// Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedSpan is a span keyed by file path; FileIDs are per session.
type CachedSpan struct {
	Path       string
	Start, End uint32
}

type CachedNote struct {
	Span CachedSpan
	Msg  string
}

type CachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Primary  CachedSpan
	Notes    []CachedNote
}

// DiskPayload is the cached outcome of checking one module.
type DiskPayload struct {
	Schema      uint16
	Module      string
	Digest      workspace.Digest
	Traits      []TraitSummary
	Diagnostics []CachedDiagnostic
	Truncated   bool
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/app (or ~/.cache/app).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir %s: %w", dir, err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key workspace.Digest) string {
	// подкаталог "mods" для удобства очистки
	return filepath.Join(c.dir, "mods", key.String()+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key workspace.Digest, payload *DiskPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry or one from another schema version is
// a miss, not an error.
func (c *DiskCache) Get(key workspace.Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("cache entry %s: %w", key.Short(), err)
	}
	if out.Schema != diskCacheSchemaVersion || out.Digest != key {
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог и удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405.000000000")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	return os.MkdirAll(c.dir, 0o755)
}

func toCachedSpan(fs *source.FileSet, sp source.Span) CachedSpan {
	out := CachedSpan{Start: sp.Start, End: sp.End}
	if f := fs.Get(sp.File); f != nil {
		out.Path = f.Path
	}
	return out
}

func fromCachedSpan(fs *source.FileSet, sp CachedSpan) source.Span {
	if sp.Path == "" {
		return source.Span{}
	}
	id, ok := fs.GetLatest(sp.Path)
	if !ok {
		return source.Span{}
	}
	return source.Span{File: id, Start: sp.Start, End: sp.End}
}

func encodeDiagnostics(fs *source.FileSet, ds []diag.Diagnostic) []CachedDiagnostic {
	out := make([]CachedDiagnostic, 0, len(ds))
	for _, d := range ds {
		cd := CachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Primary:  toCachedSpan(fs, d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: toCachedSpan(fs, n.Span), Msg: n.Msg})
		}
		out = append(out, cd)
	}
	return out
}

func decodeDiagnostics(fs *source.FileSet, cds []CachedDiagnostic) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(cds))
	for _, cd := range cds {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  fromCachedSpan(fs, cd.Primary),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: fromCachedSpan(fs, n.Span), Msg: n.Msg})
		}
		out = append(out, d)
	}
	return out
}
