package workspace

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// ModuleSpec is one [[module]] entry of the manifest.
type ModuleSpec struct {
	Name   string   `toml:"name" yaml:"name"`
	Files  []string `toml:"files" yaml:"files"`
	Broken bool     `toml:"broken" yaml:"broken"` // module data is treated as unavailable
}

// Manifest describes a workspace: strata.toml or strata.yaml.
type Manifest struct {
	Name    string       `toml:"name" yaml:"name"`
	Modules []ModuleSpec `toml:"module" yaml:"modules"`

	Path string `toml:"-" yaml:"-"`
}

var (
	// ErrNoModules indicates a manifest that declares no module.
	ErrNoModules = errors.New("no modules declared")
	// ErrUnsupportedManifest indicates a manifest extension other than .toml, .yaml or .yml.
	ErrUnsupportedManifest = errors.New("unsupported manifest format")
	// ErrInvalidModuleName indicates a module name that is not an identifier.
	ErrInvalidModuleName = errors.New("invalid module name")
	// ErrModuleWithoutFiles indicates a module entry with an empty file list.
	ErrModuleWithoutFiles = errors.New("module lists no files")
	// ErrFileOutsideRoot indicates a module file path escaping the workspace root.
	ErrFileOutsideRoot = errors.New("file escapes workspace root")
)

// ManifestNames are the file names FindManifest looks for, in priority order.
var ManifestNames = []string{"strata.toml", "strata.yaml", "strata.yml"}

// LoadManifest decodes and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DecodeManifest(path, data)
}

// DecodeManifest decodes manifest bytes; the format is chosen by the
// extension of path.
func DecodeManifest(path string, data []byte) (*Manifest, error) {
	var m Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &m)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, fmt.Errorf("%s: failed to parse YAML: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedManifest)
	}
	m.Path = path
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) validate() error {
	if len(m.Modules) == 0 {
		return ErrNoModules
	}
	for i := range m.Modules {
		ms := &m.Modules[i]
		ms.Name = strings.TrimSpace(ms.Name)
		if !IsValidModuleIdent(ms.Name) {
			return fmt.Errorf("%w %q", ErrInvalidModuleName, ms.Name)
		}
		if len(ms.Files) == 0 {
			return fmt.Errorf("module %q: %w", ms.Name, ErrModuleWithoutFiles)
		}
		for _, f := range ms.Files {
			if filepath.IsAbs(f) || !pathWithin(".", filepath.Clean(filepath.FromSlash(f))) {
				return fmt.Errorf("module %q: %w: %s", ms.Name, ErrFileOutsideRoot, f)
			}
		}
	}
	return nil
}

// Root returns the directory the manifest's file paths are relative to.
func (m *Manifest) Root() string {
	if m.Path == "" {
		return "."
	}
	return filepath.Dir(m.Path)
}

// IsValidModuleIdent reports whether name is an ASCII identifier.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func pathWithin(root, path string) bool {
	if root == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// FindManifest walks up from startDir to locate a manifest.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		for _, name := range ManifestNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true, nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
