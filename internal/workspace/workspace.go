package workspace

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"strata/internal/ast"
	"strata/internal/diag"
	"strata/internal/parser"
	"strata/internal/source"
	"strata/internal/symbols"
	"strata/internal/types"
)

// Options control workspace loading.
type Options struct {
	Jobs           int // parser workers; 0 means GOMAXPROCS
	MaxDiagnostics int // per module; 0 means 100
}

// VirtualModule is an in-memory module for NewVirtual.
type VirtualModule struct {
	Name   string
	Files  []VirtualFile
	Broken bool
}

type VirtualFile struct {
	Path    string
	Content string
}

type moduleData struct {
	broken bool
	files  []source.FileID
	syntax []*ast.File
	traits map[symbols.TraitID]*ast.TraitItem
	diags  *diag.Bag
	digest Digest
}

// Workspace is a loaded set of modules. It is read-only once built, except
// for generic parameter allocation, which is concurrency-safe.
type Workspace struct {
	Manifest *Manifest
	Files    *source.FileSet
	Strings  *source.Interner
	Table    *symbols.Table
	Types    *types.Interner

	manifestFile source.FileID
	modules      map[symbols.ModuleID]*moduleData
	traitsDigest Digest
}

// Load reads the manifest at path and every module source it lists.
func Load(ctx context.Context, path string, opts Options) (*Workspace, error) {
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	ws := newWorkspace(m, m.Root())
	if id, err := ws.Files.Load(path); err == nil {
		ws.manifestFile = id
	}

	files := make([][]source.FileID, len(m.Modules))
	for i, ms := range m.Modules {
		for _, f := range ms.Files {
			full := filepath.Join(m.Root(), filepath.FromSlash(f))
			id, err := ws.Files.Load(full)
			if err != nil {
				return nil, fmt.Errorf("module %q: failed to load %s: %w", ms.Name, f, err)
			}
			files[i] = append(files[i], id)
		}
	}
	if err := ws.build(ctx, files, opts); err != nil {
		return nil, err
	}
	return ws, nil
}

// NewVirtual builds a workspace from in-memory sources.
func NewVirtual(ctx context.Context, modules []VirtualModule, opts Options) (*Workspace, error) {
	m := &Manifest{Name: "virtual"}
	for _, vm := range modules {
		ms := ModuleSpec{Name: vm.Name, Broken: vm.Broken}
		for _, f := range vm.Files {
			ms.Files = append(ms.Files, f.Path)
		}
		m.Modules = append(m.Modules, ms)
	}
	ws := newWorkspace(m, "")
	files := make([][]source.FileID, len(modules))
	for i, vm := range modules {
		for _, f := range vm.Files {
			files[i] = append(files[i], ws.Files.AddVirtual(f.Path, []byte(f.Content)))
		}
	}
	if err := ws.build(ctx, files, opts); err != nil {
		return nil, err
	}
	return ws, nil
}

func newWorkspace(m *Manifest, root string) *Workspace {
	strs := source.NewInterner()
	fs := source.NewFileSet()
	if root != "" {
		if abs, err := filepath.Abs(root); err == nil {
			fs.SetBaseDir(abs)
		}
	}
	return &Workspace{
		Manifest: m,
		Files:    fs,
		Strings:  strs,
		Table:    symbols.NewTable(strs),
		Types:    types.NewInterner(strs),
		modules:  make(map[symbols.ModuleID]*moduleData),
	}
}

// build parses every file in parallel, then declares modules and traits in
// manifest order so ids do not depend on scheduling.
func (ws *Workspace) build(ctx context.Context, files [][]source.FileID, opts Options) error {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	type parsed struct {
		file *ast.File
		bag  *diag.Bag
	}
	results := make([][]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i := range files {
		results[i] = make([]parsed, len(files[i]))
		for j, id := range files[i] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				bag := diag.NewBag(opts.MaxDiagnostics)
				results[i][j] = parsed{
					file: parser.ParseFile(ws.Files, id, ws.Strings, diag.BagReporter{Bag: bag}),
					bag:  bag,
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, ms := range ws.Manifest.Modules {
		span := ws.manifestSpan(ms.Name, i)
		modID, fresh := ws.Table.DeclareModule(ms.Name, span)
		if !fresh {
			prev := ws.Table.Module(modID)
			md := ws.modules[modID]
			diag.ReportError(diag.BagReporter{Bag: md.diags}, diag.ProjDuplicateModule, span,
				fmt.Sprintf("module '%s' is declared more than once; later declaration ignored", ms.Name)).
				WithNote(prev.Span, "first declared here").
				Emit()
			continue
		}

		md := &moduleData{
			broken: ms.Broken,
			files:  files[i],
			traits: make(map[symbols.TraitID]*ast.TraitItem),
			diags:  diag.NewBag(opts.MaxDiagnostics),
		}
		ws.modules[modID] = md
		reporter := diag.BagReporter{Bag: md.diags}
		for _, res := range results[i] {
			md.syntax = append(md.syntax, res.file)
			md.diags.Merge(res.bag)
			for _, item := range res.file.Traits {
				ws.declareTrait(modID, md, item, reporter)
			}
		}
		if ms.Broken {
			diag.ReportWarning(reporter, diag.ProjBrokenModule, span,
				fmt.Sprintf("module '%s' is marked broken; its traits are unavailable", ms.Name)).Emit()
		}
	}
	ws.computeDigests()
	return nil
}

func (ws *Workspace) declareTrait(modID symbols.ModuleID, md *moduleData, item *ast.TraitItem, r diag.Reporter) {
	name := ws.Strings.MustLookup(item.Name)
	id, fresh := ws.Table.DeclareTrait(modID, name, item.NameSpan)
	if !fresh {
		diag.ReportError(r, diag.ProjDuplicateTrait, item.NameSpan,
			fmt.Sprintf("trait '%s' is already declared in this module", name)).
			WithNote(ws.Table.Trait(id).NameSpan, "previous declaration here").
			Emit()
		return
	}
	md.traits[id] = item
}

// manifestSpan finds the nth module's name in the manifest text. Virtual
// workspaces have no manifest file and get an empty span.
func (ws *Workspace) manifestSpan(name string, nth int) source.Span {
	f := ws.Files.Get(ws.manifestFile)
	if f == nil {
		return source.Span{}
	}
	// count earlier modules with the same name so duplicates point at their own entry
	occurrence := 0
	for i := 0; i < nth; i++ {
		if ws.Manifest.Modules[i].Name == name {
			occurrence++
		}
	}
	needle := []byte(`"` + name + `"`)
	if bytes.Count(f.Content, needle) == 0 {
		needle = []byte(name)
	}
	off := 0
	for k := 0; ; k++ {
		idx := bytes.Index(f.Content[off:], needle)
		if idx < 0 {
			return source.Span{File: f.ID}
		}
		start := off + idx
		if k == occurrence {
			return source.Span{File: f.ID, Start: uint32(start), End: uint32(start + len(needle))} //nolint:gosec // file size checked by FileSet.Add
		}
		off = start + len(needle)
	}
}

// computeDigests hashes each module's sources together with the workspace's
// trait names and broken modules, since bound resolution depends on both.
func (ws *Workspace) computeDigests() {
	names := ws.AllTraitNames()
	h := sha256.New()
	for _, n := range names {
		_, _ = h.Write([]byte(n))
		_, _ = h.Write([]byte{0})
	}
	for _, id := range ws.Modules() {
		if ws.isBroken(id) {
			_, _ = h.Write([]byte("!" + ws.ModuleName(id)))
			_, _ = h.Write([]byte{0})
		}
	}
	copy(ws.traitsDigest[:], h.Sum(nil))

	for id, md := range ws.modules {
		var content Digest
		hashes := make([]Digest, 0, len(md.files))
		for _, fid := range md.files {
			hashes = append(hashes, Digest(ws.Files.Get(fid).Hash))
		}
		name := sha256.Sum256([]byte(ws.ModuleName(id)))
		content = Combine(Digest(name), hashes...)
		if md.broken {
			content = Combine(content, Digest{1})
		}
		md.digest = Combine(content, ws.traitsDigest)
	}
}

// Modules returns module ids in declaration order.
func (ws *Workspace) Modules() []symbols.ModuleID { return ws.Table.Modules() }

// ModuleName returns the declared module name.
func (ws *Workspace) ModuleName(id symbols.ModuleID) string {
	mod := ws.Table.Module(id)
	if mod == nil {
		return ""
	}
	return ws.Strings.MustLookup(mod.Name)
}

// ModuleTraitIDs returns the traits declared in module in source order,
// including those of a broken module.
func (ws *Workspace) ModuleTraitIDs(id symbols.ModuleID) []symbols.TraitID {
	mod := ws.Table.Module(id)
	if mod == nil {
		return nil
	}
	return slices.Clone(mod.Traits)
}

// AllTraitNames returns the qualified names of every trait, sorted.
func (ws *Workspace) AllTraitNames() []string {
	var out []string
	for _, m := range ws.Modules() {
		for _, t := range ws.ModuleTraitIDs(m) {
			out = append(out, ws.Table.QualifiedName(t))
		}
	}
	slices.Sort(out)
	return out
}

// LoadDiagnostics returns the syntax and project diagnostics of module.
func (ws *Workspace) LoadDiagnostics(id symbols.ModuleID) []diag.Diagnostic {
	md := ws.modules[id]
	if md == nil {
		return nil
	}
	return md.diags.Items()
}

// Digest identifies the inputs of module for caching.
func (ws *Workspace) Digest(id symbols.ModuleID) Digest {
	if md := ws.modules[id]; md != nil {
		return md.digest
	}
	return Digest{}
}

// FindTrait resolves `module::Trait`, or a bare name when exactly one module
// declares it.
func (ws *Workspace) FindTrait(path string) (symbols.TraitID, error) {
	for _, m := range ws.Modules() {
		if id, ok := ws.Table.LookupTrait(m, path); ok {
			if !isQualified(path) {
				if dup := ws.findBareElsewhere(path, m); dup {
					return symbols.NoTraitID, fmt.Errorf("trait %q is ambiguous; qualify it as module%sName", path, symbols.PathSep)
				}
			}
			return id, nil
		}
	}
	return symbols.NoTraitID, fmt.Errorf("unknown trait %q", path)
}

func (ws *Workspace) findBareElsewhere(name string, except symbols.ModuleID) bool {
	for _, m := range ws.Modules() {
		if m == except {
			continue
		}
		if _, ok := ws.Table.LookupTrait(m, name); ok {
			return true
		}
	}
	return false
}
