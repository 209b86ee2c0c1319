package symbols

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"strata/internal/source"
)

// PathSep separates a module name from a trait name in qualified paths.
const PathSep = "::"

// Module is one compilation unit.
type Module struct {
	Name   source.StringID
	Span   source.Span
	Traits []TraitID // declaration order
}

// Trait is a declared trait; its semantics live in sema.
type Trait struct {
	Name     source.StringID
	Module   ModuleID
	NameSpan source.Span
}

// GenericParam is a parameter allocated during generic-parameter resolution.
type GenericParam struct {
	Name   source.StringID
	Module ModuleID
	Span   source.Span
	Index  uint32 // position inside the declaring list
}

type paramKey struct {
	module ModuleID
	span   source.Span
}

// Table stores modules, traits and generic parameters of one session.
// Modules and traits are declared while loading and are read-only afterwards;
// generic parameters may be allocated concurrently by resolvers.
type Table struct {
	Strings *source.Interner

	modules  []Module
	traits   []Trait
	modIndex map[source.StringID]ModuleID

	paramsMu   sync.RWMutex
	params     []GenericParam
	paramIndex map[paramKey]GenericParamID
}

// NewTable builds an empty table. If strings is nil, a fresh interner is allocated.
func NewTable(strings *source.Interner) *Table {
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Strings:    strings,
		modules:    make([]Module, 1, 8), // index 0 reserved for NoModuleID
		traits:     make([]Trait, 1, 32),
		modIndex:   make(map[source.StringID]ModuleID),
		params:     make([]GenericParam, 1, 32),
		paramIndex: make(map[paramKey]GenericParamID),
	}
}

// DeclareModule registers a module. The second result is false when a module
// with the same name already exists; its id is returned then.
func (t *Table) DeclareModule(name string, span source.Span) (ModuleID, bool) {
	nameID := t.Strings.Intern(name)
	if id, ok := t.modIndex[nameID]; ok {
		return id, false
	}
	n, err := safecast.Conv[uint32](len(t.modules))
	if err != nil {
		panic(fmt.Errorf("modules arena overflow: %w", err))
	}
	id := ModuleID(n)
	t.modules = append(t.modules, Module{Name: nameID, Span: span})
	t.modIndex[nameID] = id
	return id, true
}

// DeclareTrait registers a trait in module. The second result is false when
// the module already declares a trait with that name.
func (t *Table) DeclareTrait(module ModuleID, name string, span source.Span) (TraitID, bool) {
	mod := t.Module(module)
	if mod == nil {
		panic(fmt.Sprintf("symbols: DeclareTrait on unknown module %d", module))
	}
	nameID := t.Strings.Intern(name)
	if existing, ok := t.traitIn(mod, nameID); ok {
		return existing, false
	}
	n, err := safecast.Conv[uint32](len(t.traits))
	if err != nil {
		panic(fmt.Errorf("traits arena overflow: %w", err))
	}
	id := TraitID(n)
	t.traits = append(t.traits, Trait{Name: nameID, Module: module, NameSpan: span})
	mod.Traits = append(mod.Traits, id)
	return id, true
}

func (t *Table) traitIn(mod *Module, name source.StringID) (TraitID, bool) {
	for _, id := range mod.Traits {
		if t.traits[id].Name == name {
			return id, true
		}
	}
	return NoTraitID, false
}

// Module returns the module or nil if id is invalid.
func (t *Table) Module(id ModuleID) *Module {
	if !id.IsValid() || int(id) >= len(t.modules) {
		return nil
	}
	return &t.modules[id]
}

// Trait returns the trait or nil if id is invalid.
func (t *Table) Trait(id TraitID) *Trait {
	if !id.IsValid() || int(id) >= len(t.traits) {
		return nil
	}
	return &t.traits[id]
}

// Modules lists module ids in declaration order.
func (t *Table) Modules() []ModuleID {
	out := make([]ModuleID, 0, len(t.modules)-1)
	for i := 1; i < len(t.modules); i++ {
		out = append(out, ModuleID(i)) //nolint:gosec // bounded by arena size
	}
	return out
}

// ModuleByName finds a module by its declared name.
func (t *Table) ModuleByName(name string) (ModuleID, bool) {
	id, ok := t.modIndex[t.Strings.Intern(name)]
	return id, ok
}

// TraitModule returns the owning module of a trait, or NoModuleID.
func (t *Table) TraitModule(id TraitID) ModuleID {
	if tr := t.Trait(id); tr != nil {
		return tr.Module
	}
	return NoModuleID
}

// LookupTrait resolves a trait path as seen from module from.
// A bare name is looked up in from; `mod::Name` in the named module.
func (t *Table) LookupTrait(from ModuleID, path string) (TraitID, bool) {
	modName, name, qualified := strings.Cut(path, PathSep)
	if !qualified {
		name = modName
		mod := t.Module(from)
		if mod == nil {
			return NoTraitID, false
		}
		return t.traitIn(mod, t.Strings.Intern(name))
	}
	modID, ok := t.ModuleByName(modName)
	if !ok {
		return NoTraitID, false
	}
	return t.traitIn(t.Module(modID), t.Strings.Intern(name))
}

// QualifiedName renders `module::Trait`.
func (t *Table) QualifiedName(id TraitID) string {
	tr := t.Trait(id)
	if tr == nil {
		return "<unknown>"
	}
	name := t.Strings.MustLookup(tr.Name)
	if mod := t.Module(tr.Module); mod != nil {
		return t.Strings.MustLookup(mod.Name) + PathSep + name
	}
	return name
}

// InternGenericParam returns the id for the parameter declared at span in
// module, allocating it on first use. Repeated calls with the same key return
// the same id, so re-running resolution is idempotent.
func (t *Table) InternGenericParam(module ModuleID, name source.StringID, span source.Span, index uint32) GenericParamID {
	key := paramKey{module: module, span: span}

	t.paramsMu.RLock()
	id, ok := t.paramIndex[key]
	t.paramsMu.RUnlock()
	if ok {
		return id
	}

	t.paramsMu.Lock()
	defer t.paramsMu.Unlock()
	if id, ok := t.paramIndex[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(t.params))
	if err != nil {
		panic(fmt.Errorf("generic params arena overflow: %w", err))
	}
	id = GenericParamID(n)
	t.params = append(t.params, GenericParam{Name: name, Module: module, Span: span, Index: index})
	t.paramIndex[key] = id
	return id
}

// GenericParam returns a copy of the parameter record.
func (t *Table) GenericParam(id GenericParamID) (GenericParam, bool) {
	t.paramsMu.RLock()
	defer t.paramsMu.RUnlock()
	if !id.IsValid() || int(id) >= len(t.params) {
		return GenericParam{}, false
	}
	return t.params[id], true
}

// GenericParamName returns the parameter's source name or "?".
func (t *Table) GenericParamName(id GenericParamID) string {
	p, ok := t.GenericParam(id)
	if !ok {
		return "?"
	}
	return t.Strings.MustLookup(p.Name)
}
