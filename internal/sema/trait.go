package sema

import (
	"slices"
	"strconv"

	"github.com/google/uuid"

	"strata/internal/query"
	"strata/internal/symbols"
	"strata/internal/trace"
)

// TraitData holds the semantic facts of one trait declaration.
type TraitData struct {
	GenericParams []symbols.GenericParamID
	Attributes    []Attribute
	Diagnostics   Diagnostics
}

func (td TraitData) clone() TraitData {
	return TraitData{
		GenericParams: slices.Clone(td.GenericParams),
		Attributes:    cloneAttributes(td.Attributes),
		Diagnostics:   td.Diagnostics,
	}
}

func cloneAttributes(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	out := make([]Attribute, len(attrs))
	for i, a := range attrs {
		a.Args = slices.Clone(a.Args)
		out[i] = a
	}
	return out
}

type traitResult struct {
	data TraitData
	ok   bool
}

type paramsResult struct {
	params []symbols.GenericParamID
	ok     bool
}

type attrsResult struct {
	attrs []Attribute
	ok    bool
}

// Options configure a Database.
type Options struct {
	// Runtime shares the input revision with other memo tables; nil creates one.
	Runtime *query.Runtime
	// Tracer receives query hit/miss events; nil disables them.
	Tracer trace.Tracer
	// Interner lets several databases share concrete trait handles.
	Interner *ConcreteTraitInterner
}

// Database answers trait queries over a Host. Every query is memoized for the
// current input revision; Bump starts a new one. Safe for concurrent use.
type Database struct {
	host     Host
	rt       *query.Runtime
	tracer   trace.Tracer
	session  uuid.UUID
	concrete *ConcreteTraitInterner

	data   *query.Memo[symbols.TraitID, traitResult]
	diags  *query.Memo[symbols.TraitID, Diagnostics]
	params *query.Memo[symbols.TraitID, paramsResult]
	attrs  *query.Memo[symbols.TraitID, attrsResult]
}

// NewDatabase creates a database resolving traits through host.
func NewDatabase(host Host, opts Options) *Database {
	rt := opts.Runtime
	if rt == nil {
		rt = query.NewRuntime()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = trace.Nop
	}
	concrete := opts.Interner
	if concrete == nil {
		concrete = NewConcreteTraitInterner()
	}
	return &Database{
		host:     host,
		rt:       rt,
		tracer:   tracer,
		session:  uuid.New(),
		concrete: concrete,
		data:     query.NewMemo[symbols.TraitID, traitResult](rt, "priv_trait_semantic_data"),
		diags:    query.NewMemo[symbols.TraitID, Diagnostics](rt, "trait_diagnostics"),
		params:   query.NewMemo[symbols.TraitID, paramsResult](rt, "trait_generic_params"),
		attrs:    query.NewMemo[symbols.TraitID, attrsResult](rt, "trait_attributes"),
	}
}

// Session identifies this database in traces.
func (db *Database) Session() uuid.UUID { return db.session }

// Host returns the host the database was built over.
func (db *Database) Host() Host { return db.host }

// Revision returns the current input revision.
func (db *Database) Revision() query.Revision { return db.rt.Revision() }

// Bump declares that host inputs changed: every memoized result is dropped.
// Concrete trait handles survive.
func (db *Database) Bump() query.Revision {
	rev := db.rt.Bump()
	db.data.Sweep()
	db.diags.Sweep()
	db.params.Sweep()
	db.attrs.Sweep()
	trace.Point(db.tracer, trace.ScopePass, "revision", strconv.FormatUint(uint64(rev), 10), 0, map[string]string{
		"session": db.session.String(),
	})
	return rev
}

// InternConcreteTrait returns the handle of long.
func (db *Database) InternConcreteTrait(long ConcreteTraitLongID) ConcreteTraitID {
	return db.concrete.Intern(long)
}

// LookupConcreteTrait returns the value behind id. id must have been issued by
// InternConcreteTrait; anything else panics.
func (db *Database) LookupConcreteTrait(id ConcreteTraitID) ConcreteTraitLongID {
	return db.concrete.MustLookup(id)
}

// ConcreteTraits exposes the interner shared by this database.
func (db *Database) ConcreteTraits() *ConcreteTraitInterner { return db.concrete }

// PrivTraitSemanticData resolves the declaration of trait. It reports false
// when the owning module's data or the trait itself cannot be found; a
// malformed trait still resolves, with diagnostics.
func (db *Database) PrivTraitSemanticData(trait symbols.TraitID) (TraitData, bool) {
	res, cached := db.data.Get(trait, db.computeTraitData)
	db.traceQuery(db.data.Name(), trait, cached)
	if !res.ok {
		return TraitData{}, false
	}
	return res.data.clone(), true
}

func (db *Database) computeTraitData(trait symbols.TraitID) traitResult {
	module := db.host.OwningModule(trait)
	scope := NewSemanticDiagnostics(module)

	traits, ok := db.host.ModuleTraits(module)
	if !ok {
		return traitResult{}
	}
	item, ok := traits[trait]
	if !ok || item == nil {
		return traitResult{}
	}

	params := db.host.ResolveGenericParams(scope, module, item.GenericParams)
	attrs := db.host.ConvertAttributes(item.Attrs)

	return traitResult{
		data: TraitData{
			GenericParams: slices.Clone(params),
			Attributes:    cloneAttributes(attrs),
			Diagnostics:   scope.Build(),
		},
		ok: true,
	}
}

// TraitDiagnostics returns the diagnostics of trait; empty when it cannot be
// resolved.
func (db *Database) TraitDiagnostics(trait symbols.TraitID) Diagnostics {
	d, cached := db.diags.Get(trait, func(id symbols.TraitID) Diagnostics {
		data, ok := db.PrivTraitSemanticData(id)
		if !ok {
			return Diagnostics{}
		}
		return data.Diagnostics
	})
	db.traceQuery(db.diags.Name(), trait, cached)
	return d
}

// TraitGenericParams returns the generic parameters of trait in declaration
// order. false means unknown, not "no parameters".
func (db *Database) TraitGenericParams(trait symbols.TraitID) ([]symbols.GenericParamID, bool) {
	res, cached := db.params.Get(trait, func(id symbols.TraitID) paramsResult {
		data, ok := db.PrivTraitSemanticData(id)
		return paramsResult{params: data.GenericParams, ok: ok}
	})
	db.traceQuery(db.params.Name(), trait, cached)
	if !res.ok {
		return nil, false
	}
	return slices.Clone(res.params), true
}

// TraitAttributes returns the attributes of trait in declaration order.
func (db *Database) TraitAttributes(trait symbols.TraitID) ([]Attribute, bool) {
	res, cached := db.attrs.Get(trait, func(id symbols.TraitID) attrsResult {
		data, ok := db.PrivTraitSemanticData(id)
		return attrsResult{attrs: data.Attributes, ok: ok}
	})
	db.traceQuery(db.attrs.Name(), trait, cached)
	if !res.ok {
		return nil, false
	}
	return cloneAttributes(res.attrs), true
}

func (db *Database) traceQuery(name string, trait symbols.TraitID, cached bool) {
	if !db.tracer.Enabled() || !db.tracer.Level().ShouldEmit(trace.ScopeQuery) {
		return
	}
	detail := "miss"
	if cached {
		detail = "hit"
	}
	trace.Point(db.tracer, trace.ScopeQuery, name, detail, 0, map[string]string{
		"trait":   strconv.FormatUint(uint64(trait), 10),
		"session": db.session.String(),
	})
}

// QueryStats is the memo traffic of one query.
type QueryStats struct {
	Name string
	query.Stats
}

// Stats summarises database activity.
type Stats struct {
	Revision       query.Revision
	ConcreteTraits int
	Queries        []QueryStats
}

func (db *Database) Stats() Stats {
	return Stats{
		Revision:       db.rt.Revision(),
		ConcreteTraits: db.concrete.Len(),
		Queries: []QueryStats{
			{Name: db.data.Name(), Stats: db.data.Stats()},
			{Name: db.diags.Name(), Stats: db.diags.Stats()},
			{Name: db.params.Name(), Stats: db.params.Stats()},
			{Name: db.attrs.Name(), Stats: db.attrs.Stats()},
		},
	}
}
