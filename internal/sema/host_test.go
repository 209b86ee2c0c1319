package sema

import (
	"sync"
	"sync/atomic"

	"strata/internal/ast"
	"strata/internal/diag"
	"strata/internal/source"
	"strata/internal/symbols"
)

// stubHost is a minimal in-memory Host. Traits are registered up front;
// generic parameters get sequential ids.
type stubHost struct {
	strs *source.Interner

	owner   map[symbols.TraitID]symbols.ModuleID
	modules map[symbols.ModuleID]map[symbols.TraitID]*ast.TraitItem
	names   map[symbols.TraitID]string

	mu         sync.Mutex
	nextParam  symbols.GenericParamID
	paramNames map[symbols.GenericParamID]string

	traitsCalls atomic.Int64
	offset      uint32
}

func newStubHost() *stubHost {
	return &stubHost{
		strs:       source.NewInterner(),
		owner:      make(map[symbols.TraitID]symbols.ModuleID),
		modules:    make(map[symbols.ModuleID]map[symbols.TraitID]*ast.TraitItem),
		names:      make(map[symbols.TraitID]string),
		paramNames: make(map[symbols.GenericParamID]string),
	}
}

func (h *stubHost) span(n uint32) source.Span {
	start := h.offset
	h.offset += n + 1
	return source.Span{File: 1, Start: start, End: start + n}
}

// addModule makes module data available (possibly with no traits).
func (h *stubHost) addModule(m symbols.ModuleID) {
	if h.modules[m] == nil {
		h.modules[m] = make(map[symbols.TraitID]*ast.TraitItem)
	}
}

func (h *stubHost) addTrait(m symbols.ModuleID, id symbols.TraitID, name string, params []ast.TypeParam, attrs []ast.Attr) {
	h.addModule(m)
	h.owner[id] = m
	h.names[id] = name
	h.modules[m][id] = &ast.TraitItem{
		Name:          h.strs.Intern(name),
		NameSpan:      h.span(uint32(len(name))),
		GenericParams: params,
		Attrs:         attrs,
	}
}

func (h *stubHost) param(name string) ast.TypeParam {
	sp := h.span(uint32(len(name)))
	return ast.TypeParam{Name: h.strs.Intern(name), NameSpan: sp, Span: sp}
}

// malformedParam is `name:` with nothing after the colon.
func (h *stubHost) malformedParam(name string) ast.TypeParam {
	p := h.param(name)
	p.ColonSpan = h.span(1)
	p.Span = p.Span.Cover(p.ColonSpan)
	return p
}

func (h *stubHost) attr(name string, args ...string) ast.Attr {
	a := ast.Attr{Name: h.strs.Intern(name), Span: h.span(uint32(len(name)))}
	for _, arg := range args {
		a.Args = append(a.Args, ast.AttrArg{Text: arg, Span: h.span(uint32(len(arg)))})
	}
	return a
}

func (h *stubHost) OwningModule(trait symbols.TraitID) symbols.ModuleID {
	if m, ok := h.owner[trait]; ok {
		return m
	}
	return 1
}

func (h *stubHost) ModuleTraits(module symbols.ModuleID) (map[symbols.TraitID]*ast.TraitItem, bool) {
	h.traitsCalls.Add(1)
	traits, ok := h.modules[module]
	return traits, ok
}

func (h *stubHost) ResolveGenericParams(d *SemanticDiagnostics, _ symbols.ModuleID, params []ast.TypeParam) []symbols.GenericParamID {
	out := make([]symbols.GenericParamID, 0, len(params))
	for i := range params {
		p := &params[i]
		h.mu.Lock()
		h.nextParam++
		id := h.nextParam
		h.paramNames[id] = h.strs.MustLookup(p.Name)
		h.mu.Unlock()
		out = append(out, id)
		if p.HasColon() && len(p.Bounds) == 0 {
			diag.ReportError(d, diag.SemaTraitMalformedBound, p.ColonSpan, "expected a bound after ':'").Emit()
		}
	}
	return out
}

func (h *stubHost) ConvertAttributes(attrs []ast.Attr) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		attr := Attribute{Name: h.strs.MustLookup(a.Name), Span: a.Span}
		for _, arg := range a.Args {
			attr.Args = append(attr.Args, arg.Text)
		}
		out = append(out, attr)
	}
	return out
}

func (h *stubHost) TraitName(trait symbols.TraitID) string { return h.names[trait] }

func (h *stubHost) GenericParamName(p symbols.GenericParamID) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.paramNames[p]
}

func (h *stubHost) paramNamesOf(ids []symbols.GenericParamID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = h.GenericParamName(id)
	}
	return out
}
