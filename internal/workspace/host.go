package workspace

import (
	"fmt"
	"strings"

	"strata/internal/ast"
	"strata/internal/diag"
	"strata/internal/sema"
	"strata/internal/source"
	"strata/internal/symbols"
)

var (
	_ sema.Host  = (*Workspace)(nil)
	_ sema.Namer = (*Workspace)(nil)
)

func isQualified(path string) bool { return strings.Contains(path, symbols.PathSep) }

// OwningModule implements sema.Host.
func (ws *Workspace) OwningModule(trait symbols.TraitID) symbols.ModuleID {
	return ws.Table.TraitModule(trait)
}

// ModuleTraits implements sema.Host. Broken and unknown modules report false.
// The returned map is shared and must not be modified.
func (ws *Workspace) ModuleTraits(module symbols.ModuleID) (map[symbols.TraitID]*ast.TraitItem, bool) {
	md := ws.modules[module]
	if md == nil || md.broken {
		return nil, false
	}
	return md.traits, true
}

// ResolveGenericParams implements sema.Host. Every parameter gets an id, even
// when its declaration is faulty.
func (ws *Workspace) ResolveGenericParams(d *sema.SemanticDiagnostics, module symbols.ModuleID, params []ast.TypeParam) []symbols.GenericParamID {
	if len(params) == 0 {
		return []symbols.GenericParamID{}
	}
	out := make([]symbols.GenericParamID, 0, len(params))
	seen := make(map[source.StringID]source.Span, len(params))
	owner := ws.ownerOf(module, params[0].Span)

	for i := range params {
		p := &params[i]
		out = append(out, ws.Table.InternGenericParam(module, p.Name, p.NameSpan, uint32(i))) //nolint:gosec // parameter lists are short
		name := ws.lookupName(p.Name)

		if prev, dup := seen[p.Name]; dup {
			diag.ReportError(d, diag.SemaTraitDuplicateGenericParam, p.NameSpan,
				fmt.Sprintf("generic parameter '%s' is declared more than once", name)).
				WithNote(prev, "previous declaration here").
				Emit()
		} else {
			seen[p.Name] = p.NameSpan
		}

		if p.HasColon() && len(p.Bounds) == 0 {
			diag.ReportError(d, diag.SemaTraitMalformedBound, p.ColonSpan,
				fmt.Sprintf("expected a trait bound after ':' in '%s'", name)).Emit()
			continue
		}
		ws.checkBounds(d, module, owner, p, name)
	}
	return out
}

func (ws *Workspace) checkBounds(d *sema.SemanticDiagnostics, module symbols.ModuleID, owner symbols.TraitID, p *ast.TypeParam, paramName string) {
	seen := make(map[symbols.TraitID]source.Span, len(p.Bounds))
	for i := range p.Bounds {
		bound := &p.Bounds[i]
		if bound.Missing() {
			diag.ReportError(d, diag.SemaTraitMalformedBound, bound.Span,
				fmt.Sprintf("malformed bound in '%s': expected a trait path", paramName)).Emit()
			continue
		}
		path := ws.lookupName(bound.Path)
		id, ok := ws.Table.LookupTrait(module, path)
		if !ok {
			diag.ReportError(d, diag.SemaTraitUnknownBound, bound.Span,
				fmt.Sprintf("unknown trait '%s' in bounds of '%s'", path, paramName)).Emit()
			continue
		}
		if id == owner {
			diag.ReportError(d, diag.SemaTraitSelfBound, bound.Span,
				fmt.Sprintf("trait '%s' cannot bound its own parameter '%s'", path, paramName)).Emit()
			continue
		}
		if prev, dup := seen[id]; dup {
			diag.ReportWarning(d, diag.SemaTraitDuplicateBound, bound.Span,
				fmt.Sprintf("duplicate bound '%s' on '%s'", path, paramName)).
				WithNote(prev, "first listed here").
				Emit()
			continue
		}
		seen[id] = bound.Span
		if mod := ws.Table.TraitModule(id); ws.isBroken(mod) {
			diag.ReportWarning(d, diag.SemaTraitUnavailableBound, bound.Span,
				fmt.Sprintf("bound '%s' on '%s' names a trait of broken module '%s'", path, paramName, ws.ModuleName(mod))).Emit()
		}
	}
}

func (ws *Workspace) isBroken(module symbols.ModuleID) bool {
	md := ws.modules[module]
	return md != nil && md.broken
}

// ownerOf finds the trait whose declaration contains sp.
func (ws *Workspace) ownerOf(module symbols.ModuleID, sp source.Span) symbols.TraitID {
	md := ws.modules[module]
	if md == nil {
		return symbols.NoTraitID
	}
	for id, item := range md.traits {
		if item.Span.File == sp.File && item.Span.Start <= sp.Start && sp.End <= item.Span.End {
			return id
		}
	}
	return symbols.NoTraitID
}

// ConvertAttributes implements sema.Host.
func (ws *Workspace) ConvertAttributes(attrs []ast.Attr) []sema.Attribute {
	out := make([]sema.Attribute, 0, len(attrs))
	for _, a := range attrs {
		attr := sema.Attribute{Name: ws.lookupName(a.Name), Span: a.Span}
		if len(a.Args) > 0 {
			attr.Args = make([]string, 0, len(a.Args))
			for _, arg := range a.Args {
				attr.Args = append(attr.Args, arg.Text)
			}
		}
		out = append(out, attr)
	}
	return out
}

// TraitName implements sema.Namer.
func (ws *Workspace) TraitName(trait symbols.TraitID) string {
	return ws.Table.QualifiedName(trait)
}

// GenericParamName implements sema.Namer.
func (ws *Workspace) GenericParamName(p symbols.GenericParamID) string {
	return ws.Table.GenericParamName(p)
}

func (ws *Workspace) lookupName(id source.StringID) string {
	if s, ok := ws.Strings.Lookup(id); ok && s != "" {
		return s
	}
	return "_"
}
