package sema

import (
	"strata/internal/ast"
	"strata/internal/source"
	"strata/internal/symbols"
)

// Attribute is the semantic form of an `@name(args...)` annotation.
type Attribute struct {
	Name string
	Args []string
	Span source.Span
}

// Host supplies everything trait resolution needs from the rest of the
// front end.
type Host interface {
	// OwningModule returns the module that declares trait.
	OwningModule(trait symbols.TraitID) symbols.ModuleID
	// ModuleTraits returns the trait declarations of module, or false when the
	// module data is unavailable.
	ModuleTraits(module symbols.ModuleID) (map[symbols.TraitID]*ast.TraitItem, bool)
	// ResolveGenericParams allocates one id per parameter in declaration order
	// and reports problems into d.
	ResolveGenericParams(d *SemanticDiagnostics, module symbols.ModuleID, params []ast.TypeParam) []symbols.GenericParamID
	// ConvertAttributes is pure and preserves order.
	ConvertAttributes(attrs []ast.Attr) []Attribute
}

// Namer is implemented by hosts that can name declarations for dumps.
type Namer interface {
	TraitName(trait symbols.TraitID) string
	GenericParamName(param symbols.GenericParamID) string
}
