package ast

import "strata/internal/source"

// File is the parsed form of one module source file.
type File struct {
	Source source.FileID
	Traits []*TraitItem
	Span   source.Span
}

// TraitItem is a `trait Name<Params>;` declaration with its leading attributes.
type TraitItem struct {
	Name          source.StringID
	NameSpan      source.Span
	Attrs         []Attr
	GenericParams []TypeParam
	GenericsSpan  source.Span // `<...>`, empty when the trait is not generic
	Span          source.Span
}

// TypeParam represents a generic type parameter.
type TypeParam struct {
	Name       source.StringID
	NameSpan   source.Span
	ColonSpan  source.Span // empty when no `:` was written
	Bounds     []TypeParamBound
	BoundsSpan source.Span
	PlusSpans  []source.Span
	Span       source.Span
}

// HasColon reports whether the parameter was written with a `:`.
func (p *TypeParam) HasColon() bool {
	return !p.ColonSpan.Empty()
}

// TypeParamBound is one `+`-separated entry after the colon. Path is
// source.NoStringID when the parser found no path where one was expected.
type TypeParamBound struct {
	Path source.StringID // `Name` or `module::Name`
	Span source.Span
}

// Missing reports whether the bound has no path.
func (b *TypeParamBound) Missing() bool {
	return b.Path == source.NoStringID
}
