package ast

import "strata/internal/source"

// Attr описывает атрибут вида `@name(args...)`.
type Attr struct {
	Name source.StringID
	Args []AttrArg
	Span source.Span
}

// AttrArg is a raw attribute argument; attributes are not evaluated.
type AttrArg struct {
	Text string
	Span source.Span
}
