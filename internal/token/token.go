package token

import (
	"strata/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsLiteral reports whether the token is a numeric or string literal.
func (t Token) IsLiteral() bool { return t.Kind == IntLit || t.Kind == StringLit }

// Keywords maps keyword spellings to their kinds.
var Keywords = map[string]Kind{
	"trait": KwTrait,
}
