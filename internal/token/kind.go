package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	StringLit

	// KwTrait represents the 'trait' keyword.
	KwTrait

	At         // @
	Lt         // <
	Gt         // >
	Colon      // :
	ColonColon // ::
	Plus       // +
	Comma      // ,
	LParen     // (
	RParen     // )
	Semicolon  // ;
)

var kindNames = [...]string{
	Invalid:    "invalid",
	EOF:        "end of file",
	Ident:      "identifier",
	IntLit:     "integer literal",
	StringLit:  "string literal",
	KwTrait:    "'trait'",
	At:         "'@'",
	Lt:         "'<'",
	Gt:         "'>'",
	Colon:      "':'",
	ColonColon: "'::'",
	Plus:       "'+'",
	Comma:      "','",
	LParen:     "'('",
	RParen:     "')'",
	Semicolon:  "';'",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}
