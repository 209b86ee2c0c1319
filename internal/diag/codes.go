package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexInfo        Code = 1000
	LexUnknownChar Code = 1001

	// Синтаксические
	SynInfo                 Code = 2000
	SynUnexpectedToken      Code = 2001
	SynExpectIdentifier     Code = 2002
	SynExpectSemicolon      Code = 2003
	SynUnclosedAngleBracket Code = 2004
	SynUnclosedParen        Code = 2005
	SynAttributeNotAllowed  Code = 2006

	// Семантические: объявления трейтов
	SemaInfo                       Code = 3000
	SemaError                      Code = 3001
	SemaTraitDuplicateGenericParam Code = 3101
	SemaTraitMalformedBound        Code = 3102
	SemaTraitUnknownBound          Code = 3103
	SemaTraitDuplicateBound        Code = 3104
	SemaTraitSelfBound             Code = 3105
	SemaTraitUnavailableBound      Code = 3106

	// IO
	IOLoadFileError Code = 4001

	// Проект / workspace
	ProjInfo            Code = 5000
	ProjDuplicateModule Code = 5001
	ProjDuplicateTrait  Code = 5002
	ProjBrokenModule    Code = 5003
)

var codeDescription = map[Code]string{
	UnknownCode:                    "Unknown error",
	LexInfo:                        "Lexical information",
	LexUnknownChar:                 "Unknown character",
	SynInfo:                        "Syntax information",
	SynUnexpectedToken:             "Unexpected token",
	SynExpectIdentifier:            "Expected identifier",
	SynExpectSemicolon:             "Expected semicolon",
	SynUnclosedAngleBracket:        "Unclosed angle bracket",
	SynUnclosedParen:               "Unclosed parenthesis",
	SynAttributeNotAllowed:         "Attribute is not attached to a trait",
	SemaInfo:                       "Semantic information",
	SemaError:                      "Semantic error",
	SemaTraitDuplicateGenericParam: "Duplicate generic parameter",
	SemaTraitMalformedBound:        "Malformed generic parameter bound",
	SemaTraitUnknownBound:          "Unknown trait in generic parameter bound",
	SemaTraitDuplicateBound:        "Duplicate generic parameter bound",
	SemaTraitSelfBound:             "Trait bounds its own generic parameter with itself",
	SemaTraitUnavailableBound:      "Bound names a trait of a broken module",
	IOLoadFileError:                "Failed to load file",
	ProjInfo:                       "Project information",
	ProjDuplicateModule:            "Duplicate module",
	ProjDuplicateTrait:             "Duplicate trait declaration",
	ProjBrokenModule:               "Module data unavailable",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
