package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the supported kinds of generic arguments.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindString
	KindInt
	KindUint
	KindFloat
	KindArray
	// KindParam refers to a generic parameter (Payload holds its id).
	KindParam
	// KindNamed is a user nominal type (Payload holds the interned name).
	KindNamed
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindParam:
		return "param"
	case KindNamed:
		return "named"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for a generic argument.
type Type struct {
	Kind    Kind
	Elem    TypeID // for arrays
	Payload uint32
}

// MakeArray builds an array descriptor.
func MakeArray(elem TypeID) Type {
	return Type{Kind: KindArray, Elem: elem}
}
