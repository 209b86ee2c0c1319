package types

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"strata/internal/source"
	"strata/internal/symbols"
)

// Builtins stores TypeIDs for primitive types.
type Builtins struct {
	Unit   TypeID
	Bool   TypeID
	String TypeID
	Int    TypeID
	Uint   TypeID
	Float  TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	builtins Builtins
	Strings  *source.Interner
}

// NewInterner constructs an interner seeded with built-in primitives.
// If strings is nil, a private string interner is allocated.
func NewInterner(strings *source.Interner) *Interner {
	if strings == nil {
		strings = source.NewInterner()
	}
	in := &Interner{
		types:   []Type{{Kind: KindInvalid}}, // NoTypeID
		index:   make(map[Type]TypeID, 16),
		Strings: strings,
	}
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Uint = in.Intern(Type{Kind: KindUint})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.RLock()
	id, ok := in.index[t]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[t]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id = TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Param interns a reference to a generic parameter.
func (in *Interner) Param(id symbols.GenericParamID) TypeID {
	return in.Intern(Type{Kind: KindParam, Payload: uint32(id)})
}

// Named interns a nominal type by name.
func (in *Interner) Named(name string) TypeID {
	return in.Intern(Type{Kind: KindNamed, Payload: uint32(in.Strings.Intern(name))})
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

var builtinNames = map[string]Kind{
	"Unit":   KindUnit,
	"Bool":   KindBool,
	"String": KindString,
	"Int":    KindInt,
	"Uint":   KindUint,
	"Float":  KindFloat,
}

// Parse interns a type written as `Int`, `[Elem]` or a nominal name.
func (in *Interner) Parse(s string) (TypeID, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return NoTypeID, fmt.Errorf("empty type")
	case strings.HasPrefix(s, "["):
		if !strings.HasSuffix(s, "]") {
			return NoTypeID, fmt.Errorf("%q: unclosed '['", s)
		}
		elem, err := in.Parse(s[1 : len(s)-1])
		if err != nil {
			return NoTypeID, err
		}
		return in.Intern(MakeArray(elem)), nil
	}
	if kind, ok := builtinNames[s]; ok {
		return in.Intern(Type{Kind: kind}), nil
	}
	if strings.ContainsAny(s, "[]<>, ") {
		return NoTypeID, fmt.Errorf("%q: not a type name", s)
	}
	return in.Named(s), nil
}

// Format renders id back to source-like text. paramName resolves KindParam
// payloads and may be nil.
func (in *Interner) Format(id TypeID, paramName func(symbols.GenericParamID) string) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindArray:
		return "[" + in.Format(t.Elem, paramName) + "]"
	case KindParam:
		if paramName != nil {
			return paramName(symbols.GenericParamID(t.Payload))
		}
		return fmt.Sprintf("$%d", t.Payload)
	case KindNamed:
		return in.Strings.MustLookup(source.StringID(t.Payload))
	}
	for name, kind := range builtinNames {
		if kind == t.Kind {
			return name
		}
	}
	return t.Kind.String()
}
