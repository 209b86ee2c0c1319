package sema

import (
	"fmt"
	"strings"

	"strata/internal/symbols"
)

// DebugTrait renders the resolved data of trait on one line:
//
//	Trait core::Show { generics: [T], attributes: [derive(eq)], diagnostics: 0 }
//
// Names come from the host when it implements Namer.
func (db *Database) DebugTrait(trait symbols.TraitID) string {
	namer, _ := db.host.(Namer)
	name := fmt.Sprintf("#%d", trait)
	if namer != nil {
		if n := namer.TraitName(trait); n != "" {
			name = n
		}
	}

	data, ok := db.PrivTraitSemanticData(trait)
	if !ok {
		return "Trait " + name + " <unresolved>"
	}

	var sb strings.Builder
	sb.WriteString("Trait ")
	sb.WriteString(name)
	sb.WriteString(" { generics: [")
	for i, p := range data.GenericParams {
		if i > 0 {
			sb.WriteString(", ")
		}
		pn := ""
		if namer != nil {
			pn = namer.GenericParamName(p)
		}
		if pn == "" {
			pn = fmt.Sprintf("$%d", p)
		}
		sb.WriteString(pn)
	}
	sb.WriteString("], attributes: [")
	for i, a := range data.Attributes {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(FormatAttribute(a))
	}
	fmt.Fprintf(&sb, "], diagnostics: %d }", data.Diagnostics.Len())
	return sb.String()
}

// FormatAttribute renders a as `name` or `name(arg, arg)`.
func FormatAttribute(a Attribute) string {
	if len(a.Args) == 0 {
		return a.Name
	}
	return a.Name + "(" + strings.Join(a.Args, ", ") + ")"
}
