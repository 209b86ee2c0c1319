package symbols

// ModuleID identifies a module in the definition table.
type ModuleID uint32

// NoModuleID marks the absence of a module reference.
const NoModuleID ModuleID = 0

// IsValid reports whether the module ID refers to an allocated module.
func (id ModuleID) IsValid() bool { return id != NoModuleID }

// TraitID identifies a trait declaration.
type TraitID uint32

const NoTraitID TraitID = 0

func (id TraitID) IsValid() bool { return id != NoTraitID }

// GenericParamID identifies one declared generic parameter.
type GenericParamID uint32

const NoGenericParamID GenericParamID = 0

func (id GenericParamID) IsValid() bool { return id != NoGenericParamID }
