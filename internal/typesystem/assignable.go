package typesystem

import "github.com/thingtalk-lang/ttcore/internal/config"

// Assignable reports whether a value of type a may be used where b is
// expected. scope threads type-variable bindings across the whole overload-argument list (callers
// resolving an operator overload share one Scope across every parameter);
// allowCast enables the Number↔Measure and Measure↔Number widenings that
// only specific operators declare.
func Assignable(a, b Type, scope *Scope, hier EntityHierarchy, allowCast bool) bool {
	if hier == nil {
		hier = NoEntityHierarchy
	}

	// A TypeVar on the target side: bind (or check consistency with an
	// existing binding) and succeed.
	if bv, ok := b.(TVar); ok {
		return bindOrCheck(bv, a, scope, hier, allowCast)
	}
	if av, ok := a.(TVar); ok {
		return bindOrCheck(av, b, scope, hier, allowCast)
	}

	if sameIdentical(a, b) {
		return true
	}

	// Any is both top and bottom.
	if _, ok := a.(groundType); ok && a.(groundType) == Any {
		return true
	}
	if _, ok := b.(groundType); ok && b.(groundType) == Any {
		return true
	}

	switch at := a.(type) {
	case Array:
		bt, ok := b.(Array)
		if !ok {
			return false
		}
		return Assignable(at.Element, bt.Element, scope, hier, allowCast)

	case Measure:
		bt, ok := b.(Measure)
		if !ok {
			if ok2 := allowCast; ok2 {
				if _, isNum := b.(groundType); isNum && b.(groundType) == Number {
					return true
				}
			}
			return false
		}
		return unifyUnit(at.Unit, bt.Unit, scope)

	case groundType:
		if at == Number {
			if bt, ok := b.(Measure); ok && allowCast {
				return unifyUnit("", bt.Unit, scope) || bt.Unit != ""
			}
		}
		return false

	case Entity:
		bt, ok := b.(Entity)
		if !ok {
			return false
		}
		return at.Name == bt.Name || hier.IsSubtype(at.Name, bt.Name)

	case Enum:
		bt, ok := b.(Enum)
		if !ok {
			return false
		}
		return enumAssignable(at, bt)

	case Compound:
		bt, ok := b.(Compound)
		if !ok {
			return false
		}
		for name, bf := range bt.Fields {
			af, ok := at.Fields[name]
			if !ok {
				if bf.Required {
					return false
				}
				continue
			}
			if !Assignable(af.Type, bf.Type, scope, hier, allowCast) {
				return false
			}
		}
		return true
	}

	return false
}

func sameIdentical(a, b Type) bool {
	return a.String() == b.String() && sameKind(a, b)
}

func sameKind(a, b Type) bool {
	switch a.(type) {
	case groundType:
		_, ok := b.(groundType)
		return ok
	case Entity:
		_, ok := b.(Entity)
		return ok
	case Measure:
		_, ok := b.(Measure)
		return ok
	case Enum:
		_, ok := b.(Enum)
		return ok
	case Array:
		_, ok := b.(Array)
		return ok
	case Compound:
		_, ok := b.(Compound)
		return ok
	case Unknown:
		_, ok := b.(Unknown)
		return ok
	}
	return false
}

// enumAssignable accepts Enum(E1) into Enum(E2) iff E1 ⊆ E2; two open
// enums always unify. Open-enum growth (missing assignee entries
// appended to the target) happens where the target type is stored, via
// MergeOpenEnums — Type values flow through interfaces by value here, so
// the relation itself stays pure.
func enumAssignable(a, b Enum) bool {
	if a.Open && b.Open {
		return true
	}
	for _, sym := range a.Symbols {
		if !b.has(sym) {
			return false
		}
	}
	return true
}

// MergeOpenEnums returns target with every symbol of src appended that it
// was missing, when both are open enums; otherwise target is returned
// unchanged. Callers that own the target's storage (the array-literal
// element domain, a catalogue argument) apply this after a successful
// Assignable check.
func MergeOpenEnums(target, src Type) Type {
	bt, ok := target.(Enum)
	if !ok || !bt.Open {
		return target
	}
	at, ok := src.(Enum)
	if !ok || !at.Open {
		return target
	}
	merged := bt
	merged.Symbols = append([]string(nil), bt.Symbols...)
	for _, sym := range at.Symbols {
		if !merged.has(sym) {
			merged.Symbols = append(merged.Symbols, sym)
		}
	}
	return merged
}

func bindOrCheck(v TVar, t Type, scope *Scope, hier EntityHierarchy, allowCast bool) bool {
	if existing, ok := scope.Get(v.Name); ok {
		return Assignable(t, existing, scope, hier, allowCast) && Assignable(existing, t, scope, hier, allowCast)
	}
	scope.Bind(v.Name, t)
	return true
}

// unifyUnit unifies two Measure units through the scope's reserved
// config.UnitScopeKey slot. An empty unit string acts as a TypeVar
// standing for "whatever unit the other side has".
func unifyUnit(a, b string, scope *Scope) bool {
	if a == b {
		return true
	}
	if a == "" {
		return bindUnit(b, scope)
	}
	if b == "" {
		return bindUnit(a, scope)
	}
	return false
}

func bindUnit(unit string, scope *Scope) bool {
	if existing, ok := scope.Get(config.UnitScopeKey); ok {
		eu, ok := existing.(Measure)
		return ok && eu.Unit == unit
	}
	scope.Bind(config.UnitScopeKey, Measure{Unit: unit})
	return true
}
