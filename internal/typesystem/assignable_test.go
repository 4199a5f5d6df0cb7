package typesystem

import "testing"

func TestAssignableGroundTypes(t *testing.T) {
	scope := NewScope()
	if !Assignable(Number, Number, scope, nil, false) {
		t.Fatalf("Number should be assignable to Number")
	}
	if Assignable(Number, StringT, scope, nil, false) {
		t.Fatalf("Number should not be assignable to String")
	}
}

func TestAssignableAnyIsTopAndBottom(t *testing.T) {
	scope := NewScope()
	if !Assignable(Number, Any, scope, nil, false) {
		t.Fatalf("anything assignable to Any")
	}
	if !Assignable(Any, StringT, scope, nil, false) {
		t.Fatalf("Any assignable to anything")
	}
}

func TestAssignableArray(t *testing.T) {
	scope := NewScope()
	a := Array{Element: Number}
	b := Array{Element: Number}
	if !Assignable(a, b, scope, nil, false) {
		t.Fatalf("Array(Number) should be assignable to Array(Number)")
	}
	c := Array{Element: StringT}
	if Assignable(a, c, scope, nil, false) {
		t.Fatalf("Array(Number) should not be assignable to Array(String)")
	}
}

func TestAssignableMeasureUnit(t *testing.T) {
	scope := NewScope()
	ms := Measure{Unit: "ms"}
	if !Assignable(ms, ms, scope, nil, false) {
		t.Fatalf("Measure(ms) assignable to Measure(ms)")
	}
	s := Measure{Unit: "s"}
	if Assignable(ms, s, scope, nil, false) {
		t.Fatalf("Measure(ms) should not be assignable to Measure(s)")
	}
}

func TestAssignableMeasureUnitVar(t *testing.T) {
	scope := NewScope()
	generic := Measure{Unit: ""}
	ms := Measure{Unit: "ms"}
	if !Assignable(ms, generic, scope, nil, false) {
		t.Fatalf("Measure(ms) should bind the generic unit var")
	}
	// Second occurrence of the generic unit var must unify to the same unit.
	s := Measure{Unit: "s"}
	if Assignable(s, generic, scope, nil, false) {
		t.Fatalf("a second Measure with a different unit must fail to unify with the bound _unit")
	}
}

func TestAssignableNumberMeasureCast(t *testing.T) {
	scope := NewScope()
	if Assignable(Number, Measure{Unit: "ms"}, scope, nil, false) {
		t.Fatalf("Number should not be assignable to Measure without allowCast")
	}
}

func TestAssignableEntitySubtype(t *testing.T) {
	hier := FlatEntityHierarchy{Parents: map[string][]string{"tt:phone_number": {"tt:contact"}}}
	scope := NewScope()
	if !Assignable(Entity{Name: "tt:phone_number"}, Entity{Name: "tt:contact"}, scope, hier, false) {
		t.Fatalf("tt:phone_number should be a subtype of tt:contact")
	}
	if Assignable(Entity{Name: "tt:contact"}, Entity{Name: "tt:phone_number"}, scope, hier, false) {
		t.Fatalf("tt:contact should not be a subtype of tt:phone_number")
	}
}

func TestAssignableEnumSubset(t *testing.T) {
	scope := NewScope()
	small := Enum{Symbols: []string{"c", "f"}}
	big := Enum{Symbols: []string{"c", "f", "k"}}
	if !Assignable(small, big, scope, nil, false) {
		t.Fatalf("{c,f} should be assignable to {c,f,k}")
	}
	if Assignable(big, small, scope, nil, false) {
		t.Fatalf("{c,f,k} should not be assignable to {c,f}")
	}
}

func TestAssignableOpenEnumGrows(t *testing.T) {
	scope := NewScope()
	a := Enum{Symbols: []string{"c"}, Open: true}
	b := Enum{Symbols: []string{"f"}, Open: true}
	if !Assignable(a, b, scope, nil, false) {
		t.Fatalf("open enums should always unify")
	}
	grown, ok := MergeOpenEnums(b, a).(Enum)
	if !ok || !grown.has("c") || !grown.has("f") {
		t.Fatalf("expected the merged open enum to absorb both symbol sets, got %v", grown)
	}
	if b.has("c") {
		t.Fatalf("the original target must stay untouched")
	}
}

func TestOverloadGenericMeasureResolvesUnit(t *testing.T) {
	table := DefaultOverloads()["+"]
	ms := Measure{Unit: "ms"}
	_, result, err := table.Resolve([]Type{ms, ms}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := result.(Measure)
	if !ok || got.Unit != "ms" {
		t.Fatalf("expected the generic measure overload to resolve to Measure(ms), got %v", result)
	}
}

func TestOverloadResolutionOrderAndFailure(t *testing.T) {
	table := DefaultOverloads()["+"]
	_, result, err := table.Resolve([]Type{Number, Number}, nil)
	if err != nil || result != Type(Number) {
		t.Fatalf("expected Number + Number -> Number, got %v err=%v", result, err)
	}

	_, _, err = table.Resolve([]Type{Boolean, Boolean}, nil)
	if err == nil {
		t.Fatalf("expected InvalidOperatorOverload for Boolean + Boolean")
	}
	if _, ok := err.(*InvalidOperatorOverload); !ok {
		t.Fatalf("expected *InvalidOperatorOverload, got %T", err)
	}
}
