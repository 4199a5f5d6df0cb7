package typesystem

import "fmt"

// Signature is one overload of an operator, aggregation, or scalar
// function: a list of parameter types ending with the result type.
// Parameter types may be TVar("a") (unifies across positions) or
// Measure("").
type Signature struct {
	Params     []Type
	Result     Type
	AllowCast  bool // whether the Number↔Measure widening applies; entity subtyping applies either way
}

// OverloadTable holds every declared signature for one operator, in
// declaration order — resolution tries them in that order and returns the
// first match.
type OverloadTable struct {
	Op         string
	Signatures []Signature
}

// InvalidOperatorOverload is returned when no signature matches.
type InvalidOperatorOverload struct {
	Op   string
	Args []Type
}

func (e *InvalidOperatorOverload) Error() string {
	argStrs := make([]string, len(e.Args))
	for i, a := range e.Args {
		argStrs[i] = a.String()
	}
	return fmt.Sprintf("no overload of '%s' matches %v", e.Op, argStrs)
}

// Resolve finds the first signature whose parameters are all assignable
// from args under a fresh Scope, returning the concrete (scope-applied)
// signature and its result type.
func (t OverloadTable) Resolve(args []Type, hier EntityHierarchy) (Signature, Type, error) {
	for _, sig := range t.Signatures {
		if len(sig.Params) != len(args) {
			continue
		}
		scope := NewScope()
		ok := true
		for i, param := range sig.Params {
			if !Assignable(args[i], param, scope, hier, sig.AllowCast) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		subst := scope.Subst()
		concreteParams := make([]Type, len(sig.Params))
		for i, p := range sig.Params {
			concreteParams[i] = p.Apply(subst)
		}
		return Signature{Params: concreteParams, Result: sig.Result.Apply(subst), AllowCast: sig.AllowCast},
			sig.Result.Apply(subst), nil
	}
	return Signature{}, nil, &InvalidOperatorOverload{Op: t.Op, Args: args}
}

// FilterOperators is the closed set of comparison/string operators valid
// in a BooleanExpression.Atom: these must never silently cast
// entity kinds, so their tables are built with AllowCast: false wherever
// an Entity parameter appears.
var FilterOperators = []string{
	"==", "!=", "<", "<=", ">", ">=",
	"=~", "~=", "starts_with", "ends_with", "contains", "in_array",
	"has_member", "group_member",
}

// IsFilterOperator reports whether op is one of the closed set of
// comparison/string operators valid in a BooleanExpression.Atom.
func IsFilterOperator(op string) bool {
	for _, o := range FilterOperators {
		if o == op {
			return true
		}
	}
	return false
}

// DefaultOverloads builds the standard operator tables used by the
// typechecker when no device-specific overload extends them.
func DefaultOverloads() map[string]OverloadTable {
	a := TVar{Name: "a"}
	m := Measure{Unit: ""}
	tables := map[string]OverloadTable{
		"+": {Op: "+", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Number},
			{Params: []Type{m, m}, Result: m},
			{Params: []Type{StringT, StringT}, Result: StringT},
		}},
		"-": {Op: "-", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Number},
			{Params: []Type{m, m}, Result: m},
		}},
		"==": {Op: "==", Signatures: []Signature{
			{Params: []Type{a, a}, Result: Boolean},
		}},
		"!=": {Op: "!=", Signatures: []Signature{
			{Params: []Type{a, a}, Result: Boolean},
		}},
		"<": {Op: "<", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Boolean},
			{Params: []Type{m, m}, Result: Boolean},
			{Params: []Type{Date, Date}, Result: Boolean},
			{Params: []Type{Time, Time}, Result: Boolean},
		}},
		"<=": {Op: "<=", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Boolean},
			{Params: []Type{m, m}, Result: Boolean},
			{Params: []Type{Date, Date}, Result: Boolean},
			{Params: []Type{Time, Time}, Result: Boolean},
		}},
		">": {Op: ">", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Boolean},
			{Params: []Type{m, m}, Result: Boolean},
			{Params: []Type{Date, Date}, Result: Boolean},
			{Params: []Type{Time, Time}, Result: Boolean},
		}},
		">=": {Op: ">=", Signatures: []Signature{
			{Params: []Type{Number, Number}, Result: Boolean},
			{Params: []Type{m, m}, Result: Boolean},
			{Params: []Type{Date, Date}, Result: Boolean},
			{Params: []Type{Time, Time}, Result: Boolean},
		}},
		"=~": {Op: "=~", Signatures: []Signature{
			{Params: []Type{StringT, StringT}, Result: Boolean},
		}},
		"~=": {Op: "~=", Signatures: []Signature{
			{Params: []Type{StringT, StringT}, Result: Boolean},
		}},
		"starts_with": {Op: "starts_with", Signatures: []Signature{
			{Params: []Type{StringT, StringT}, Result: Boolean},
		}},
		"ends_with": {Op: "ends_with", Signatures: []Signature{
			{Params: []Type{StringT, StringT}, Result: Boolean},
		}},
		"contains": {Op: "contains", Signatures: []Signature{
			{Params: []Type{Array{Element: a}, a}, Result: Boolean},
			{Params: []Type{StringT, StringT}, Result: Boolean},
		}},
		"in_array": {Op: "in_array", Signatures: []Signature{
			{Params: []Type{a, Array{Element: a}}, Result: Boolean},
		}},
		"has_member": {Op: "has_member", Signatures: []Signature{
			{Params: []Type{Entity{Name: "tt:contact"}, Entity{Name: "tt:contact_group"}}, Result: Boolean},
		}},
		"group_member": {Op: "group_member", Signatures: []Signature{
			{Params: []Type{Entity{Name: "tt:contact"}, Entity{Name: "tt:contact_group"}}, Result: Boolean},
		}},
	}
	return tables
}

// AggregationOverloads builds the tables used by Table.Aggregation:
// count over * yields Number unconditionally; the other aggregations
// resolve against the named field's type.
func AggregationOverloads() map[string]OverloadTable {
	return map[string]OverloadTable{
		"sum":     {Op: "sum", Signatures: []Signature{{Params: []Type{Number}, Result: Number}, {Params: []Type{Measure{Unit: ""}}, Result: Measure{Unit: ""}}}},
		"avg":     {Op: "avg", Signatures: []Signature{{Params: []Type{Number}, Result: Number}, {Params: []Type{Measure{Unit: ""}}, Result: Measure{Unit: ""}}}},
		"max":     {Op: "max", Signatures: []Signature{{Params: []Type{Number}, Result: Number}, {Params: []Type{Measure{Unit: ""}}, Result: Measure{Unit: ""}}, {Params: []Type{Date}, Result: Date}}},
		"min":     {Op: "min", Signatures: []Signature{{Params: []Type{Number}, Result: Number}, {Params: []Type{Measure{Unit: ""}}, Result: Measure{Unit: ""}}, {Params: []Type{Date}, Result: Date}}},
		"argmax":  {Op: "argmax", Signatures: []Signature{{Params: []Type{Number}, Result: Number}}},
		"argmin":  {Op: "argmin", Signatures: []Signature{{Params: []Type{Number}, Result: Number}}},
		"count":   {Op: "count", Signatures: []Signature{{Params: []Type{TVar{Name: "a"}}, Result: Number}}},
	}
}
