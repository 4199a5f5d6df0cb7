package ast

import (
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// BooleanValue, StringValue, NumberValue are the simple literal variants.
type BooleanValue struct {
	Tok   token.Token
	Value bool
}

func (v *BooleanValue) GetToken() token.Token { return v.Tok }
func (v *BooleanValue) Accept(vis Visitor)    { vis.VisitBooleanValue(v) }
func (v *BooleanValue) valueNode()            {}

type StringValue struct {
	Tok   token.Token
	Value string
}

func (v *StringValue) GetToken() token.Token { return v.Tok }
func (v *StringValue) Accept(vis Visitor)    { vis.VisitStringValue(v) }
func (v *StringValue) valueNode()            {}

type NumberValue struct {
	Tok   token.Token
	Value float64
}

func (v *NumberValue) GetToken() token.Token { return v.Tok }
func (v *NumberValue) Accept(vis Visitor)    { vis.VisitNumberValue(v) }
func (v *NumberValue) valueNode()            {}

// MeasureValue is a literal with an attached unit, e.g. 5ms.
type MeasureValue struct {
	Tok   token.Token
	Value float64
	Unit  string
}

func (v *MeasureValue) GetToken() token.Token { return v.Tok }
func (v *MeasureValue) Accept(vis Visitor)    { vis.VisitMeasureValue(v) }
func (v *MeasureValue) valueNode()            {}

// CurrencyValue is a literal money amount with an ISO 4217 code.
type CurrencyValue struct {
	Tok   token.Token
	Value float64
	Code  string
}

func (v *CurrencyValue) GetToken() token.Token { return v.Tok }
func (v *CurrencyValue) Accept(vis Visitor)    { vis.VisitCurrencyValue(v) }
func (v *CurrencyValue) valueNode()            {}

// DateValue / TimeValue hold pre-parsed calendar values; parsing the
// surface date/time syntax happens upstream.
type DateValue struct {
	Tok   token.Token
	Year  int
	Month int
	Day   int
}

func (v *DateValue) GetToken() token.Token { return v.Tok }
func (v *DateValue) Accept(vis Visitor)    { vis.VisitDateValue(v) }
func (v *DateValue) valueNode()            {}

type TimeValue struct {
	Tok     token.Token
	Hour    int
	Minute  int
	Second  int
}

func (v *TimeValue) GetToken() token.Token { return v.Tok }
func (v *TimeValue) Accept(vis Visitor)    { vis.VisitTimeValue(v) }
func (v *TimeValue) valueNode()            {}

// LocationValue is either a named location (home/work/current) or an
// absolute lat/lon pair.
type LocationValue struct {
	Tok        token.Token
	Named      string // "home" | "work" | "current" | ""
	Lat, Lon   float64
	Display    string
}

func (v *LocationValue) GetToken() token.Token { return v.Tok }
func (v *LocationValue) Accept(vis Visitor)    { vis.VisitLocationValue(v) }
func (v *LocationValue) valueNode()            {}

// EntityValue is an opaque entity reference.
type EntityValue struct {
	Tok     token.Token
	ID      string
	Type    string
	Display string
}

func (v *EntityValue) GetToken() token.Token { return v.Tok }
func (v *EntityValue) Accept(vis Visitor)    { vis.VisitEntityValue(v) }
func (v *EntityValue) valueNode()            {}

// EnumValue names one symbol of some Enum type.
type EnumValue struct {
	Tok    token.Token
	Symbol string
}

func (v *EnumValue) GetToken() token.Token { return v.Tok }
func (v *EnumValue) Accept(vis Visitor)    { vis.VisitEnumValue(v) }
func (v *EnumValue) valueNode()            {}

// VarRef references a name bound in the current Scope: either an
// in-scope lambda/output parameter, or (if Schema is set by the
// typechecker) a resolved global declaration.
type VarRef struct {
	Tok    token.Token
	Name   string
	Schema *Schema // non-nil only when VarRef resolves to a stream/table/action declaration
}

func (v *VarRef) GetToken() token.Token { return v.Tok }
func (v *VarRef) Accept(vis Visitor)    { vis.VisitVarRef(v) }
func (v *VarRef) valueNode()            {}

// Event references $event or $event.field, only valid where an event is
// in scope.
type Event struct {
	Tok   token.Token
	Field string // "" denotes bare $event
}

func (v *Event) GetToken() token.Token { return v.Tok }
func (v *Event) Accept(vis Visitor)    { vis.VisitEvent(v) }
func (v *Event) valueNode()            {}

// Undefined is a not-yet-filled slot.
type Undefined struct {
	Tok   token.Token
	Local bool
}

func (v *Undefined) GetToken() token.Token { return v.Tok }
func (v *Undefined) Accept(vis Visitor)    { vis.VisitUndefined(v) }
func (v *Undefined) valueNode()            {}

// ArrayValue is a literal array; ResolvedType is filled by the
// typechecker after merging element enum domains.
type ArrayValue struct {
	Tok          token.Token
	Elements     []Value
	ResolvedType typesystem.Type
}

func (v *ArrayValue) GetToken() token.Token { return v.Tok }
func (v *ArrayValue) Accept(vis Visitor)    { vis.VisitArrayValue(v) }
func (v *ArrayValue) valueNode()            {}

// Computation applies a scalar operator to operands (e.g. distance(p1, p2)).
type Computation struct {
	Tok      token.Token
	Op       string
	Operands []Value
	Overload *typesystem.Signature // filled by the typechecker
}

func (v *Computation) GetToken() token.Token { return v.Tok }
func (v *Computation) Accept(vis Visitor)    { vis.VisitComputation(v) }
func (v *Computation) valueNode()            {}

// ArrayFieldValue projects one field out of an array-of-compound value.
type ArrayFieldValue struct {
	Tok   token.Token
	Value Value
	Field string
}

func (v *ArrayFieldValue) GetToken() token.Token { return v.Tok }
func (v *ArrayFieldValue) Accept(vis Visitor)    { vis.VisitArrayFieldValue(v) }
func (v *ArrayFieldValue) valueNode()            {}

// FilterValue is a value paired with a filter over its own compound
// element fields; checking it opens a nested scope whose names are those
// fields.
type FilterValue struct {
	Tok    token.Token
	Value  Value
	Filter BooleanExpression
}

func (v *FilterValue) GetToken() token.Token { return v.Tok }
func (v *FilterValue) Accept(vis Visitor)    { vis.VisitFilterValue(v) }
func (v *FilterValue) valueNode()            {}
