package ast

import (
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// True/False are the constant boolean leaves the optimizer folds towards
// and away from.
type True struct{ Tok token.Token }

func (n *True) GetToken() token.Token { return n.Tok }
func (n *True) Accept(v Visitor)      { v.VisitTrue(n) }
func (n *True) booleanExpressionNode() {}

type False struct{ Tok token.Token }

func (n *False) GetToken() token.Token { return n.Tok }
func (n *False) Accept(v Visitor)      { v.VisitFalse(n) }
func (n *False) booleanExpressionNode() {}

// And/Or are n-ary connectives; the optimizer flattens and folds them,
// building a new node rather than mutating Ops in place.
type And struct {
	Tok token.Token
	Ops []BooleanExpression
}

func (n *And) GetToken() token.Token { return n.Tok }
func (n *And) Accept(v Visitor)      { v.VisitAnd(n) }
func (n *And) booleanExpressionNode() {}

type Or struct {
	Tok token.Token
	Ops []BooleanExpression
}

func (n *Or) GetToken() token.Token { return n.Tok }
func (n *Or) Accept(v Visitor)      { v.VisitOr(n) }
func (n *Or) booleanExpressionNode() {}

type Not struct {
	Tok token.Token
	Op  BooleanExpression
}

func (n *Not) GetToken() token.Token { return n.Tok }
func (n *Not) Accept(v Visitor)      { v.VisitNot(n) }
func (n *Not) booleanExpressionNode() {}

// Atom is a filter predicate "name op value". Overload is
// written by the typechecker: the concrete [lhs, rhs, result] signature
// the operator resolved to.
type Atom struct {
	Tok      token.Token
	Name     string
	Operator string
	Value    Value
	Overload []typesystem.Type
}

func (n *Atom) GetToken() token.Token { return n.Tok }
func (n *Atom) Accept(v Visitor)      { v.VisitAtom(n) }
func (n *Atom) booleanExpressionNode() {}

// Compute is a filter whose LHS is itself a computed Value rather than a
// bare parameter name, e.g. distance(geo, here) < 1km.
type Compute struct {
	Tok      token.Token
	LHS      Value
	Op       string
	RHS      Value
	Overload []typesystem.Type
}

func (n *Compute) GetToken() token.Token { return n.Tok }
func (n *Compute) Accept(v Visitor)      { v.VisitCompute(n) }
func (n *Compute) booleanExpressionNode() {}

// External embeds an invocation of another function as a filter source.
type External struct {
	Tok        token.Token
	Invocation *Invocation
	Filter     BooleanExpression
}

func (n *External) GetToken() token.Token { return n.Tok }
func (n *External) Accept(v Visitor)      { v.VisitExternal(n) }
func (n *External) booleanExpressionNode() {}
func (n *External) GetSchema() *Schema    { return n.Invocation.Schema }

// DontCare marks a parameter whose value is intentionally unconstrained
// (used by permission policies to mean "any value is allowed").
type DontCare struct {
	Tok  token.Token
	Name string
}

func (n *DontCare) GetToken() token.Token { return n.Tok }
func (n *DontCare) Accept(v Visitor)      { v.VisitDontCare(n) }
func (n *DontCare) booleanExpressionNode() {}

// InputParam binds a value to one of a function's input arguments.
type InputParam struct {
	Name  string
	Value Value
}

// Selector identifies which device an invocation targets. IsBuiltin
// selects the notify/"@builtin" pseudo-device.
type Selector struct {
	Kind      string // device kind, e.g. "com.xkcd"; "" for Builtin
	ID        string // attribute "id": a specific device instance
	All       bool   // attribute "all": every instance of this kind
	Principal *EntityValue // non-nil for a remote selector ("@remote.foo")
	IsBuiltin bool
}
