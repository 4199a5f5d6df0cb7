package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

// NotifyKind distinguishes the built-in notify action's flavor.
type NotifyKind string

const (
	NotifyNotify NotifyKind = "notify"
	NotifyReturn NotifyKind = "return"
)

// Notify is the built-in sink action every Rule/Command ultimately drains
// into, absent an explicit remote invocation.
type Notify struct {
	Tok    token.Token
	Kind   NotifyKind
	Schema *Schema
}

func (n *Notify) GetToken() token.Token { return n.Tok }
func (n *Notify) Accept(v Visitor)      { v.VisitNotify(n) }
func (n *Notify) actionNode()           {}
func (n *Notify) GetSchema() *Schema    { return n.Schema }
func (n *Notify) SetSchema(s *Schema)   { n.Schema = s }

// ActionInvocation invokes a remote (or local synthetic) action.
type ActionInvocation struct {
	Tok        token.Token
	Invocation *Invocation
	Schema     *Schema
}

func (n *ActionInvocation) GetToken() token.Token { return n.Tok }
func (n *ActionInvocation) Accept(v Visitor)      { v.VisitActionInvocation(n) }
func (n *ActionInvocation) actionNode()           {}
func (n *ActionInvocation) GetSchema() *Schema    { return n.Schema }
func (n *ActionInvocation) SetSchema(s *Schema)   { n.Schema = s }

// ActionVarRef references an action-typed declaration by name.
type ActionVarRef struct {
	Tok    token.Token
	Name   string
	Schema *Schema
}

func (n *ActionVarRef) GetToken() token.Token { return n.Tok }
func (n *ActionVarRef) Accept(v Visitor)      { v.VisitActionVarRef(n) }
func (n *ActionVarRef) actionNode()           {}
func (n *ActionVarRef) GetSchema() *Schema    { return n.Schema }
func (n *ActionVarRef) SetSchema(s *Schema)   { n.Schema = s }
