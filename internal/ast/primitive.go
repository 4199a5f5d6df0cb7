package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

// Invocation is a single call into a device function: `@kind.channel(in_params)`.
// It is the one node kind the schema pre-loading pass walks the whole
// AST to collect, batch-resolving every Invocation, VarRef and External
// in one round-trip to the schema retriever.
type Invocation struct {
	Tok      token.Token
	Selector Selector
	Channel  string
	InParams []InputParam
	Schema   *Schema
}

func (n *Invocation) GetToken() token.Token { return n.Tok }
func (n *Invocation) Accept(v Visitor)      { v.VisitInvocation(n) }

// PrimitiveKind distinguishes what a collected primitive is: the
// syntactic role (query, action, stream trigger) it was found in.
type PrimitiveKind string

const (
	PrimQuery    PrimitiveKind = "query"
	PrimAction   PrimitiveKind = "action"
	PrimStream   PrimitiveKind = "stream"
)

// Primitive is one (kind, invocation) pair yielded by IteratePrimitives.
type Primitive struct {
	Kind       PrimitiveKind
	Invocation *Invocation
}
