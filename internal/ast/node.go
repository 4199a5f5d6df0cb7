// Package ast defines ThingTalk's abstract syntax tree: tagged
// variants for Value, BooleanExpression, Stream, Table, Action, Statement,
// Program, PermissionRule, ClassDef and FunctionDef, each implementing a
// dense Visitor-dispatch Node interface. Every Stream, Table and Action
// node (and every Invocation) carries a mutable Schema slot filled in by
// internal/typecheck.
//
// The union is expressed as a slim Node interface, one struct per
// variant, and one Accept method per struct calling the matching
// Visit<Kind> hook, keeping visitor-based traversals (ast.Walk, primitive
// and slot iteration) dense and exhaustive.
package ast

import (
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// Node is the base interface for every AST node.
type Node interface {
	GetToken() token.Token
	Accept(v Visitor)
}

// Value is any ThingTalk value expression (literal, VarRef, computation...).
type Value interface {
	Node
	valueNode()
}

// BooleanExpression is a filter predicate.
type BooleanExpression interface {
	Node
	booleanExpressionNode()
}

// Stream produces a lazy, unbounded sequence of records.
type Stream interface {
	Node
	streamNode()
	GetSchema() *Schema
	SetSchema(*Schema)
}

// Table produces a finite or bounded sequence of records.
type Table interface {
	Node
	tableNode()
	GetSchema() *Schema
	SetSchema(*Schema)
}

// Action performs a side effect (notify or invoke a remote action).
type Action interface {
	Node
	actionNode()
	GetSchema() *Schema
	SetSchema(*Schema)
}

// Statement is a top-level program statement.
type Statement interface {
	Node
	statementNode()
}

// ArgDirection is the direction of a FunctionDef argument.
type ArgDirection int

const (
	InReq ArgDirection = iota // required input
	InOpt                     // optional input
	Out                       // output
)

func (d ArgDirection) String() string {
	switch d {
	case InReq:
		return "in_req"
	case InOpt:
		return "in_opt"
	case Out:
		return "out"
	}
	return "?"
}

// ArgumentDef describes one formal parameter of a FunctionDef.
type ArgumentDef struct {
	Name        string
	Type        typesystem.Type
	Direction   ArgDirection
	Annotations map[string]interface{}
}

func (a ArgumentDef) IsInput() bool  { return a.Direction == InReq || a.Direction == InOpt }
func (a ArgumentDef) IsOutput() bool { return a.Direction == Out }
func (a ArgumentDef) IsUnique() bool {
	v, ok := a.Annotations["unique"]
	return ok && v == true
}

// IsPrincipal reports the __principal marker on a contact-typed argument:
// when such a parameter equals the running principal, the encoder asserts
// Allowed_<fn> for that principal.
func (a ArgumentDef) IsPrincipal() bool {
	v, ok := a.Annotations["__principal"]
	return ok && v == true
}

// FunctionDef is a resolved query/action signature, shared
// between the schema catalogue and the Schema slot written onto
// Invocation nodes by the typechecker.
type FunctionDef struct {
	Kind             string // "query" or "action" or "stream" (trigger)
	Class            string // owning class identifier, e.g. "com.xkcd"
	Name             string // channel name, e.g. "get_comic"
	Args             []ArgumentDef
	IsList           bool
	IsMonitorable    bool
	RequireFilter    bool
	NoFilter         bool
	MinimalProjection []string
	DefaultProjection []string
	PollInterval     int64 // milliseconds; only meaningful if IsMonitorable
	Extends          []string
}

func (f *FunctionDef) Arg(name string) (ArgumentDef, bool) {
	for _, a := range f.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgumentDef{}, false
}

// InputArgs/OutputArgs are convenience views used throughout typecheck.
func (f *FunctionDef) InputArgs() []ArgumentDef {
	var out []ArgumentDef
	for _, a := range f.Args {
		if a.IsInput() {
			out = append(out, a)
		}
	}
	return out
}

func (f *FunctionDef) OutputArgs() []ArgumentDef {
	var out []ArgumentDef
	for _, a := range f.Args {
		if a.IsOutput() {
			out = append(out, a)
		}
	}
	return out
}

// ClassDef is a resolved device class.
type ClassDef struct {
	Name     string
	Extends  []string
	Queries  map[string]*FunctionDef
	Actions  map[string]*FunctionDef
	Abstract bool
	// Config/loader import names; abstract classes must not set these.
	Config string
	Loader string
}

// Schema is the mutable slot every Stream/Table/Action node (and every
// Invocation) carries: the node's resolved, narrowed view of a
// FunctionDef after projection/join/aggregation have been applied. Its
// invariant is that Args' inputs are a subset of the node's
// supplied in-params, and its outputs are exactly the node's projection.
type Schema struct {
	Args          []ArgumentDef
	IsList        bool
	IsMonitorable bool
	NoFilter      bool
	// Function is set on primitive (Invocation) nodes: the fully resolved
	// catalogue entry this node was checked against.
	Function *FunctionDef
}

func (s *Schema) Arg(name string) (ArgumentDef, bool) {
	if s == nil {
		return ArgumentDef{}, false
	}
	for _, a := range s.Args {
		if a.Name == name {
			return a, true
		}
	}
	return ArgumentDef{}, false
}

// OutputArgs returns only the output-direction arguments, the view the
// remote-lowering pass copies into a synthetic send/receive envelope.
func (s *Schema) OutputArgs() []ArgumentDef {
	if s == nil {
		return nil
	}
	var out []ArgumentDef
	for _, a := range s.Args {
		if a.IsOutput() {
			out = append(out, a)
		}
	}
	return out
}

func (s *Schema) OutputNames() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, a := range s.Args {
		if a.IsOutput() {
			out = append(out, a.Name)
		}
	}
	return out
}

// Clone returns a value copy with an independently-owned Args slice, used
// by the permission checker before rewriting a cloned subtree.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	args := make([]ArgumentDef, len(s.Args))
	copy(args, s.Args)
	cp := *s
	cp.Args = args
	return &cp
}
