package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

// PermissionFunctionKind tags which of the four function-matching shapes a
// PermissionRule's Query/Action slot uses.
type PermissionFunctionKind int

const (
	PermBuiltin PermissionFunctionKind = iota // matches only the built-in notify
	PermStar                                   // matches any function of any class
	PermClassStar                              // matches any function of one class
	PermSpecified                              // matches one class+channel, with a filter
)

// PermissionFunction is one of Builtin | Star | ClassStar(kind) |
// Specified{kind,channel,filter,schema}.
type PermissionFunction struct {
	Tok     token.Token
	Kind    PermissionFunctionKind
	Class   string            // set for ClassStar, Specified
	Channel string            // set for Specified
	Filter  BooleanExpression // set for Specified
	Schema  *Schema           // set for Specified, once typechecked
}

func (n *PermissionFunction) GetToken() token.Token { return n.Tok }
func (n *PermissionFunction) Accept(v Visitor)      { v.VisitPermissionFunction(n) }

// Matches reports whether this permission function's identity (kind +
// channel only, not its filter) applies to a given invocation.
func (n *PermissionFunction) Matches(class, channel string) bool {
	switch n.Kind {
	case PermStar:
		return true
	case PermClassStar:
		return n.Class == class
	case PermSpecified:
		return n.Class == class && n.Channel == channel
	default:
		return false
	}
}

// PermissionRule is a policy: a principal filter plus query and action
// permission functions.
type PermissionRule struct {
	Tok             token.Token
	PrincipalFilter BooleanExpression // filter over the running principal; nil = unconditional
	Query           *PermissionFunction
	Action          *PermissionFunction
}

func (n *PermissionRule) GetToken() token.Token { return n.Tok }
func (n *PermissionRule) Accept(v Visitor)      { v.VisitPermissionRule(n) }

// HasTwoQueries reports the currently-unsupported shape: a policy whose
// Query slot is itself a trigger+query pair.
// In this AST a PermissionRule only ever has one Query slot, so detecting
// "two queries" is the caller's responsibility when lowering a surface
// policy with both a stream permission and a query permission into this
// shape; ErrT014/ErrP002 is raised there.
func (n *PermissionRule) HasTwoQueries() bool { return false }
