package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// checkFilterExpr recursively checks a BooleanExpression against schema
// (the invocation/row shape the filter restricts) and scope (names
// visible from an enclosing FilterValue, or the names a policy filter
// exposes). Table, stream and edge filters pass a nil scope, so $event is
// not visible in them. schema may be nil when the filter's only named references
// come from scope, as with a nested FilterValue over compound fields.
func (c *Checker) checkFilterExpr(b ast.BooleanExpression, scope *paramScope, schema *ast.Schema) error {
	switch n := b.(type) {
	case *ast.True, *ast.False:
		return nil
	case *ast.And:
		for _, op := range n.Ops {
			if err := c.checkFilterExpr(op, scope, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.Or:
		for _, op := range n.Ops {
			if err := c.checkFilterExpr(op, scope, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.Not:
		return c.checkFilterExpr(n.Op, scope, schema)
	case *ast.DontCare:
		if _, ok := c.fieldType(n.Name, scope, schema); !ok {
			return diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
		}
		return nil
	case *ast.Atom:
		return c.checkAtom(n, scope, schema)
	case *ast.Compute:
		lt, err := c.checkValue(n.LHS, scope)
		if err != nil {
			return err
		}
		rt, err := c.checkValue(n.RHS, scope)
		if err != nil {
			return err
		}
		overload, err := c.checkOperator(n.Op, lt, rt, n.Tok)
		if err != nil {
			return err
		}
		n.Overload = overload
		return nil
	case *ast.External:
		if _, err := c.checkInvocation(n.Invocation, false); err != nil {
			return err
		}
		if n.Filter != nil {
			return c.checkFilterExpr(n.Filter, scope, n.Invocation.Schema)
		}
		return nil
	default:
		return diagnostics.InternalError(diagnostics.PhaseTypecheck, b.GetToken(), "unhandled filter expression")
	}
}

func (c *Checker) fieldType(name string, scope *paramScope, schema *ast.Schema) (typesystem.Type, bool) {
	if schema != nil {
		if a, ok := schema.Arg(name); ok {
			return a.Type, true
		}
	}
	if scope != nil {
		if t, ok := scope.lookup(name); ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Checker) checkAtom(n *ast.Atom, scope *paramScope, schema *ast.Schema) error {
	fieldType, ok := c.fieldType(n.Name, scope, schema)
	if !ok {
		return diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
	}
	if schema != nil {
		if a, ok := schema.Arg(n.Name); ok && a.IsUnique() {
			return diagnostics.NewTypeError(diagnostics.ErrT009, n.Tok, n.Name)
		}
	}
	valueType, err := c.checkValue(n.Value, scope)
	if err != nil {
		return err
	}
	overload, err := c.checkOperator(n.Operator, fieldType, valueType, n.Tok)
	if err != nil {
		return err
	}
	n.Overload = overload
	return nil
}

// checkOperator resolves op against the filter-operator overload tables
//; every filter operator's result type must be Boolean. The
// returned overload is the concrete [lhs, rhs, result] list written onto
// the Atom/Compute node.
func (c *Checker) checkOperator(op string, lhs, rhs typesystem.Type, tok token.Token) ([]typesystem.Type, error) {
	if !typesystem.IsFilterOperator(op) {
		return nil, diagnostics.NewTypeError(diagnostics.ErrT008, tok, op, lhs.String()+","+rhs.String())
	}
	table, ok := c.overloads[op]
	if !ok {
		return nil, diagnostics.NewTypeError(diagnostics.ErrT008, tok, op, lhs.String()+","+rhs.String())
	}
	sig, result, err := table.Resolve([]typesystem.Type{lhs, rhs}, c.Hierarchy)
	if err != nil {
		return nil, diagnostics.WrapError(diagnostics.PhaseTypecheck, tok, err)
	}
	if result != typesystem.Boolean {
		return nil, diagnostics.InternalError(diagnostics.PhaseTypecheck, tok, "filter operator overload did not resolve to Boolean")
	}
	return append(append([]typesystem.Type(nil), sig.Params...), sig.Result), nil
}
