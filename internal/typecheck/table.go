package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// checkTable resolves t's Schema and writes it onto the node.
func (c *Checker) checkTable(t ast.Table) (*ast.Schema, error) {
	var schema *ast.Schema

	switch n := t.(type) {
	case *ast.TableVarRef:
		sc, ok := c.tableLocals[n.Name]
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
		}
		schema = sc

	case *ast.TableInvocation:
		sc, err := c.checkInvocation(n.Invocation, false)
		if err != nil {
			return nil, err
		}
		schema = sc

	case *ast.TableFilter:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		if inner.NoFilter {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT009, n.Tok, "<function>")
		}
		if err := c.checkFilterExpr(n.Filter, nil, inner); err != nil {
			return nil, err
		}
		schema = inner

	case *ast.TableProjection:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		schema, err = c.projectSchema(inner, n.Args, n.Computations, n.Tok)
		if err != nil {
			return nil, err
		}

	case *ast.TableCompute:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		vt, err := c.checkValue(n.Value, newParamScope(nil))
		if err != nil {
			return nil, err
		}
		schema = appendComputed(inner, n.Alias, vt)

	case *ast.TableAlias:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		schema = inner

	case *ast.Aggregation:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		schema, err = c.checkAggregation(inner, n)
		if err != nil {
			return nil, err
		}

	case *ast.Sort:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		arg, ok := inner.Arg(n.Field)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT003, n.Tok, n.Field, "sort")
		}
		if !isComparable(arg.Type) {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "a comparable type", arg.Type.String())
		}
		schema = inner

	case *ast.Index:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		scope := newParamScope(nil)
		for _, idx := range n.Indices {
			vt, err := c.checkValue(idx, scope)
			if err != nil {
				return nil, err
			}
			if !isNumberOrNumberArray(vt) {
				return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Number or Array(Number)", vt.String())
			}
		}
		schema = inner

	case *ast.Slice:
		inner, err := c.checkTable(n.Table)
		if err != nil {
			return nil, err
		}
		scope := newParamScope(nil)
		for _, v := range []ast.Value{n.Base, n.Limit} {
			vt, err := c.checkValue(v, scope)
			if err != nil {
				return nil, err
			}
			if !isNumber(vt) {
				return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Number", vt.String())
			}
		}
		schema = inner

	case *ast.TableJoin:
		lschema, err := c.checkTable(n.LHS)
		if err != nil {
			return nil, err
		}
		rschema, err := c.checkTable(n.RHS)
		if err != nil {
			return nil, err
		}
		schema, err = c.joinSchemas(lschema, rschema, n.InParams, n.Tok)
		if err != nil {
			return nil, err
		}

	default:
		return nil, diagnostics.InternalError(diagnostics.PhaseTypecheck, t.GetToken(), "unhandled table node")
	}

	t.SetSchema(schema)
	return schema, nil
}

func isComparable(t typesystem.Type) bool {
	if _, ok := t.(typesystem.Measure); ok {
		return true
	}
	switch t.String() {
	case "Number", "String", "Date", "Time", "Currency":
		return true
	}
	return false
}

func isNumber(t typesystem.Type) bool {
	// Undefined slots type as Any and are filled in later by the dialog
	// agent, so Any passes here.
	return t.String() == "Number" || t.String() == "Any"
}

func isNumberOrNumberArray(t typesystem.Type) bool {
	if isNumber(t) {
		return true
	}
	arr, ok := t.(typesystem.Array)
	return ok && isNumber(arr.Element)
}

// checkAggregation resolves one of count/sum/avg/max/min/argmax/argmin
// against the named field's type. The result replaces
// the whole row with a single output arg named by Alias (or the op name).
func (c *Checker) checkAggregation(inner *ast.Schema, n *ast.Aggregation) (*ast.Schema, error) {
	table, ok := c.aggOverloads[n.Op]
	if !ok {
		return nil, diagnostics.NewTypeError(diagnostics.ErrT008, n.Tok, n.Op, "()")
	}
	var argType typesystem.Type = typesystem.Number
	if n.Op != "count" || n.Field != "" {
		if n.Field == "" {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT003, n.Tok, "<field>", n.Op)
		}
		a, ok := inner.Arg(n.Field)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT003, n.Tok, n.Field, n.Op)
		}
		argType = a.Type
	}
	_, result, err := table.Resolve([]typesystem.Type{argType}, c.Hierarchy)
	if err != nil {
		return nil, diagnostics.WrapError(diagnostics.PhaseTypecheck, n.Tok, err)
	}
	alias := n.Alias
	if alias == "" {
		alias = n.Op
	}
	return &ast.Schema{
		Args:          []ast.ArgumentDef{{Name: alias, Type: result, Direction: ast.Out}},
		IsList:        false,
		IsMonitorable: false,
	}, nil
}
