package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// checkStream resolves s's Schema and writes it onto the node. Dispatch
// is a Go type switch over the concrete Stream variants rather than
// ast.Visitor double-dispatch.
func (c *Checker) checkStream(s ast.Stream) (*ast.Schema, error) {
	var schema *ast.Schema
	var err error

	switch n := s.(type) {
	case *ast.StreamVarRef:
		sc, ok := c.streamLocals[n.Name]
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
		}
		schema = sc

	case *ast.Timer:
		scope := newParamScope(nil)
		if _, e := c.checkValue(n.Base, scope); e != nil {
			return nil, e
		}
		if _, e := c.checkValue(n.Interval, scope); e != nil {
			return nil, e
		}
		schema = &ast.Schema{IsList: false, IsMonitorable: true}

	case *ast.AtTimer:
		scope := newParamScope(nil)
		for _, t := range n.Times {
			if _, e := c.checkValue(t, scope); e != nil {
				return nil, e
			}
		}
		if n.Expiration != nil {
			if _, e := c.checkValue(n.Expiration, scope); e != nil {
				return nil, e
			}
		}
		schema = &ast.Schema{IsList: false, IsMonitorable: true}

	case *ast.Monitor:
		tschema, e := c.checkTable(n.Table)
		if e != nil {
			return nil, e
		}
		if !tschema.IsMonitorable {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT005, n.Tok, "table")
		}
		args := tschema.Args
		if len(n.Args) > 0 {
			args = filterArgs(tschema, n.Args)
		}
		schema = &ast.Schema{Args: args, IsList: true, IsMonitorable: true, NoFilter: tschema.NoFilter, Function: tschema.Function}

	case *ast.EdgeNew:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		schema = inner

	case *ast.EdgeFilter:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		if inner.NoFilter {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT009, n.Tok, "<function>")
		}
		if e := c.checkFilterExpr(n.Filter, nil, inner); e != nil {
			return nil, e
		}
		schema = inner

	case *ast.StreamFilter:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		if inner.NoFilter {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT009, n.Tok, "<function>")
		}
		if e := c.checkFilterExpr(n.Filter, nil, inner); e != nil {
			return nil, e
		}
		schema = inner

	case *ast.StreamProjection:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		schema, e = c.projectSchema(inner, n.Args, n.Computations, n.Tok)
		if e != nil {
			return nil, e
		}

	case *ast.StreamCompute:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		vt, e := c.checkValue(n.Value, newParamScope(nil))
		if e != nil {
			return nil, e
		}
		schema = appendComputed(inner, n.Alias, vt)

	case *ast.StreamAlias:
		inner, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		schema = inner

	case *ast.StreamJoin:
		lschema, e := c.checkStream(n.Stream)
		if e != nil {
			return nil, e
		}
		rschema, e := c.checkTable(n.Table)
		if e != nil {
			return nil, e
		}
		schema, e = c.joinSchemas(lschema, rschema, n.InParams, n.Tok)
		if e != nil {
			return nil, e
		}

	default:
		return nil, diagnostics.InternalError(diagnostics.PhaseTypecheck, s.GetToken(), "unhandled stream node")
	}

	s.SetSchema(schema)
	return schema, err
}

// filterArgs narrows schema to the named output args only, keeping input
// args untouched: Monitor(t, args) restricts the change comparison to
// args, not the whole row.
func filterArgs(schema *ast.Schema, names []string) []ast.ArgumentDef {
	var out []ast.ArgumentDef
	for _, a := range schema.Args {
		if a.IsInput() {
			out = append(out, a)
			continue
		}
		for _, name := range names {
			if a.Name == name {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func (c *Checker) projectSchema(schema *ast.Schema, names []string, computations []ast.Value, tok interface{}) (*ast.Schema, error) {
	// Projecting down to a single output when the source only has one is
	// a no-op the surface language rejects.
	if len(names) == 1 && len(computations) == 0 && len(schema.OutputArgs()) == 1 {
		return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT006, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{names[0]}}
	}
	// minimal_projection args stay in the schema whether or not the
	// projection names them.
	if schema.Function != nil {
		for _, req := range schema.Function.MinimalProjection {
			found := false
			for _, name := range names {
				if name == req {
					found = true
					break
				}
			}
			if !found {
				names = append(append([]string(nil), names...), req)
			}
		}
	}
	var out []ast.ArgumentDef
	for _, a := range schema.Args {
		if a.IsInput() {
			out = append(out, a)
		}
	}
	matched := 0
	for _, name := range names {
		found := false
		for _, a := range schema.Args {
			if a.Name == name && a.IsOutput() {
				out = append(out, a)
				found = true
				matched++
				break
			}
		}
		if !found {
			return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT003, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{name, "projection"}}
		}
	}
	scope := newParamScope(nil)
	for _, a := range schema.Args {
		scope.define(a.Name, a.Type)
	}
	for i, comp := range computations {
		vt, err := c.checkValue(comp, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, ast.ArgumentDef{Name: computedAlias(i), Type: vt, Direction: ast.Out})
	}
	if len(names) > 0 && matched == 0 && len(computations) == 0 {
		return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT006, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{"<projection>"}}
	}
	return &ast.Schema{Args: out, IsList: schema.IsList, IsMonitorable: schema.IsMonitorable, NoFilter: schema.NoFilter, Function: schema.Function}, nil
}

func computedAlias(i int) string {
	return "__compute" + itoa(i)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	digits := []byte{}
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	return string(digits)
}

func appendComputed(schema *ast.Schema, alias string, t typesystem.Type) *ast.Schema {
	args := append([]ast.ArgumentDef(nil), schema.Args...)
	args = append(args, ast.ArgumentDef{Name: alias, Type: t, Direction: ast.Out})
	return &ast.Schema{Args: args, IsList: schema.IsList, IsMonitorable: schema.IsMonitorable, NoFilter: schema.NoFilter, Function: schema.Function}
}

func (c *Checker) joinSchemas(lhs, rhs *ast.Schema, inParams []ast.InputParam, tok interface{}) (*ast.Schema, error) {
	scope := newParamScope(nil)
	for _, a := range lhs.Args {
		scope.define(a.Name, a.Type)
	}
	seen := make(map[string]bool)
	for _, ip := range inParams {
		seen[ip.Name] = true
		arg, ok := rhs.Arg(ip.Name)
		if !ok || !arg.IsInput() {
			return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT003, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{ip.Name, "join"}}
		}
		vt, err := c.checkValue(ip.Value, scope)
		if err != nil {
			return nil, err
		}
		tscope := typesystem.NewScope()
		if !typesystem.Assignable(vt, arg.Type, tscope, c.Hierarchy, true) {
			return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT002, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{arg.Type.String(), vt.String()}}
		}
	}
	for _, a := range rhs.Args {
		if a.Direction == ast.InReq && !seen[a.Name] {
			return nil, &diagnostics.DiagnosticError{Code: diagnostics.ErrT003, Phase: diagnostics.PhaseTypecheck, Args: []interface{}{a.Name, "join"}}
		}
	}
	args := append([]ast.ArgumentDef(nil), lhs.Args...)
	names := make(map[string]bool, len(args))
	for _, a := range args {
		names[a.Name] = true
	}
	for _, a := range rhs.Args {
		if a.IsOutput() && !names[a.Name] {
			args = append(args, a)
			names[a.Name] = true
		}
	}
	return &ast.Schema{
		Args:          args,
		IsList:        lhs.IsList || rhs.IsList,
		IsMonitorable: lhs.IsMonitorable && rhs.IsMonitorable,
	}, nil
}
