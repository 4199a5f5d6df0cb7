package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// checkAction resolves a's Schema and writes it onto the node. upstream
// is the Schema of the Stream/Table feeding this action (nil for a
// table-less Command), used to resolve
// input parameters that reference an upstream output by VarRef.
func (c *Checker) checkAction(a ast.Action, upstream *ast.Schema) error {
	switch n := a.(type) {
	case *ast.Notify:
		n.Schema = upstream
		return nil
	case *ast.ActionInvocation:
		scope := newParamScope(nil)
		if upstream != nil {
			for _, arg := range upstream.Args {
				if arg.IsOutput() {
					scope.define(arg.Name, arg.Type)
				}
			}
			// $event may be referenced in an action fed by a stream/table.
			scope.define("$event", typesystem.StringT)
		}
		if err := c.checkSelector(n.Invocation.Selector, n.Invocation.Tok); err != nil {
			return err
		}
		sc, err := c.checkActionInvocation(n.Invocation, scope)
		if err != nil {
			return err
		}
		n.Schema = sc
		return nil
	case *ast.ActionVarRef:
		sc, ok := c.actionLocals[n.Name]
		if !ok {
			return diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
		}
		n.Schema = sc
		return nil
	default:
		return diagnostics.InternalError(diagnostics.PhaseTypecheck, a.GetToken(), "unhandled action node")
	}
}

// checkActionInvocation is checkInvocation specialized to resolve input
// parameters against an upstream paramScope (the query feeding this
// action) in addition to literal values, rather than the empty scope
// checkInvocation uses for a bare query invocation's own parameters.
func (c *Checker) checkActionInvocation(inv *ast.Invocation, scope *paramScope) (*ast.Schema, error) {
	if inv.Selector.IsBuiltin {
		return inv.Schema, nil
	}
	fd, err := c.Catalogue.Function(inv.Selector.Kind, inv.Channel, true)
	if err != nil {
		return nil, diagnostics.NewTypeError(diagnostics.ErrT001, inv.Tok, inv.Selector.Kind+"."+inv.Channel)
	}
	seen := make(map[string]bool)
	for _, ip := range inv.InParams {
		if seen[ip.Name] {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT004, inv.Tok, ip.Name)
		}
		seen[ip.Name] = true
		arg, ok := fd.Arg(ip.Name)
		if !ok || !arg.IsInput() {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT003, inv.Tok, ip.Name, inv.Selector.Kind+"."+inv.Channel)
		}
		vt, err := c.checkValue(ip.Value, scope)
		if err != nil {
			return nil, err
		}
		tscope := typesystem.NewScope()
		if !typesystem.Assignable(vt, arg.Type, tscope, c.Hierarchy, true) {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, inv.Tok, arg.Type.String(), vt.String())
		}
	}
	for _, arg := range fd.Args {
		if arg.Direction == ast.InReq {
			if _, ok := seen[arg.Name]; !ok {
				inv.InParams = append(inv.InParams, ast.InputParam{
					Name:  arg.Name,
					Value: &ast.Undefined{Tok: inv.Tok, Local: true},
				})
			}
		}
	}
	schema := &ast.Schema{
		Args:          append([]ast.ArgumentDef(nil), fd.Args...),
		IsList:        fd.IsList,
		IsMonitorable: fd.IsMonitorable,
		NoFilter:      fd.NoFilter,
		Function:      fd,
	}
	inv.Schema = schema
	return schema, nil
}
