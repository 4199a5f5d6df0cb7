package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// CheckPermissionRule resolves and typechecks one policy: the principal
// filter is checked against a scope exposing `source` (the contact the
// program runs as), and each Specified slot's filter is checked against
// the resolved function's signature, which is also written into the
// slot's Schema field for the SMT encoder.
func (c *Checker) CheckPermissionRule(r *ast.PermissionRule) error {
	if r.PrincipalFilter != nil {
		scope := newParamScope(nil)
		scope.define("source", typesystem.Entity{Name: "tt:contact"})
		scope.define("group", typesystem.Entity{Name: "tt:contact_group"})
		if err := c.checkFilterExpr(r.PrincipalFilter, scope, nil); err != nil {
			return err
		}
	}
	if err := c.checkPermissionFunction(r.Query, false); err != nil {
		return err
	}
	return c.checkPermissionFunction(r.Action, true)
}

func (c *Checker) checkPermissionFunction(pf *ast.PermissionFunction, needAction bool) error {
	if pf == nil || pf.Kind != ast.PermSpecified {
		return nil
	}
	fd, err := c.Catalogue.Function(pf.Class, pf.Channel, needAction)
	if err != nil {
		return diagnostics.NewTypeError(diagnostics.ErrT001, pf.Tok, pf.Class+"."+pf.Channel)
	}
	pf.Schema = &ast.Schema{
		Args:          append([]ast.ArgumentDef(nil), fd.Args...),
		IsList:        fd.IsList,
		IsMonitorable: fd.IsMonitorable,
		NoFilter:      fd.NoFilter,
		Function:      fd,
	}
	if pf.Filter != nil {
		// Inside a policy filter every argument — input or output — is a
		// constrainable name, so the scope exposes them all.
		scope := newParamScope(nil)
		for _, a := range pf.Schema.Args {
			scope.define(a.Name, a.Type)
		}
		if err := c.checkFilterExpr(pf.Filter, scope, pf.Schema); err != nil {
			return err
		}
	}
	return nil
}
