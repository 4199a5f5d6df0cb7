package typecheck

import (
	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/schema"
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// CheckLibrary validates a set of class definitions: abstract-class
// import restrictions, function annotation shapes, and the extends rules
// between functions. mixins may be nil when no mixin catalogue is
// available; Config/Loader imports are then only checked for the
// abstract-class restriction.
func (c *Checker) CheckLibrary(classes []*ast.ClassDef, mixins map[string]schema.MixinDef) error {
	for _, cd := range classes {
		if err := c.checkClass(cd, mixins); err != nil {
			return err
		}
		c.Catalogue.Add(cd)
	}
	return nil
}

func (c *Checker) checkClass(cd *ast.ClassDef, mixins map[string]schema.MixinDef) error {
	if cd.Abstract && (cd.Config != "" || cd.Loader != "") {
		return diagnostics.NewTypeError(diagnostics.ErrT007, token.Token{}, "config/loader", "abstract class "+cd.Name+" cannot import config or loader")
	}
	if mixins != nil {
		for _, imp := range []string{cd.Config, cd.Loader} {
			if imp == "" {
				continue
			}
			if _, ok := mixins[imp]; !ok {
				return diagnostics.NewTypeError(diagnostics.ErrT001, token.Token{}, imp)
			}
		}
	}
	for _, fd := range cd.Queries {
		if err := c.checkFunctionDef(cd, fd); err != nil {
			return err
		}
	}
	for _, fd := range cd.Actions {
		if err := c.checkFunctionDef(cd, fd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkFunctionDef(cd *ast.ClassDef, fd *ast.FunctionDef) error {
	// default_projection must name existing args.
	for _, name := range fd.DefaultProjection {
		if _, ok := fd.Arg(name); !ok {
			return diagnostics.NewTypeError(diagnostics.ErrT007, token.Token{}, "default_projection", name)
		}
	}
	for _, name := range fd.MinimalProjection {
		if _, ok := fd.Arg(name); !ok {
			return diagnostics.NewTypeError(diagnostics.ErrT007, token.Token{}, "minimal_projection", name)
		}
	}
	// poll_interval requires is_monitorable; the Measure(ms) typing is
	// enforced structurally, PollInterval being already expressed in
	// milliseconds.
	if fd.PollInterval > 0 && !fd.IsMonitorable {
		return diagnostics.NewTypeError(diagnostics.ErrT007, token.Token{}, "poll_interval", "function is not monitorable")
	}
	// A filtered function cannot also forbid filters.
	if fd.RequireFilter && fd.NoFilter {
		return diagnostics.NewTypeError(diagnostics.ErrT007, token.Token{}, "require_filter", "conflicts with no_filter")
	}
	return c.checkFunctionExtends(cd, fd)
}

// checkFunctionExtends enforces the extends rules: for every base
// function, duplicate argument names must carry equal types (entity types
// excepted, pending entity inheritance), and a monitorable query may not
// extend a non-monitorable one.
func (c *Checker) checkFunctionExtends(cd *ast.ClassDef, fd *ast.FunctionDef) error {
	for _, baseName := range fd.Extends {
		base, ok := cd.Queries[baseName]
		if !ok {
			base, ok = cd.Actions[baseName]
		}
		if !ok {
			return diagnostics.NewTypeError(diagnostics.ErrT001, token.Token{}, baseName)
		}
		if fd.IsMonitorable && !base.IsMonitorable {
			return diagnostics.NewTypeError(diagnostics.ErrT005, token.Token{}, fd.Name+" extends "+baseName)
		}
		for _, arg := range fd.Args {
			barg, ok := base.Arg(arg.Name)
			if !ok {
				continue
			}
			if _, isEntity := arg.Type.(typesystem.Entity); isEntity {
				continue
			}
			if arg.Type.String() != barg.Type.String() {
				return diagnostics.NewTypeError(diagnostics.ErrT002, token.Token{}, barg.Type.String(), arg.Type.String())
			}
		}
	}
	return nil
}
