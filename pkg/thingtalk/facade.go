// Package thingtalk is the library façade: parse, typecheck, optimize
// and permission-check a program through one entry point, wiring
// internal/catalogue, internal/schema, internal/typecheck,
// internal/optimize, internal/permission and internal/remote together.
package thingtalk

import (
	"context"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/catalogue"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/optimize"
	"github.com/thingtalk-lang/ttcore/internal/permission"
	"github.com/thingtalk-lang/ttcore/internal/pipeline"
	"github.com/thingtalk-lang/ttcore/internal/remote"
	"github.com/thingtalk-lang/ttcore/internal/schema"
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typecheck"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// Decode turns surface ThingTalk source into an unresolved Program. The
// DSL grammar and the legacy SEMPRE JSON form are both out of scope
//, so Facade leaves
// the decoder pluggable rather than owning a parser.
type Decode func(source string) (*ast.Program, error)

// ClassDecode turns the wire-format string a schema.Client's GetSchemas
// call returns into class definitions — the library shape of the parse
// entry point (classes only, no statements). Supplied separately from
// Decode since the two wire formats need not agree.
type ClassDecode func(source string) ([]*ast.ClassDef, error)

// Facade bundles one principal's view of the pipeline: a schema
// retriever feeding a shared catalogue, a typechecker, and (lazily) a
// permission checker and remote lowerer.
type Facade struct {
	Retriever *schema.Retriever
	Catalogue *catalogue.Catalogue
	Hierarchy typesystem.EntityHierarchy
	Decode    Decode

	NewSolver permission.SolverFactory
	Delegate  permission.GroupDelegate
}

// New returns a Facade. newSolver and delegate may be nil if the caller
// never calls PermissionCheck.
func New(client schema.Client, decode Decode, classDecode ClassDecode, hier typesystem.EntityHierarchy, newSolver permission.SolverFactory, delegate permission.GroupDelegate) *Facade {
	if hier == nil {
		hier = typesystem.NoEntityHierarchy
	}
	cache := schema.NewCache()
	cat := catalogue.New()
	return &Facade{
		Retriever: schema.NewRetriever(client, cache, schema.Decode(classDecode), validateLibrary),
		Catalogue: cat,
		Hierarchy: hier,
		Decode:    decode,
		NewSolver: newSolver,
		Delegate:  delegate,
	}
}

// Parse decodes source into a Program, performing no resolution.
func (f *Facade) Parse(source string) (*ast.Program, error) {
	return f.Decode(source)
}

// ParseAndTypecheck decodes source, batch-resolves every referenced
// device kind through the schema retriever, then runs
// the typecheck and optimize stages as one pipeline.
func (f *Facade) ParseAndTypecheck(ctx context.Context, source string) (*ast.Program, error) {
	prog, err := f.Decode(source)
	if err != nil {
		return nil, err
	}
	pc := f.checkPipeline().Run(&pipeline.Context{Ctx: ctx, Program: prog})
	return pc.Program, pc.Err
}

// checkPipeline builds the resolve → typecheck → optimize stage chain.
func (f *Facade) checkPipeline() *pipeline.Pipeline {
	return pipeline.New(
		pipeline.Func(func(pc *pipeline.Context) *pipeline.Context {
			pc.Err = f.resolveKinds(pc.Ctx, pc.Program)
			return pc
		}),
		pipeline.Func(func(pc *pipeline.Context) *pipeline.Context {
			pc.Err = typecheck.New(f.Catalogue, f.Hierarchy).CheckProgram(pc.Program)
			return pc
		}),
		pipeline.Func(func(pc *pipeline.Context) *pipeline.Context {
			pc.Program = optimize.Program(pc.Program)
			return pc
		}),
	)
}

// resolveKinds walks every Invocation reachable from prog's statements
// and classes, resolves the distinct set of referenced kinds through the
// retriever in one batched call, and registers each into f.Catalogue.
func (f *Facade) resolveKinds(ctx context.Context, prog *ast.Program) error {
	seen := make(map[string]bool)
	var kinds []string
	addKind := func(k string) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	for _, s := range prog.Statements {
		for _, prim := range ast.IteratePrimitives(s) {
			addKind(prim.Invocation.Selector.Kind)
		}
	}
	for _, cd := range prog.Classes {
		for _, parent := range cd.Extends {
			addKind(parent)
		}
	}
	if len(kinds) == 0 {
		return nil
	}
	defs, err := f.Retriever.Resolve(ctx, kinds)
	if err != nil {
		return err
	}
	for _, def := range defs {
		f.Catalogue.Add(def)
	}
	return nil
}

// PermissionCheck rewrites prog down to what policies allow principal to
// run, or returns (nil, nil) when no policy allows any of it.
// Policies are typechecked first, and the rewritten program is
// re-typechecked and optimized before being returned — the permission
// checker "runs the typechecker and optimizer on its output".
func (f *Facade) PermissionCheck(ctx context.Context, principal ast.EntityValue, prog *ast.Program, policies []*ast.PermissionRule) (*ast.Program, error) {
	tc := typecheck.New(f.Catalogue, f.Hierarchy)
	for _, r := range policies {
		if err := tc.CheckPermissionRule(r); err != nil {
			return nil, err
		}
	}
	checker := permission.NewChecker(f.Delegate, f.NewSolver)
	out, err := checker.CheckProgram(ctx, principal, prog, policies)
	if err != nil || out == nil {
		return nil, err
	}
	if err := typecheck.New(f.Catalogue, f.Hierarchy).CheckProgram(out); err != nil {
		return nil, err
	}
	return optimize.Program(out), nil
}

// LowerRemote splits prog into the locally-run program and its companion
// "our rule" program when prog's principal is set and is not self.
func (f *Facade) LowerRemote(prog *ast.Program, self ast.EntityValue) (*remote.Result, error) {
	return remote.New().LowerProgram(prog, self)
}

// validateLibrary is the schema.Validate hook run against freshly
// fetched classes before they are cached. A device class carries only
// function signatures, no bodies, so "typechecked" here means the
// structural checks that apply to a signature-only declaration: no two
// channels sharing a name, no two arguments of one channel sharing a
// name — the same duplicate-name checks internal/typecheck's
// checkInvocation enforces at a call site, reused here at declaration
// time instead.
func validateLibrary(defs []*ast.ClassDef) error {
	for _, cd := range defs {
		channels := make(map[string]bool)
		for _, fd := range cd.Queries {
			if err := checkChannel(cd.Name, fd, channels); err != nil {
				return err
			}
		}
		for _, fd := range cd.Actions {
			if err := checkChannel(cd.Name, fd, channels); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkChannel(className string, fd *ast.FunctionDef, channels map[string]bool) error {
	key := className + "." + fd.Name
	if channels[key] {
		return diagnostics.NewTypeError(diagnostics.ErrT004, token.Token{}, key)
	}
	channels[key] = true
	args := make(map[string]bool)
	for _, a := range fd.Args {
		if args[a.Name] {
			return diagnostics.NewTypeError(diagnostics.ErrT004, token.Token{}, a.Name)
		}
		args[a.Name] = true
	}
	return nil
}
