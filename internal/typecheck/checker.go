// Package typecheck implements ThingTalk's name resolution and type
// inference pass. Checker holds a catalogue and a chained scope, and
// writes its inference results directly onto the AST (the Schema slot on
// every Stream/Table/Action node) rather than into a side table, since
// the AST itself declares that slot.
//
// Dispatch is a plain type switch per category (checkStream, checkTable,
// checkAction, checkFilterExpr) rather than ast.Visitor double-dispatch;
// ast.Visitor is reserved for the lighter structural traversals such as
// primitive and slot iteration.
package typecheck

import (
	"fmt"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/catalogue"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/token"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// Checker is the typecheck driver for one Program.
type Checker struct {
	Catalogue *catalogue.Catalogue
	Hierarchy typesystem.EntityHierarchy

	overloads    map[string]typesystem.OverloadTable
	aggOverloads map[string]typesystem.OverloadTable

	valueLocals  map[string]typesystem.Type
	streamLocals map[string]*ast.Schema
	tableLocals  map[string]*ast.Schema
	actionLocals map[string]*ast.Schema
}

// New returns a Checker backed by cat (already populated by the schema
// retriever) and an entity hierarchy for subtype checks.
func New(cat *catalogue.Catalogue, hier typesystem.EntityHierarchy) *Checker {
	if hier == nil {
		hier = typesystem.NoEntityHierarchy
	}
	return &Checker{
		Catalogue:    cat,
		Hierarchy:    hier,
		overloads:    typesystem.DefaultOverloads(),
		aggOverloads: typesystem.AggregationOverloads(),
		valueLocals:  make(map[string]typesystem.Type),
		streamLocals: make(map[string]*ast.Schema),
		tableLocals:  make(map[string]*ast.Schema),
		actionLocals: make(map[string]*ast.Schema),
	}
}

// CheckProgram registers every class and typechecks every statement in
// order, so later statements can reference earlier Declarations by name.
func (c *Checker) CheckProgram(p *ast.Program) error {
	for _, cd := range p.Classes {
		c.Catalogue.Add(cd)
	}
	for _, s := range p.Statements {
		if err := c.checkStatement(s); err != nil {
			return err
		}
	}
	return verifyResolved(p)
}

// CheckDialogue typechecks a dialogue turn: a sequence of statements
// (commands plus OnInputChoice alternatives) outside any Program wrapper,
// sharing this Checker's accumulated declarations.
func (c *Checker) CheckDialogue(statements []ast.Statement) error {
	for _, s := range statements {
		if err := c.checkStatement(s); err != nil {
			return err
		}
	}
	return nil
}

// verifyResolved walks the checked program and fails if any Unknown type
// survived into a Schema slot; a resolved program must not expose one.
func verifyResolved(p *ast.Program) error {
	v := &unknownScanner{}
	for _, s := range p.Statements {
		ast.Walk(s, v)
		if v.found != "" {
			return diagnostics.NewTypeError(diagnostics.ErrT013, s.GetToken(), v.found)
		}
	}
	return nil
}

type unknownScanner struct {
	ast.BaseVisitor
	found string
}

func (v *unknownScanner) Enter(n ast.Node) bool {
	if v.found != "" {
		return false
	}
	type schemed interface{ GetSchema() *ast.Schema }
	if sn, ok := n.(schemed); ok {
		if schema := sn.GetSchema(); schema != nil {
			for _, a := range schema.Args {
				if u, bad := a.Type.(typesystem.Unknown); bad {
					v.found = u.String()
					return false
				}
			}
		}
	}
	return true
}

func (c *Checker) checkStatement(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.Declaration:
		switch v := n.Value.(type) {
		case ast.Stream:
			schema, err := c.checkStream(v)
			if err != nil {
				return err
			}
			c.streamLocals[n.Name] = schema
		case ast.Table:
			schema, err := c.checkTable(v)
			if err != nil {
				return err
			}
			c.tableLocals[n.Name] = schema
		case ast.Action:
			if err := c.checkAction(v, nil); err != nil {
				return err
			}
			c.actionLocals[n.Name] = v.GetSchema()
		case ast.Value:
			t, err := c.checkValue(v, newParamScope(nil))
			if err != nil {
				return err
			}
			c.valueLocals[n.Name] = t
		}
		return nil
	case *ast.Assignment:
		switch v := n.Value.(type) {
		case ast.Stream:
			schema, err := c.checkStream(v)
			if err != nil {
				return err
			}
			c.streamLocals[n.Name] = schema
		case ast.Table:
			schema, err := c.checkTable(v)
			if err != nil {
				return err
			}
			c.tableLocals[n.Name] = schema
		case ast.Action:
			if err := c.checkAction(v, nil); err != nil {
				return err
			}
			c.actionLocals[n.Name] = v.GetSchema()
		case ast.Value:
			t, err := c.checkValue(v, newParamScope(nil))
			if err != nil {
				return err
			}
			c.valueLocals[n.Name] = t
		}
		return nil
	case *ast.Rule:
		schema, err := c.checkStream(n.Stream)
		if err != nil {
			return err
		}
		for _, a := range n.Actions {
			if err := c.checkAction(a, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.Command:
		var schema *ast.Schema
		if n.Table != nil {
			var err error
			schema, err = c.checkTable(n.Table)
			if err != nil {
				return err
			}
		}
		for _, a := range n.Actions {
			if err := c.checkAction(a, schema); err != nil {
				return err
			}
		}
		return nil
	case *ast.OnInputChoice:
		for _, a := range n.Actions {
			if err := c.checkAction(a, nil); err != nil {
				return err
			}
		}
		return nil
	default:
		return diagnostics.InternalError(diagnostics.PhaseTypecheck, s.GetToken(), fmt.Sprintf("unhandled statement %T", s))
	}
}

// ---- selectors & invocations ----

func (c *Checker) checkSelector(sel ast.Selector, tok token.Token) error {
	if sel.ID != "" && sel.All {
		return diagnostics.NewTypeError(diagnostics.ErrT011, tok)
	}
	return nil
}

func (c *Checker) checkInvocation(inv *ast.Invocation, needAction bool) (*ast.Schema, error) {
	if err := c.checkSelector(inv.Selector, inv.Tok); err != nil {
		return nil, err
	}
	if inv.Selector.IsBuiltin {
		// @builtin.* channels have no catalogue entry; nothing further to resolve.
		return inv.Schema, nil
	}
	fd, err := c.Catalogue.Function(inv.Selector.Kind, inv.Channel, needAction)
	if err != nil {
		return nil, diagnostics.NewTypeError(diagnostics.ErrT001, inv.Tok, inv.Selector.Kind+"."+inv.Channel)
	}

	seen := make(map[string]bool)
	scope := newParamScope(nil)
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
	// A required input left unsupplied is not an error; it becomes an
	// Undefined slot for the dialog agent to fill later.
	for _, a := range fd.Args {
		if a.Direction == ast.InReq {
			if _, ok := seen[a.Name]; !ok {
				inv.InParams = append(inv.InParams, ast.InputParam{
					Name:  a.Name,
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

// ---- values ----

func (c *Checker) checkValue(v ast.Value, scope *paramScope) (typesystem.Type, error) {
	switch n := v.(type) {
	case *ast.BooleanValue:
		return typesystem.Boolean, nil
	case *ast.StringValue:
		return typesystem.StringT, nil
	case *ast.NumberValue:
		return typesystem.Number, nil
	case *ast.MeasureValue:
		return typesystem.Measure{Unit: n.Unit}, nil
	case *ast.CurrencyValue:
		return typesystem.Currency, nil
	case *ast.DateValue:
		return typesystem.Date, nil
	case *ast.TimeValue:
		return typesystem.Time, nil
	case *ast.LocationValue:
		return typesystem.Location, nil
	case *ast.EntityValue:
		return typesystem.Entity{Name: n.Type}, nil
	case *ast.EnumValue:
		return typesystem.Enum{Symbols: []string{n.Symbol}, Open: true}, nil
	case *ast.Event:
		if _, ok := scope.lookup("$event"); !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT010, n.Tok)
		}
		return typesystem.StringT, nil
	case *ast.Undefined:
		return typesystem.Any, nil
	case *ast.VarRef:
		if t, ok := scope.lookup(n.Name); ok {
			return t, nil
		}
		if t, ok := c.valueLocals[n.Name]; ok {
			return t, nil
		}
		return nil, diagnostics.NewTypeError(diagnostics.ErrT001, n.Tok, n.Name)
	case *ast.ArrayValue:
		var elemType typesystem.Type = typesystem.Any
		for i, e := range n.Elements {
			t, err := c.checkValue(e, scope)
			if err != nil {
				return nil, err
			}
			if i == 0 {
				elemType = t
			} else {
				tscope := typesystem.NewScope()
				if !typesystem.Assignable(t, elemType, tscope, c.Hierarchy, false) {
					return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, elemType.String(), t.String())
				}
				// Open enum element domains merge across the literal.
				elemType = typesystem.MergeOpenEnums(elemType, t)
			}
		}
		n.ResolvedType = typesystem.Array{Element: elemType}
		return n.ResolvedType, nil
	case *ast.Computation:
		argTypes := make([]typesystem.Type, len(n.Operands))
		for i, op := range n.Operands {
			t, err := c.checkValue(op, scope)
			if err != nil {
				return nil, err
			}
			argTypes[i] = t
		}
		table, ok := c.overloads[n.Op]
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT008, n.Tok, n.Op, typesList(argTypes))
		}
		sig, result, err := table.Resolve(argTypes, c.Hierarchy)
		if err != nil {
			return nil, diagnostics.WrapError(diagnostics.PhaseTypecheck, n.Tok, err)
		}
		n.Overload = &sig
		return result, nil
	case *ast.ArrayFieldValue:
		t, err := c.checkValue(n.Value, scope)
		if err != nil {
			return nil, err
		}
		arr, ok := t.(typesystem.Array)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Array", t.String())
		}
		compound, ok := arr.Element.(typesystem.Compound)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Array(Compound)", t.String())
		}
		field, ok := compound.Fields[n.Field]
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT003, n.Tok, n.Field, "compound value")
		}
		return typesystem.Array{Element: field.Type}, nil
	case *ast.FilterValue:
		t, err := c.checkValue(n.Value, scope)
		if err != nil {
			return nil, err
		}
		arr, ok := t.(typesystem.Array)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Array", t.String())
		}
		compound, ok := arr.Element.(typesystem.Compound)
		if !ok {
			return nil, diagnostics.NewTypeError(diagnostics.ErrT002, n.Tok, "Array(Compound)", t.String())
		}
		inner := newParamScope(scope)
		for name, f := range compound.Fields {
			inner.define(name, f.Type)
		}
		if err := c.checkFilterExpr(n.Filter, inner, nil); err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, diagnostics.InternalError(diagnostics.PhaseTypecheck, v.GetToken(), fmt.Sprintf("unhandled value %T", v))
	}
}

func typesList(ts []typesystem.Type) string {
	s := "("
	for i, t := range ts {
		if i > 0 {
			s += ", "
		}
		s += t.String()
	}
	return s + ")"
}
