// Package smt lowers a checked ThingTalk rule or permission policy into
// SMT-LIB terms. The landing representation is printed text handed to an
// external solver (internal/solverclient), not executed in-process.
package smt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/smt/smtlib"
	"github.com/thingtalk-lang/ttcore/internal/solverclient"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// Encoder accumulates sort/constant declarations and named subformula
// constraints for one solver session. A fresh Encoder is used per
// satisfiability call — the per-rule transform makes several independent
// calls — but Sort/entity/enum declarations are cheap to redeclare each
// time since every call starts a new solver subprocess.
type Encoder struct {
	Client solverclient.Client

	declaredEntities map[string]bool
	declaredEnums    map[string]string // canonical symbol-list key -> sort name
	declaredAllowed  map[string]bool
	constraintSeq    int
	varSeq           int

	principal smtlib.Term // nil until SetPrincipal
}

// NewEncoder returns an Encoder that will declare constants/sorts and
// assert constraints on client.
func NewEncoder(client solverclient.Client) *Encoder {
	return &Encoder{
		Client:           client,
		declaredEntities: make(map[string]bool),
		declaredEnums:    make(map[string]string),
		declaredAllowed:  make(map[string]bool),
	}
}

// SetPrincipal records the contact this session's rule runs as, enabling
// the __principal implication on contact-typed parameters.
func (e *Encoder) SetPrincipal(contact *ast.EntityValue) error {
	term, err := e.EncodeValue(contact, nil)
	if err != nil {
		return err
	}
	e.principal = term
	return nil
}

// Sort returns the SMT-LIB sort name for t, declaring any datatype this
// is the first use of.
func (e *Encoder) Sort(t typesystem.Type) string {
	switch n := t.(type) {
	case typesystem.Entity:
		name := entitySortName(n.Name)
		if !e.declaredEntities[name] {
			e.declaredEntities[name] = true
			e.Client.Add(smtlib.Atom(fmt.Sprintf(
				"(declare-datatype %s ((mk-%s (%s-str String))))", name, name, name)))
		}
		return name
	case typesystem.Enum:
		key := strings.Join(n.Symbols, ",")
		if name, ok := e.declaredEnums[key]; ok {
			return name
		}
		name := fmt.Sprintf("Enum_%d", len(e.declaredEnums))
		e.declaredEnums[key] = name
		ctors := make([]string, len(n.Symbols))
		for i, sym := range n.Symbols {
			ctors[i] = fmt.Sprintf("(%s)", enumCtorName(sym))
		}
		e.Client.Add(smtlib.Atom(fmt.Sprintf(
			"(declare-datatype %s (%s))", name, strings.Join(ctors, " "))))
		return name
	case typesystem.Array:
		return fmt.Sprintf("(Set %s)", e.Sort(n.Element))
	case typesystem.Measure:
		return "Real"
	default:
		switch t.String() {
		case "Number":
			return "Real"
		case "Boolean":
			return "Bool"
		case "String":
			return "String"
		case "Time", "Date":
			return "Int"
		case "Location":
			if !e.declaredEntities["Location"] {
				e.declaredEntities["Location"] = true
				e.Client.Add(smtlib.Atom(
					"(declare-datatype Location ((loc.home) (loc.work) (loc.current) (loc.absolute (loc.lat Real) (loc.lon Real))))"))
			}
			return "Location"
		default:
			return "Real"
		}
	}
}

func entitySortName(kind string) string {
	return "Entity_" + sanitizeIdent(kind)
}

func enumCtorName(sym string) string {
	return "enum." + sanitizeIdent(sym)
}

func sanitizeIdent(s string) string {
	return strings.NewReplacer(".", "_", ":", "_", "-", "_").Replace(s)
}

// ParamVar names the constant introduced for one invocation's argument,
// "param_<fn>_<arg>".
func ParamVar(fnName, argName string) string {
	return fmt.Sprintf("param_%s_%s", sanitizeIdent(fnName), argName)
}

// DeclareParam declares a free constant of the argument's sort and
// returns a Term referencing it.
func (e *Encoder) DeclareParam(fnName string, arg ast.ArgumentDef) smtlib.Term {
	name := ParamVar(fnName, arg.Name)
	sort := e.Sort(arg.Type)
	e.Client.Add(smtlib.Atom(smtlib.DeclareConst(name, sort)))
	if arg.Type.String() == "Time" {
		e.Client.Assert(smtlib.Apply("<=", smtlib.IntLit(0), smtlib.Atom(name)))
		e.Client.Assert(smtlib.Apply("<=", smtlib.Atom(name), smtlib.IntLit(86400)))
	}
	return smtlib.Atom(name)
}

// AllowedPredicate names the per-function allowance predicate asserted
// for __principal-marked parameters, "Allowed_<fn>".
func AllowedPredicate(fnName string) string {
	return "Allowed_" + sanitizeIdent(fnName)
}

// principalImplication returns the constraint a __principal-marked
// contact parameter contributes: the parameter equalling the running
// principal implies Allowed_<fn>(principal). nil when the argument isn't
// marked, isn't contact-typed, or no principal was set.
func (e *Encoder) principalImplication(fnName string, arg ast.ArgumentDef, param smtlib.Term) smtlib.Term {
	if e.principal == nil || !arg.IsPrincipal() {
		return nil
	}
	ent, ok := arg.Type.(typesystem.Entity)
	if !ok || ent.Name != "tt:contact" {
		return nil
	}
	pred := AllowedPredicate(fnName)
	if !e.declaredAllowed[pred] {
		e.declaredAllowed[pred] = true
		e.Client.Add(smtlib.Atom(fmt.Sprintf(
			"(declare-fun %s (%s) Bool)", pred, e.Sort(ent))))
	}
	return smtlib.Implies(
		smtlib.Eq(param, e.principal),
		smtlib.Apply(pred, e.principal))
}

// EncodeValue lowers a checked Value into an SMT-LIB term. env resolves a
// VarRef/field name to its already-declared Term (the enclosing
// function's parameter variables plus any scope-exposed out-params).
func (e *Encoder) EncodeValue(v ast.Value, env map[string]smtlib.Term) (smtlib.Term, error) {
	switch n := v.(type) {
	case *ast.BooleanValue:
		return smtlib.BoolLit(n.Value), nil
	case *ast.StringValue:
		return smtlib.StringLit(n.Value), nil
	case *ast.NumberValue:
		return smtlib.RealLit(n.Value), nil
	case *ast.MeasureValue:
		return smtlib.RealLit(n.Value), nil
	case *ast.CurrencyValue:
		return smtlib.RealLit(n.Value), nil
	case *ast.DateValue:
		return smtlib.IntLit(int64(n.Year)*10000 + int64(n.Month)*100 + int64(n.Day)), nil
	case *ast.TimeValue:
		return smtlib.IntLit(int64(n.Hour)*3600 + int64(n.Minute)*60 + int64(n.Second)), nil
	case *ast.LocationValue:
		if n.Named == "home" {
			return smtlib.Atom("loc.home"), nil
		}
		if n.Named == "work" {
			return smtlib.Atom("loc.work"), nil
		}
		if n.Named == "current" {
			return smtlib.Atom("loc.current"), nil
		}
		return smtlib.Apply("loc.absolute", smtlib.RealLit(n.Lat), smtlib.RealLit(n.Lon)), nil
	case *ast.EntityValue:
		sort := entitySortName(n.Type)
		if !e.declaredEntities[sort] {
			e.Sort(typesystem.Entity{Name: n.Type})
		}
		return smtlib.Apply("mk-"+sort, smtlib.StringLit(n.ID)), nil
	case *ast.EnumValue:
		return smtlib.Atom(enumCtorName(n.Symbol)), nil
	case *ast.VarRef:
		if t, ok := env[n.Name]; ok {
			return t, nil
		}
		return nil, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS003, n.Tok, "unbound variable "+n.Name)
	case *ast.ArrayValue:
		elems := make([]smtlib.Term, len(n.Elements))
		for i, el := range n.Elements {
			t, err := e.EncodeValue(el, env)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		if len(elems) == 0 {
			return smtlib.Atom("(as set.empty (Set Real))"), nil
		}
		acc := smtlib.Apply("set.singleton", elems[0])
		for _, t := range elems[1:] {
			acc = smtlib.Apply("set.union", acc, smtlib.Apply("set.singleton", t))
		}
		return acc, nil
	case *ast.Computation:
		args := make([]smtlib.Term, len(n.Operands))
		for i, op := range n.Operands {
			t, err := e.EncodeValue(op, env)
			if err != nil {
				return nil, err
			}
			args[i] = t
		}
		return smtlib.Apply(smtOpName(n.Op), args...), nil
	case *ast.ArrayFieldValue:
		return nil, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS003, n.Tok, "compound field projection")
	case *ast.Event, *ast.Undefined:
		return nil, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS003, v.GetToken(), "unresolved value reached SMT encoding")
	default:
		return nil, diagnostics.InternalError(diagnostics.PhaseSMT, v.GetToken(), "unhandled value kind")
	}
}

func smtOpName(op string) string {
	switch op {
	case "distance":
		return "tt.distance"
	default:
		return op
	}
}

// EncodeFilter lowers a BooleanExpression into an SMT-LIB term, naming
// the whole filter "constr_N" and asserting its definition for later
// unsat-core extraction; its subformulae are not named individually. The
// returned Term is the named
// constraint atom itself, not the raw formula.
func (e *Encoder) EncodeFilter(b ast.BooleanExpression, env map[string]smtlib.Term) (smtlib.Term, error) {
	raw, err := e.encodeFilterRaw(b, env)
	if err != nil {
		return nil, err
	}
	return e.nameConstraint(raw), nil
}

// EncodeNamedFilter lowers b like EncodeFilter but binds it to a fresh
// "filter_N" boolean and returns that name alongside the term, so the
// caller can read the variable's value back out of a sat model.
func (e *Encoder) EncodeNamedFilter(b ast.BooleanExpression, env map[string]smtlib.Term) (string, smtlib.Term, error) {
	raw, err := e.encodeFilterRaw(b, env)
	if err != nil {
		return "", nil, err
	}
	name := fmt.Sprintf("filter_%d", e.varSeq)
	e.varSeq++
	e.Client.Add(smtlib.Atom(smtlib.DeclareConst(name, "Bool")))
	e.Client.Assert(smtlib.Eq(smtlib.Atom(name), raw))
	return name, smtlib.Atom(name), nil
}

func (e *Encoder) nameConstraint(t smtlib.Term) smtlib.Term {
	name := fmt.Sprintf("constr_%d", e.constraintSeq)
	e.constraintSeq++
	e.Client.Add(smtlib.Atom(smtlib.DeclareConst(name, "Bool")))
	e.Client.Assert(smtlib.Eq(smtlib.Atom(name), t))
	return smtlib.Atom(name)
}

func (e *Encoder) encodeFilterRaw(b ast.BooleanExpression, env map[string]smtlib.Term) (smtlib.Term, error) {
	switch n := b.(type) {
	case *ast.True:
		return smtlib.BoolLit(true), nil
	case *ast.False:
		return smtlib.BoolLit(false), nil
	case *ast.And:
		terms := make([]smtlib.Term, len(n.Ops))
		for i, op := range n.Ops {
			t, err := e.encodeFilterRaw(op, env)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return smtlib.And(terms...), nil
	case *ast.Or:
		terms := make([]smtlib.Term, len(n.Ops))
		for i, op := range n.Ops {
			t, err := e.encodeFilterRaw(op, env)
			if err != nil {
				return nil, err
			}
			terms[i] = t
		}
		return smtlib.Or(terms...), nil
	case *ast.Not:
		t, err := e.encodeFilterRaw(n.Op, env)
		if err != nil {
			return nil, err
		}
		return smtlib.Not(t), nil
	case *ast.DontCare:
		return smtlib.BoolLit(true), nil
	case *ast.Atom:
		lhs, ok := env[n.Name]
		if !ok {
			return nil, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS003, n.Tok, "unbound field "+n.Name)
		}
		rhs, err := e.EncodeValue(n.Value, env)
		if err != nil {
			return nil, err
		}
		return e.applyOperator(n.Operator, lhs, rhs), nil
	case *ast.Compute:
		lhs, err := e.EncodeValue(n.LHS, env)
		if err != nil {
			return nil, err
		}
		rhs, err := e.EncodeValue(n.RHS, env)
		if err != nil {
			return nil, err
		}
		return e.applyOperator(n.Op, lhs, rhs), nil
	case *ast.External:
		sub, err := e.declareInvocationParams(n.Invocation, env)
		if err != nil {
			return nil, err
		}
		return e.encodeFilterRaw(n.Filter, sub)
	default:
		return nil, diagnostics.InternalError(diagnostics.PhaseSMT, b.GetToken(), "unhandled filter node")
	}
}

func (e *Encoder) applyOperator(op string, lhs, rhs smtlib.Term) smtlib.Term {
	switch op {
	case "==", "=":
		return smtlib.Eq(lhs, rhs)
	case "!=":
		return smtlib.Not(smtlib.Eq(lhs, rhs))
	case "=~":
		return smtlib.Apply("str.contains", lhs, rhs)
	case "~=":
		return smtlib.Apply("str.contains", rhs, lhs)
	case "starts_with":
		return smtlib.Apply("str.prefixof", rhs, lhs)
	case "ends_with":
		return smtlib.Apply("str.suffixof", rhs, lhs)
	case "contains":
		return smtlib.Apply("set.member", rhs, lhs)
	case "in_array":
		return smtlib.Apply("set.member", lhs, rhs)
	case "group_member", "has_member":
		// Group membership becomes set membership over getGroups
		//: contact lhs belongs to group rhs.
		e.declareGetGroups()
		return smtlib.Apply("set.member", rhs, smtlib.Apply("getGroups", lhs))
	default:
		return smtlib.Apply(op, lhs, rhs)
	}
}

// declareGetGroups emits the contacts → groups function declaration on
// first use, after making sure both entity sorts exist.
func (e *Encoder) declareGetGroups() {
	if e.declaredEntities["getGroups"] {
		return
	}
	e.declaredEntities["getGroups"] = true
	contact := e.Sort(typesystem.Entity{Name: "tt:contact"})
	group := e.Sort(typesystem.Entity{Name: "tt:contact_group"})
	e.Client.Add(smtlib.Atom(fmt.Sprintf(
		"(declare-fun getGroups (%s) (Set %s))", contact, group)))
}

// declareInvocationParams declares a fresh constant per argument of inv's
// function and returns an env merging those with the parent env, used
// while descending into an External filter's own nested filter.
func (e *Encoder) declareInvocationParams(inv *ast.Invocation, parent map[string]smtlib.Term) (map[string]smtlib.Term, error) {
	env := make(map[string]smtlib.Term, len(parent)+len(inv.Schema.Args))
	for k, v := range parent {
		env[k] = v
	}
	fnName := inv.Selector.Kind + "." + inv.Channel
	for _, arg := range inv.Schema.Args {
		param := e.DeclareParam(fnName, arg)
		env[arg.Name] = param
		if impl := e.principalImplication(fnName, arg, param); impl != nil {
			e.Client.Assert(impl)
		}
	}
	for _, ip := range inv.InParams {
		val, err := e.EncodeValue(ip.Value, env)
		if err != nil {
			return nil, err
		}
		e.Client.Assert(smtlib.Eq(env[ip.Name], val))
	}
	return env, nil
}

// AssertGroups records the group-membership oracle's answer for one
// contact as set-membership facts over getGroups; the oracle is queried
// once per contact and its answer constrains every solver session.
func (e *Encoder) AssertGroups(contact *ast.EntityValue, groups []*ast.EntityValue) error {
	e.declareGetGroups()
	c, err := e.EncodeValue(contact, nil)
	if err != nil {
		return err
	}
	for _, g := range groups {
		gt, err := e.EncodeValue(g, nil)
		if err != nil {
			return err
		}
		e.Client.Assert(smtlib.Apply("set.member", gt, smtlib.Apply("getGroups", c)))
	}
	return nil
}

// EncodeRule declares parameter constants for every primitive in s and
// returns an env mapping each argument name (inputs and outputs) to its
// term, plus the list of the rule's own filter/in-param constraints,
// ready for the caller to conjoin with permission terms.
func (e *Encoder) EncodeRule(s ast.Statement) (env map[string]smtlib.Term, constraints []smtlib.Term, err error) {
	env = make(map[string]smtlib.Term)
	prims := ast.IteratePrimitives(s)
	for _, p := range prims {
		fnName := p.Invocation.Selector.Kind + "." + p.Invocation.Channel
		var schema *ast.Schema
		if p.Invocation.Schema != nil {
			schema = p.Invocation.Schema
		}
		if schema == nil {
			continue
		}
		for _, arg := range schema.Args {
			if _, exists := env[arg.Name]; exists {
				continue
			}
			param := e.DeclareParam(fnName, arg)
			env[arg.Name] = param
			if impl := e.principalImplication(fnName, arg, param); impl != nil {
				constraints = append(constraints, impl)
			}
		}
		for _, ip := range p.Invocation.InParams {
			val, verr := e.EncodeValue(ip.Value, env)
			if verr != nil {
				return nil, nil, verr
			}
			constraints = append(constraints, smtlib.Eq(env[ip.Name], val))
		}
	}

	// Filters live on TableFilter/StreamFilter/EdgeFilter nodes, which checkFilterExpr
	// already validated; walk them out via a small local visitor since
	// EncodeRule only needs the raw BooleanExpression trees, not mutation.
	var filterErr error
	collectFilters(s, func(b ast.BooleanExpression) {
		if filterErr != nil {
			return
		}
		t, err := e.EncodeFilter(b, env)
		if err != nil {
			filterErr = err
			return
		}
		constraints = append(constraints, t)
	})
	if filterErr != nil {
		return nil, nil, filterErr
	}
	return env, constraints, nil
}

// collectFilters walks s and invokes fn once per BooleanExpression
// attached directly to a Filter node (TableFilter/StreamFilter/EdgeFilter),
// in source order.
func collectFilters(s ast.Statement, fn func(ast.BooleanExpression)) {
	v := &filterCollector{fn: fn}
	ast.Walk(s, v)
}

type filterCollector struct {
	ast.BaseVisitor
	fn func(ast.BooleanExpression)
}

func (c *filterCollector) VisitTableFilter(n *ast.TableFilter)   { c.fn(n.Filter) }
func (c *filterCollector) VisitStreamFilter(n *ast.StreamFilter) { c.fn(n.Filter) }
func (c *filterCollector) VisitEdgeFilter(n *ast.EdgeFilter)     { c.fn(n.Filter) }

// AssertAll asserts the conjunction of terms (used to combine a rule's
// own constraints with a permission's filter before CheckSat).
func AssertAll(client solverclient.Client, terms []smtlib.Term) {
	if len(terms) == 0 {
		return
	}
	client.Assert(smtlib.And(terms...))
}

// SortedParamNames returns m's keys sorted, for deterministic iteration
// when the caller needs to print or replay an assignment.
func SortedParamNames(m map[string]smtlib.Term) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
