// Package permission implements the SMT-backed permission checker:
// given a principal, a candidate program and a policy set, it rewrites
// each rule down to the residual filter a policy still demands, or drops
// the rule entirely when no policy can ever allow it. Rules are resolved
// and rewritten in place, with the implication checks discharged through
// an external solver.
package permission

import (
	"context"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/optimize"
	"github.com/thingtalk-lang/ttcore/internal/smt"
	"github.com/thingtalk-lang/ttcore/internal/smt/smtlib"
	"github.com/thingtalk-lang/ttcore/internal/solverclient"
)

// GroupDelegate resolves which groups a contact belongs to; the checker
// queries it once per distinct contact and caches the result for the
// lifetime of the Checker, across CheckProgram calls.
type GroupDelegate interface {
	GetGroups(ctx context.Context, contact ast.EntityValue) ([]ast.EntityValue, error)
}

// SolverFactory opens a fresh solver session. CheckRule needs several
// independent satisfiability calls per rule and each one starts its own
// subprocess, so the checker asks for a new client rather than reusing
// one across calls.
type SolverFactory func() solverclient.Client

// Checker holds the group oracle, the solver factory, and the group
// cache; each distinct contact is resolved against the oracle once.
type Checker struct {
	Delegate GroupDelegate
	NewSolver SolverFactory

	groupCache map[string][]ast.EntityValue
}

// NewChecker returns a Checker backed by delegate and newSolver.
func NewChecker(delegate GroupDelegate, newSolver SolverFactory) *Checker {
	return &Checker{Delegate: delegate, NewSolver: newSolver, groupCache: make(map[string][]ast.EntityValue)}
}

// Groups returns contact's groups, querying the delegate at most once per
// distinct contact ID for the lifetime of this Checker.
func (c *Checker) Groups(ctx context.Context, contact ast.EntityValue) ([]ast.EntityValue, error) {
	if gs, ok := c.groupCache[contact.ID]; ok {
		return gs, nil
	}
	gs, err := c.Delegate.GetGroups(ctx, contact)
	if err != nil {
		return nil, diagnostics.WrapError(diagnostics.PhasePermission, contact.Tok, err)
	}
	c.groupCache[contact.ID] = gs
	return gs, nil
}

// CheckProgram checks an already-typechecked program against rules,
// returning a rewritten program retaining only the rules some policy
// allows. A nil result with a nil error means every rule was discarded.
func (c *Checker) CheckProgram(ctx context.Context, principal ast.EntityValue, prog *ast.Program, rules []*ast.PermissionRule) (*ast.Program, error) {
	mm := NewMultimap(rules)
	if err := c.resolveGroups(ctx, principal, prog, rules); err != nil {
		return nil, err
	}
	out := &ast.Program{Tok: prog.Tok, Classes: prog.Classes, Principal: prog.Principal}
	for _, s := range prog.Statements {
		switch s.(type) {
		case *ast.Rule, *ast.Command:
			rewritten, err := c.CheckRule(ctx, s, mm, principal)
			if err != nil {
				if diagnostics.IsPreconditionFalse(err) {
					continue
				}
				return nil, err
			}
			if rewritten != nil {
				out.Statements = append(out.Statements, rewritten)
			}
		default:
			out.Statements = append(out.Statements, s)
		}
	}
	if len(out.Rules()) == 0 {
		return nil, nil
	}
	return out, nil
}

// resolveGroups queries the oracle once per distinct contact entity
// referenced by the program or the policy set; the cached answers become
// set-membership assertions in every solver session checkSat opens.
func (c *Checker) resolveGroups(ctx context.Context, principal ast.EntityValue, prog *ast.Program, rules []*ast.PermissionRule) error {
	if c.Delegate == nil {
		return nil
	}
	contacts := map[string]ast.EntityValue{principal.ID: principal}
	collect := func(n ast.Node) {
		ast.Walk(n, &contactCollector{out: contacts})
	}
	for _, s := range prog.Statements {
		collect(s)
	}
	for _, r := range rules {
		collect(r)
	}
	for _, contact := range contacts {
		if _, err := c.Groups(ctx, contact); err != nil {
			return err
		}
	}
	return nil
}

type contactCollector struct {
	ast.BaseVisitor
	out map[string]ast.EntityValue
}

func (c *contactCollector) VisitEntityValue(n *ast.EntityValue) {
	if n.Type == "tt:contact" {
		c.out[n.ID] = *n
	}
}

// CheckRule runs the per-rule transform algorithm against one Rule or
// Command statement.
func (c *Checker) CheckRule(ctx context.Context, stmt ast.Statement, mm *Multimap, principal ast.EntityValue) (ast.Statement, error) {
	applicable := applicableRules(stmt, mm)

	// Step 2: satisfiability of the rule alone.
	if v, _, err := c.checkSat(ctx, stmt, principal, nil, nil, false); err != nil {
		return nil, err
	} else if v.Result != solverclient.Sat {
		return nil, diagnostics.NewPhaseError(diagnostics.PhasePermission, diagnostics.ErrP001, stmt.GetToken())
	}

	if len(applicable) == 0 {
		return nil, diagnostics.NewPhaseError(diagnostics.PhasePermission, diagnostics.ErrP001, stmt.GetToken())
	}

	filters := make([]ast.BooleanExpression, len(applicable))
	for i, r := range applicable {
		filters[i] = policyFilter(r)
	}

	// Step 3: first reduction — rule ∧ ¬(f1 ∨ f2 ∨ ...). Unsat ⇒
	// unconditionally allowed.
	negated := &ast.Not{Tok: stmt.GetToken(), Op: &ast.Or{Tok: stmt.GetToken(), Ops: filters}}
	if v, _, err := c.checkSat(ctx, stmt, principal, []ast.BooleanExpression{negated}, nil, false); err != nil {
		return nil, err
	} else if v.Result == solverclient.Unsat {
		return ast.Clone(stmt), nil
	}

	// Step 4: second reduction — rule ∧ (filter_0 ∨ filter_1 ∨ ...), each
	// policy filter individually named so the sat model's assignments can
	// short-circuit step 5's applicability probes. Unsat ⇒ no policy can
	// ever allow this rule.
	model, names, err := c.checkSat(ctx, stmt, principal, nil, filters, true)
	if err != nil {
		return nil, err
	}
	if model.Result != solverclient.Sat {
		return nil, nil
	}

	// Step 5: permission-by-permission adjust pass.
	bound, unknown := boundValues(stmt)
	var residual ast.BooleanExpression = &ast.False{Tok: stmt.GetToken()}
	any := false
	for i, r := range applicable {
		pf := policyFilter(r)
		// If the step-4 model already assigned this filter true, the
		// conjunction is satisfiable: skip the applicability solver call.
		provenApplicable := i < len(names) && model.Assignment[names[i]]
		if !provenApplicable {
			v, _, err := c.checkSat(ctx, stmt, principal, []ast.BooleanExpression{pf}, nil, false)
			if err != nil {
				return nil, err
			}
			if v.Result != solverclient.Sat {
				continue
			}
		}
		implied, _, err := c.checkSat(ctx, stmt, principal, []ast.BooleanExpression{&ast.Not{Tok: stmt.GetToken(), Op: pf}}, nil, false)
		if err != nil {
			return nil, err
		}
		if implied.Result == solverclient.Unsat {
			// precondition/postcondition always holds under this rule:
			// this policy contributes an unconditional allowance.
			residual = &ast.True{Tok: stmt.GetToken()}
			any = true
			continue
		}
		partial := partialEvaluate(pf, bound, unknown)
		residual = orFold(residual, partial)
		any = true
	}
	if !any {
		return nil, nil
	}
	residual, _ = optimize.Boolean(residual)
	if _, isFalse := residual.(*ast.False); isFalse {
		return nil, nil
	}

	out := ast.Clone(stmt)
	if _, isTrue := residual.(*ast.True); !isTrue {
		attachResidualFilter(out, residual)
	}
	return out, nil
}

func orFold(a, b ast.BooleanExpression) ast.BooleanExpression {
	if _, ok := a.(*ast.False); ok {
		return b
	}
	if _, ok := a.(*ast.True); ok {
		return a
	}
	if _, ok := b.(*ast.True); ok {
		return b
	}
	if _, ok := b.(*ast.False); ok {
		return a
	}
	return &ast.Or{Tok: a.GetToken(), Ops: []ast.BooleanExpression{a, b}}
}

// applicableRules gathers every policy whose Query or Action slot matches
// by function identity one of stmt's primitives.
func applicableRules(stmt ast.Statement, mm *Multimap) []*ast.PermissionRule {
	var out []*ast.PermissionRule
	for _, p := range ast.IteratePrimitives(stmt) {
		for _, r := range mm.Applicable(p.Invocation.Selector.Kind, p.Invocation.Channel) {
			out = appendUnique(out, r)
		}
	}
	return out
}

// policyFilter returns the filter a PermissionRule contributes: for a
// Builtin/Star/ClassStar slot with no filter this is unconditional True;
// a Specified slot contributes its filter, conjoined with the principal
// filter when present.
func policyFilter(r *ast.PermissionRule) ast.BooleanExpression {
	var parts []ast.BooleanExpression
	if r.PrincipalFilter != nil {
		parts = append(parts, r.PrincipalFilter)
	}
	if r.Query != nil && r.Query.Filter != nil {
		parts = append(parts, r.Query.Filter)
	}
	if r.Action != nil && r.Action.Filter != nil {
		parts = append(parts, r.Action.Filter)
	}
	if len(parts) == 0 {
		return &ast.True{Tok: r.Tok}
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return &ast.And{Tok: r.Tok, Ops: parts}
}

// checkSat opens a fresh solver session and encodes stmt's own rule
// constraints, plus extra (conjoined as-is) and named (each bound to a
// filter_N variable, asserted as a disjunction). With wantAssignments the
// solver is asked for a model, whose filter_N values the caller reads
// back through the returned names (parallel to named).
func (c *Checker) checkSat(ctx context.Context, stmt ast.Statement, principal ast.EntityValue, extra, named []ast.BooleanExpression, wantAssignments bool) (solverclient.Verdict, []string, error) {
	client := c.NewSolver()
	enc := smt.NewEncoder(client)
	if principal.ID != "" {
		ptype := principal.Type
		if ptype == "" {
			ptype = "tt:contact"
		}
		if err := enc.SetPrincipal(&ast.EntityValue{ID: principal.ID, Type: ptype}); err != nil {
			return solverclient.Verdict{}, nil, err
		}
	}
	for id, groups := range c.groupCache {
		if len(groups) == 0 {
			continue
		}
		contact := &ast.EntityValue{ID: id, Type: "tt:contact"}
		gs := make([]*ast.EntityValue, len(groups))
		for i := range groups {
			gs[i] = &groups[i]
		}
		if err := enc.AssertGroups(contact, gs); err != nil {
			return solverclient.Verdict{}, nil, err
		}
	}
	env, constraints, err := enc.EncodeRule(stmt)
	if err != nil {
		return solverclient.Verdict{}, nil, err
	}
	for _, ex := range extra {
		term, err := enc.EncodeFilter(ex, env)
		if err != nil {
			return solverclient.Verdict{}, nil, err
		}
		constraints = append(constraints, term)
	}
	var names []string
	if len(named) > 0 {
		terms := make([]smtlib.Term, len(named))
		for i, nf := range named {
			name, term, err := enc.EncodeNamedFilter(nf, env)
			if err != nil {
				return solverclient.Verdict{}, nil, err
			}
			names = append(names, name)
			terms[i] = term
		}
		constraints = append(constraints, smtlib.Or(terms...))
	}
	if wantAssignments {
		client.EnableAssignments()
	}
	smt.AssertAll(client, constraints)
	v, err := client.CheckSat(ctx)
	return v, names, err
}

// boundValues collects every literal in-param value reachable from
// stmt's primitives, keyed by argument name — the already-bound
// parameters a policy filter is partially evaluated against — plus the
// set of input parameters whose value is still an unfilled slot
// (Undefined), whose clauses the partial evaluation drops.
// Output parameters belong to neither set: a policy clause over an output
// is kept verbatim in the residual.
func boundValues(stmt ast.Statement) (map[string]ast.Value, map[string]bool) {
	out := make(map[string]ast.Value)
	unknown := make(map[string]bool)
	for _, p := range ast.IteratePrimitives(stmt) {
		for _, ip := range p.Invocation.InParams {
			if isLiteral(ip.Value) {
				out[ip.Name] = ip.Value
				continue
			}
			if _, undef := ip.Value.(*ast.Undefined); undef {
				unknown[ip.Name] = true
			}
		}
	}
	return out, unknown
}

func isLiteral(v ast.Value) bool {
	switch v.(type) {
	case *ast.BooleanValue, *ast.StringValue, *ast.NumberValue, *ast.MeasureValue,
		*ast.CurrencyValue, *ast.DateValue, *ast.TimeValue, *ast.EntityValue, *ast.EnumValue:
		return true
	default:
		return false
	}
}

// partialEvaluate substitutes bound values into f, folding any Atom whose
// name resolves to a known literal into True/False, and dropping
// (treating as True) any clause whose LHS is a still-unknown input
// parameter. Atoms over output parameters are kept
// verbatim: they become the residual filter conjoined onto the rule.
func partialEvaluate(f ast.BooleanExpression, bound map[string]ast.Value, unknown map[string]bool) ast.BooleanExpression {
	switch n := f.(type) {
	case *ast.And:
		ops := make([]ast.BooleanExpression, len(n.Ops))
		for i, op := range n.Ops {
			ops[i] = partialEvaluate(op, bound, unknown)
		}
		return &ast.And{Tok: n.Tok, Ops: ops}
	case *ast.Or:
		ops := make([]ast.BooleanExpression, len(n.Ops))
		for i, op := range n.Ops {
			ops[i] = partialEvaluate(op, bound, unknown)
		}
		return &ast.Or{Tok: n.Tok, Ops: ops}
	case *ast.Not:
		return &ast.Not{Tok: n.Tok, Op: partialEvaluate(n.Op, bound, unknown)}
	case *ast.Atom:
		if val, ok := bound[n.Name]; ok && isLiteral(n.Value) {
			if evalAtom(n.Operator, val, n.Value) {
				return &ast.True{Tok: n.Tok}
			}
			return &ast.False{Tok: n.Tok}
		}
		if unknown[n.Name] {
			return &ast.True{Tok: n.Tok}
		}
		return n
	default:
		return f
	}
}

// evalAtom compares two already-resolved literal Values under op; it
// only needs to handle equality-shaped operators since partialEvaluate is
// only ever applied to policy filters, whose only cross-parameter
// comparisons are equality checks against a bound value.
func evalAtom(op string, a, b ast.Value) bool {
	eq := literalEqual(a, b)
	switch op {
	case "==", "=":
		return eq
	case "!=":
		return !eq
	default:
		return eq
	}
}

func literalEqual(a, b ast.Value) bool {
	switch av := a.(type) {
	case *ast.StringValue:
		bv, ok := b.(*ast.StringValue)
		return ok && av.Value == bv.Value
	case *ast.NumberValue:
		bv, ok := b.(*ast.NumberValue)
		return ok && av.Value == bv.Value
	case *ast.BooleanValue:
		bv, ok := b.(*ast.BooleanValue)
		return ok && av.Value == bv.Value
	case *ast.EnumValue:
		bv, ok := b.(*ast.EnumValue)
		return ok && av.Symbol == bv.Symbol
	case *ast.EntityValue:
		bv, ok := b.(*ast.EntityValue)
		return ok && av.ID == bv.ID && av.Type == bv.Type
	default:
		return false
	}
}

// attachResidualFilter wraps stmt's Stream/Table with a Filter node
// carrying residual, or conjoins residual into an existing outermost
// filter.
func attachResidualFilter(stmt ast.Statement, residual ast.BooleanExpression) {
	switch n := stmt.(type) {
	case *ast.Rule:
		n.Stream = attachStreamFilter(n.Stream, residual)
	case *ast.Command:
		if n.Table == nil {
			return
		}
		n.Table = attachTableFilter(n.Table, residual)
	}
}

func attachStreamFilter(s ast.Stream, residual ast.BooleanExpression) ast.Stream {
	if sf, ok := s.(*ast.StreamFilter); ok {
		sf.Filter = &ast.And{Tok: sf.Tok, Ops: []ast.BooleanExpression{sf.Filter, residual}}
		return sf
	}
	return &ast.StreamFilter{Tok: s.GetToken(), Stream: s, Filter: residual, Schema: s.GetSchema()}
}

func attachTableFilter(t ast.Table, residual ast.BooleanExpression) ast.Table {
	if tf, ok := t.(*ast.TableFilter); ok {
		tf.Filter = &ast.And{Tok: tf.Tok, Ops: []ast.BooleanExpression{tf.Filter, residual}}
		return tf
	}
	return &ast.TableFilter{Tok: t.GetToken(), Table: t, Filter: residual, Schema: t.GetSchema()}
}
