package permission

import (
	"context"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/solverclient"
)

// A policy matching the rule exactly: the first reduction comes back
// unsat, so the rule passes through unchanged after two solver sessions in
// all: the initial satisfiability probe and that one reduction.
func TestCheckRulePassThroughUsesTwoSolverSessions(t *testing.T) {
	factory := &queueFactory{results: []solverclient.Result{
		solverclient.Sat,   // step 2: the rule itself is satisfiable
		solverclient.Unsat, // step 3: no counterexample to the policy disjunction
	}}
	c := NewChecker(fakeDelegate{}, factory.next)
	cmd := xkcdCommand(atom("flow", "==", num(3)))
	mm := NewMultimap([]*ast.PermissionRule{specifiedRule(atom("flow", "==", num(3)))})

	out, err := c.CheckRule(context.Background(), cmd, mm, ast.EntityValue{ID: "me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatalf("expected the rule to survive unchanged")
	}
	if factory.i != 2 {
		t.Fatalf("expected exactly 2 solver sessions, got %d", factory.i)
	}
	// The surviving rule is a clone, not the original.
	if out == ast.Statement(cmd) {
		t.Fatalf("expected a cloned statement, got the original pointer")
	}
}

// Two applicable policies, neither implied: the residual attached to the
// query is their disjunction.
func TestCheckRuleResidualIsPolicyDisjunction(t *testing.T) {
	factory := &queueFactory{results: []solverclient.Result{
		solverclient.Sat, // step 2
		solverclient.Sat, // step 3
		solverclient.Sat, // step 4
		solverclient.Sat, // step 5, policy 1 applicable
		solverclient.Sat, // step 5, policy 1 not implied
		solverclient.Sat, // step 5, policy 2 applicable
		solverclient.Sat, // step 5, policy 2 not implied
	}}
	c := NewChecker(fakeDelegate{}, factory.next)
	cmd := xkcdCommand(nil)
	low := specifiedRule(atom("number", "<", num(10)))
	high := specifiedRule(atom("number", ">", num(100)))
	mm := NewMultimap([]*ast.PermissionRule{low, high})

	out, err := c.CheckRule(context.Background(), cmd, mm, ast.EntityValue{ID: "me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tf, ok := out.(*ast.Command).Table.(*ast.TableFilter)
	if !ok {
		t.Fatalf("expected a residual filter, got %T", out.(*ast.Command).Table)
	}
	or, ok := tf.Filter.(*ast.Or)
	if !ok {
		t.Fatalf("expected the residual to be a disjunction, got %T", tf.Filter)
	}
	if len(or.Ops) != 2 {
		t.Fatalf("expected 2 disjuncts, got %d", len(or.Ops))
	}
}

// Only a statically-false policy applies: the second reduction is unsat,
// the rule is deleted, and the whole program becomes None.
func TestCheckProgramAllRulesDeniedBecomesNone(t *testing.T) {
	factory := &queueFactory{results: []solverclient.Result{
		solverclient.Sat,   // step 2
		solverclient.Sat,   // step 3: negated False is trivially satisfiable
		solverclient.Unsat, // step 4: rule ∧ False is unsat
	}}
	c := NewChecker(fakeDelegate{}, factory.next)
	prog := &ast.Program{Statements: []ast.Statement{xkcdCommand(nil)}}
	rules := []*ast.PermissionRule{specifiedRule(&ast.False{})}

	out, err := c.CheckProgram(context.Background(), ast.EntityValue{ID: "me"}, prog, rules)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected the program to become None, got %+v", out)
	}
}

// An unsatisfiable rule is dropped silently; the precondition-false
// signal never escapes CheckProgram.
func TestCheckProgramDropsImpossibleRule(t *testing.T) {
	factory := &queueFactory{results: []solverclient.Result{
		solverclient.Unsat, // step 2: the rule alone is impossible
	}}
	c := NewChecker(fakeDelegate{}, factory.next)
	prog := &ast.Program{Statements: []ast.Statement{xkcdCommand(nil)}}
	rules := []*ast.PermissionRule{specifiedRule(&ast.True{})}

	out, err := c.CheckProgram(context.Background(), ast.EntityValue{ID: "me"}, prog, rules)
	if err != nil {
		t.Fatalf("expected the precondition-false signal to be swallowed, got %v", err)
	}
	if out != nil {
		t.Fatalf("expected an empty output program to become None")
	}
}

// Partially evaluating a policy filter: bound inputs fold to True/False,
// still-unknown inputs drop to True, output atoms survive verbatim.
func TestPartialEvaluateFoldsBoundAtoms(t *testing.T) {
	bound := map[string]ast.Value{"flow": num(3)}
	unknown := map[string]bool{"query": true}
	outAtom := atom("number", "<", num(10))
	f := &ast.And{Ops: []ast.BooleanExpression{
		atom("flow", "==", num(3)),                          // bound input, true
		atom("query", "==", &ast.StringValue{Value: "cat"}), // unfilled input slot: dropped
		outAtom, // output parameter: kept
	}}
	got := partialEvaluate(f, bound, unknown)
	and, ok := got.(*ast.And)
	if !ok {
		t.Fatalf("expected an And, got %T", got)
	}
	if _, ok := and.Ops[0].(*ast.True); !ok {
		t.Fatalf("expected the bound atom to fold to True, got %T", and.Ops[0])
	}
	if _, ok := and.Ops[1].(*ast.True); !ok {
		t.Fatalf("expected the unknown-input atom to drop to True, got %T", and.Ops[1])
	}
	if and.Ops[2] != ast.BooleanExpression(outAtom) {
		t.Fatalf("expected the output atom kept verbatim, got %T", and.Ops[2])
	}

	gotFalse := partialEvaluate(atom("flow", "==", num(4)), bound, unknown)
	if _, ok := gotFalse.(*ast.False); !ok {
		t.Fatalf("expected a contradicted bound atom to fold to False, got %T", gotFalse)
	}
}
