package smt

import (
	"context"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/smt/smtlib"
	"github.com/thingtalk-lang/ttcore/internal/solverclient"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// fakeClient records every Add/Assert call instead of talking to a real
// solver subprocess, so encoder tests can inspect exactly what SMT-LIB
// text a pass would have emitted.
type fakeClient struct {
	decls   []string
	asserts []string
}

func (c *fakeClient) Add(term smtlib.Term)    { c.decls = append(c.decls, term.String()) }
func (c *fakeClient) Assert(term smtlib.Term) { c.asserts = append(c.asserts, term.String()) }
func (c *fakeClient) EnableAssignments()      {}
func (c *fakeClient) CheckSat(ctx context.Context) (solverclient.Verdict, error) {
	return solverclient.Verdict{}, nil
}

func TestSortGroundTypes(t *testing.T) {
	e := NewEncoder(&fakeClient{})
	if got := e.Sort(typesystem.Number); got != "Real" {
		t.Fatalf("Number -> %s, want Real", got)
	}
	if got := e.Sort(typesystem.StringT); got != "String" {
		t.Fatalf("String -> %s, want String", got)
	}
	if got := e.Sort(typesystem.Boolean); got != "Bool" {
		t.Fatalf("Boolean -> %s, want Bool", got)
	}
}

func TestSortEntityDeclaresOnce(t *testing.T) {
	fc := &fakeClient{}
	e := NewEncoder(fc)
	first := e.Sort(typesystem.Entity{Name: "tt:contact"})
	second := e.Sort(typesystem.Entity{Name: "tt:contact"})
	if first != second {
		t.Fatalf("expected the same sort name both times, got %s and %s", first, second)
	}
	count := 0
	for _, d := range fc.decls {
		if d == "(declare-datatype Entity_tt_contact ((mk-Entity_tt_contact (Entity_tt_contact-str String))))" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one declaration of the entity datatype, got %d in %v", count, fc.decls)
	}
}

func TestSortArrayWrapsSet(t *testing.T) {
	e := NewEncoder(&fakeClient{})
	if got := e.Sort(typesystem.Array{Element: typesystem.Number}); got != "(Set Real)" {
		t.Fatalf("Array(Number) -> %s, want (Set Real)", got)
	}
}

func TestDeclareParamAssertsTimeRange(t *testing.T) {
	fc := &fakeClient{}
	e := NewEncoder(fc)
	e.DeclareParam("com.x.get", ast.ArgumentDef{Name: "when", Type: typesystem.Time})
	found := 0
	for _, a := range fc.asserts {
		if a == "(<= 0 param_com_x_get_when)" || a == "(<= param_com_x_get_when 86400)" {
			found++
		}
	}
	if found != 2 {
		t.Fatalf("expected both range bounds asserted, got %v", fc.asserts)
	}
}

func TestEncodeValueLiterals(t *testing.T) {
	e := NewEncoder(&fakeClient{})
	term, err := e.EncodeValue(&ast.NumberValue{Value: 42}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if term.String() != "42.0" {
		t.Fatalf("got %s, want 42.0", term.String())
	}

	term, err = e.EncodeValue(&ast.StringValue{Value: "hi"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if term.String() != `"hi"` {
		t.Fatalf("got %s, want quoted string", term.String())
	}
}

func TestEncodeValueUnboundVarRefFails(t *testing.T) {
	e := NewEncoder(&fakeClient{})
	_, err := e.EncodeValue(&ast.VarRef{Name: "missing"}, map[string]smtlib.Term{})
	if err == nil {
		t.Fatalf("expected an error for an unbound variable")
	}
}

func TestEncodeFilterNamesConstraint(t *testing.T) {
	fc := &fakeClient{}
	e := NewEncoder(fc)
	env := map[string]smtlib.Term{"number": smtlib.Atom("param_com_xkcd_get_comic_number")}
	atom := &ast.Atom{Name: "number", Operator: "==", Value: &ast.NumberValue{Value: 100}}
	term, err := e.EncodeFilter(atom, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if term.String() != "constr_0" {
		t.Fatalf("expected the encoder to return the named constraint atom, got %s", term.String())
	}
	foundAssert := false
	for _, a := range fc.asserts {
		if a == "(= constr_0 (= param_com_xkcd_get_comic_number 100.0))" {
			foundAssert = true
		}
	}
	if !foundAssert {
		t.Fatalf("expected the constraint's definition asserted, got %v", fc.asserts)
	}
}

func TestEncodeRulePrincipalMarkedParam(t *testing.T) {
	fc := &fakeClient{}
	e := NewEncoder(fc)
	if err := e.SetPrincipal(&ast.EntityValue{ID: "alice", Type: "tt:contact"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fn := &ast.FunctionDef{
		Kind: "action", Class: "com.msg", Name: "send",
		Args: []ast.ArgumentDef{
			{
				Name: "to", Type: typesystem.Entity{Name: "tt:contact"}, Direction: ast.InReq,
				Annotations: map[string]interface{}{"__principal": true},
			},
			{Name: "body", Type: typesystem.StringT, Direction: ast.InReq},
		},
	}
	schema := &ast.Schema{Args: fn.Args, Function: fn}
	cmd := &ast.Command{
		Actions: []ast.Action{&ast.ActionInvocation{
			Invocation: &ast.Invocation{
				Selector: ast.Selector{Kind: "com.msg"}, Channel: "send", Schema: schema,
			},
			Schema: schema,
		}},
	}

	_, constraints, err := e.EncodeRule(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foundDecl := false
	for _, d := range fc.decls {
		if d == "(declare-fun Allowed_com_msg_send (Entity_tt_contact) Bool)" {
			foundDecl = true
		}
	}
	if !foundDecl {
		t.Fatalf("expected the Allowed_ predicate declared, got %v", fc.decls)
	}

	want := `(=> (= param_com_msg_send_to (mk-Entity_tt_contact "alice")) (Allowed_com_msg_send (mk-Entity_tt_contact "alice")))`
	foundImpl := false
	for _, c := range constraints {
		if c.String() == want {
			foundImpl = true
		}
	}
	if !foundImpl {
		t.Fatalf("expected the principal implication in the rule constraints, got %v", constraints)
	}
}

func TestEncodeRuleUnmarkedContactParamHasNoImplication(t *testing.T) {
	fc := &fakeClient{}
	e := NewEncoder(fc)
	if err := e.SetPrincipal(&ast.EntityValue{ID: "alice", Type: "tt:contact"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fn := &ast.FunctionDef{
		Kind: "query", Class: "com.addr", Name: "lookup",
		Args: []ast.ArgumentDef{
			{Name: "who", Type: typesystem.Entity{Name: "tt:contact"}, Direction: ast.InReq},
		},
	}
	schema := &ast.Schema{Args: fn.Args, Function: fn}
	cmd := &ast.Command{
		Table: &ast.TableInvocation{
			Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.addr"}, Channel: "lookup", Schema: schema},
			Schema:     schema,
		},
		Actions: []ast.Action{&ast.Notify{}},
	}
	_, _, err := e.EncodeRule(cmd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, d := range fc.decls {
		if d == "(declare-fun Allowed_com_addr_lookup (Entity_tt_contact) Bool)" {
			t.Fatalf("did not expect an Allowed_ predicate for an unmarked parameter")
		}
	}
}

func TestAssertAllConjoinsTerms(t *testing.T) {
	fc := &fakeClient{}
	AssertAll(fc, []smtlib.Term{smtlib.Atom("a"), smtlib.Atom("b")})
	if len(fc.asserts) != 1 {
		t.Fatalf("expected a single conjoined assertion, got %d", len(fc.asserts))
	}
	if fc.asserts[0] != "(and a b)" {
		t.Fatalf("got %s, want (and a b)", fc.asserts[0])
	}
}

func TestAssertAllNoopOnEmpty(t *testing.T) {
	fc := &fakeClient{}
	AssertAll(fc, nil)
	if len(fc.asserts) != 0 {
		t.Fatalf("expected no assertion for an empty term list")
	}
}
