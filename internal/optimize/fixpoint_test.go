package optimize

import (
	"reflect"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
)

// (A ∧ True) ∨ False ∨ (B ∧ ¬¬C)  ⇒  A ∨ (B ∧ C)
func TestBooleanNormalizesMixedConnectives(t *testing.T) {
	a := atom("a", "==", num(1))
	b := atom("b", "==", num(2))
	c := atom("c", "==", num(3))
	f := &ast.Or{Ops: []ast.BooleanExpression{
		&ast.And{Ops: []ast.BooleanExpression{a, &ast.True{}}},
		&ast.False{},
		&ast.And{Ops: []ast.BooleanExpression{b, &ast.Not{Op: &ast.Not{Op: c}}}},
	}}

	got, changed := Boolean(f)
	if !changed {
		t.Fatalf("expected a change")
	}
	or, ok := got.(*ast.Or)
	if !ok {
		t.Fatalf("expected Or at the top, got %T", got)
	}
	if len(or.Ops) != 2 {
		t.Fatalf("expected 2 disjuncts, got %d", len(or.Ops))
	}
	if or.Ops[0] != ast.BooleanExpression(a) {
		t.Fatalf("expected first disjunct to be the bare atom A, got %T", or.Ops[0])
	}
	and, ok := or.Ops[1].(*ast.And)
	if !ok {
		t.Fatalf("expected second disjunct to be B ∧ C, got %T", or.Ops[1])
	}
	if len(and.Ops) != 2 || and.Ops[0] != ast.BooleanExpression(b) || and.Ops[1] != ast.BooleanExpression(c) {
		t.Fatalf("expected B ∧ C, got %+v", and.Ops)
	}
}

func TestBooleanEmptyAndIsTrue(t *testing.T) {
	got, _ := Boolean(&ast.And{})
	if _, ok := got.(*ast.True); !ok {
		t.Fatalf("expected empty And to fold to True, got %T", got)
	}
}

func TestBooleanEmptyOrIsFalse(t *testing.T) {
	got, _ := Boolean(&ast.Or{})
	if _, ok := got.(*ast.False); !ok {
		t.Fatalf("expected empty Or to fold to False, got %T", got)
	}
}

func TestTableTrueFilterCollapses(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	f := &ast.TableFilter{Table: inv, Filter: &ast.True{}}
	got, changed := Table(f)
	if !changed {
		t.Fatalf("expected a change")
	}
	if got != ast.Table(inv) {
		t.Fatalf("expected the filter to disappear, got %T", got)
	}
}

func TestFalseFilterDeletesRule(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Command{
			Table:   &ast.TableFilter{Table: inv, Filter: &ast.False{}},
			Actions: []ast.Action{&ast.Notify{}},
		},
	}}
	if got := Program(p); got != nil {
		t.Fatalf("expected the program to optimize to nil, got %+v", got)
	}
}

func TestFalseStreamFilterDeletesRule(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Rule{
			Stream:  &ast.StreamFilter{Stream: &ast.Monitor{Table: inv}, Filter: &ast.False{}},
			Actions: []ast.Action{&ast.Notify{}},
		},
	}}
	if got := Program(p); got != nil {
		t.Fatalf("expected the program to optimize to nil, got %+v", got)
	}
}

// optimize(optimize(p)) = optimize(p)
func TestProgramOptimizationIsIdempotent(t *testing.T) {
	mk := func() *ast.Program {
		inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
		inner := &ast.TableFilter{Table: inv, Filter: atom("number", ">", num(100))}
		outer := &ast.TableFilter{Table: inner, Filter: &ast.Or{Ops: []ast.BooleanExpression{
			atom("title", "=~", &ast.StringValue{Value: "cat"}),
			&ast.False{},
		}}}
		return &ast.Program{Statements: []ast.Statement{
			&ast.Command{Table: outer, Actions: []ast.Action{&ast.Notify{}}},
		}}
	}
	once := Program(mk())
	if once == nil {
		t.Fatalf("expected the program to survive")
	}
	twice := Program(once)
	if twice == nil {
		t.Fatalf("expected the optimized program to survive re-optimization")
	}
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected optimize to be idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}
