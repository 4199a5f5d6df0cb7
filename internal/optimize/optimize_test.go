package optimize

import (
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
)

func num(n float64) *ast.NumberValue { return &ast.NumberValue{Value: n} }

func atom(name, op string, v ast.Value) *ast.Atom {
	return &ast.Atom{Name: name, Operator: op, Value: v}
}

func TestBooleanAndFoldsTrue(t *testing.T) {
	b := &ast.And{Ops: []ast.BooleanExpression{
		&ast.True{},
		atom("x", "==", num(1)),
	}}
	got, changed := Boolean(b)
	if !changed {
		t.Fatalf("expected a change")
	}
	a, ok := got.(*ast.Atom)
	if !ok {
		t.Fatalf("expected the sole Atom to survive, got %T", got)
	}
	if a.Name != "x" {
		t.Fatalf("wrong atom survived: %+v", a)
	}
}

func TestBooleanAndShortCircuitsFalse(t *testing.T) {
	b := &ast.And{Ops: []ast.BooleanExpression{
		atom("x", "==", num(1)),
		&ast.False{},
	}}
	got, changed := Boolean(b)
	if !changed {
		t.Fatalf("expected a change")
	}
	if _, ok := got.(*ast.False); !ok {
		t.Fatalf("expected False, got %T", got)
	}
}

func TestBooleanOrShortCircuitsTrue(t *testing.T) {
	b := &ast.Or{Ops: []ast.BooleanExpression{
		atom("x", "==", num(1)),
		&ast.True{},
	}}
	got, _ := Boolean(b)
	if _, ok := got.(*ast.True); !ok {
		t.Fatalf("expected True, got %T", got)
	}
}

func TestBooleanFlattensNestedAnd(t *testing.T) {
	inner := &ast.And{Ops: []ast.BooleanExpression{atom("x", "==", num(1)), atom("y", "==", num(2))}}
	outer := &ast.And{Ops: []ast.BooleanExpression{inner, atom("z", "==", num(3))}}
	got, changed := Boolean(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	and, ok := got.(*ast.And)
	if !ok {
		t.Fatalf("expected And, got %T", got)
	}
	if len(and.Ops) != 3 {
		t.Fatalf("expected 3 flattened operands, got %d", len(and.Ops))
	}
}

func TestBooleanNotNotCancels(t *testing.T) {
	b := &ast.Not{Op: &ast.Not{Op: atom("x", "==", num(1))}}
	got, changed := Boolean(b)
	if !changed {
		t.Fatalf("expected a change")
	}
	if _, ok := got.(*ast.Atom); !ok {
		t.Fatalf("expected the innermost Atom, got %T", got)
	}
}

func TestBooleanNotTrueCollapses(t *testing.T) {
	got, changed := Boolean(&ast.Not{Op: &ast.True{}})
	if !changed {
		t.Fatalf("expected a change")
	}
	if _, ok := got.(*ast.False); !ok {
		t.Fatalf("expected False, got %T", got)
	}
}

func TestBooleanSelfComparisonFoldsTrue(t *testing.T) {
	b := atom("x", "==", &ast.VarRef{Name: "x"})
	got, changed := Boolean(b)
	if !changed {
		t.Fatalf("expected a change")
	}
	if _, ok := got.(*ast.True); !ok {
		t.Fatalf("expected True, got %T", got)
	}
}

func TestBooleanSelfComparisonIgnoresNonReflexiveOperator(t *testing.T) {
	b := atom("x", ">", &ast.VarRef{Name: "x"})
	got, changed := Boolean(b)
	if changed {
		t.Fatalf("did not expect a change for '>'")
	}
	if got != b {
		t.Fatalf("expected the atom unchanged")
	}
}

func TestTableFilterFusion(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	inner := &ast.TableFilter{Table: inv, Filter: atom("number", ">", num(100))}
	outer := &ast.TableFilter{Table: inner, Filter: atom("title", "==", &ast.StringValue{Value: "foo"})}

	got, changed := Table(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	fused, ok := got.(*ast.TableFilter)
	if !ok {
		t.Fatalf("expected TableFilter, got %T", got)
	}
	and, ok := fused.Filter.(*ast.And)
	if !ok {
		t.Fatalf("expected fused filter to be an And, got %T", fused.Filter)
	}
	if len(and.Ops) != 2 {
		t.Fatalf("expected 2 fused conjuncts, got %d", len(and.Ops))
	}
	if fused.Table != inv {
		t.Fatalf("expected fusion to skip directly to the invocation")
	}
}

func TestTableFilterCommutesPastProjection(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	proj := &ast.TableProjection{Table: inv, Args: []string{"number", "title"}}
	outer := &ast.TableFilter{Table: proj, Filter: atom("number", ">", num(100))}

	got, changed := Table(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	newProj, ok := got.(*ast.TableProjection)
	if !ok {
		t.Fatalf("expected TableProjection on top after commuting, got %T", got)
	}
	pushedFilter, ok := newProj.Table.(*ast.TableFilter)
	if !ok {
		t.Fatalf("expected TableFilter pushed under the projection, got %T", newProj.Table)
	}
	if pushedFilter.Table != inv {
		t.Fatalf("expected the pushed filter to sit directly over the invocation")
	}
}

func TestTableFilterDoesNotCommutePastProjectionWhenFieldNotProjected(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	proj := &ast.TableProjection{Table: inv, Args: []string{"title"}}
	outer := &ast.TableFilter{Table: proj, Filter: atom("number", ">", num(100))}

	got, _ := Table(outer)
	if _, ok := got.(*ast.TableFilter); !ok {
		t.Fatalf("expected the filter to stay on top when it references a non-projected field, got %T", got)
	}
}

func TestProgramDropsEmptyActionRule(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Command{Table: inv, Actions: nil},
	}}
	if got := Program(p); got != nil {
		t.Fatalf("expected a program with no surviving rules to optimize to nil, got %+v", got)
	}
}

func TestStreamEdgeNewOfMonitorCollapses(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	edge := &ast.EdgeNew{Stream: mon}

	got, changed := Stream(edge)
	if !changed {
		t.Fatalf("expected a change")
	}
	if got != mon {
		t.Fatalf("expected edge_new(monitor(t)) to collapse to the monitor, got %T", got)
	}
}

func TestStreamEdgeNewOfEdgeNewCollapses(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	inner := &ast.EdgeNew{Stream: mon}
	outer := &ast.EdgeNew{Stream: inner}

	got, changed := Stream(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	if got != mon {
		t.Fatalf("expected edge_new(edge_new(t)) to collapse all the way to the monitor, got %T", got)
	}
}

func TestStreamFilterCommutesPastMonitor(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	outer := &ast.StreamFilter{Stream: mon, Filter: atom("number", ">", num(100))}

	got, changed := Stream(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	newMon, ok := got.(*ast.Monitor)
	if !ok {
		t.Fatalf("expected the monitor back on top after commuting, got %T", got)
	}
	pushed, ok := newMon.Table.(*ast.TableFilter)
	if !ok {
		t.Fatalf("expected a TableFilter pushed under the monitor, got %T", newMon.Table)
	}
	if pushed.Table != inv {
		t.Fatalf("expected the pushed filter to sit directly over the invocation")
	}
}

func TestStreamFilterCommutesPastProjection(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	proj := &ast.StreamProjection{Stream: mon, Args: []string{"number", "title"}}
	outer := &ast.StreamFilter{Stream: proj, Filter: atom("number", ">", num(100))}

	got, changed := Stream(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	newProj, ok := got.(*ast.StreamProjection)
	if !ok {
		t.Fatalf("expected StreamProjection on top after commuting, got %T", got)
	}
	pushed, ok := newProj.Stream.(*ast.StreamFilter)
	if !ok {
		t.Fatalf("expected StreamFilter pushed under the projection, got %T", newProj.Stream)
	}
	if _, ok := pushed.Stream.(*ast.Monitor); !ok {
		t.Fatalf("expected the pushed filter to sit over the monitor, got %T", pushed.Stream)
	}
}

func TestStreamFilterDoesNotCommutePastProjectionWhenFieldNotProjected(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	proj := &ast.StreamProjection{Stream: mon, Args: []string{"title"}}
	outer := &ast.StreamFilter{Stream: proj, Filter: atom("number", ">", num(100))}

	got, _ := Stream(outer)
	if _, ok := got.(*ast.StreamFilter); !ok {
		t.Fatalf("expected the filter to stay on top when it references a non-projected field, got %T", got)
	}
}

func TestStreamFilterFusion(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	mon := &ast.Monitor{Table: inv}
	inner := &ast.StreamFilter{Stream: mon, Filter: atom("number", ">", num(100))}
	outer := &ast.StreamFilter{Stream: inner, Filter: atom("title", "==", &ast.StringValue{Value: "foo"})}

	got, changed := Stream(outer)
	if !changed {
		t.Fatalf("expected a change")
	}
	fused, ok := got.(*ast.StreamFilter)
	if !ok {
		t.Fatalf("expected StreamFilter, got %T", got)
	}
	if fused.Stream != mon {
		t.Fatalf("expected fusion to skip directly to the monitor")
	}
	if _, ok := fused.Filter.(*ast.And); !ok {
		t.Fatalf("expected fused filter to be an And, got %T", fused.Filter)
	}
}

func TestProgramKeepsNonEmptyRule(t *testing.T) {
	inv := &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}}
	p := &ast.Program{Statements: []ast.Statement{
		&ast.Command{Table: inv, Actions: []ast.Action{&ast.Notify{}}},
	}}
	got := Program(p)
	if got == nil {
		t.Fatalf("expected the surviving rule to be kept")
	}
	if len(got.Rules()) != 1 {
		t.Fatalf("expected exactly one rule, got %d", len(got.Rules()))
	}
}
