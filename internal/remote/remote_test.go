package remote

import (
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

func monitoredRule() (*ast.Program, *ast.Rule) {
	fn := &ast.FunctionDef{
		Kind: "query", Class: "com.xkcd", Name: "get_comic", IsMonitorable: true,
		Args: []ast.ArgumentDef{
			{Name: "title", Type: typesystem.StringT, Direction: ast.Out},
			{Name: "link", Type: typesystem.StringT, Direction: ast.Out},
		},
	}
	schema := &ast.Schema{Args: fn.Args, IsMonitorable: true, Function: fn}
	table := &ast.TableInvocation{
		Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic", Schema: schema},
		Schema:     schema,
	}
	rule := &ast.Rule{
		Stream:  &ast.Monitor{Table: table, Schema: schema},
		Actions: []ast.Action{&ast.Notify{Schema: schema}},
	}
	prog := &ast.Program{
		Principal:  &ast.EntityValue{ID: "contact_X", Type: "tt:contact"},
		Statements: []ast.Statement{rule},
	}
	return prog, rule
}

func TestLowerProgramSelfIsNoop(t *testing.T) {
	prog, rule := monitoredRule()
	prog.Principal = &ast.EntityValue{ID: "me", Type: "tt:contact"}
	res, err := New().LowerProgram(prog, ast.EntityValue{ID: "me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ours != nil {
		t.Fatalf("expected no companion program for a self-principal")
	}
	if _, ok := rule.Actions[0].(*ast.Notify); !ok {
		t.Fatalf("expected the notify action untouched")
	}
}

func TestLowerProgramSplitsRemoteNotify(t *testing.T) {
	prog, rule := monitoredRule()
	res, err := New().LowerProgram(prog, ast.EntityValue{ID: "me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Their side: notify replaced by a send into the synthetic __dyn class.
	sendAction, ok := rule.Actions[0].(*ast.ActionInvocation)
	if !ok {
		t.Fatalf("expected the notify to be rewritten to an action invocation, got %T", rule.Actions[0])
	}
	if sendAction.Invocation.Channel != "send" {
		t.Fatalf("expected a send channel, got %q", sendAction.Invocation.Channel)
	}
	if sendAction.Invocation.Selector.Kind != "__dyn_0" {
		t.Fatalf("expected the first synthetic class to be __dyn_0, got %q", sendAction.Invocation.Selector.Kind)
	}
	// Envelope + one in-param per producer output.
	if len(sendAction.Invocation.InParams) != 4+2 {
		t.Fatalf("expected 6 in-params (envelope + outputs), got %d", len(sendAction.Invocation.InParams))
	}

	// Our side: a rule monitoring the receive channel, filtered on
	// principal/program_id/flow, draining into notify.
	if res.Ours == nil || len(res.Ours.Statements) != 1 {
		t.Fatalf("expected exactly one companion rule")
	}
	ourRule, ok := res.Ours.Statements[0].(*ast.Rule)
	if !ok {
		t.Fatalf("expected a Rule, got %T", res.Ours.Statements[0])
	}
	sf, ok := ourRule.Stream.(*ast.StreamFilter)
	if !ok {
		t.Fatalf("expected a filtered stream, got %T", ourRule.Stream)
	}
	mon, ok := sf.Stream.(*ast.Monitor)
	if !ok {
		t.Fatalf("expected a monitor under the filter, got %T", sf.Stream)
	}
	recv := mon.Table.(*ast.TableInvocation)
	if recv.Invocation.Channel != "receive" {
		t.Fatalf("expected a receive channel, got %q", recv.Invocation.Channel)
	}
	and, ok := sf.Filter.(*ast.And)
	if !ok || len(and.Ops) != 3 {
		t.Fatalf("expected a 3-way conjunction over principal/program_id/flow, got %T", sf.Filter)
	}
	names := map[string]bool{}
	for _, op := range and.Ops {
		names[op.(*ast.Atom).Name] = true
	}
	for _, want := range []string{"principal", "program_id", "flow"} {
		if !names[want] {
			t.Fatalf("expected a filter atom on %q, got %v", want, names)
		}
	}
	if _, ok := ourRule.Actions[0].(*ast.Notify); !ok {
		t.Fatalf("expected the companion rule to drain into notify")
	}
}

func TestFlowTokensIncrease(t *testing.T) {
	l := New()
	a := l.nextFlow()
	b := l.nextFlow()
	if b <= a {
		t.Fatalf("expected monotonically increasing flow tokens, got %d then %d", a, b)
	}
}
