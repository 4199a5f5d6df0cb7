package thingtalk

import (
	"context"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/schema/fixtures"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

const catalogueYAML = `
classes:
  - name: com.xkcd
    queries:
      - name: get_comic
        monitorable: true
        args:
          - {name: number, type: Number, direction: in_opt}
          - {name: title, type: String, direction: out}
          - {name: link, type: String, direction: out}
`

// fixtureDecode returns a canned program regardless of source: the real
// grammar is out of scope, so facade tests drive the pipeline with
// hand-built ASTs behind the pluggable Decode seam.
func fixtureDecode(prog *ast.Program) Decode {
	return func(string) (*ast.Program, error) { return prog, nil }
}

func newFixtureFacade(t *testing.T, prog *ast.Program) *Facade {
	t.Helper()
	store, err := fixtures.Load([]byte(catalogueYAML))
	if err != nil {
		t.Fatalf("fixture load: %v", err)
	}
	return New(store, fixtureDecode(prog), store.Decode, nil, nil, nil)
}

func TestParseAndTypecheckResolvesAndOptimizes(t *testing.T) {
	inv := &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic"}
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Command{
			Table: &ast.TableFilter{
				Table: &ast.TableInvocation{Invocation: inv},
				Filter: &ast.And{Ops: []ast.BooleanExpression{
					&ast.True{},
					&ast.Atom{Name: "title", Operator: "=~", Value: &ast.StringValue{Value: "cat"}},
				}},
			},
			Actions: []ast.Action{&ast.Notify{}},
		},
	}}
	f := newFixtureFacade(t, prog)

	out, err := f.ParseAndTypecheck(context.Background(), "now => @com.xkcd.get_comic(), title =~ \"cat\" => notify;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatalf("expected the program to survive")
	}
	if inv.Schema == nil || inv.Schema.Function == nil {
		t.Fatalf("expected the schema slot to be filled from the fixture catalogue")
	}
	cmd := out.Statements[0].(*ast.Command)
	tf, ok := cmd.Table.(*ast.TableFilter)
	if !ok {
		t.Fatalf("expected a filter to survive, got %T", cmd.Table)
	}
	if _, stillAnd := tf.Filter.(*ast.And); stillAnd {
		t.Fatalf("expected the True conjunct folded away, got %T", tf.Filter)
	}
}

func TestParseAndTypecheckUnknownKind(t *testing.T) {
	prog := &ast.Program{Statements: []ast.Statement{
		&ast.Command{
			Table:   &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.nope"}, Channel: "q"}},
			Actions: []ast.Action{&ast.Notify{}},
		},
	}}
	f := newFixtureFacade(t, prog)
	if _, err := f.ParseAndTypecheck(context.Background(), "now => @com.nope.q() => notify;"); err == nil {
		t.Fatalf("expected an unknown-kind error")
	}
}

func TestLowerRemoteProducesCompanionProgram(t *testing.T) {
	fn := &ast.FunctionDef{
		Kind: "query", Class: "com.xkcd", Name: "get_comic", IsMonitorable: true,
		Args: []ast.ArgumentDef{{Name: "title", Type: typesystem.StringT, Direction: ast.Out}},
	}
	schema := &ast.Schema{Args: fn.Args, IsMonitorable: true, Function: fn}
	prog := &ast.Program{
		Principal: &ast.EntityValue{ID: "contact_X", Type: "tt:contact"},
		Statements: []ast.Statement{
			&ast.Rule{
				Stream: &ast.Monitor{
					Table: &ast.TableInvocation{
						Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.xkcd"}, Channel: "get_comic", Schema: schema},
						Schema:     schema,
					},
					Schema: schema,
				},
				Actions: []ast.Action{&ast.Notify{Schema: schema}},
			},
		},
	}
	f := newFixtureFacade(t, prog)
	res, err := f.LowerRemote(prog, ast.EntityValue{ID: "me"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Ours == nil {
		t.Fatalf("expected a companion program for the remote principal")
	}
}
