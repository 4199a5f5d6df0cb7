package typecheck

import (
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/catalogue"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// weather exposes a city the events query then requires as input, so the
// join's in_params can satisfy the rhs requirement from the lhs scope.
func joinCatalogue() *catalogue.Catalogue {
	cat := catalogue.New()
	cat.Add(&ast.ClassDef{
		Name: "com.weather",
		Queries: map[string]*ast.FunctionDef{
			"current": {
				Kind: "query", Class: "com.weather", Name: "current",
				IsList: false, IsMonitorable: true,
				Args: []ast.ArgumentDef{
					{Name: "city", Type: typesystem.StringT, Direction: ast.Out},
					{Name: "temperature", Type: typesystem.Measure{Unit: "C"}, Direction: ast.Out},
				},
			},
		},
	})
	cat.Add(&ast.ClassDef{
		Name: "com.events",
		Queries: map[string]*ast.FunctionDef{
			"search": {
				Kind: "query", Class: "com.events", Name: "search",
				IsList: true, IsMonitorable: false,
				Args: []ast.ArgumentDef{
					{Name: "city", Type: typesystem.StringT, Direction: ast.InReq},
					{Name: "title", Type: typesystem.StringT, Direction: ast.Out},
				},
			},
		},
	})
	return cat
}

func weatherTable() *ast.TableInvocation {
	return &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.weather"}, Channel: "current"}}
}

func eventsTable() *ast.TableInvocation {
	return &ast.TableInvocation{Invocation: &ast.Invocation{Selector: ast.Selector{Kind: "com.events"}, Channel: "search"}}
}

func TestTableJoinRequiredInputSatisfiedFromLHS(t *testing.T) {
	c := New(joinCatalogue(), nil)
	join := &ast.TableJoin{
		LHS: weatherTable(),
		RHS: eventsTable(),
		InParams: []ast.InputParam{
			{Name: "city", Value: &ast.VarRef{Name: "city"}},
		},
	}
	schema, err := c.checkTable(join)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"city", "temperature", "title"} {
		if _, ok := schema.Arg(name); !ok {
			t.Fatalf("expected the joined schema to carry %q, got %+v", name, schema.Args)
		}
	}
	if !schema.IsList {
		t.Fatalf("expected is_list = lhs ∨ rhs to be true")
	}
	if schema.IsMonitorable {
		t.Fatalf("expected is_monitorable = lhs ∧ rhs to be false")
	}
	if join.Schema == nil {
		t.Fatalf("expected the join node's Schema slot to be written")
	}
}

func TestTableJoinMissingRequiredInput(t *testing.T) {
	c := New(joinCatalogue(), nil)
	join := &ast.TableJoin{LHS: weatherTable(), RHS: eventsTable()}
	_, err := c.checkTable(join)
	checkErr(t, err, diagnostics.ErrT003)
}

func TestTableJoinInParamTypeMismatch(t *testing.T) {
	c := New(joinCatalogue(), nil)
	join := &ast.TableJoin{
		LHS: weatherTable(),
		RHS: eventsTable(),
		InParams: []ast.InputParam{
			{Name: "city", Value: &ast.VarRef{Name: "temperature"}},
		},
	}
	_, err := c.checkTable(join)
	checkErr(t, err, diagnostics.ErrT002)
}

func TestStreamJoinInheritsMonitorability(t *testing.T) {
	c := New(joinCatalogue(), nil)
	join := &ast.StreamJoin{
		Stream: &ast.Monitor{Table: weatherTable()},
		Table:  eventsTable(),
		InParams: []ast.InputParam{
			{Name: "city", Value: &ast.VarRef{Name: "city"}},
		},
	}
	schema, err := c.checkStream(join)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if schema.IsMonitorable {
		t.Fatalf("expected the join of a monitor with a non-monitorable query to be non-monitorable")
	}
	if _, ok := schema.Arg("title"); !ok {
		t.Fatalf("expected the rhs output in the joined schema")
	}
}
