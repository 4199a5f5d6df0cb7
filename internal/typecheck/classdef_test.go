package typecheck

import (
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/catalogue"
	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

func TestCheckLibraryAbstractClassForbidsConfig(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{Name: "com.abstract", Abstract: true, Config: "org.thingpedia.config.none"},
	}, nil)
	checkErr(t, err, diagnostics.ErrT007)
}

func TestCheckLibraryDefaultProjectionMustNameArgs(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{
			Name: "com.bad",
			Queries: map[string]*ast.FunctionDef{
				"q": {
					Kind: "query", Class: "com.bad", Name: "q",
					Args:              []ast.ArgumentDef{{Name: "text", Type: typesystem.StringT, Direction: ast.Out}},
					DefaultProjection: []string{"no_such_arg"},
				},
			},
		},
	}, nil)
	checkErr(t, err, diagnostics.ErrT007)
}

func TestCheckLibraryPollIntervalRequiresMonitorable(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{
			Name: "com.poll",
			Queries: map[string]*ast.FunctionDef{
				"q": {Kind: "query", Class: "com.poll", Name: "q", PollInterval: 60000, IsMonitorable: false},
			},
		},
	}, nil)
	checkErr(t, err, diagnostics.ErrT007)
}

func TestCheckLibraryMonitorableCannotExtendNonMonitorable(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{
			Name: "com.mixed",
			Queries: map[string]*ast.FunctionDef{
				"base":  {Kind: "query", Class: "com.mixed", Name: "base", IsMonitorable: false},
				"child": {Kind: "query", Class: "com.mixed", Name: "child", IsMonitorable: true, Extends: []string{"base"}},
			},
		},
	}, nil)
	checkErr(t, err, diagnostics.ErrT005)
}

func TestCheckLibraryExtendsDuplicateArgTypesMustMatch(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{
			Name: "com.dup",
			Queries: map[string]*ast.FunctionDef{
				"base": {
					Kind: "query", Class: "com.dup", Name: "base",
					Args: []ast.ArgumentDef{{Name: "x", Type: typesystem.Number, Direction: ast.Out}},
				},
				"child": {
					Kind: "query", Class: "com.dup", Name: "child", Extends: []string{"base"},
					Args: []ast.ArgumentDef{{Name: "x", Type: typesystem.StringT, Direction: ast.Out}},
				},
			},
		},
	}, nil)
	checkErr(t, err, diagnostics.ErrT002)
}

func TestCheckLibraryEntityArgsExemptFromExtendsTypeMatch(t *testing.T) {
	c := New(catalogue.New(), nil)
	err := c.CheckLibrary([]*ast.ClassDef{
		{
			Name: "com.ent",
			Queries: map[string]*ast.FunctionDef{
				"base": {
					Kind: "query", Class: "com.ent", Name: "base",
					Args: []ast.ArgumentDef{{Name: "who", Type: typesystem.Entity{Name: "tt:contact"}, Direction: ast.Out}},
				},
				"child": {
					Kind: "query", Class: "com.ent", Name: "child", Extends: []string{"base"},
					Args: []ast.ArgumentDef{{Name: "who", Type: typesystem.Entity{Name: "tt:username"}, Direction: ast.Out}},
				},
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("expected entity-typed duplicate args to be exempt, got %v", err)
	}
}

func TestCheckPermissionRuleResolvesSpecifiedSchema(t *testing.T) {
	c := New(twitterCatalogue(), nil)
	pf := &ast.PermissionFunction{
		Kind: ast.PermSpecified, Class: "com.twitter", Channel: "search",
		Filter: &ast.Atom{Name: "text", Operator: "=~", Value: &ast.StringValue{Value: "cat"}},
	}
	r := &ast.PermissionRule{
		PrincipalFilter: &ast.Atom{Name: "source", Operator: "==", Value: &ast.EntityValue{ID: "alice", Type: "tt:contact"}},
		Query:           pf,
	}
	if err := c.CheckPermissionRule(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pf.Schema == nil || pf.Schema.Function == nil {
		t.Fatalf("expected the specified slot's schema to be resolved")
	}
}

func TestCheckPermissionRuleUnknownChannel(t *testing.T) {
	c := New(twitterCatalogue(), nil)
	r := &ast.PermissionRule{
		Query: &ast.PermissionFunction{Kind: ast.PermSpecified, Class: "com.twitter", Channel: "no_such"},
	}
	checkErr(t, c.CheckPermissionRule(r), diagnostics.ErrT001)
}
