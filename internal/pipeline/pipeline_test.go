package pipeline

import (
	"errors"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
)

func TestRunStopsAtFirstError(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	p := New(
		Func(func(c *Context) *Context { ran = append(ran, "a"); return c }),
		Func(func(c *Context) *Context { ran = append(ran, "b"); c.Err = boom; return c }),
		Func(func(c *Context) *Context { ran = append(ran, "c"); return c }),
	)
	out := p.Run(&Context{Program: &ast.Program{}})
	if out.Err != boom {
		t.Fatalf("expected the stage error to propagate, got %v", out.Err)
	}
	if len(ran) != 2 {
		t.Fatalf("expected the pipeline to stop after the failing stage, ran %v", ran)
	}
}

func TestRunThreadsProgramThroughStages(t *testing.T) {
	replacement := &ast.Program{}
	p := New(Func(func(c *Context) *Context {
		c.Program = replacement
		return c
	}))
	out := p.Run(&Context{Program: &ast.Program{}})
	if out.Program != replacement {
		t.Fatalf("expected the stage's replacement program to come out")
	}
}
