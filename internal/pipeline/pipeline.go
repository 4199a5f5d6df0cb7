// Package pipeline chains the core passes (typecheck, optimize,
// permission-check) behind one Run call. Each stage receives and returns
// the shared Context; a stage that fails records its error and later
// stages are skipped — error propagation is first-error-wins.
package pipeline

import (
	"context"

	"github.com/thingtalk-lang/ttcore/internal/ast"
)

// Context carries one program through the pipeline. Program may become
// nil mid-run (the optimizer and permission checker both reduce an
// all-rules-discarded program to nil); stages must tolerate that and
// pass it through.
type Context struct {
	Ctx     context.Context
	Program *ast.Program
	Err     error
}

// Processor is one pass over the Context.
type Processor interface {
	Process(ctx *Context) *Context
}

// Pipeline is a fixed sequence of processors.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes every stage in order, stopping at the first error.
func (p *Pipeline) Run(initial *Context) *Context {
	ctx := initial
	for _, processor := range p.processors {
		if ctx.Err != nil {
			return ctx
		}
		ctx = processor.Process(ctx)
	}
	return ctx
}

// Func adapts a plain function into a Processor, for stages too small to
// warrant a named type.
type Func func(ctx *Context) *Context

func (f Func) Process(ctx *Context) *Context { return f(ctx) }
