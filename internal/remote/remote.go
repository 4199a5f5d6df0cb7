// Package remote implements the remote-lowering pass: it splits a
// program whose principal names another user into the rewritten local
// program (whose notify actions become synthetic "send" calls) and a
// companion program that waits on the corresponding synthetic "receive"
// query. Program ids are UUIDs; flow tokens are a plain monotonic
// counter, strictly increasing rather than globally unique.
package remote

import (
	"github.com/google/uuid"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

func typeEntity(name string) typesystem.Type { return typesystem.Entity{Name: name} }
func typeString() typesystem.Type            { return typesystem.StringT }
func typeNumber() typesystem.Type            { return typesystem.Number }

// CanonicalRemoteClass is the built-in class every synthetic __dyn_N
// class extends.
const CanonicalRemoteClass = "org.thingpedia.builtin.thingengine.remote"

// Lowerer rewrites one principal-bearing program at a time. Its counters
// are local to the rewriting pass, not shared across programs.
type Lowerer struct {
	classSeq int
	flowSeq  int64
}

// New returns a Lowerer with fresh counters.
func New() *Lowerer {
	return &Lowerer{}
}

// Result is the pair of programs LowerProgram produces.
type Result struct {
	Theirs *ast.Program // p, rewritten: every remote notify becomes a send action
	Ours   *ast.Program // nil if p had no remote notify actions
}

// LowerProgram rewrites p in place for self (the identity actually
// running it). If p.Principal is nil or equals self, p is returned
// unchanged with a nil companion program.
func (l *Lowerer) LowerProgram(p *ast.Program, self ast.EntityValue) (*Result, error) {
	if p.Principal == nil || p.Principal.ID == self.ID {
		return &Result{Theirs: p}, nil
	}

	var ourRules []ast.Statement
	for _, s := range p.Statements {
		switch n := s.(type) {
		case *ast.Rule:
			upstream := n.Stream.GetSchema()
			for i, a := range n.Actions {
				if _, ok := a.(*ast.Notify); !ok {
					continue
				}
				sendAction, ourRule, err := l.lowerNotify(upstream, *p.Principal, self)
				if err != nil {
					return nil, err
				}
				n.Actions[i] = sendAction
				ourRules = append(ourRules, ourRule)
			}
		case *ast.Command:
			var upstream *ast.Schema
			if n.Table != nil {
				upstream = n.Table.GetSchema()
			}
			for i, a := range n.Actions {
				if _, ok := a.(*ast.Notify); !ok {
					continue
				}
				sendAction, ourRule, err := l.lowerNotify(upstream, *p.Principal, self)
				if err != nil {
					return nil, err
				}
				n.Actions[i] = sendAction
				ourRules = append(ourRules, ourRule)
			}
		}
	}

	result := &Result{Theirs: p}
	if len(ourRules) > 0 {
		result.Ours = &ast.Program{Statements: ourRules}
	}
	return result, nil
}

// lowerNotify builds the synthetic send ActionInvocation that replaces
// one remote Notify, plus the companion Rule that receives it.
func (l *Lowerer) lowerNotify(upstream *ast.Schema, remote, self ast.EntityValue) (ast.Action, ast.Statement, error) {
	className := l.nextClass()
	flow := l.nextFlow()
	programID := uuid.NewString()

	outputs := upstream.OutputArgs()
	sendArgs := append(envelopeArgs(ast.InReq), outputArgsAsDirection(outputs, ast.InReq)...)
	sendFn := &ast.FunctionDef{Kind: "action", Class: className, Name: "send", Args: sendArgs}

	inParams := envelopeInParams(remote, programID, flow, upstream)
	for _, o := range outputs {
		inParams = append(inParams, ast.InputParam{Name: o.Name, Value: &ast.VarRef{Name: o.Name}})
	}

	sendInv := &ast.Invocation{
		Selector: ast.Selector{Kind: className},
		Channel:  "send",
		InParams: inParams,
		Schema:   &ast.Schema{Args: sendFn.Args, Function: sendFn},
	}
	sendAction := &ast.ActionInvocation{Invocation: sendInv, Schema: sendInv.Schema}

	receiveClassName := l.nextClass()
	receiveArgs := append(envelopeArgs(ast.Out), outputArgsAsDirection(outputs, ast.Out)...)
	receiveFn := &ast.FunctionDef{
		Kind: "query", Class: receiveClassName, Name: "receive",
		Args: receiveArgs, IsList: false, IsMonitorable: true,
	}
	receiveTable := &ast.TableInvocation{
		Invocation: &ast.Invocation{
			Selector: ast.Selector{Kind: receiveClassName},
			Channel:  "receive",
			Schema:   &ast.Schema{Args: receiveFn.Args, Function: receiveFn, IsMonitorable: true},
		},
		Schema: &ast.Schema{Args: receiveFn.Args, Function: receiveFn, IsMonitorable: true},
	}
	monitor := &ast.Monitor{Table: receiveTable, Schema: receiveTable.Schema}
	filter := &ast.And{Ops: []ast.BooleanExpression{
		&ast.Atom{Name: "principal", Operator: "==", Value: &ast.EntityValue{ID: remote.ID, Type: remote.Type}},
		&ast.Atom{Name: "program_id", Operator: "==", Value: &ast.StringValue{Value: programID}},
		&ast.Atom{Name: "flow", Operator: "==", Value: &ast.NumberValue{Value: float64(flow)}},
	}}
	ourRule := &ast.Rule{
		Stream:  &ast.StreamFilter{Stream: monitor, Filter: filter, Schema: monitor.Schema},
		Actions: []ast.Action{&ast.Notify{Schema: monitor.Schema}},
	}

	return sendAction, ourRule, nil
}

func (l *Lowerer) nextClass() string {
	name := classNameFor(l.classSeq)
	l.classSeq++
	return name
}

func classNameFor(n int) string {
	return "__dyn_" + itoa(n)
}

func (l *Lowerer) nextFlow() int64 {
	l.flowSeq++
	return l.flowSeq
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// envelopeArgs returns the fixed {principal, program_id, flow,
// kindChannel} argument shape shared by send's input schema and
// receive's output schema, in dir.
func envelopeArgs(dir ast.ArgDirection) []ast.ArgumentDef {
	return []ast.ArgumentDef{
		{Name: "principal", Type: typeEntity("tt:contact"), Direction: dir},
		{Name: "program_id", Type: typeString(), Direction: dir},
		{Name: "flow", Type: typeNumber(), Direction: dir},
		{Name: "kindChannel", Type: typeString(), Direction: dir},
	}
}

func envelopeInParams(remote ast.EntityValue, programID string, flow int64, upstream *ast.Schema) []ast.InputParam {
	kindChannel := ""
	if upstream != nil && upstream.Function != nil {
		kindChannel = upstream.Function.Class + "." + upstream.Function.Name
	}
	return []ast.InputParam{
		{Name: "principal", Value: &ast.EntityValue{ID: remote.ID, Type: remote.Type}},
		{Name: "program_id", Value: &ast.StringValue{Value: programID}},
		{Name: "flow", Value: &ast.NumberValue{Value: float64(flow)}},
		{Name: "kindChannel", Value: &ast.StringValue{Value: kindChannel}},
	}
}

func outputArgsAsDirection(args []ast.ArgumentDef, dir ast.ArgDirection) []ast.ArgumentDef {
	out := make([]ast.ArgumentDef, len(args))
	for i, a := range args {
		out[i] = ast.ArgumentDef{Name: a.Name, Type: a.Type, Direction: dir}
	}
	return out
}
