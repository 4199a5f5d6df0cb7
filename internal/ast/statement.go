package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

// Declaration binds Name to a Stream/Table/Action/Value for later VarRef
// use within the same Program.
type Declaration struct {
	Tok   token.Token
	Name  string
	Kind  string // "stream" | "table" | "action" | "value"
	Value Node   // one of Stream / Table / Action / Value
}

func (n *Declaration) GetToken() token.Token { return n.Tok }
func (n *Declaration) Accept(v Visitor)      { v.VisitDeclaration(n) }
func (n *Declaration) statementNode()        {}

// Assignment rebinds a previously declared local table/stream.
type Assignment struct {
	Tok   token.Token
	Name  string
	Value Node
}

func (n *Assignment) GetToken() token.Token { return n.Tok }
func (n *Assignment) Accept(v Visitor)      { v.VisitAssignment(n) }
func (n *Assignment) statementNode()        {}

// Rule is `stream => action, action, ...`.
type Rule struct {
	Tok     token.Token
	Stream  Stream
	Actions []Action
}

func (n *Rule) GetToken() token.Token { return n.Tok }
func (n *Rule) Accept(v Visitor)      { v.VisitRule(n) }
func (n *Rule) statementNode()        {}

// Command is `now => table => action, ...` (Table may be nil for a
// table-less `now => action`).
type Command struct {
	Tok     token.Token
	Table   Table // nil for a bare "now =>"
	Actions []Action
}

func (n *Command) GetToken() token.Token { return n.Tok }
func (n *Command) Accept(v Visitor)      { v.VisitCommand(n) }
func (n *Command) statementNode()        {}

// OnInputChoice models a dialog-agent slot-filling choice point; carried
// through typecheck/optimize untouched since it has no filter/projection
// shape of its own.
type OnInputChoice struct {
	Tok     token.Token
	Actions []Action
}

func (n *OnInputChoice) GetToken() token.Token { return n.Tok }
func (n *OnInputChoice) Accept(v Visitor)      { v.VisitOnInputChoice(n) }
func (n *OnInputChoice) statementNode()        {}

// Program is the root node: classes, statements, and an optional remote
// principal.
type Program struct {
	Tok        token.Token
	Classes    []*ClassDef
	Statements []Statement
	Principal  *EntityValue // non-nil means this program targets a remote user
}

func (p *Program) GetToken() token.Token { return p.Tok }
func (p *Program) Accept(v Visitor)      { v.VisitProgram(p) }

// Rules returns only the Rule/Command statements, skipping declarations —
// the view the optimizer and permission checker operate over.
func (p *Program) Rules() []Statement {
	var out []Statement
	for _, s := range p.Statements {
		switch s.(type) {
		case *Rule, *Command:
			out = append(out, s)
		}
	}
	return out
}
