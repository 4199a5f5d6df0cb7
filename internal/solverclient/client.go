// Package solverclient is the pluggable interface to an external SMT
// solver, plus a subprocess-driven implementation that speaks
// SMT-LIB text over stdin/stdout — the same shape real solvers like z3 or
// cvc5 expose on their command line.
package solverclient

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/thingtalk-lang/ttcore/internal/diagnostics"
	"github.com/thingtalk-lang/ttcore/internal/smt/smtlib"
	"github.com/thingtalk-lang/ttcore/internal/token"
)

// Result is the solver's sat/unsat/unknown outcome for one CheckSat call.
type Result int

const (
	Unknown Result = iota
	Sat
	Unsat
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Verdict is the full CheckSat response: the outcome plus, when
// assignments were enabled and the outcome is sat, the model's values for
// free boolean names (the encoder's constr_N/filter_N variables) and
// printable constants. UnsatCore lists the named assertions a solver
// reported as jointly unsatisfiable, when it produced one.
type Verdict struct {
	Result     Result
	Assignment map[string]bool
	Constants  map[string]string
	UnsatCore  []string
}

// Client is the permission checker's view of a solver session: accumulate
// declarations and assertions, then ask once whether they're jointly
// satisfiable.
type Client interface {
	Add(term smtlib.Term)
	Assert(term smtlib.Term)
	EnableAssignments()
	CheckSat(ctx context.Context) (Verdict, error)
}

// SubprocessClient drives an external solver binary (e.g. "z3 -in")
// by writing SMT-LIB commands to its stdin and reading the
// "sat"/"unsat"/"unknown" line — plus, with assignments enabled, the
// model — from its stdout.
type SubprocessClient struct {
	Command []string
	Debug   bool // when true, dump every asserted term to Stderr before CheckSat

	Stderr io.Writer

	decls     []string
	asserts   []string
	wantModel bool
}

// NewSubprocessClient returns a client that will invoke command (e.g.
// []string{"z3", "-in"}) on the first CheckSat call.
func NewSubprocessClient(command []string) *SubprocessClient {
	return &SubprocessClient{Command: command}
}

func (c *SubprocessClient) Add(term smtlib.Term) {
	c.decls = append(c.decls, term.String())
}

func (c *SubprocessClient) Assert(term smtlib.Term) {
	c.asserts = append(c.asserts, smtlib.AssertStmt(term))
}

func (c *SubprocessClient) EnableAssignments() {
	if !c.wantModel {
		c.wantModel = true
		c.decls = append([]string{"(set-option :produce-models true)"}, c.decls...)
	}
}

// CheckSat starts the subprocess, feeds every accumulated declaration and
// assertion followed by "(check-sat)", and parses the response. When
// assignments were enabled and the verdict is sat, a "(get-model)" round
// extracts boolean assignments and printable constants.
func (c *SubprocessClient) CheckSat(ctx context.Context) (Verdict, error) {
	if c.Debug {
		c.dump()
	}
	if len(c.Command) == 0 {
		return Verdict{}, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS001, token.Token{}, "no solver command configured")
	}

	cmd := exec.CommandContext(ctx, c.Command[0], c.Command[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return Verdict{}, diagnostics.WrapError(diagnostics.PhaseSMT, token.Token{}, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Verdict{}, diagnostics.WrapError(diagnostics.PhaseSMT, token.Token{}, err)
	}
	if err := cmd.Start(); err != nil {
		return Verdict{}, diagnostics.WrapError(diagnostics.PhaseSMT, token.Token{}, err)
	}

	for _, d := range c.decls {
		fmt.Fprintln(stdin, d)
	}
	for _, a := range c.asserts {
		fmt.Fprintln(stdin, a)
	}
	fmt.Fprintln(stdin, "(check-sat)")

	scanner := bufio.NewScanner(stdout)
	var verdict string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "sat" || line == "unsat" || line == "unknown" {
			verdict = line
			break
		}
	}

	out := Verdict{}
	if verdict == "sat" && c.wantModel {
		fmt.Fprintln(stdin, "(get-model)")
		fmt.Fprintln(stdin, "(exit)")
		stdin.Close()
		out.Assignment, out.Constants = parseModel(scanner)
	} else {
		fmt.Fprintln(stdin, "(exit)")
		stdin.Close()
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return Verdict{}, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS002, token.Token{})
	}
	switch verdict {
	case "sat":
		out.Result = Sat
		return out, nil
	case "unsat":
		out.Result = Unsat
		return out, nil
	case "unknown":
		return out, nil
	default:
		if waitErr != nil {
			return Verdict{}, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS001, token.Token{}, waitErr.Error())
		}
		return Verdict{}, diagnostics.NewPhaseError(diagnostics.PhaseSMT, diagnostics.ErrS001, token.Token{}, "solver produced no verdict")
	}
}

// parseModel extracts "(define-fun name () Bool true)" lines into the
// assignment map and other single-line define-funs into Constants. SMT-LIB
// model syntax varies a little between solvers; this handles the
// one-binding-per-line form z3 and cvc5 both print.
func parseModel(scanner *bufio.Scanner) (map[string]bool, map[string]string) {
	assignment := make(map[string]bool)
	constants := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		idx := strings.Index(line, "define-fun ")
		if idx < 0 {
			continue
		}
		rest := line[idx+len("define-fun "):]
		fields := strings.Fields(rest)
		if len(fields) < 4 {
			continue
		}
		name := fields[0]
		value := strings.TrimSuffix(fields[len(fields)-1], ")")
		if fields[2] == "Bool" {
			assignment[name] = value == "true"
			continue
		}
		constants[name] = value
	}
	return assignment, constants
}

// dump writes every declaration and assertion to Stderr, colorized only
// when Stderr is a terminal.
func (c *SubprocessClient) dump() {
	w := c.Stderr
	if w == nil {
		return
	}
	colorize := false
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, d := range c.decls {
		writeLine(w, d, colorize, "36")
	}
	for _, a := range c.asserts {
		writeLine(w, a, colorize, "33")
	}
}

func writeLine(w io.Writer, s string, colorize bool, ansiCode string) {
	if colorize {
		fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m\n", ansiCode, s)
		return
	}
	fmt.Fprintln(w, s)
}
