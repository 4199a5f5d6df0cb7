// Package smtlib is a small builder for SMT-LIB terms: the target "IR"
// the encoder lowers a checked Program into. Terms are printed, not
// executed — the solverclient package hands the printed form to an
// external SMT solver process.
package smtlib

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is any SMT-LIB s-expression.
type Term interface {
	String() string
}

// Atom is a bare symbol: a variable name, a sort name, a reserved word.
type Atom string

func (a Atom) String() string { return string(a) }

// IntLit is an integer literal.
type IntLit int64

func (i IntLit) String() string { return strconv.FormatInt(int64(i), 10) }

// RealLit is a real (decimal) literal, always printed with a decimal
// point so the solver doesn't read it as an Int.
type RealLit float64

func (r RealLit) String() string {
	s := strconv.FormatFloat(float64(r), 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// StringLit is an SMT-LIB string literal, with internal quotes doubled
// per the SMT-LIB 2.6 string escaping rule.
type StringLit string

func (s StringLit) String() string {
	return `"` + strings.ReplaceAll(string(s), `"`, `""`) + `"`
}

// BoolLit is `true` / `false`.
type BoolLit bool

func (b BoolLit) String() string {
	if b {
		return "true"
	}
	return "false"
}

// App is a function application `(head arg0 arg1 ...)`.
type App struct {
	Head string
	Args []Term
}

func (a App) String() string {
	if len(a.Args) == 0 {
		return a.Head
	}
	parts := make([]string, len(a.Args))
	for i, arg := range a.Args {
		parts[i] = arg.String()
	}
	return fmt.Sprintf("(%s %s)", a.Head, strings.Join(parts, " "))
}

func Apply(head string, args ...Term) Term { return App{Head: head, Args: args} }

func And(terms ...Term) Term {
	if len(terms) == 1 {
		return terms[0]
	}
	return Apply("and", terms...)
}

func Or(terms ...Term) Term {
	if len(terms) == 1 {
		return terms[0]
	}
	return Apply("or", terms...)
}

func Not(t Term) Term                     { return Apply("not", t) }
func Implies(a, b Term) Term               { return Apply("=>", a, b) }
func Eq(a, b Term) Term                    { return Apply("=", a, b) }
func Ite(cond, then, els Term) Term        { return Apply("ite", cond, then, els) }

// DeclareConst emits `(declare-const name sort)`.
func DeclareConst(name, sort string) string {
	return fmt.Sprintf("(declare-const %s %s)", name, sort)
}

// DeclareSort emits `(declare-sort name 0)` for an uninterpreted sort.
func DeclareSort(name string) string {
	return fmt.Sprintf("(declare-sort %s 0)", name)
}

// AssertStmt emits `(assert term)`.
func AssertStmt(t Term) string {
	return fmt.Sprintf("(assert %s)", t.String())
}
