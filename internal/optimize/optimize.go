// Package optimize implements ThingTalk's algebraic AST optimizer: an
// idempotent, in-place rewriter that folds constant filters, fuses
// filter-of-filter, commutes filter past projection and monitor, and
// deletes dead branches. Rewrites are free functions over the concrete
// Stream/Table/Boolean union rather than methods on the AST types —
// optimization is a pass over the tree, not a capability of the tree.
package optimize

import "github.com/thingtalk-lang/ttcore/internal/ast"

// Program runs every rewrite to a fixpoint and drops rules whose action
// list became empty. It returns nil when no rule survives.
func Program(p *ast.Program) *ast.Program {
	if p == nil {
		return nil
	}
	out := &ast.Program{Tok: p.Tok, Classes: p.Classes, Principal: p.Principal}
	for _, s := range p.Statements {
		switch s.(type) {
		case *ast.Rule, *ast.Command:
			if rs := Statement(s); rs != nil {
				out.Statements = append(out.Statements, rs)
			}
		default:
			out.Statements = append(out.Statements, s)
		}
	}
	if len(out.Rules()) == 0 {
		return nil
	}
	return out
}

// Statement optimizes one Rule or Command to a fixpoint, returning nil
// when its stream/table is dead or its action list ends up empty.
func Statement(s ast.Statement) ast.Statement {
	switch n := s.(type) {
	case *ast.Rule:
		for {
			stream, changed := Stream(n.Stream)
			if stream == nil {
				return nil
			}
			n.Stream = stream
			if !changed {
				break
			}
		}
		if len(n.Actions) == 0 {
			return nil
		}
		return n
	case *ast.Command:
		if n.Table != nil {
			for {
				table, changed := Table(n.Table)
				if table == nil {
					return nil
				}
				n.Table = table
				if !changed {
					break
				}
			}
		}
		if len(n.Actions) == 0 {
			return nil
		}
		return n
	default:
		return s
	}
}

// Boolean folds b to a fixpoint: And/Or flattening and constant folding,
// Not(True/False) collapse, Not(Not(x)) cancellation, and
// Atom{x op x} → True for reflexive operators.
func Boolean(b ast.BooleanExpression) (ast.BooleanExpression, bool) {
	changed := false
	for {
		next, c := booleanStep(b)
		b = next
		if !c {
			break
		}
		changed = true
	}
	return b, changed
}

func booleanStep(b ast.BooleanExpression) (ast.BooleanExpression, bool) {
	switch n := b.(type) {
	case *ast.And:
		return foldConnective(n.Ops, true, func(ops []ast.BooleanExpression) ast.BooleanExpression {
			if len(ops) == 0 {
				return &ast.True{Tok: n.Tok}
			}
			if len(ops) == 1 {
				return ops[0]
			}
			return &ast.And{Tok: n.Tok, Ops: ops}
		})
	case *ast.Or:
		return foldConnective(n.Ops, false, func(ops []ast.BooleanExpression) ast.BooleanExpression {
			if len(ops) == 0 {
				return &ast.False{Tok: n.Tok}
			}
			if len(ops) == 1 {
				return ops[0]
			}
			return &ast.Or{Tok: n.Tok, Ops: ops}
		})
	case *ast.Not:
		inner, innerChanged := Boolean(n.Op)
		switch in := inner.(type) {
		case *ast.True:
			return &ast.False{Tok: n.Tok}, true
		case *ast.False:
			return &ast.True{Tok: n.Tok}, true
		case *ast.Not:
			return in.Op, true
		}
		n.Op = inner
		return n, innerChanged
	case *ast.Atom:
		if isSelfComparison(n) {
			return &ast.True{Tok: n.Tok}, true
		}
		return n, false
	case *ast.External:
		inner, changed := Boolean(n.Filter)
		n.Filter = inner
		return n, changed
	default:
		return n, false
	}
}

// isSelfComparison matches Atom{x op x} for the reflexive operators.
func isSelfComparison(n *ast.Atom) bool {
	switch n.Operator {
	case "==", "=~", "<=", ">=":
	default:
		return false
	}
	ref, ok := n.Value.(*ast.VarRef)
	return ok && ref.Name == n.Name
}

// foldConnective flattens nested same-kind connectives, drops the
// connective's absorbing identity's complement (True in an And, False in
// an Or), and short-circuits to the absorbing element (False in an And,
// True in an Or) if present.
func foldConnective(ops []ast.BooleanExpression, isAnd bool, rebuild func([]ast.BooleanExpression) ast.BooleanExpression) (ast.BooleanExpression, bool) {
	changed := false
	var flat []ast.BooleanExpression
	for _, op := range ops {
		next, c := Boolean(op)
		if c {
			changed = true
		}
		switch same := next.(type) {
		case *ast.And:
			if isAnd {
				flat = append(flat, same.Ops...)
				changed = true
				continue
			}
		case *ast.Or:
			if !isAnd {
				flat = append(flat, same.Ops...)
				changed = true
				continue
			}
		}
		flat = append(flat, next)
	}

	var kept []ast.BooleanExpression
	for _, op := range flat {
		if isAnd {
			if _, ok := op.(*ast.True); ok {
				changed = true
				continue
			}
			if _, ok := op.(*ast.False); ok {
				return &ast.False{Tok: op.GetToken()}, true
			}
		} else {
			if _, ok := op.(*ast.False); ok {
				changed = true
				continue
			}
			if _, ok := op.(*ast.True); ok {
				return &ast.True{Tok: op.GetToken()}, true
			}
		}
		kept = append(kept, op)
	}
	if len(kept) != len(ops) {
		changed = true
	}
	return rebuild(kept), changed
}
