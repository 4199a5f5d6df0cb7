package optimize

import "github.com/thingtalk-lang/ttcore/internal/ast"

// Table recurses into t's children first, then applies the table-level
// rewrites: filter/filter fusion and filter/projection commutation. A
// nil result marks a dead table (a constant-False filter); Statement
// deletes the enclosing command.
func Table(t ast.Table) (ast.Table, bool) {
	changed := false
	switch n := t.(type) {
	case *ast.TableFilter:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c
		f, fc := Boolean(n.Filter)
		switch f.(type) {
		case *ast.True:
			return inner, true
		case *ast.False:
			return nil, true
		}
		n.Filter = f
		changed = changed || fc

		if sub, ok := inner.(*ast.TableFilter); ok {
			fused := &ast.TableFilter{
				Tok:    n.Tok,
				Table:  sub.Table,
				Filter: &ast.And{Tok: n.Tok, Ops: []ast.BooleanExpression{sub.Filter, n.Filter}},
				Schema: n.Schema,
			}
			return fused, true
		}
		if proj, ok := inner.(*ast.TableProjection); ok && referencesOnly(n.Filter, proj.Args) {
			commuted := &ast.TableProjection{
				Tok:          proj.Tok,
				Args:         proj.Args,
				Computations: proj.Computations,
				Schema:       n.Schema,
				Table: &ast.TableFilter{
					Tok:    n.Tok,
					Table:  proj.Table,
					Filter: n.Filter,
					Schema: proj.Table.GetSchema(),
				},
			}
			return commuted, true
		}

	case *ast.TableProjection:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.TableCompute:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.TableAlias:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.Aggregation:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.Sort:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.Index:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.Slice:
		inner, c := Table(n.Table)
		if inner == nil {
			return nil, true
		}
		n.Table = inner
		changed = changed || c

	case *ast.TableJoin:
		lhs, lc := Table(n.LHS)
		rhs, rc := Table(n.RHS)
		if lhs == nil || rhs == nil {
			return nil, true
		}
		n.LHS = lhs
		n.RHS = rhs
		changed = changed || lc || rc

	case *ast.TableVarRef, *ast.TableInvocation:
		// leaves
	}
	return t, changed
}

// referencesOnly reports whether every field f reads from the enclosing
// schema is in names — the guard for the filter/projection commutation
// rewrite.
func referencesOnly(f ast.BooleanExpression, names []string) bool {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}
	for _, ref := range referencedNames(f) {
		if !allowed[ref] {
			return false
		}
	}
	return true
}

func referencedNames(b ast.BooleanExpression) []string {
	switch n := b.(type) {
	case *ast.True, *ast.False, *ast.DontCare:
		return nil
	case *ast.And:
		var out []string
		for _, op := range n.Ops {
			out = append(out, referencedNames(op)...)
		}
		return out
	case *ast.Or:
		var out []string
		for _, op := range n.Ops {
			out = append(out, referencedNames(op)...)
		}
		return out
	case *ast.Not:
		return referencedNames(n.Op)
	case *ast.Atom:
		return append([]string{n.Name}, valueRefs(n.Value)...)
	case *ast.Compute:
		return append(valueRefs(n.LHS), valueRefs(n.RHS)...)
	case *ast.External:
		var out []string
		for _, ip := range n.Invocation.InParams {
			out = append(out, valueRefs(ip.Value)...)
		}
		return out
	default:
		return nil
	}
}

// valueRefs collects every outer-scope field name a Value reads, stopping
// at a FilterValue's own nested Filter (its own separate scope, like
// External's).
func valueRefs(v ast.Value) []string {
	switch n := v.(type) {
	case *ast.VarRef:
		return []string{n.Name}
	case *ast.ArrayValue:
		var out []string
		for _, el := range n.Elements {
			out = append(out, valueRefs(el)...)
		}
		return out
	case *ast.Computation:
		var out []string
		for _, op := range n.Operands {
			out = append(out, valueRefs(op)...)
		}
		return out
	case *ast.ArrayFieldValue:
		return valueRefs(n.Value)
	case *ast.FilterValue:
		return valueRefs(n.Value)
	default:
		return nil
	}
}
