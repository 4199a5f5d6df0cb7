package optimize

import "github.com/thingtalk-lang/ttcore/internal/ast"

// Stream recurses into s's children first, then applies the
// stream-level rewrites. A nil result marks a dead stream (a
// constant-False filter); Statement deletes the enclosing rule.
func Stream(s ast.Stream) (ast.Stream, bool) {
	changed := false
	switch n := s.(type) {
	case *ast.Monitor:
		table, c := Table(n.Table)
		if table == nil {
			return nil, true
		}
		n.Table = table
		changed = changed || c

	case *ast.EdgeNew:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
		changed = changed || c
		switch in := inner.(type) {
		case *ast.Monitor:
			return in, true
		case *ast.EdgeNew:
			return in, true
		}

	case *ast.EdgeFilter:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
		changed = changed || c
		f, fc := Boolean(n.Filter)
		if _, dead := f.(*ast.False); dead {
			return nil, true
		}
		n.Filter = f
		changed = changed || fc

	case *ast.StreamFilter:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
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

		if sub, ok := inner.(*ast.StreamFilter); ok {
			fused := &ast.StreamFilter{
				Tok:    n.Tok,
				Stream: sub.Stream,
				Filter: &ast.And{Tok: n.Tok, Ops: []ast.BooleanExpression{sub.Filter, n.Filter}},
				Schema: n.Schema,
			}
			return fused, true
		}
		if mon, ok := inner.(*ast.Monitor); ok {
			pushed := &ast.Monitor{
				Tok:    mon.Tok,
				Args:   mon.Args,
				Schema: n.Schema,
				Table: &ast.TableFilter{
					Tok:    n.Tok,
					Table:  mon.Table,
					Filter: n.Filter,
					Schema: mon.Table.GetSchema(),
				},
			}
			return pushed, true
		}
		if proj, ok := inner.(*ast.StreamProjection); ok && referencesOnly(n.Filter, proj.Args) {
			commuted := &ast.StreamProjection{
				Tok:          proj.Tok,
				Args:         proj.Args,
				Computations: proj.Computations,
				Schema:       n.Schema,
				Stream: &ast.StreamFilter{
					Tok:    n.Tok,
					Stream: proj.Stream,
					Filter: n.Filter,
					Schema: proj.Stream.GetSchema(),
				},
			}
			return commuted, true
		}

	case *ast.StreamProjection:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
		changed = changed || c

	case *ast.StreamCompute:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
		changed = changed || c

	case *ast.StreamAlias:
		inner, c := Stream(n.Stream)
		if inner == nil {
			return nil, true
		}
		n.Stream = inner
		changed = changed || c

	case *ast.StreamJoin:
		lhs, lc := Stream(n.Stream)
		rhs, rc := Table(n.Table)
		if lhs == nil || rhs == nil {
			return nil, true
		}
		n.Stream = lhs
		n.Table = rhs
		changed = changed || lc || rc

	case *ast.StreamVarRef, *ast.Timer, *ast.AtTimer:
		// leaves: nothing to recurse into

	}
	return s, changed
}
