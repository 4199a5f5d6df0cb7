package ast

import "github.com/thingtalk-lang/ttcore/internal/typesystem"

// Clone deep-copies a Statement subtree. The permission checker needs
// an independently-mutable copy of a query or action before rewriting it
// in place with a policy's preconditions —
// mutating the original would corrupt the program for the next policy
// candidate. Every Node variant is copied field-by-field; Schema pointers
// are copied via Schema.Clone so the two trees never alias a Schema.
func Clone(s Statement) Statement {
	switch n := s.(type) {
	case *Rule:
		return &Rule{Tok: n.Tok, Stream: CloneStream(n.Stream), Actions: cloneActions(n.Actions)}
	case *Command:
		var t Table
		if n.Table != nil {
			t = CloneTable(n.Table)
		}
		return &Command{Tok: n.Tok, Table: t, Actions: cloneActions(n.Actions)}
	case *Declaration:
		return &Declaration{Tok: n.Tok, Name: n.Name, Kind: n.Kind, Value: cloneAny(n.Value)}
	case *Assignment:
		return &Assignment{Tok: n.Tok, Name: n.Name, Value: cloneAny(n.Value)}
	case *OnInputChoice:
		return &OnInputChoice{Tok: n.Tok, Actions: cloneActions(n.Actions)}
	default:
		return s
	}
}

func cloneAny(n Node) Node {
	switch v := n.(type) {
	case Stream:
		return CloneStream(v)
	case Table:
		return CloneTable(v)
	case Action:
		return CloneAction(v)
	case Value:
		return CloneValue(v)
	default:
		return n
	}
}

func cloneActions(as []Action) []Action {
	if as == nil {
		return nil
	}
	out := make([]Action, len(as))
	for i, a := range as {
		out[i] = CloneAction(a)
	}
	return out
}

func cloneInParams(ps []InputParam) []InputParam {
	if ps == nil {
		return nil
	}
	out := make([]InputParam, len(ps))
	for i, p := range ps {
		out[i] = InputParam{Name: p.Name, Value: CloneValue(p.Value)}
	}
	return out
}

func cloneInvocation(inv *Invocation) *Invocation {
	if inv == nil {
		return nil
	}
	return &Invocation{
		Tok:      inv.Tok,
		Selector: inv.Selector,
		Channel:  inv.Channel,
		InParams: cloneInParams(inv.InParams),
		Schema:   inv.Schema.Clone(),
	}
}

// CloneBoolean deep-copies a filter expression.
func CloneBoolean(b BooleanExpression) BooleanExpression {
	switch n := b.(type) {
	case nil:
		return nil
	case *True:
		return &True{Tok: n.Tok}
	case *False:
		return &False{Tok: n.Tok}
	case *And:
		ops := make([]BooleanExpression, len(n.Ops))
		for i, o := range n.Ops {
			ops[i] = CloneBoolean(o)
		}
		return &And{Tok: n.Tok, Ops: ops}
	case *Or:
		ops := make([]BooleanExpression, len(n.Ops))
		for i, o := range n.Ops {
			ops[i] = CloneBoolean(o)
		}
		return &Or{Tok: n.Tok, Ops: ops}
	case *Not:
		return &Not{Tok: n.Tok, Op: CloneBoolean(n.Op)}
	case *Atom:
		return &Atom{Tok: n.Tok, Name: n.Name, Operator: n.Operator, Value: CloneValue(n.Value), Overload: append([]typesystem.Type(nil), n.Overload...)}
	case *Compute:
		return &Compute{Tok: n.Tok, LHS: CloneValue(n.LHS), Op: n.Op, RHS: CloneValue(n.RHS), Overload: append([]typesystem.Type(nil), n.Overload...)}
	case *External:
		return &External{Tok: n.Tok, Invocation: cloneInvocation(n.Invocation), Filter: CloneBoolean(n.Filter)}
	case *DontCare:
		return &DontCare{Tok: n.Tok, Name: n.Name}
	default:
		return b
	}
}

// CloneValue deep-copies a value expression.
func CloneValue(v Value) Value {
	switch n := v.(type) {
	case nil:
		return nil
	case *BooleanValue:
		cp := *n
		return &cp
	case *StringValue:
		cp := *n
		return &cp
	case *NumberValue:
		cp := *n
		return &cp
	case *MeasureValue:
		cp := *n
		return &cp
	case *CurrencyValue:
		cp := *n
		return &cp
	case *DateValue:
		cp := *n
		return &cp
	case *TimeValue:
		cp := *n
		return &cp
	case *LocationValue:
		cp := *n
		return &cp
	case *EntityValue:
		cp := *n
		return &cp
	case *EnumValue:
		cp := *n
		return &cp
	case *VarRef:
		return &VarRef{Tok: n.Tok, Name: n.Name, Schema: n.Schema.Clone()}
	case *Event:
		cp := *n
		return &cp
	case *Undefined:
		cp := *n
		return &cp
	case *ArrayValue:
		els := make([]Value, len(n.Elements))
		for i, e := range n.Elements {
			els[i] = CloneValue(e)
		}
		return &ArrayValue{Tok: n.Tok, Elements: els, ResolvedType: n.ResolvedType}
	case *Computation:
		ops := make([]Value, len(n.Operands))
		for i, o := range n.Operands {
			ops[i] = CloneValue(o)
		}
		return &Computation{Tok: n.Tok, Op: n.Op, Operands: ops, Overload: n.Overload}
	case *ArrayFieldValue:
		return &ArrayFieldValue{Tok: n.Tok, Value: CloneValue(n.Value), Field: n.Field}
	case *FilterValue:
		return &FilterValue{Tok: n.Tok, Value: CloneValue(n.Value), Filter: CloneBoolean(n.Filter)}
	default:
		return v
	}
}

// CloneStream deep-copies a stream expression.
func CloneStream(s Stream) Stream {
	switch n := s.(type) {
	case nil:
		return nil
	case *StreamVarRef:
		return &StreamVarRef{Tok: n.Tok, Name: n.Name, Schema: n.Schema.Clone()}
	case *Timer:
		return &Timer{Tok: n.Tok, Base: CloneValue(n.Base), Interval: CloneValue(n.Interval), Schema: n.Schema.Clone()}
	case *AtTimer:
		times := make([]Value, len(n.Times))
		for i, t := range n.Times {
			times[i] = CloneValue(t)
		}
		return &AtTimer{Tok: n.Tok, Times: times, Expiration: CloneValue(n.Expiration), Schema: n.Schema.Clone()}
	case *Monitor:
		return &Monitor{Tok: n.Tok, Table: CloneTable(n.Table), Args: append([]string(nil), n.Args...), Schema: n.Schema.Clone()}
	case *EdgeNew:
		return &EdgeNew{Tok: n.Tok, Stream: CloneStream(n.Stream), Schema: n.Schema.Clone()}
	case *EdgeFilter:
		return &EdgeFilter{Tok: n.Tok, Stream: CloneStream(n.Stream), Filter: CloneBoolean(n.Filter), Schema: n.Schema.Clone()}
	case *StreamFilter:
		return &StreamFilter{Tok: n.Tok, Stream: CloneStream(n.Stream), Filter: CloneBoolean(n.Filter), Schema: n.Schema.Clone()}
	case *StreamProjection:
		comps := make([]Value, len(n.Computations))
		for i, c := range n.Computations {
			comps[i] = CloneValue(c)
		}
		return &StreamProjection{Tok: n.Tok, Stream: CloneStream(n.Stream), Args: append([]string(nil), n.Args...), Computations: comps, Schema: n.Schema.Clone()}
	case *StreamCompute:
		return &StreamCompute{Tok: n.Tok, Stream: CloneStream(n.Stream), Value: CloneValue(n.Value), Alias: n.Alias, Schema: n.Schema.Clone()}
	case *StreamAlias:
		return &StreamAlias{Tok: n.Tok, Stream: CloneStream(n.Stream), Name: n.Name, Schema: n.Schema.Clone()}
	case *StreamJoin:
		return &StreamJoin{Tok: n.Tok, Stream: CloneStream(n.Stream), Table: CloneTable(n.Table), InParams: cloneInParams(n.InParams), Schema: n.Schema.Clone()}
	default:
		return s
	}
}

// CloneTable deep-copies a table expression.
func CloneTable(t Table) Table {
	switch n := t.(type) {
	case nil:
		return nil
	case *TableVarRef:
		return &TableVarRef{Tok: n.Tok, Name: n.Name, Schema: n.Schema.Clone()}
	case *TableInvocation:
		return &TableInvocation{Tok: n.Tok, Invocation: cloneInvocation(n.Invocation), Schema: n.Schema.Clone()}
	case *TableFilter:
		return &TableFilter{Tok: n.Tok, Table: CloneTable(n.Table), Filter: CloneBoolean(n.Filter), Schema: n.Schema.Clone()}
	case *TableProjection:
		comps := make([]Value, len(n.Computations))
		for i, c := range n.Computations {
			comps[i] = CloneValue(c)
		}
		return &TableProjection{Tok: n.Tok, Table: CloneTable(n.Table), Args: append([]string(nil), n.Args...), Computations: comps, Schema: n.Schema.Clone()}
	case *TableCompute:
		return &TableCompute{Tok: n.Tok, Table: CloneTable(n.Table), Value: CloneValue(n.Value), Alias: n.Alias, Schema: n.Schema.Clone()}
	case *TableAlias:
		return &TableAlias{Tok: n.Tok, Table: CloneTable(n.Table), Name: n.Name, Schema: n.Schema.Clone()}
	case *Aggregation:
		return &Aggregation{Tok: n.Tok, Table: CloneTable(n.Table), Op: n.Op, Field: n.Field, Alias: n.Alias, Schema: n.Schema.Clone()}
	case *Sort:
		return &Sort{Tok: n.Tok, Table: CloneTable(n.Table), Field: n.Field, Descending: n.Descending, Schema: n.Schema.Clone()}
	case *Index:
		idx := make([]Value, len(n.Indices))
		for i, v := range n.Indices {
			idx[i] = CloneValue(v)
		}
		return &Index{Tok: n.Tok, Table: CloneTable(n.Table), Indices: idx, Schema: n.Schema.Clone()}
	case *Slice:
		return &Slice{Tok: n.Tok, Table: CloneTable(n.Table), Base: CloneValue(n.Base), Limit: CloneValue(n.Limit), Schema: n.Schema.Clone()}
	case *TableJoin:
		return &TableJoin{Tok: n.Tok, LHS: CloneTable(n.LHS), RHS: CloneTable(n.RHS), InParams: cloneInParams(n.InParams), Schema: n.Schema.Clone()}
	default:
		return t
	}
}

// CloneAction deep-copies an action expression.
func CloneAction(a Action) Action {
	switch n := a.(type) {
	case nil:
		return nil
	case *Notify:
		return &Notify{Tok: n.Tok, Kind: n.Kind, Schema: n.Schema.Clone()}
	case *ActionInvocation:
		return &ActionInvocation{Tok: n.Tok, Invocation: cloneInvocation(n.Invocation), Schema: n.Schema.Clone()}
	case *ActionVarRef:
		return &ActionVarRef{Tok: n.Tok, Name: n.Name, Schema: n.Schema.Clone()}
	default:
		return a
	}
}
