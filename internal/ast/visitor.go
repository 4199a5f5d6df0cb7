package ast

// Visitor is a polymorphic pre/post walk over the AST: Enter/Exit hooks
// bracket a Visit<Kind>
// notification per node. Structural recursion into children is owned by
// Walk itself (see children below), not by the per-kind Visit methods —
// that keeps BaseVisitor's "continue" default correct however a caller
// overrides individual Visit methods, since embedding-based method
// promotion in Go cannot recurse back into an overriding outer type.
type Visitor interface {
	Enter(n Node) bool
	Exit(n Node)

	VisitProgram(n *Program)
	VisitDeclaration(n *Declaration)
	VisitAssignment(n *Assignment)
	VisitRule(n *Rule)
	VisitCommand(n *Command)
	VisitOnInputChoice(n *OnInputChoice)
	VisitPermissionRule(n *PermissionRule)
	VisitPermissionFunction(n *PermissionFunction)

	VisitBooleanValue(n *BooleanValue)
	VisitStringValue(n *StringValue)
	VisitNumberValue(n *NumberValue)
	VisitMeasureValue(n *MeasureValue)
	VisitCurrencyValue(n *CurrencyValue)
	VisitDateValue(n *DateValue)
	VisitTimeValue(n *TimeValue)
	VisitLocationValue(n *LocationValue)
	VisitEntityValue(n *EntityValue)
	VisitEnumValue(n *EnumValue)
	VisitVarRef(n *VarRef)
	VisitEvent(n *Event)
	VisitUndefined(n *Undefined)
	VisitArrayValue(n *ArrayValue)
	VisitComputation(n *Computation)
	VisitArrayFieldValue(n *ArrayFieldValue)
	VisitFilterValue(n *FilterValue)

	VisitTrue(n *True)
	VisitFalse(n *False)
	VisitAnd(n *And)
	VisitOr(n *Or)
	VisitNot(n *Not)
	VisitAtom(n *Atom)
	VisitCompute(n *Compute)
	VisitExternal(n *External)
	VisitDontCare(n *DontCare)

	VisitInvocation(n *Invocation)

	VisitStreamVarRef(n *StreamVarRef)
	VisitTimer(n *Timer)
	VisitAtTimer(n *AtTimer)
	VisitMonitor(n *Monitor)
	VisitEdgeNew(n *EdgeNew)
	VisitEdgeFilter(n *EdgeFilter)
	VisitStreamFilter(n *StreamFilter)
	VisitStreamProjection(n *StreamProjection)
	VisitStreamCompute(n *StreamCompute)
	VisitStreamAlias(n *StreamAlias)
	VisitStreamJoin(n *StreamJoin)

	VisitTableVarRef(n *TableVarRef)
	VisitTableInvocation(n *TableInvocation)
	VisitTableFilter(n *TableFilter)
	VisitTableProjection(n *TableProjection)
	VisitTableCompute(n *TableCompute)
	VisitTableAlias(n *TableAlias)
	VisitAggregation(n *Aggregation)
	VisitSort(n *Sort)
	VisitIndex(n *Index)
	VisitSlice(n *Slice)
	VisitTableJoin(n *TableJoin)

	VisitNotify(n *Notify)
	VisitActionInvocation(n *ActionInvocation)
	VisitActionVarRef(n *ActionVarRef)
}

// Walk dispatches n.Accept(v) (a pure notification, no recursion) bracketed
// by Enter/Exit, then recurses into every structural child reported by
// children. Because recursion lives here rather than in each VisitX method,
// a visitor that overrides only one VisitX still sees the whole subtree.
func Walk(n Node, v Visitor) {
	if n == nil || !v.Enter(n) {
		return
	}
	n.Accept(v)
	for _, c := range children(n) {
		Walk(c, v)
	}
	v.Exit(n)
}

func asNode(v Value) Node {
	if v == nil {
		return nil
	}
	return v
}

func children(n Node) []Node {
	switch x := n.(type) {
	case *Program:
		out := make([]Node, 0, len(x.Statements))
		for _, s := range x.Statements {
			out = append(out, s)
		}
		return out
	case *Declaration:
		return []Node{x.Value}
	case *Assignment:
		return []Node{x.Value}
	case *Rule:
		out := []Node{x.Stream}
		for _, a := range x.Actions {
			out = append(out, a)
		}
		return out
	case *Command:
		var out []Node
		if x.Table != nil {
			out = append(out, x.Table)
		}
		for _, a := range x.Actions {
			out = append(out, a)
		}
		return out
	case *OnInputChoice:
		out := make([]Node, 0, len(x.Actions))
		for _, a := range x.Actions {
			out = append(out, a)
		}
		return out
	case *PermissionRule:
		var out []Node
		if x.PrincipalFilter != nil {
			out = append(out, x.PrincipalFilter)
		}
		if x.Query != nil {
			out = append(out, x.Query)
		}
		if x.Action != nil {
			out = append(out, x.Action)
		}
		return out
	case *PermissionFunction:
		if x.Filter != nil {
			return []Node{x.Filter}
		}
		return nil

	case *ArrayValue:
		out := make([]Node, 0, len(x.Elements))
		for _, e := range x.Elements {
			out = append(out, asNode(e))
		}
		return out
	case *Computation:
		out := make([]Node, 0, len(x.Operands))
		for _, o := range x.Operands {
			out = append(out, asNode(o))
		}
		return out
	case *ArrayFieldValue:
		return []Node{x.Value}
	case *FilterValue:
		return []Node{x.Value, x.Filter}

	case *And:
		out := make([]Node, 0, len(x.Ops))
		for _, o := range x.Ops {
			out = append(out, o)
		}
		return out
	case *Or:
		out := make([]Node, 0, len(x.Ops))
		for _, o := range x.Ops {
			out = append(out, o)
		}
		return out
	case *Not:
		return []Node{x.Op}
	case *Atom:
		return []Node{x.Value}
	case *Compute:
		return []Node{x.LHS, x.RHS}
	case *External:
		out := []Node{x.Invocation}
		if x.Filter != nil {
			out = append(out, x.Filter)
		}
		return out

	case *Invocation:
		out := make([]Node, 0, len(x.InParams))
		for _, ip := range x.InParams {
			out = append(out, asNode(ip.Value))
		}
		return out

	case *Timer:
		return []Node{x.Base, x.Interval}
	case *AtTimer:
		out := make([]Node, 0, len(x.Times)+1)
		for _, t := range x.Times {
			out = append(out, asNode(t))
		}
		if x.Expiration != nil {
			out = append(out, x.Expiration)
		}
		return out
	case *Monitor:
		return []Node{x.Table}
	case *EdgeNew:
		return []Node{x.Stream}
	case *EdgeFilter:
		return []Node{x.Stream, x.Filter}
	case *StreamFilter:
		return []Node{x.Stream, x.Filter}
	case *StreamProjection:
		out := []Node{x.Stream}
		for _, c := range x.Computations {
			out = append(out, asNode(c))
		}
		return out
	case *StreamCompute:
		return []Node{x.Stream, x.Value}
	case *StreamAlias:
		return []Node{x.Stream}
	case *StreamJoin:
		out := []Node{x.Stream, x.Table}
		for _, ip := range x.InParams {
			out = append(out, asNode(ip.Value))
		}
		return out

	case *TableInvocation:
		return []Node{x.Invocation}
	case *TableFilter:
		return []Node{x.Table, x.Filter}
	case *TableProjection:
		out := []Node{x.Table}
		for _, c := range x.Computations {
			out = append(out, asNode(c))
		}
		return out
	case *TableCompute:
		return []Node{x.Table, x.Value}
	case *TableAlias:
		return []Node{x.Table}
	case *Aggregation:
		return []Node{x.Table}
	case *Sort:
		return []Node{x.Table}
	case *Index:
		out := []Node{x.Table}
		for _, i := range x.Indices {
			out = append(out, asNode(i))
		}
		return out
	case *Slice:
		return []Node{x.Table, x.Base, x.Limit}
	case *TableJoin:
		out := []Node{x.LHS, x.RHS}
		for _, ip := range x.InParams {
			out = append(out, asNode(ip.Value))
		}
		return out

	case *ActionInvocation:
		return []Node{x.Invocation}

	default:
		return nil
	}
}

// BaseVisitor implements Visitor with "continue" semantics: Enter/Exit and
// every VisitX are no-ops. Walk supplies all recursion, so embedding this
// and overriding a handful of VisitX methods still walks the full tree.
type BaseVisitor struct{}

func (BaseVisitor) Enter(Node) bool { return true }
func (BaseVisitor) Exit(Node)       {}

func (BaseVisitor) VisitProgram(*Program)                 {}
func (BaseVisitor) VisitDeclaration(*Declaration)         {}
func (BaseVisitor) VisitAssignment(*Assignment)           {}
func (BaseVisitor) VisitRule(*Rule)                       {}
func (BaseVisitor) VisitCommand(*Command)                 {}
func (BaseVisitor) VisitOnInputChoice(*OnInputChoice)     {}
func (BaseVisitor) VisitPermissionRule(*PermissionRule)   {}
func (BaseVisitor) VisitPermissionFunction(*PermissionFunction) {}

func (BaseVisitor) VisitBooleanValue(*BooleanValue)   {}
func (BaseVisitor) VisitStringValue(*StringValue)     {}
func (BaseVisitor) VisitNumberValue(*NumberValue)     {}
func (BaseVisitor) VisitMeasureValue(*MeasureValue)   {}
func (BaseVisitor) VisitCurrencyValue(*CurrencyValue) {}
func (BaseVisitor) VisitDateValue(*DateValue)         {}
func (BaseVisitor) VisitTimeValue(*TimeValue)         {}
func (BaseVisitor) VisitLocationValue(*LocationValue) {}
func (BaseVisitor) VisitEntityValue(*EntityValue)     {}
func (BaseVisitor) VisitEnumValue(*EnumValue)         {}
func (BaseVisitor) VisitVarRef(*VarRef)               {}
func (BaseVisitor) VisitEvent(*Event)                 {}
func (BaseVisitor) VisitUndefined(*Undefined)         {}
func (BaseVisitor) VisitArrayValue(*ArrayValue)       {}
func (BaseVisitor) VisitComputation(*Computation)     {}
func (BaseVisitor) VisitArrayFieldValue(*ArrayFieldValue) {}
func (BaseVisitor) VisitFilterValue(*FilterValue)     {}

func (BaseVisitor) VisitTrue(*True)           {}
func (BaseVisitor) VisitFalse(*False)         {}
func (BaseVisitor) VisitAnd(*And)             {}
func (BaseVisitor) VisitOr(*Or)               {}
func (BaseVisitor) VisitNot(*Not)             {}
func (BaseVisitor) VisitAtom(*Atom)           {}
func (BaseVisitor) VisitCompute(*Compute)     {}
func (BaseVisitor) VisitExternal(*External)   {}
func (BaseVisitor) VisitDontCare(*DontCare)   {}

func (BaseVisitor) VisitInvocation(*Invocation) {}

func (BaseVisitor) VisitStreamVarRef(*StreamVarRef)         {}
func (BaseVisitor) VisitTimer(*Timer)                       {}
func (BaseVisitor) VisitAtTimer(*AtTimer)                   {}
func (BaseVisitor) VisitMonitor(*Monitor)                   {}
func (BaseVisitor) VisitEdgeNew(*EdgeNew)                   {}
func (BaseVisitor) VisitEdgeFilter(*EdgeFilter)             {}
func (BaseVisitor) VisitStreamFilter(*StreamFilter)         {}
func (BaseVisitor) VisitStreamProjection(*StreamProjection) {}
func (BaseVisitor) VisitStreamCompute(*StreamCompute)       {}
func (BaseVisitor) VisitStreamAlias(*StreamAlias)           {}
func (BaseVisitor) VisitStreamJoin(*StreamJoin)             {}

func (BaseVisitor) VisitTableVarRef(*TableVarRef)         {}
func (BaseVisitor) VisitTableInvocation(*TableInvocation) {}
func (BaseVisitor) VisitTableFilter(*TableFilter)         {}
func (BaseVisitor) VisitTableProjection(*TableProjection) {}
func (BaseVisitor) VisitTableCompute(*TableCompute)       {}
func (BaseVisitor) VisitTableAlias(*TableAlias)           {}
func (BaseVisitor) VisitAggregation(*Aggregation)         {}
func (BaseVisitor) VisitSort(*Sort)                       {}
func (BaseVisitor) VisitIndex(*Index)                     {}
func (BaseVisitor) VisitSlice(*Slice)                     {}
func (BaseVisitor) VisitTableJoin(*TableJoin)             {}

func (BaseVisitor) VisitNotify(*Notify)                     {}
func (BaseVisitor) VisitActionInvocation(*ActionInvocation) {}
func (BaseVisitor) VisitActionVarRef(*ActionVarRef)         {}
