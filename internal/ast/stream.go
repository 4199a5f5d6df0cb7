package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

// StreamVarRef references a stream-typed declaration by name.
type StreamVarRef struct {
	Tok    token.Token
	Name   string
	Schema *Schema
}

func (n *StreamVarRef) GetToken() token.Token  { return n.Tok }
func (n *StreamVarRef) Accept(v Visitor)       { v.VisitStreamVarRef(n) }
func (n *StreamVarRef) streamNode()            {}
func (n *StreamVarRef) GetSchema() *Schema     { return n.Schema }
func (n *StreamVarRef) SetSchema(s *Schema)    { n.Schema = s }

// Timer fires every Interval starting at Base.
type Timer struct {
	Tok      token.Token
	Base     Value
	Interval Value
	Schema   *Schema
}

func (n *Timer) GetToken() token.Token { return n.Tok }
func (n *Timer) Accept(v Visitor)      { v.VisitTimer(n) }
func (n *Timer) streamNode()           {}
func (n *Timer) GetSchema() *Schema    { return n.Schema }
func (n *Timer) SetSchema(s *Schema)   { n.Schema = s }

// AtTimer fires once at each listed time-of-day, optionally expiring.
type AtTimer struct {
	Tok        token.Token
	Times      []Value
	Expiration Value // nil if none
	Schema     *Schema
}

func (n *AtTimer) GetToken() token.Token { return n.Tok }
func (n *AtTimer) Accept(v Visitor)      { v.VisitAtTimer(n) }
func (n *AtTimer) streamNode()           {}
func (n *AtTimer) GetSchema() *Schema    { return n.Schema }
func (n *AtTimer) SetSchema(s *Schema)   { n.Schema = s }

// Monitor turns a Table into a Stream, firing on every observed change;
// only legal when the table's schema is monitorable.
type Monitor struct {
	Tok    token.Token
	Table  Table
	Args   []string // nil means monitor the whole row
	Schema *Schema
}

func (n *Monitor) GetToken() token.Token { return n.Tok }
func (n *Monitor) Accept(v Visitor)      { v.VisitMonitor(n) }
func (n *Monitor) streamNode()           {}
func (n *Monitor) GetSchema() *Schema    { return n.Schema }
func (n *Monitor) SetSchema(s *Schema)   { n.Schema = s }

// EdgeNew emits only the first record of each run of consecutive
// identical values.
type EdgeNew struct {
	Tok    token.Token
	Stream Stream
	Schema *Schema
}

func (n *EdgeNew) GetToken() token.Token { return n.Tok }
func (n *EdgeNew) Accept(v Visitor)      { v.VisitEdgeNew(n) }
func (n *EdgeNew) streamNode()           {}
func (n *EdgeNew) GetSchema() *Schema    { return n.Schema }
func (n *EdgeNew) SetSchema(s *Schema)   { n.Schema = s }

// EdgeFilter emits only records where Filter transitions from false to true.
type EdgeFilter struct {
	Tok    token.Token
	Stream Stream
	Filter BooleanExpression
	Schema *Schema
}

func (n *EdgeFilter) GetToken() token.Token { return n.Tok }
func (n *EdgeFilter) Accept(v Visitor)      { v.VisitEdgeFilter(n) }
func (n *EdgeFilter) streamNode()           {}
func (n *EdgeFilter) GetSchema() *Schema    { return n.Schema }
func (n *EdgeFilter) SetSchema(s *Schema)   { n.Schema = s }

// StreamFilter restricts a Stream to records matching Filter.
type StreamFilter struct {
	Tok    token.Token
	Stream Stream
	Filter BooleanExpression
	Schema *Schema
}

func (n *StreamFilter) GetToken() token.Token { return n.Tok }
func (n *StreamFilter) Accept(v Visitor)      { v.VisitStreamFilter(n) }
func (n *StreamFilter) streamNode()           {}
func (n *StreamFilter) GetSchema() *Schema    { return n.Schema }
func (n *StreamFilter) SetSchema(s *Schema)   { n.Schema = s }

// StreamProjection keeps only the named output arguments, plus any
// Computations.
type StreamProjection struct {
	Tok          token.Token
	Stream       Stream
	Args         []string
	Computations []Value
	Schema       *Schema
}

func (n *StreamProjection) GetToken() token.Token { return n.Tok }
func (n *StreamProjection) Accept(v Visitor)      { v.VisitStreamProjection(n) }
func (n *StreamProjection) streamNode()           {}
func (n *StreamProjection) GetSchema() *Schema    { return n.Schema }
func (n *StreamProjection) SetSchema(s *Schema)   { n.Schema = s }

// StreamCompute adds a computed field to every record.
type StreamCompute struct {
	Tok    token.Token
	Stream Stream
	Value  Value
	Alias  string
	Schema *Schema
}

func (n *StreamCompute) GetToken() token.Token { return n.Tok }
func (n *StreamCompute) Accept(v Visitor)      { v.VisitStreamCompute(n) }
func (n *StreamCompute) streamNode()           {}
func (n *StreamCompute) GetSchema() *Schema    { return n.Schema }
func (n *StreamCompute) SetSchema(s *Schema)   { n.Schema = s }

// StreamAlias renames a stream's whole record to a single bound name.
type StreamAlias struct {
	Tok    token.Token
	Stream Stream
	Name   string
	Schema *Schema
}

func (n *StreamAlias) GetToken() token.Token { return n.Tok }
func (n *StreamAlias) Accept(v Visitor)      { v.VisitStreamAlias(n) }
func (n *StreamAlias) streamNode()           {}
func (n *StreamAlias) GetSchema() *Schema    { return n.Schema }
func (n *StreamAlias) SetSchema(s *Schema)   { n.Schema = s }

// StreamJoin joins every Stream record against Table:
// the join inherits is_monitorable = lhs ∧ rhs, is_list = lhs ∨ rhs.
type StreamJoin struct {
	Tok      token.Token
	Stream   Stream
	Table    Table
	InParams []InputParam
	Schema   *Schema
}

func (n *StreamJoin) GetToken() token.Token { return n.Tok }
func (n *StreamJoin) Accept(v Visitor)      { v.VisitStreamJoin(n) }
func (n *StreamJoin) streamNode()           {}
func (n *StreamJoin) GetSchema() *Schema    { return n.Schema }
func (n *StreamJoin) SetSchema(s *Schema)   { n.Schema = s }
