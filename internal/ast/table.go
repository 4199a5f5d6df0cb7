package ast

import "github.com/thingtalk-lang/ttcore/internal/token"

type TableVarRef struct {
	Tok    token.Token
	Name   string
	Schema *Schema
}

func (n *TableVarRef) GetToken() token.Token { return n.Tok }
func (n *TableVarRef) Accept(v Visitor)      { v.VisitTableVarRef(n) }
func (n *TableVarRef) tableNode()            {}
func (n *TableVarRef) GetSchema() *Schema    { return n.Schema }
func (n *TableVarRef) SetSchema(s *Schema)   { n.Schema = s }

// TableInvocation wraps a single function call as a Table.
type TableInvocation struct {
	Tok        token.Token
	Invocation *Invocation
	Schema     *Schema
}

func (n *TableInvocation) GetToken() token.Token { return n.Tok }
func (n *TableInvocation) Accept(v Visitor)      { v.VisitTableInvocation(n) }
func (n *TableInvocation) tableNode()            {}
func (n *TableInvocation) GetSchema() *Schema    { return n.Schema }
func (n *TableInvocation) SetSchema(s *Schema)   { n.Schema = s }

type TableFilter struct {
	Tok    token.Token
	Table  Table
	Filter BooleanExpression
	Schema *Schema
}

func (n *TableFilter) GetToken() token.Token { return n.Tok }
func (n *TableFilter) Accept(v Visitor)      { v.VisitTableFilter(n) }
func (n *TableFilter) tableNode()            {}
func (n *TableFilter) GetSchema() *Schema    { return n.Schema }
func (n *TableFilter) SetSchema(s *Schema)   { n.Schema = s }

type TableProjection struct {
	Tok          token.Token
	Table        Table
	Args         []string
	Computations []Value
	Schema       *Schema
}

func (n *TableProjection) GetToken() token.Token { return n.Tok }
func (n *TableProjection) Accept(v Visitor)      { v.VisitTableProjection(n) }
func (n *TableProjection) tableNode()            {}
func (n *TableProjection) GetSchema() *Schema    { return n.Schema }
func (n *TableProjection) SetSchema(s *Schema)   { n.Schema = s }

type TableCompute struct {
	Tok    token.Token
	Table  Table
	Value  Value
	Alias  string
	Schema *Schema
}

func (n *TableCompute) GetToken() token.Token { return n.Tok }
func (n *TableCompute) Accept(v Visitor)      { v.VisitTableCompute(n) }
func (n *TableCompute) tableNode()            {}
func (n *TableCompute) GetSchema() *Schema    { return n.Schema }
func (n *TableCompute) SetSchema(s *Schema)   { n.Schema = s }

type TableAlias struct {
	Tok    token.Token
	Table  Table
	Name   string
	Schema *Schema
}

func (n *TableAlias) GetToken() token.Token { return n.Tok }
func (n *TableAlias) Accept(v Visitor)      { v.VisitTableAlias(n) }
func (n *TableAlias) tableNode()            {}
func (n *TableAlias) GetSchema() *Schema    { return n.Schema }
func (n *TableAlias) SetSchema(s *Schema)   { n.Schema = s }

// Aggregation reduces a Table to a single aggregated row.
type Aggregation struct {
	Tok    token.Token
	Table  Table
	Op     string // "count" | "sum" | "avg" | "max" | "min" | "argmax" | "argmin"
	Field  string // "" when Op == "count" over "*"
	Alias  string
	Schema *Schema
}

func (n *Aggregation) GetToken() token.Token { return n.Tok }
func (n *Aggregation) Accept(v Visitor)      { v.VisitAggregation(n) }
func (n *Aggregation) tableNode()            {}
func (n *Aggregation) GetSchema() *Schema    { return n.Schema }
func (n *Aggregation) SetSchema(s *Schema)   { n.Schema = s }

// Sort orders by Field.
type Sort struct {
	Tok        token.Token
	Table      Table
	Field      string
	Descending bool
	Schema     *Schema
}

func (n *Sort) GetToken() token.Token { return n.Tok }
func (n *Sort) Accept(v Visitor)      { v.VisitSort(n) }
func (n *Sort) tableNode()            {}
func (n *Sort) GetSchema() *Schema    { return n.Schema }
func (n *Sort) SetSchema(s *Schema)   { n.Schema = s }

// Index selects one or more rows by (1-based) position.
type Index struct {
	Tok     token.Token
	Table   Table
	Indices []Value // Number or Array(Number)
	Schema  *Schema
}

func (n *Index) GetToken() token.Token { return n.Tok }
func (n *Index) Accept(v Visitor)      { v.VisitIndex(n) }
func (n *Index) tableNode()            {}
func (n *Index) GetSchema() *Schema    { return n.Schema }
func (n *Index) SetSchema(s *Schema)   { n.Schema = s }

// Slice selects a contiguous run starting at Base for Limit rows.
type Slice struct {
	Tok    token.Token
	Table  Table
	Base   Value
	Limit  Value
	Schema *Schema
}

func (n *Slice) GetToken() token.Token { return n.Tok }
func (n *Slice) Accept(v Visitor)      { v.VisitSlice(n) }
func (n *Slice) tableNode()            {}
func (n *Slice) GetSchema() *Schema    { return n.Schema }
func (n *Slice) SetSchema(s *Schema)   { n.Schema = s }

// TableJoin joins two tables.
type TableJoin struct {
	Tok      token.Token
	LHS      Table
	RHS      Table
	InParams []InputParam
	Schema   *Schema
}

func (n *TableJoin) GetToken() token.Token { return n.Tok }
func (n *TableJoin) Accept(v Visitor)      { v.VisitTableJoin(n) }
func (n *TableJoin) tableNode()            {}
func (n *TableJoin) GetSchema() *Schema    { return n.Schema }
func (n *TableJoin) SetSchema(s *Schema)   { n.Schema = s }
