package ast

// primitiveCollector gathers every device Invocation reachable from a
// statement, tagged by the syntactic role it was found in. Kept as a
// Visitor rather than a bespoke recursive function so it benefits from
// Walk's single traversal implementation.
type primitiveCollector struct {
	BaseVisitor
	prims []Primitive
}

func (c *primitiveCollector) VisitTableInvocation(n *TableInvocation) {
	c.prims = append(c.prims, Primitive{Kind: PrimQuery, Invocation: n.Invocation})
}

func (c *primitiveCollector) VisitActionInvocation(n *ActionInvocation) {
	c.prims = append(c.prims, Primitive{Kind: PrimAction, Invocation: n.Invocation})
}

func (c *primitiveCollector) VisitExternal(n *External) {
	c.prims = append(c.prims, Primitive{Kind: PrimQuery, Invocation: n.Invocation})
}

// IteratePrimitives collects every device invocation reachable from a
// statement, in traversal order, tagged by role: a bare
// `now => @com.xkcd.get_comic() => notify` yields exactly one
// ('query', invocation) tuple. The schema pre-loading pass uses this to
// batch-resolve every Invocation in one round-trip.
func IteratePrimitives(s Statement) []Primitive {
	c := &primitiveCollector{}
	Walk(s, c)
	return c.prims
}

// Slot is a single mutable Value position in the tree: Get reads the
// current value, Set replaces it in place. The permission checker and
// dialog-agent slot-filling both need to rewrite individual Undefined
// values without re-walking the whole tree, so IterateSlots materializes
// every slot position up front rather than handing back a lazy iterator;
// a lazily-evaluated generator over a tree that Set also mutates would
// need an explicit materialize-first rule anyway.
type Slot struct {
	Name string // the holding field's name, e.g. the Atom's parameter name
	Get  func() Value
	Set  func(Value)
}

// IterateSlots materializes a Slot for every invocation input parameter
// and every filter atom's right-hand side reachable from a statement.
// Other Value positions (compute and projection expressions, timer
// arguments) get no Slot of their own; they are only searched for nested
// invocations and atoms. This is the surface dialog agents fill in one
// Undefined value at a time.
func IterateSlots(s Statement) []Slot {
	var slots []Slot
	collectSlots(s, &slots)
	return slots
}

func collectSlots(n Node, out *[]Slot) {
	if n == nil {
		return
	}
	switch x := n.(type) {
	case *Invocation:
		for i := range x.InParams {
			i := i
			*out = append(*out, Slot{
				Name: x.InParams[i].Name,
				Get:  func() Value { return x.InParams[i].Value },
				Set:  func(v Value) { x.InParams[i].Value = v },
			})
			collectSlots(asNode(x.InParams[i].Value), out)
		}
	case *Atom:
		name := x.Name
		*out = append(*out, Slot{
			Name: name,
			Get:  func() Value { return x.Value },
			Set:  func(v Value) { x.Value = v },
		})
		collectSlots(asNode(x.Value), out)
	default:
		for _, c := range children(n) {
			collectSlots(c, out)
		}
	}
}
