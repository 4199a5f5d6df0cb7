package permission

import "github.com/thingtalk-lang/ttcore/internal/ast"

// functionKey identifies one (kind, channel) pair a permission rule's
// Query/Action slot can be matched against.
type functionKey struct {
	kind    string
	channel string
}

// Multimap indexes every loaded PermissionRule by the (kind, channel) of
// its Query and Action slots, so CheckRule doesn't rescan the whole
// policy set per primitive.
type Multimap struct {
	byKey map[functionKey][]*ast.PermissionRule
	stars []*ast.PermissionRule // Star/ClassStar/Builtin entries, checked via Matches directly
}

// NewMultimap builds the index once per policy set.
func NewMultimap(rules []*ast.PermissionRule) *Multimap {
	m := &Multimap{byKey: make(map[functionKey][]*ast.PermissionRule)}
	for _, r := range rules {
		indexSlot(m, r, r.Query)
		indexSlot(m, r, r.Action)
	}
	return m
}

func indexSlot(m *Multimap, r *ast.PermissionRule, slot *ast.PermissionFunction) {
	if slot == nil {
		return
	}
	switch slot.Kind {
	case ast.PermSpecified:
		key := functionKey{kind: slot.Class, channel: slot.Channel}
		m.byKey[key] = appendUnique(m.byKey[key], r)
	default:
		m.stars = appendUnique(m.stars, r)
	}
}

func appendUnique(rules []*ast.PermissionRule, r *ast.PermissionRule) []*ast.PermissionRule {
	for _, existing := range rules {
		if existing == r {
			return rules
		}
	}
	return append(rules, r)
}

// Applicable returns every rule whose Query or Action slot matches
// (kind, channel) by function identity — the
// candidate set the per-rule transform then narrows with SMT calls.
func (m *Multimap) Applicable(kind, channel string) []*ast.PermissionRule {
	var out []*ast.PermissionRule
	out = append(out, m.byKey[functionKey{kind: kind, channel: channel}]...)
	for _, r := range m.stars {
		if matchesEither(r, kind, channel) {
			out = appendUnique(out, r)
		}
	}
	return out
}

func matchesEither(r *ast.PermissionRule, kind, channel string) bool {
	if r.Query != nil && r.Query.Matches(kind, channel) {
		return true
	}
	if r.Action != nil && r.Action.Matches(kind, channel) {
		return true
	}
	return false
}
