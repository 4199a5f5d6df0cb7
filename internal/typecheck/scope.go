package typecheck

import "github.com/thingtalk-lang/ttcore/internal/typesystem"

// paramScope is an outer-chained name -> type environment for the
// parameters visible while checking a filter or computation: the
// invocation's own arguments, plus $event where an event is in scope.
// Single-threaded; typecheck never runs concurrently over one tree.
type paramScope struct {
	vars  map[string]typesystem.Type
	outer *paramScope
}

func newParamScope(outer *paramScope) *paramScope {
	return &paramScope{vars: make(map[string]typesystem.Type), outer: outer}
}

func (s *paramScope) define(name string, t typesystem.Type) {
	s.vars[name] = t
}

func (s *paramScope) lookup(name string) (typesystem.Type, bool) {
	for cur := s; cur != nil; cur = cur.outer {
		if t, ok := cur.vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}
