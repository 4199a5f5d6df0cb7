// Package catalogue holds the resolved device classes and functions a
// typecheck pass can look up by name. ThingTalk's namespace is flat:
// there are no traits, modules, or type aliases to track, only
// {class -> {query|action name -> FunctionDef}}.
package catalogue

import (
	"fmt"

	"github.com/thingtalk-lang/ttcore/internal/ast"
)

// Catalogue is the class/function registry a Checker consults while
// resolving `@kind.channel(...)` invocations. It is populated up front by
// internal/schema (one ClassDef per device kind fetched from the schema
// retriever) and is read-only once typecheck begins, since classes are
// resolved entirely before the per-statement walk starts.
type Catalogue struct {
	classes map[string]*ast.ClassDef
}

// New returns an empty catalogue.
func New() *Catalogue {
	return &Catalogue{classes: make(map[string]*ast.ClassDef)}
}

// Add registers a resolved class, overwriting any earlier entry of the
// same name (a later schema fetch for the same kind always wins).
func (c *Catalogue) Add(cd *ast.ClassDef) {
	c.classes[cd.Name] = cd
}

// Class looks up a class by name.
func (c *Catalogue) Class(name string) (*ast.ClassDef, bool) {
	cd, ok := c.classes[name]
	return cd, ok
}

// Function resolves `kind.channel` to its FunctionDef, walking Extends
// chains depth-first with left-to-right precedence.
func (c *Catalogue) Function(kind, channel string, needAction bool) (*ast.FunctionDef, error) {
	seen := make(map[string]bool)
	fd := c.lookup(kind, channel, needAction, seen)
	if fd == nil {
		kindWord := "query"
		if needAction {
			kindWord = "action"
		}
		return nil, fmt.Errorf("no such %s %s.%s", kindWord, kind, channel)
	}
	return fd, nil
}

func (c *Catalogue) lookup(kind, channel string, needAction bool, seen map[string]bool) *ast.FunctionDef {
	if seen[kind] {
		return nil
	}
	seen[kind] = true
	cd, ok := c.classes[kind]
	if !ok {
		return nil
	}
	table := cd.Queries
	if needAction {
		table = cd.Actions
	}
	if fd, ok := table[channel]; ok {
		return fd
	}
	for _, parent := range cd.Extends {
		if fd := c.lookup(parent, channel, needAction, seen); fd != nil {
			return fd
		}
	}
	return nil
}

// IsSubtype reports whether sub is kind-compatible with super (a kind
// equals itself, or extends it transitively) — used to validate a
// `@device.kind` selector against a PermissionFunction's Class filter.
func (c *Catalogue) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	seen := make(map[string]bool)
	return c.isSubtype(sub, super, seen)
}

func (c *Catalogue) isSubtype(sub, super string, seen map[string]bool) bool {
	if seen[sub] {
		return false
	}
	seen[sub] = true
	cd, ok := c.classes[sub]
	if !ok {
		return false
	}
	for _, parent := range cd.Extends {
		if parent == super || c.isSubtype(parent, super, seen) {
			return true
		}
	}
	return false
}
