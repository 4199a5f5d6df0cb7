// Package fixtures loads a YAML-described device catalogue into memory
// for tests and local development. Plain yaml.v3 struct tags, no schema
// validation beyond Unmarshal's own.
package fixtures

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/schema"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

// Document is the top-level shape of a fixture YAML file: one entry per
// device kind.
type Document struct {
	Classes []ClassDoc `yaml:"classes"`
}

type ClassDoc struct {
	Name     string       `yaml:"name"`
	Extends  []string     `yaml:"extends,omitempty"`
	Abstract bool         `yaml:"abstract,omitempty"`
	Queries  []FunctionDoc `yaml:"queries,omitempty"`
	Actions  []FunctionDoc `yaml:"actions,omitempty"`
}

type FunctionDoc struct {
	Name          string     `yaml:"name"`
	Args          []ArgDoc   `yaml:"args,omitempty"`
	List          bool       `yaml:"list,omitempty"`
	Monitorable   bool       `yaml:"monitorable,omitempty"`
	NoFilter      bool       `yaml:"no_filter,omitempty"`
	PollInterval  int64      `yaml:"poll_interval,omitempty"`
}

type ArgDoc struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Direction string `yaml:"direction"` // "in_req" | "in_opt" | "out"
	Unique    bool   `yaml:"unique,omitempty"`
	Principal bool   `yaml:"principal,omitempty"`
}

// Store is an in-memory schema.Client backed by a parsed Document —
// GetSchemas/GetDeviceCode never touch the network, so fixtures can drive
// typecheck/permission tests deterministically.
type Store struct {
	classes map[string]*ast.ClassDef
	src     map[string]string
}

// Load parses yamlSrc into a Store.
func Load(yamlSrc []byte) (*Store, error) {
	var doc Document
	if err := yaml.Unmarshal(yamlSrc, &doc); err != nil {
		return nil, fmt.Errorf("fixtures: %w", err)
	}
	st := &Store{classes: make(map[string]*ast.ClassDef), src: make(map[string]string)}
	for _, cd := range doc.Classes {
		st.classes[cd.Name] = toClassDef(cd)
		if raw, err := yaml.Marshal(cd); err == nil {
			st.src[cd.Name] = string(raw)
		}
	}
	return st, nil
}

func toClassDef(cd ClassDoc) *ast.ClassDef {
	out := &ast.ClassDef{
		Name:     cd.Name,
		Extends:  cd.Extends,
		Abstract: cd.Abstract,
		Queries:  make(map[string]*ast.FunctionDef),
		Actions:  make(map[string]*ast.FunctionDef),
	}
	for _, q := range cd.Queries {
		out.Queries[q.Name] = toFunctionDef(cd.Name, "query", q)
	}
	for _, a := range cd.Actions {
		out.Actions[a.Name] = toFunctionDef(cd.Name, "action", a)
	}
	return out
}

func toFunctionDef(class, kind string, fd FunctionDoc) *ast.FunctionDef {
	args := make([]ast.ArgumentDef, len(fd.Args))
	for i, a := range fd.Args {
		args[i] = ast.ArgumentDef{
			Name:      a.Name,
			Type:      parseType(a.Type),
			Direction: parseDirection(a.Direction),
		}
		if a.Unique || a.Principal {
			args[i].Annotations = map[string]interface{}{}
			if a.Unique {
				args[i].Annotations["unique"] = true
			}
			if a.Principal {
				args[i].Annotations["__principal"] = true
			}
		}
	}
	return &ast.FunctionDef{
		Kind:          kind,
		Class:         class,
		Name:          fd.Name,
		Args:          args,
		IsList:        fd.List,
		IsMonitorable: fd.Monitorable,
		NoFilter:      fd.NoFilter,
		PollInterval:  fd.PollInterval,
	}
}

func parseDirection(s string) ast.ArgDirection {
	switch s {
	case "in_opt":
		return ast.InOpt
	case "out":
		return ast.Out
	default:
		return ast.InReq
	}
}

// parseType recognizes the ground type names and the Entity(...)/Enum(...)/
// Measure(...)/Array(...) parametric forms a fixture file spells out
// literally; it is intentionally far less permissive than a real type
// grammar parser since fixtures are hand-authored test data.
func parseType(s string) typesystem.Type {
	switch s {
	case "Boolean":
		return typesystem.Boolean
	case "Number":
		return typesystem.Number
	case "String":
		return typesystem.StringT
	case "Date":
		return typesystem.Date
	case "Time":
		return typesystem.Time
	case "Location":
		return typesystem.Location
	case "Currency":
		return typesystem.Currency
	case "Any":
		return typesystem.Any
	}
	if inner, ok := paramOf(s, "Entity"); ok {
		return typesystem.Entity{Name: inner}
	}
	if inner, ok := paramOf(s, "Measure"); ok {
		return typesystem.Measure{Unit: inner}
	}
	if inner, ok := paramOf(s, "Array"); ok {
		return typesystem.Array{Element: parseType(inner)}
	}
	if inner, ok := paramOf(s, "Enum"); ok {
		e := typesystem.Enum{}
		for _, sym := range strings.Split(inner, ",") {
			sym = strings.TrimSpace(sym)
			if sym == "*" {
				e.Open = true
				continue
			}
			if sym != "" {
				e.Symbols = append(e.Symbols, sym)
			}
		}
		return e
	}
	return typesystem.Any
}

func paramOf(s, head string) (string, bool) {
	if strings.HasPrefix(s, head+"(") && strings.HasSuffix(s, ")") {
		return s[len(head)+1 : len(s)-1], true
	}
	return "", false
}

// GetDeviceCode returns the raw YAML fragment for kind, if loaded from a
// source document (Load always retains it).
func (s *Store) GetDeviceCode(ctx context.Context, kind string) (string, error) {
	if src, ok := s.src[kind]; ok {
		return src, nil
	}
	return "", fmt.Errorf("fixtures: unknown device kind %q", kind)
}

// GetSchemas returns a fixture-internal encoding of the requested kinds'
// ClassDefs; Decode (see internal/schema.Retriever.Decode) is expected to
// be Store.Decode on this same Store for round-tripping.
func (s *Store) GetSchemas(ctx context.Context, kinds []string, includeMetadata bool) (string, error) {
	found := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if _, ok := s.classes[k]; ok {
			found = append(found, k)
		}
	}
	return encodeRefs(found), nil
}

func (s *Store) GetMixins(ctx context.Context) (map[string]schema.MixinDef, error) {
	return map[string]schema.MixinDef{}, nil
}

// encodeRefs and Store.Decode let a Store hand a batch of kind names through
// the wire-string seam Retriever.Decode expects, without a real
// serialization format — Store.Decode looks the names back up directly
// rather than parsing text.
func encodeRefs(kinds []string) string {
	out := ""
	for i, k := range kinds {
		if i > 0 {
			out += ","
		}
		out += k
	}
	return out
}

// Decode implements schema.Decode against this Store: it treats src as
// the comma-joined kind list encodeRefs produced and looks each one up
// directly, instead of parsing ThingTalk class syntax.
func (s *Store) Decode(src string) ([]*ast.ClassDef, error) {
	var out []*ast.ClassDef
	start := 0
	for i := 0; i <= len(src); i++ {
		if i == len(src) || src[i] == ',' {
			if i > start {
				name := src[start:i]
				if cd, ok := s.classes[name]; ok {
					out = append(out, cd)
				}
			}
			start = i + 1
		}
	}
	return out, nil
}
