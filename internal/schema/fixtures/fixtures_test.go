package fixtures

import (
	"context"
	"testing"

	"github.com/thingtalk-lang/ttcore/internal/ast"
	"github.com/thingtalk-lang/ttcore/internal/typesystem"
)

const sampleYAML = `
classes:
  - name: com.xkcd
    queries:
      - name: get_comic
        monitorable: true
        args:
          - {name: number, type: Number, direction: in_opt}
          - {name: title, type: String, direction: out}
          - {name: picture_url, type: Entity(tt:picture), direction: out}
    actions:
      - name: post
        args:
          - {name: message, type: String, direction: in_req}
  - name: com.lights
    queries:
      - name: state
        monitorable: true
        args:
          - {name: power, type: "Enum(on,off)", direction: out}
          - {name: brightness, type: Number, direction: out}
`

func TestLoadBuildsClassDefs(t *testing.T) {
	st, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defs, err := st.Decode("com.xkcd,com.lights")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(defs))
	}
	xkcd := defs[0]
	q := xkcd.Queries["get_comic"]
	if q == nil || !q.IsMonitorable {
		t.Fatalf("expected a monitorable get_comic query")
	}
	if arg, ok := q.Arg("picture_url"); !ok {
		t.Fatalf("expected a picture_url arg")
	} else if e, isEntity := arg.Type.(typesystem.Entity); !isEntity || e.Name != "tt:picture" {
		t.Fatalf("expected Entity(tt:picture), got %s", arg.Type)
	}
	if arg, _ := q.Arg("number"); arg.Direction != ast.InOpt {
		t.Fatalf("expected number to be in_opt")
	}
}

func TestParseTypeParametricForms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Measure(ms)", "Measure(ms)"},
		{"Array(String)", "Array(String)"},
		{"Enum(on,off,*)", "Enum(on,off,*)"},
		{"Entity(tt:contact)", "Entity(tt:contact)"},
		{"Number", "Number"},
	}
	for _, tc := range cases {
		if got := parseType(tc.in).String(); got != tc.want {
			t.Fatalf("parseType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestGetSchemasReturnsOnlyKnownKinds(t *testing.T) {
	st, err := Load([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src, err := st.GetSchemas(context.Background(), []string{"com.xkcd", "com.nope"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defs, _ := st.Decode(src)
	if len(defs) != 1 || defs[0].Name != "com.xkcd" {
		t.Fatalf("expected only the known kind back, got %+v", defs)
	}
}
