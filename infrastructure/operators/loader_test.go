package operators

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

const moveJSON = `[
  {
    "name": "move(pos_a,pos_b)",
    "preconditions": ["at(pos_a)"],
    "postconditions": ["at(pos_b)", "not at(pos_a)"]
  }
]`

func TestLoadString_JSON(t *testing.T) {
	t.Parallel()

	set, err := LoadString(moveJSON, FormatJSON)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if set.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", set.Len())
	}
	op, ok := set.Get("move(pos_a,pos_b)")
	if !ok {
		t.Fatal("operator move(pos_a,pos_b) not found")
	}
	if len(op.AddList()) != 1 || op.AddList()[0] != planning.NewCondition("at", "pos_b") {
		t.Errorf("AddList() = %v", op.AddList())
	}
	if len(op.DeleteList()) != 1 || op.DeleteList()[0] != planning.NewCondition("at", "pos_a") {
		t.Errorf("DeleteList() = %v", op.DeleteList())
	}
}

func TestLoadString_YAML(t *testing.T) {
	t.Parallel()

	content := `
domain: corridor
description: two rooms
operators:
  - name: go-east
    preconditions:
      - [at, west]
    postconditions:
      - [at, east]
      - [not, at, west]
  - name: go-west
    preconditions: ["at(east)"]
    postconditions: ["at(west)", "!at(east)"]
`
	set, err := LoadString(content, FormatYAML)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	names := set.Names()
	if len(names) != 2 || names[0] != "go-east" || names[1] != "go-west" {
		t.Errorf("Names() = %v, want [go-east go-west]", names)
	}
	east, _ := set.Get("go-east")
	if len(east.DeleteList()) != 1 || east.DeleteList()[0] != planning.NewCondition("at", "west") {
		t.Errorf("go-east DeleteList() = %v, want [at(west)]", east.DeleteList())
	}
}

func TestLoadString_WrappedJSON(t *testing.T) {
	t.Parallel()

	content := `{"domain": "move", "operators": ` + moveJSON + `}`
	set, err := LoadString(content, FormatJSON)
	if err != nil {
		t.Fatalf("LoadString() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestLoadString_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		content       string
		wantMalformed bool
	}{
		{"empty", "", false},
		{"not json", "{nope", false},
		{"no operators", "[]", false},
		{"missing name", `[{"preconditions": [], "postconditions": []}]`, false},
		{"missing preconditions", `[{"name": "x", "postconditions": []}]`, false},
		{"missing postconditions", `[{"name": "x", "preconditions": []}]`, false},
		{"bad descriptor type", `[{"name": "x", "preconditions": [1], "postconditions": []}]`, false},
		{"bad condition", `[{"name": "x", "preconditions": ["on(a"], "postconditions": []}]`, true},
		{"negated precondition", `[{"name": "x", "preconditions": ["not p"], "postconditions": []}]`, true},
		{"empty name", `[{"name": "", "preconditions": [], "postconditions": []}]`, true},
		{"duplicate names", `[
			{"name": "x", "preconditions": [], "postconditions": ["p"]},
			{"name": "x", "preconditions": [], "postconditions": ["q"]}]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadString(tt.content, FormatJSON)
			if !errors.Is(err, planning.ErrOperatorLoad) {
				t.Fatalf("LoadString() error = %v, want ErrOperatorLoad", err)
			}
			if tt.wantMalformed && !errors.Is(err, planning.ErrMalformedOperator) {
				t.Errorf("LoadString() error = %v, want ErrMalformedOperator in chain", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "move.json")
	if err := os.WriteFile(path, []byte(moveJSON), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	set, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); !errors.Is(err, planning.ErrOperatorLoad) {
		t.Errorf("missing file error = %v, want ErrOperatorLoad", err)
	}

	txt := filepath.Join(dir, "ops.txt")
	if err := os.WriteFile(txt, []byte(moveJSON), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	if _, err := LoadFile(txt); !errors.Is(err, planning.ErrOperatorLoad) {
		t.Errorf("unsupported extension error = %v, want ErrOperatorLoad", err)
	}
}

func TestLoadFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"domains/move.yaml": &fstest.MapFile{Data: []byte(`
- name: move(pos_a,pos_b)
  preconditions: ["at(pos_a)"]
  postconditions: ["at(pos_b)"]
`)},
	}

	set, err := LoadFS(fsys, "domains/move.yaml")
	if err != nil {
		t.Fatalf("LoadFS() error = %v", err)
	}
	if set.Len() != 1 {
		t.Errorf("Len() = %d, want 1", set.Len())
	}
}

func TestLoadBuiltin_Robot(t *testing.T) {
	t.Parallel()

	set, err := LoadBuiltin("robot")
	if err != nil {
		t.Fatalf("LoadBuiltin(robot) error = %v", err)
	}
	want := []string{"climb-ladder", "descend-ladder", "paint-ceiling", "paint-ladder"}
	got := set.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if _, err := LoadBuiltin("nope"); !errors.Is(err, planning.ErrOperatorLoad) {
		t.Errorf("LoadBuiltin(nope) error = %v, want ErrOperatorLoad", err)
	}
}

func TestBuiltinDomains(t *testing.T) {
	t.Parallel()

	domains := BuiltinDomains()
	found := false
	for _, d := range domains {
		if d == "robot" {
			found = true
		}
	}
	if !found {
		t.Errorf("BuiltinDomains() = %v, want robot listed", domains)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	set, err := LoadBuiltin("robot")
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}

	for _, format := range []Format{FormatJSON, FormatYAML} {
		var buf bytes.Buffer
		if err := Encode(&buf, set, format); err != nil {
			t.Fatalf("Encode(%s) error = %v", format, err)
		}
		again, err := Load(strings.NewReader(buf.String()), format)
		if err != nil {
			t.Fatalf("Load(%s) error = %v\n%s", format, err, buf.String())
		}
		if again.Len() != set.Len() {
			t.Errorf("%s round trip Len() = %d, want %d", format, again.Len(), set.Len())
		}
	}
}
