package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	domainconfig "github.com/felixgeelhaar/plan-go/domain/config"
	"github.com/felixgeelhaar/plan-go/domain/planning"
)

const (
	robotStart = "on(robot,floor), dry(ladder), dry(ceiling)"
	robotGoal  = "painted(ceiling), painted(ladder)"
)

const corridorOps = `
domain: corridor
operators:
  - name: go-east
    preconditions: ["at(west)"]
    postconditions: ["at(east)", "not at(west)"]
  - name: go-west
    preconditions: ["at(east)"]
    postconditions: ["at(west)", "not at(east)"]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

// corridorConfig writes a configuration declaring the corridor domain.
func corridorConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "corridor.yaml", corridorOps)
	return writeFile(t, dir, "planner.yaml", `
name: test-planner
version: "1"
logging:
  level: warn
domains:
  - name: corridor
    description: two rooms
    operators: corridor.yaml
`+extra)
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	err := app.ExecuteWithArgs(context.Background(), args)
	return stdout.String(), stderr.String(), err
}

func TestApp_Version(t *testing.T) {
	stdout, _, err := run(t, "version")
	if err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(stdout, "plan-go version") {
		t.Errorf("version output missing 'plan-go version', got: %s", stdout)
	}
}

func TestApp_Help(t *testing.T) {
	stdout, _, err := run(t, "--help")
	if err != nil {
		t.Fatalf("help command failed: %v", err)
	}
	for _, want := range []string{"STRIPS", "plan", "reorder", "complete", "domains", "validate", "watch"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_Plan(t *testing.T) {
	stdout, _, err := run(t, "plan", "robot", "-s", robotStart, "-g", robotGoal)
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	for _, want := range []string{"Plan (4 steps)", "1. climb-ladder", "2. paint-ceiling", "3. descend-ladder", "4. paint-ladder"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("plan output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_PlanJSON(t *testing.T) {
	stdout, _, err := run(t, "plan", "robot", "--generate-only", "--json", "-s", robotStart, "-g", robotGoal)
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}

	var out resultOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if out.Phase != string(planning.PhaseDone) {
		t.Errorf("phase = %s, want done", out.Phase)
	}
	want := planning.Plan{"climb-ladder", "paint-ceiling", "descend-ladder", "paint-ladder"}
	if !planning.Plan(out.Plan).Equal(want) {
		t.Errorf("plan = %v, want %s", out.Plan, want)
	}
	if len(out.Transitions) != 3 {
		t.Errorf("transitions = %d, want 3 (idle, searching, plan_found, done)", len(out.Transitions))
	}
	if out.RequestID == "" {
		t.Error("request_id is empty")
	}
}

func TestApp_PlanFromFiles(t *testing.T) {
	dir := t.TempDir()
	start := writeFile(t, dir, "start.json", `[["on", "robot", "floor"], ["dry", "ladder"], ["dry", "ceiling"]]`)
	goal := writeFile(t, dir, "goal.txt", "painted(ceiling)\npainted(ladder)\n")

	stdout, _, err := run(t, "plan", "robot", "-s", "@"+start, "-g", "@"+goal)
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if !strings.Contains(stdout, "4. paint-ladder") {
		t.Errorf("plan output missing last step, got: %s", stdout)
	}

	if _, _, err := run(t, "plan", "robot", "-s", "@"+filepath.Join(dir, "missing"), "-g", robotGoal); err == nil {
		t.Error("plan should fail for a missing start file")
	}
}

func TestApp_PlanErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantKind string
		wantErr  error
	}{
		{"unknown problem type", []string{"plan", "unknown_domain", "-s", robotStart, "-g", robotGoal}, "unknown_problem_type", planning.ErrUnknownProblemType},
		{"unimplemented", []string{"plan", "blockworld", "-s", "on(a,b)", "-g", "on(b,a)"}, "not_implemented", planning.ErrNotImplementedPlanner},
		{"malformed state", []string{"plan", "robot", "-s", "on(robot", "-g", robotGoal}, "malformed_state", planning.ErrMalformedState},
		{"unreachable", []string{"plan", "robot", "-s", "on(robot,floor), dry(ceiling)", "-g", robotGoal}, "no_plan_found", planning.ErrNoPlanFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := run(t, append(tt.args, "--json")...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.HasPrefix(err.Error(), tt.wantKind) {
				t.Errorf("error = %q, want %s prefix", err, tt.wantKind)
			}

			var out resultOutput
			if err := json.Unmarshal([]byte(stdout), &out); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, stdout)
			}
			if out.ErrorKind != tt.wantKind {
				t.Errorf("error_kind = %s, want %s", out.ErrorKind, tt.wantKind)
			}
			if len(out.Plan) != 0 {
				t.Errorf("plan = %v, want none", out.Plan)
			}
		})
	}
}

func TestApp_PlanRequiresStates(t *testing.T) {
	if _, _, err := run(t, "plan", "robot", "-g", robotGoal); err == nil {
		t.Error("plan should fail without --start")
	}
	if _, _, err := run(t, "plan", "-s", robotStart, "-g", robotGoal); err == nil {
		t.Error("plan should fail without a problem type")
	}
}

func TestApp_Reorder(t *testing.T) {
	stdout, _, err := run(t, "reorder", "robot", "-s", robotStart, "-g", robotGoal,
		"--plan", "paint-ladder, climb-ladder, paint-ceiling, descend-ladder",
		"--plan", `["descend-ladder", "paint-ladder", "climb-ladder", "paint-ceiling"]`,
		"--json")
	if err != nil {
		t.Fatalf("reorder command failed: %v", err)
	}

	var out resultOutput
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	if len(out.Plans) != 2 {
		t.Fatalf("plans = %v, want 2", out.Plans)
	}
	want := planning.Plan{"climb-ladder", "paint-ceiling", "descend-ladder", "paint-ladder"}
	for i, p := range out.Plans {
		if !planning.Plan(p).Equal(want) {
			t.Errorf("plans[%d] = %v, want %s", i, p, want)
		}
	}
}

func TestApp_ReorderText(t *testing.T) {
	stdout, _, err := run(t, "reorder", "robot", "-s", robotStart, "-g", robotGoal,
		"-p", "paint-ladder, climb-ladder, paint-ceiling, descend-ladder",
		"-p", "descend-ladder, paint-ladder, climb-ladder, paint-ceiling")
	if err != nil {
		t.Fatalf("reorder command failed: %v", err)
	}
	if !strings.Contains(stdout, "Plan 1:") || !strings.Contains(stdout, "Plan 2:") {
		t.Errorf("reorder output missing plan headings, got: %s", stdout)
	}
}

func TestApp_Complete(t *testing.T) {
	stdout, _, err := run(t, "complete", "robot", "-s", robotStart, "-g", robotGoal,
		"--partial", "climb-ladder, paint-ceiling, paint-ladder")
	if err != nil {
		t.Fatalf("complete command failed: %v", err)
	}
	if !strings.Contains(stdout, "3. descend-ladder") {
		t.Errorf("complete output missing inserted step, got: %s", stdout)
	}

	_, _, err = run(t, "complete", "robot", "-s", robotStart, "-g", robotGoal, "--partial", "fly")
	if !errors.Is(err, planning.ErrIncompletablePlan) {
		t.Errorf("complete error = %v, want ErrIncompletablePlan", err)
	}
}

func TestApp_PlanConfiguredDomain(t *testing.T) {
	configPath := corridorConfig(t, `
search:
  strategy: astar
`)

	stdout, _, err := run(t, "plan", "corridor", "-c", configPath, "-s", "at(west)", "-g", "at(east)")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if !strings.Contains(stdout, "1. go-east") {
		t.Errorf("plan output missing go-east, got: %s", stdout)
	}
}

func TestApp_PlanTelemetry(t *testing.T) {
	configPath := corridorConfig(t, `
telemetry:
  metrics:
    enabled: true
`)

	_, stderr, err := run(t, "plan", "corridor", "-c", configPath, "--log-level", "info", "--trace",
		"-s", "at(west)", "-g", "at(east)")
	if err != nil {
		t.Fatalf("plan command failed: %v", err)
	}
	if !strings.Contains(stderr, "planner.requests") {
		t.Errorf("stderr missing request metric, got: %s", stderr)
	}
	if !strings.Contains(stderr, "planner.generate") {
		t.Errorf("stderr missing generate span, got: %s", stderr)
	}
}

func TestApp_Domains(t *testing.T) {
	configPath := corridorConfig(t, "")

	stdout, _, err := run(t, "domains", "-c", configPath)
	if err != nil {
		t.Fatalf("domains command failed: %v", err)
	}
	for _, want := range []string{"Problem types (3)", "robot", "corridor: two rooms", "blockworld (not implemented)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("domains output missing %q, got: %s", want, stdout)
		}
	}
}

func TestApp_DomainsJSON(t *testing.T) {
	stdout, _, err := run(t, "domains", "--json")
	if err != nil {
		t.Fatalf("domains command failed: %v", err)
	}

	var out []struct {
		ProblemType string `json:"problem_type"`
		Implemented bool   `json:"implemented"`
	}
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout)
	}
	implemented := map[string]bool{}
	for _, d := range out {
		implemented[d.ProblemType] = d.Implemented
	}
	if !implemented["robot"] {
		t.Error("robot should be implemented")
	}
	if v, ok := implemented["blockworld"]; !ok || v {
		t.Errorf("blockworld = %v (listed %v), want listed and not implemented", v, ok)
	}
}

func TestApp_DomainsShow(t *testing.T) {
	stdout, _, err := run(t, "domains", "show", "robot", "--format", "yaml")
	if err != nil {
		t.Fatalf("domains show failed: %v", err)
	}
	for _, want := range []string{"climb-ladder", "preconditions", "not dry(ladder)"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("domains show output missing %q, got: %s", want, stdout)
		}
	}

	if _, _, err := run(t, "domains", "show", "blockworld"); !errors.Is(err, planning.ErrNotImplementedPlanner) {
		t.Errorf("domains show blockworld error = %v, want ErrNotImplementedPlanner", err)
	}
}

func TestApp_Validate(t *testing.T) {
	configPath := corridorConfig(t, "")

	stdout, _, err := run(t, "validate", "-c", configPath)
	if err != nil {
		t.Fatalf("validate command failed: %v", err)
	}
	if !strings.Contains(stdout, "valid") || !strings.Contains(stdout, "corridor") {
		t.Errorf("validate output missing summary, got: %s", stdout)
	}
}

func TestApp_ValidateInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "name: \"\"\nversion: \"\"\n"},
		{"bad strategy", "name: p\nversion: \"1\"\nsearch:\n  strategy: dfs\n"},
		{"missing operator file", "name: p\nversion: \"1\"\ndomains:\n  - name: gone\n    operators: gone.yaml\n"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, fmt.Sprintf("config%d.yaml", i), tt.content)
			if _, _, err := run(t, "validate", "-c", path); err == nil {
				t.Fatal("validate command should fail for invalid config")
			}
		})
	}

	if _, _, err := run(t, "validate"); err == nil {
		t.Error("validate without -c should fail")
	}
}

func TestApp_ValidateOperators(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "corridor.yaml", corridorOps)
	bad := writeFile(t, dir, "bad.json", `[{"name": "x", "preconditions": ["not p"], "postconditions": []}]`)

	stdout, _, err := run(t, "validate", "--operators", good)
	if err != nil {
		t.Fatalf("validate --operators failed: %v", err)
	}
	if !strings.Contains(stdout, "2 operators") {
		t.Errorf("validate output missing operator count, got: %s", stdout)
	}

	stdout, _, err = run(t, "validate", "--operators", good, "--operators", bad)
	if err == nil {
		t.Fatal("validate should fail for a malformed operator document")
	}
	if !strings.Contains(stdout, "✗") {
		t.Errorf("validate output missing failure mark, got: %s", stdout)
	}
}

func TestApp_ValidateShowSchema(t *testing.T) {
	stdout, _, err := run(t, "validate", "--schema")
	if err != nil {
		t.Fatalf("validate --schema failed: %v", err)
	}
	if !strings.Contains(stdout, "$schema") {
		t.Errorf("schema output missing '$schema', got: %s", stdout)
	}
	if !strings.Contains(stdout, "Planner Configuration") {
		t.Errorf("schema output missing 'Planner Configuration', got: %s", stdout)
	}
}

func TestApp_Schema(t *testing.T) {
	out := filepath.Join(t.TempDir(), "schema.json")

	stdout, _, err := run(t, "schema", "-o", out)
	if err != nil {
		t.Fatalf("schema command failed: %v", err)
	}
	if !strings.Contains(stdout, "Schema exported") {
		t.Errorf("schema output = %s", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("failed to read schema: %v", err)
	}
	if !json.Valid(data) {
		t.Error("exported schema is not valid JSON")
	}
}

func TestApp_Watch(t *testing.T) {
	if _, _, err := run(t, "watch"); err == nil {
		t.Error("watch without -c should fail")
	}

	configPath := corridorConfig(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)
	if err := app.ExecuteWithArgs(ctx, []string{"watch", "-c", configPath}); err != nil {
		t.Fatalf("watch command failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "Watching") {
		t.Errorf("watch output = %s", stdout.String())
	}
}

func TestApp_Reload(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	rt, err := app.newRuntime()
	if err != nil {
		t.Fatalf("newRuntime() error = %v", err)
	}
	defer rt.Close()

	if rt.service.Registry().Len() != 2 {
		t.Fatalf("Len() = %d, want 2 built-in problem types", rt.service.Registry().Len())
	}

	dir := t.TempDir()
	cfg := domainconfig.DefaultConfig()
	cfg.Domains = []domainconfig.DomainConfig{{Name: "corridor", Operators: writeFile(t, dir, "corridor.yaml", corridorOps)}}

	app.reload(rt, cfg)
	if rt.service.Registry().Len() != 3 {
		t.Errorf("Len() after reload = %d, want 3", rt.service.Registry().Len())
	}
	if !strings.Contains(stdout.String(), "Reloaded: 3 problem types") {
		t.Errorf("reload output = %s", stdout.String())
	}

	broken := domainconfig.DefaultConfig()
	broken.Domains = []domainconfig.DomainConfig{{Name: "gone", Operators: filepath.Join(dir, "gone.yaml")}}
	app.reload(rt, broken)
	if rt.service.Registry().Len() != 3 {
		t.Errorf("Len() after failed reload = %d, want previous 3", rt.service.Registry().Len())
	}
	if !strings.Contains(stderr.String(), "reload failed") {
		t.Errorf("stderr missing reload failure, got: %s", stderr.String())
	}
}
