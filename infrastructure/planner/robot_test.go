package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
)

const (
	robotStart = "on(robot,floor), dry(ladder), dry(ceiling)"
	robotGoal  = "painted(ceiling), painted(ladder)"
)

func robotFixture(t *testing.T, opts ...Option) (*RobotPaintingPlanner, planning.State, planning.State) {
	t.Helper()

	p, err := NewRobotPaintingPlanner(opts...)
	if err != nil {
		t.Fatalf("NewRobotPaintingPlanner() error = %v", err)
	}
	start, err := ParseRobotState(robotStart)
	if err != nil {
		t.Fatalf("ParseRobotState(start) error = %v", err)
	}
	goal, err := ParseRobotState(robotGoal)
	if err != nil {
		t.Fatalf("ParseRobotState(goal) error = %v", err)
	}
	return p, start, goal
}

var robotSolution = planning.Plan{"climb-ladder", "paint-ceiling", "descend-ladder", "paint-ladder"}

func TestRobot_ProblemType(t *testing.T) {
	t.Parallel()

	p, _, _ := robotFixture(t)
	if p.ProblemType() != RobotProblemType {
		t.Errorf("ProblemType() = %s, want %s", p.ProblemType(), RobotProblemType)
	}
	if p.Operators().Len() != 4 {
		t.Errorf("Operators().Len() = %d, want 4", p.Operators().Len())
	}

	// The operator set is loaded once and shared.
	again, _, _ := robotFixture(t)
	if again.Operators() != p.Operators() {
		t.Error("operator set was loaded more than once")
	}
}

func TestRobot_GeneratePlan(t *testing.T) {
	t.Parallel()

	for _, strategy := range []search.Strategy{search.StrategyBFS, search.StrategyAStar} {
		t.Run(string(strategy), func(t *testing.T) {
			t.Parallel()

			p, start, goal := robotFixture(t, WithStrategy(strategy))
			plan, err := p.GeneratePlan(context.Background(), start, goal)
			if err != nil {
				t.Fatalf("GeneratePlan() error = %v", err)
			}
			if !plan.Equal(robotSolution) {
				t.Errorf("GeneratePlan() = %s, want %s", plan, robotSolution)
			}
			if err := plan.Validate(p.Operators(), start, goal); err != nil {
				t.Errorf("plan does not validate: %v", err)
			}
		})
	}
}

func TestRobot_GeneratePlan_Unreachable(t *testing.T) {
	t.Parallel()

	p, _, goal := robotFixture(t)
	// A wet ladder can never be climbed again.
	start, err := ParseRobotState("on(robot,floor), dry(ceiling)")
	if err != nil {
		t.Fatalf("ParseRobotState() error = %v", err)
	}

	_, err = p.GeneratePlan(context.Background(), start, goal)
	if !errors.Is(err, planning.ErrNoPlanFound) {
		t.Errorf("GeneratePlan() error = %v, want ErrNoPlanFound", err)
	}
}

func TestRobot_ReorderToAvoid(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)
	input := planning.Plan{"paint-ladder", "climb-ladder", "paint-ceiling", "descend-ladder"}

	out, err := p.ReorderToAvoid(context.Background(), start, goal, []planning.Plan{input})
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("ReorderToAvoid() returned %d plans, want 1", len(out))
	}
	if !out[0].Equal(robotSolution) {
		t.Errorf("ReorderToAvoid() = %s, want %s", out[0], robotSolution)
	}
	if !out[0].IsPermutationOf(input) {
		t.Errorf("%s is not a permutation of %s", out[0], input)
	}
	if err := out[0].Validate(p.Operators(), start, goal); err != nil {
		t.Errorf("reordered plan does not validate: %v", err)
	}
}

func TestRobot_ReorderToAvoid_Idempotent(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)
	input := planning.Plan{"descend-ladder", "paint-ladder", "climb-ladder", "paint-ceiling"}

	first, err := p.ReorderToAvoid(context.Background(), start, goal, []planning.Plan{input})
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	second, err := p.ReorderToAvoid(context.Background(), start, goal, first)
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	if !second[0].Equal(first[0]) {
		t.Errorf("second pass = %s, want %s", second[0], first[0])
	}
}

func TestRobot_ReorderToAvoid_MultiplePlans(t *testing.T) {
	t.Parallel()

	p, start, _ := robotFixture(t)
	ceiling, err := ParseRobotState("painted(ceiling)")
	if err != nil {
		t.Fatalf("ParseRobotState() error = %v", err)
	}

	plans := []planning.Plan{
		{"paint-ceiling", "climb-ladder"},
		{"descend-ladder", "paint-ceiling", "climb-ladder"},
	}
	out, err := p.ReorderToAvoid(context.Background(), start, ceiling, plans)
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	want := []planning.Plan{
		{"climb-ladder", "paint-ceiling"},
		{"climb-ladder", "paint-ceiling", "descend-ladder"},
	}
	for i := range want {
		if !out[i].Equal(want[i]) {
			t.Errorf("plan %d = %s, want %s", i, out[i], want[i])
		}
	}
}

func TestRobot_ReorderToAvoid_Errors(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)

	tests := []struct {
		name    string
		plan    planning.Plan
		opts    []Option
		wantErr error
	}{
		{"unknown operator", planning.Plan{"climb-ladder", "fly"}, nil, planning.ErrUnknownOperator},
		{"no legal ordering", planning.Plan{"paint-ceiling", "paint-ladder"}, nil, planning.ErrUnorderablePlan},
		{"node limit", planning.Plan{"paint-ladder", "climb-ladder", "paint-ceiling", "descend-ladder"},
			[]Option{WithLimits(search.Limits{MaxNodes: 1})}, planning.ErrUnorderablePlan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			planner := p
			if tt.opts != nil {
				planner, _, _ = robotFixture(t, tt.opts...)
			}
			_, err := planner.ReorderToAvoid(context.Background(), start, goal, []planning.Plan{tt.plan})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ReorderToAvoid() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRobot_CompletePlan(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)

	tests := []struct {
		name    string
		partial planning.Plan
	}{
		{"missing descend", planning.Plan{"climb-ladder", "paint-ceiling", "paint-ladder"}},
		{"only paint ceiling", planning.Plan{"paint-ceiling"}},
		{"empty", planning.Plan{}},
		{"already complete", robotSolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan, err := p.CompletePlan(context.Background(), start, goal, tt.partial)
			if err != nil {
				t.Fatalf("CompletePlan() error = %v", err)
			}
			if !plan.Equal(robotSolution) {
				t.Errorf("CompletePlan() = %s, want %s", plan, robotSolution)
			}
			if !tt.partial.IsSubsequenceOf(plan) {
				t.Errorf("%s does not preserve the order of %s", plan, tt.partial)
			}
		})
	}
}

func TestRobot_CompletePlan_Errors(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)

	_, err := p.CompletePlan(context.Background(), start, goal, planning.Plan{"paint-ladder", "climb-ladder"})
	if !errors.Is(err, planning.ErrIncompletablePlan) {
		t.Errorf("CompletePlan() error = %v, want ErrIncompletablePlan", err)
	}

	_, err = p.CompletePlan(context.Background(), start, goal, planning.Plan{"fly"})
	if !errors.Is(err, planning.ErrIncompletablePlan) {
		t.Errorf("CompletePlan() error = %v, want ErrIncompletablePlan", err)
	}
	if !errors.Is(err, planning.ErrUnknownOperator) {
		t.Errorf("CompletePlan() error = %v, want ErrUnknownOperator in chain", err)
	}
}

func TestRobot_GenerateCompletePlan(t *testing.T) {
	t.Parallel()

	p, start, goal := robotFixture(t)
	ctx := context.Background()

	got, err := p.GenerateCompletePlan(ctx, start, goal)
	if err != nil {
		t.Fatalf("GenerateCompletePlan() error = %v", err)
	}

	generated, err := p.GeneratePlan(ctx, start, goal)
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	reordered, err := p.ReorderToAvoid(ctx, start, goal, []planning.Plan{generated})
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	want, err := p.CompletePlan(ctx, start, goal, reordered[0])
	if err != nil {
		t.Fatalf("CompletePlan() error = %v", err)
	}

	if !got.Equal(want) {
		t.Errorf("GenerateCompletePlan() = %s, want %s", got, want)
	}
	if err := got.Validate(p.Operators(), start, goal); err != nil {
		t.Errorf("plan does not validate: %v", err)
	}
}

func TestRobot_GenerateCompletePlan_StageError(t *testing.T) {
	t.Parallel()

	p, start, _ := robotFixture(t)
	goal := planning.NewState(planning.NewCondition("painted", "floor"))

	_, err := p.GenerateCompletePlan(context.Background(), start, goal)
	if !errors.Is(err, planning.ErrNoPlanFound) {
		t.Errorf("GenerateCompletePlan() error = %v, want ErrNoPlanFound", err)
	}
}

func TestParseRobotState(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantLen int
		wantErr bool
	}{
		{"text", robotStart, 3, false},
		{"json strings", `["on(robot,ladder)", "painted(ceiling)"]`, 2, false},
		{"json tuples", `[["on", "robot", "floor"], ["dry", "ladder"]]`, 2, false},
		{"braces", "{dry(ladder)}", 1, false},
		{"empty", "", 0, false},
		{"unknown predicate", "wet(ladder)", 0, true},
		{"wrong arity", "on(robot)", 0, true},
		{"negated", "not dry(ladder)", 0, true},
		{"garbage", "on(robot", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			state, err := ParseRobotState(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, planning.ErrMalformedState) {
					t.Errorf("ParseRobotState(%q) error = %v, want ErrMalformedState", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRobotState(%q) error = %v", tt.raw, err)
			}
			if state.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", state.Len(), tt.wantLen)
			}
		})
	}
}

func TestNewStateParser(t *testing.T) {
	t.Parallel()

	p, _, _ := robotFixture(t)
	parse := NewStateParser(p.Operators())

	if _, err := parse("on(robot,floor), color(ladder,red)"); err != nil {
		t.Errorf("parse() error = %v, want static facts accepted", err)
	}
	if _, err := parse("painted(ceiling,twice)"); !errors.Is(err, planning.ErrMalformedState) {
		t.Errorf("parse() error = %v, want ErrMalformedState", err)
	}
}
