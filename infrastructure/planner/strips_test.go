package planner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
)

func at(p string) planning.Condition { return planning.NewCondition("at", p) }

// corridorPlanner moves between two rooms, west and east.
func corridorPlanner(t *testing.T, opts ...Option) *STRIPSPlanner {
	t.Helper()

	ops, err := planning.NewOperatorSet(
		planning.MustOperator("go-east",
			[]planning.Condition{at("west")},
			[]planning.Literal{planning.Pos(at("east")), planning.Neg(at("west"))}),
		planning.MustOperator("go-west",
			[]planning.Condition{at("east")},
			[]planning.Literal{planning.Pos(at("west")), planning.Neg(at("east"))}),
	)
	if err != nil {
		t.Fatalf("NewOperatorSet() error = %v", err)
	}
	p, err := NewSTRIPSPlanner("corridor", ops, opts...)
	if err != nil {
		t.Fatalf("NewSTRIPSPlanner() error = %v", err)
	}
	return p
}

func TestNewSTRIPSPlanner_Errors(t *testing.T) {
	t.Parallel()

	ops, err := planning.NewOperatorSet(planning.MustOperator("noop", nil, nil))
	if err != nil {
		t.Fatalf("NewOperatorSet() error = %v", err)
	}

	if _, err := NewSTRIPSPlanner("", ops); !errors.Is(err, planning.ErrOperatorLoad) {
		t.Errorf("empty problem type error = %v, want ErrOperatorLoad", err)
	}
	if _, err := NewSTRIPSPlanner("x", nil); !errors.Is(err, planning.ErrOperatorLoad) {
		t.Errorf("nil operators error = %v, want ErrOperatorLoad", err)
	}
}

func TestSTRIPSPlanner_Options(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t,
		WithStrategy(search.StrategyAStar),
		WithLimits(search.Limits{MaxDepth: 5, MaxNodes: 50}),
	)
	if got := p.Searcher().Strategy(); got != search.StrategyAStar {
		t.Errorf("Strategy() = %s, want astar", got)
	}
	if got := p.Searcher().Limits().MaxDepth; got != 5 {
		t.Errorf("MaxDepth = %d, want 5", got)
	}

	custom := search.New()
	if got := corridorPlanner(t, WithSearcher(custom)).Searcher(); got != custom {
		t.Error("WithSearcher() did not install the searcher")
	}
	if corridorPlanner(t, WithSearcher(nil)).Searcher() == nil {
		t.Error("WithSearcher(nil) cleared the searcher")
	}
}

func TestSTRIPSPlanner_MovePosAToPosB(t *testing.T) {
	t.Parallel()

	ops, err := planning.NewOperatorSet(planning.MustOperator("move(pos_a,pos_b)",
		[]planning.Condition{at("pos_a")},
		[]planning.Literal{planning.Pos(at("pos_b"))},
	))
	if err != nil {
		t.Fatalf("NewOperatorSet() error = %v", err)
	}
	p, err := NewSTRIPSPlanner("move", ops)
	if err != nil {
		t.Fatalf("NewSTRIPSPlanner() error = %v", err)
	}

	plan, err := p.GeneratePlan(context.Background(), planning.NewState(at("pos_a")), planning.NewState(at("pos_b")))
	if err != nil {
		t.Fatalf("GeneratePlan() error = %v", err)
	}
	if !plan.Equal(planning.Plan{"move(pos_a,pos_b)"}) {
		t.Errorf("GeneratePlan() = %s, want [move(pos_a,pos_b)]", plan)
	}
}

func TestSTRIPSPlanner_ReorderDuplicates(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t)
	start := planning.NewState(at("west"))
	goal := planning.NewState(at("east"))
	input := planning.Plan{"go-west", "go-east", "go-east"}

	out, err := p.ReorderToAvoid(context.Background(), start, goal, []planning.Plan{input})
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	want := planning.Plan{"go-east", "go-west", "go-east"}
	if !out[0].Equal(want) {
		t.Errorf("ReorderToAvoid() = %s, want %s", out[0], want)
	}
	if !out[0].IsPermutationOf(input) {
		t.Errorf("%s is not a permutation of %s", out[0], input)
	}
}

func TestSTRIPSPlanner_ReorderEmpty(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t)
	start := planning.NewState(at("west"))

	out, err := p.ReorderToAvoid(context.Background(), start, planning.NewState(), []planning.Plan{{}})
	if err != nil {
		t.Fatalf("ReorderToAvoid() error = %v", err)
	}
	if out[0].Len() != 0 {
		t.Errorf("ReorderToAvoid() = %s, want empty plan", out[0])
	}

	_, err = p.ReorderToAvoid(context.Background(), start, planning.NewState(at("east")), []planning.Plan{{}})
	if !errors.Is(err, planning.ErrUnorderablePlan) {
		t.Errorf("ReorderToAvoid() error = %v, want ErrUnorderablePlan", err)
	}
}

func TestSTRIPSPlanner_CompleteInsertsMinimal(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t)
	start := planning.NewState(at("west"))
	goal := planning.NewState(at("west"))
	partial := planning.Plan{"go-west"}

	plan, err := p.CompletePlan(context.Background(), start, goal, partial)
	if err != nil {
		t.Fatalf("CompletePlan() error = %v", err)
	}
	want := planning.Plan{"go-east", "go-west"}
	if !plan.Equal(want) {
		t.Errorf("CompletePlan() = %s, want %s", plan, want)
	}
	if !partial.IsSubsequenceOf(plan) {
		t.Errorf("%s does not preserve %s", plan, partial)
	}
}

func TestSTRIPSPlanner_CompleteInsertionLimit(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t, WithLimits(search.Limits{MaxDepth: 1}))
	start := planning.NewState(at("west"))

	// Taking go-west twice from west needs two insertions.
	_, err := p.CompletePlan(context.Background(), start, planning.NewState(at("west")),
		planning.Plan{"go-west", "go-west"})
	if !errors.Is(err, planning.ErrIncompletablePlan) {
		t.Errorf("CompletePlan() error = %v, want ErrIncompletablePlan", err)
	}
}

func TestSTRIPSPlanner_Cancelled(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GeneratePlan(ctx, planning.NewState(at("west")), planning.NewState(at("east")))
	if !errors.Is(err, planning.ErrNoPlanFound) {
		t.Errorf("GeneratePlan() error = %v, want ErrNoPlanFound", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GeneratePlan() error = %v, want context.Canceled in chain", err)
	}
}

func TestSTRIPSPlanner_ConcurrentUse(t *testing.T) {
	t.Parallel()

	p := corridorPlanner(t)
	start := planning.NewState(at("west"))
	goal := planning.NewState(at("east"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			plan, err := p.GenerateCompletePlan(context.Background(), start, goal)
			if err != nil {
				errs <- err
				return
			}
			if !plan.Equal(planning.Plan{"go-east"}) {
				errs <- errors.New("unexpected plan " + plan.String())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
