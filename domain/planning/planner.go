package planning

import "context"

// Planner encapsulates one problem domain's operator vocabulary and its
// search and refinement strategy.
//
// Implementations hold no per-request mutable state: start and goal are
// passed to every call, so a Planner may serve concurrent requests.
type Planner interface {
	// ProblemType returns the problem type the planner serves.
	ProblemType() string

	// Operators returns the planner's immutable operator set.
	Operators() *OperatorSet

	// GeneratePlan searches for a plan leading from start to a state
	// satisfying goal. Returns ErrNoPlanFound when the search limits are hit.
	GeneratePlan(ctx context.Context, start, goal State) (Plan, error)

	// ReorderToAvoid reorders each plan's actions so every step is legal
	// from start and the final state satisfies goal. Each result is a
	// permutation of its input.
	ReorderToAvoid(ctx context.Context, start, goal State, plans []Plan) ([]Plan, error)

	// CompletePlan inserts the actions missing from partial so the result
	// reaches goal, preserving the relative order of partial's actions.
	CompletePlan(ctx context.Context, start, goal State, partial Plan) (Plan, error)

	// GenerateCompletePlan composes GeneratePlan, ReorderToAvoid and
	// CompletePlan, failing with the first stage error.
	GenerateCompletePlan(ctx context.Context, start, goal State) (Plan, error)
}

// StateConstructor parses a caller-supplied condition list into a State for
// a specific problem domain.
type StateConstructor func(raw string) (State, error)

// PlannerConstructor builds a ready-to-use Planner.
type PlannerConstructor func() (Planner, error)
