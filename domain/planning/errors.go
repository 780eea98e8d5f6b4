package planning

import "errors"

// Domain errors for the planning core.
var (
	// ErrMalformedOperator indicates an operator definition is not well formed.
	ErrMalformedOperator = errors.New("malformed operator")

	// ErrMalformedState indicates a condition list could not be parsed into a state.
	ErrMalformedState = errors.New("malformed state")

	// ErrOperatorLoad indicates an operator set source is missing or malformed.
	ErrOperatorLoad = errors.New("operator load failed")

	// ErrUnknownProblemType indicates no planner is registered for a problem type.
	ErrUnknownProblemType = errors.New("unknown problem type")

	// ErrNotImplementedPlanner indicates the problem type is registered but has no planner.
	ErrNotImplementedPlanner = errors.New("planner not implemented")

	// ErrInapplicableOperator indicates an operator was applied to a state missing its preconditions.
	ErrInapplicableOperator = errors.New("operator not applicable")

	// ErrNoPlanFound indicates the goal is unreachable within the search limits.
	ErrNoPlanFound = errors.New("no plan found")

	// ErrIncompletablePlan indicates a partial plan has no completion under the operator set.
	ErrIncompletablePlan = errors.New("plan cannot be completed")

	// ErrUnknownOperator indicates a plan references an operator name outside the operator set.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrUnorderablePlan indicates no legal ordering of a plan's actions exists.
	ErrUnorderablePlan = errors.New("no legal ordering for plan")
)

// kinds maps sentinels to stable labels, most specific first.
var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnknownProblemType, "unknown_problem_type"},
	{ErrNotImplementedPlanner, "not_implemented"},
	{ErrOperatorLoad, "operator_load"},
	{ErrMalformedOperator, "malformed_operator"},
	{ErrMalformedState, "malformed_state"},
	{ErrIncompletablePlan, "incompletable_plan"},
	{ErrUnorderablePlan, "unorderable_plan"},
	{ErrUnknownOperator, "unknown_operator"},
	{ErrInapplicableOperator, "inapplicable_operator"},
	{ErrNoPlanFound, "no_plan_found"},
}

// ErrorKind returns a stable label for a planning error, suitable for metrics
// attributes and CLI output. Unrecognized errors map to "internal".
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
