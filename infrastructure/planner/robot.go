package planner

import (
	"fmt"
	"sync"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/operators"
)

// RobotProblemType is the problem type served by RobotPaintingPlanner.
const RobotProblemType = "robot"

// robotVocabulary maps each robot-domain predicate to its arity.
var robotVocabulary = map[string]int{
	"on":      2,
	"dry":     1,
	"painted": 1,
}

var robotOps struct {
	once sync.Once
	set  *planning.OperatorSet
	err  error
}

// robotOperators loads the embedded robot operator set on first use.
func robotOperators() (*planning.OperatorSet, error) {
	robotOps.once.Do(func() {
		robotOps.set, robotOps.err = operators.LoadBuiltin(RobotProblemType)
	})
	return robotOps.set, robotOps.err
}

// RobotPaintingPlanner plans for a robot that must paint a ceiling and the
// ladder it climbs to reach it. A wet ladder cannot be climbed, so painting
// the ladder has to come last.
type RobotPaintingPlanner struct {
	*STRIPSPlanner
}

// NewRobotPaintingPlanner creates the robot painting planner.
func NewRobotPaintingPlanner(opts ...Option) (*RobotPaintingPlanner, error) {
	ops, err := robotOperators()
	if err != nil {
		return nil, err
	}
	base, err := NewSTRIPSPlanner(RobotProblemType, ops, opts...)
	if err != nil {
		return nil, err
	}
	return &RobotPaintingPlanner{STRIPSPlanner: base}, nil
}

// ParseRobotState builds a robot-domain state from a condition list. Only
// on/2, dry/1 and painted/1 conditions are accepted.
func ParseRobotState(raw string) (planning.State, error) {
	state, err := planning.FromConditionsList(raw)
	if err != nil {
		return planning.State{}, err
	}
	if err := CheckVocabulary(state, robotVocabulary); err != nil {
		return planning.State{}, err
	}
	return state, nil
}

// CheckVocabulary rejects conditions whose predicate is not in vocab or whose
// arity differs from the declared one.
func CheckVocabulary(state planning.State, vocab map[string]int) error {
	for _, c := range state.Conditions() {
		arity, ok := vocab[c.Predicate]
		if !ok {
			return fmt.Errorf("%w: unknown predicate %q in %s", planning.ErrMalformedState, c.Predicate, c)
		}
		if c.Arity() != arity {
			return fmt.Errorf("%w: %s takes %d argument(s), got %d", planning.ErrMalformedState, c.Predicate, arity, c.Arity())
		}
	}
	return nil
}

// NewStateParser returns a state constructor for a generic domain. Predicates
// used by ops must appear with the arity the operators use; other predicates
// pass through as static facts.
func NewStateParser(ops *planning.OperatorSet) planning.StateConstructor {
	vocab := ops.Predicates()
	return func(raw string) (planning.State, error) {
		state, err := planning.FromConditionsList(raw)
		if err != nil {
			return planning.State{}, err
		}
		for _, c := range state.Conditions() {
			if arity, ok := vocab[c.Predicate]; ok && c.Arity() != arity {
				return planning.State{}, fmt.Errorf("%w: %s takes %d argument(s), got %d",
					planning.ErrMalformedState, c.Predicate, arity, c.Arity())
			}
		}
		return state, nil
	}
}

var _ planning.Planner = (*RobotPaintingPlanner)(nil)
