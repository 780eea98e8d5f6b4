package dispatch

import (
	"fmt"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
	"github.com/felixgeelhaar/plan-go/infrastructure/operators"
	"github.com/felixgeelhaar/plan-go/infrastructure/planner"
)

// Built-in problem types.
const (
	RobotProblemType      = planner.RobotProblemType
	BlockworldProblemType = "blockworld"
)

// Domain declares an operator-file backed problem type.
type Domain struct {
	Name        string
	Description string
	// Operators is the path to a JSON or YAML operator document.
	Operators string
}

type defaultOptions struct {
	plannerOpts []planner.Option
	domains     []Domain
	sets        map[string]*planning.OperatorSet
	setOrder    []string
}

// DefaultOption configures NewDefaultRegistry.
type DefaultOption func(*defaultOptions)

// WithPlannerOptions applies opts to every planner the registry builds.
func WithPlannerOptions(opts ...planner.Option) DefaultOption {
	return func(o *defaultOptions) {
		o.plannerOpts = append(o.plannerOpts, opts...)
	}
}

// WithDomains registers operator-file backed problem types.
func WithDomains(domains ...Domain) DefaultOption {
	return func(o *defaultOptions) {
		o.domains = append(o.domains, domains...)
	}
}

// WithOperatorSet registers a problem type over an in-memory operator set.
func WithOperatorSet(problemType string, ops *planning.OperatorSet) DefaultOption {
	return func(o *defaultOptions) {
		if o.sets == nil {
			o.sets = make(map[string]*planning.OperatorSet)
		}
		o.sets[problemType] = ops
		o.setOrder = append(o.setOrder, problemType)
	}
}

// NewDefaultRegistry registers the built-in problem types and every
// declared domain. Operator documents are loaded up front so a broken
// domain fails here rather than on first use.
func NewDefaultRegistry(opts ...DefaultOption) (*Registry, error) {
	var o defaultOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := NewRegistry()
	plannerOpts := o.plannerOpts

	if err := r.Register(RobotProblemType, Entry{
		NewPlanner: func() (planning.Planner, error) {
			return planner.NewRobotPaintingPlanner(plannerOpts...)
		},
		NewState:    planner.ParseRobotState,
		Description: "Robot painting the ceiling and a ladder",
	}); err != nil {
		return nil, err
	}

	if err := r.Register(BlockworldProblemType, Entry{
		Description: "Stacking blocks on a table",
	}); err != nil {
		return nil, err
	}

	for _, d := range o.domains {
		ops, err := operators.LoadFile(d.Operators)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", d.Name, err)
		}
		if err := r.registerSet(d.Name, d.Description, ops, plannerOpts); err != nil {
			return nil, err
		}
		logging.Debug().
			Add(logging.ProblemType(d.Name)).
			Add(logging.Path(d.Operators)).
			Add(logging.Int("operators", ops.Len())).
			Msg("domain registered")
	}

	for _, name := range o.setOrder {
		if err := r.registerSet(name, "", o.sets[name], plannerOpts); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Registry) registerSet(name, description string, ops *planning.OperatorSet, plannerOpts []planner.Option) error {
	return r.Register(name, Entry{
		NewPlanner: func() (planning.Planner, error) {
			return planner.NewSTRIPSPlanner(name, ops, plannerOpts...)
		},
		NewState:    planner.NewStateParser(ops),
		Description: description,
	})
}
