// Package application provides the application layer for the planner: it
// resolves problem types, parses states and drives each request through
// its lifecycle.
package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/dispatch"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
	"github.com/felixgeelhaar/plan-go/infrastructure/observability"
	"github.com/felixgeelhaar/plan-go/infrastructure/planner"
	"github.com/felixgeelhaar/plan-go/infrastructure/resilience"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
	"github.com/felixgeelhaar/plan-go/infrastructure/statemachine"
	"github.com/felixgeelhaar/plan-go/infrastructure/telemetry"
)

// Operation names.
const (
	OpGeneratePlan         = "generate_plan"
	OpReorderToAvoid       = "reorder_to_avoid"
	OpCompletePlan         = "complete_plan"
	OpGenerateCompletePlan = "generate_complete_plan"
)

// Stage names used for spans and metrics.
const (
	stageGenerate = "generate"
	stageReorder  = "reorder"
	stageComplete = "complete"
)

// Result describes a finished planning request. It is returned even when
// the request fails, carrying the terminal phase and transition log.
type Result struct {
	RequestID   string
	ProblemType string
	// Plan is the returned plan; for reordering, the first plan.
	Plan planning.Plan
	// Plans holds every reordered plan.
	Plans       []planning.Plan
	Phase       planning.Phase
	Transitions []statemachine.Transition
	Expanded    int
	Duration    time.Duration
}

// Service is the main orchestration service for planning requests.
type Service struct {
	mu       sync.RWMutex
	registry *dispatch.Registry
	planners map[string]planning.Planner

	guard   *resilience.Guard
	metrics telemetry.Metrics
	tracer  trace.Tracer
}

// ServiceConfig contains configuration for the service.
type ServiceConfig struct {
	// Registry resolves problem types. Defaults to dispatch.NewDefaultRegistry
	// built with PlannerOptions.
	Registry *dispatch.Registry
	// PlannerOptions configure planners of the default registry.
	PlannerOptions []planner.Option
	Guard          *resilience.Guard
	Metrics        telemetry.Metrics
	Tracer         trace.Tracer
}

// NewService creates a new service with the given configuration.
func NewService(config ServiceConfig) (*Service, error) {
	s := &Service{
		registry: config.Registry,
		planners: make(map[string]planning.Planner),
		guard:    config.Guard,
		metrics:  config.Metrics,
		tracer:   config.Tracer,
	}

	// Set defaults
	if s.registry == nil {
		r, err := dispatch.NewDefaultRegistry(dispatch.WithPlannerOptions(config.PlannerOptions...))
		if err != nil {
			return nil, fmt.Errorf("default registry: %w", err)
		}
		s.registry = r
	}
	if s.guard == nil {
		s.guard = resilience.NewDefaultGuard()
	}
	if s.metrics == nil {
		s.metrics = telemetry.NoopMetricsProvider{}
	}
	if s.tracer == nil {
		s.tracer = observability.NewNoopProvider().Tracer()
	}

	return s, nil
}

// Registry returns the active registry.
func (s *Service) Registry() *dispatch.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry
}

// ReplaceRegistry swaps the registry and drops cached planners. Requests
// already running keep the planner they resolved.
func (s *Service) ReplaceRegistry(r *dispatch.Registry) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = r
	s.planners = make(map[string]planning.Planner)
	logging.Info().
		Add(logging.Component("service")).
		Add(logging.Int("problem_types", r.Len())).
		Msg("registry replaced")
}

// resolve returns the entry and a cached planner for problemType.
// Construction errors are not cached.
func (s *Service) resolve(ctx context.Context, problemType string) (dispatch.Entry, planning.Planner, error) {
	s.mu.RLock()
	registry := s.registry
	p, ok := s.planners[problemType]
	s.mu.RUnlock()

	entry, err := registry.Resolve(problemType)
	if err != nil {
		return dispatch.Entry{}, nil, err
	}
	if ok {
		s.metrics.RecordCacheHit(ctx, problemType)
		return entry, p, nil
	}
	s.metrics.RecordCacheMiss(ctx, problemType)

	p, err = entry.NewPlanner()
	if err != nil {
		return dispatch.Entry{}, nil, fmt.Errorf("construct %s planner: %w", problemType, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Only cache against the registry the planner came from.
	if s.registry == registry {
		if cached, ok := s.planners[problemType]; ok {
			return entry, cached, nil
		}
		s.planners[problemType] = p
	}
	return entry, p, nil
}

// request is the per-call state of one operation.
type request struct {
	svc         *Service
	id          string
	op          string
	problemType string
	interp      *statemachine.Interpreter
	planner     planning.Planner
	start, goal planning.State
	plans       []planning.Plan
}

// stage advances into phase and runs fn inside a span.
func (r *request) stage(ctx context.Context, phase planning.Phase, name string, fn func(context.Context) (planning.Plan, error)) (planning.Plan, error) {
	if err := r.interp.Advance(phase, name); err != nil {
		return nil, err
	}
	began := time.Now()
	plan, err := observability.Traced(ctx, r.svc.tracer, name, fn,
		observability.AttrRequestID.String(r.id),
		observability.AttrProblemType.String(r.problemType))
	r.svc.metrics.RecordStage(ctx, name, r.problemType, time.Since(began), err == nil)
	return plan, err
}

func (r *request) generate(ctx context.Context) (planning.Plan, error) {
	plan, err := r.stage(ctx, planning.PhaseSearching, stageGenerate, func(ctx context.Context) (planning.Plan, error) {
		return r.planner.GeneratePlan(ctx, r.start, r.goal)
	})
	if err != nil {
		return nil, err
	}
	if err := r.interp.Advance(planning.PhasePlanFound, ""); err != nil {
		return nil, err
	}
	return plan, nil
}

func (r *request) reorder(ctx context.Context, plans []planning.Plan) (planning.Plan, error) {
	return r.stage(ctx, planning.PhaseReordering, stageReorder, func(ctx context.Context) (planning.Plan, error) {
		out, err := r.planner.ReorderToAvoid(ctx, r.start, r.goal, plans)
		if err != nil {
			return nil, err
		}
		r.plans = out
		if len(out) == 0 {
			return planning.Plan{}, nil
		}
		return out[0], nil
	})
}

func (r *request) complete(ctx context.Context, partial planning.Plan) (planning.Plan, error) {
	return r.stage(ctx, planning.PhaseCompleting, stageComplete, func(ctx context.Context) (planning.Plan, error) {
		return r.planner.CompletePlan(ctx, r.start, r.goal, partial)
	})
}

// execute runs body for one request: it resolves the problem type, parses
// the states, applies the guard and settles the lifecycle.
func (s *Service) execute(ctx context.Context, op, problemType, rawStart, rawGoal string, stages []planning.Phase, body func(context.Context, *request) (planning.Plan, error)) (*Result, error) {
	began := time.Now()
	id := uuid.NewString()

	interp, err := statemachine.NewRequest(id, stages...)
	if err != nil {
		return nil, err
	}
	defer interp.Stop()

	r := &request{svc: s, id: id, op: op, problemType: problemType, interp: interp}

	s.metrics.IncrementActiveRequests(ctx)
	defer s.metrics.DecrementActiveRequests(ctx)

	collector := &search.Collector{}
	ctx = search.WithCollector(ctx, collector)
	ctx, span := observability.StartStage(ctx, s.tracer, op,
		observability.AttrRequestID.String(id),
		observability.AttrProblemType.String(problemType))

	logging.Debug().
		Add(logging.RequestID(id)).
		Add(logging.Operation(op)).
		Add(logging.ProblemType(problemType)).
		Msg("request started")

	plan, err := s.guard.Execute(ctx, func(ctx context.Context) (planning.Plan, error) {
		if err := r.prepare(ctx, rawStart, rawGoal); err != nil {
			return nil, err
		}
		return body(ctx, r)
	})
	if errors.Is(err, resilience.ErrOverloaded) {
		s.metrics.RecordRejection(ctx, op)
	}
	if err != nil {
		plan = nil
	}

	phase := interp.Settle(err)
	result := &Result{
		RequestID:   id,
		ProblemType: problemType,
		Plan:        plan,
		Plans:       r.plans,
		Phase:       phase,
		Transitions: interp.Transitions(),
		Expanded:    collector.Expanded(),
		Duration:    time.Since(began),
	}
	if err != nil {
		result.Plans = nil
	}

	for _, tr := range result.Transitions {
		s.metrics.RecordPhaseTransition(ctx, tr.From, tr.To)
	}
	s.metrics.RecordExpanded(ctx, problemType, result.Expanded)
	s.metrics.RecordRequest(ctx, op, problemType, plan, err)
	observability.EndStage(span, plan, err)

	if err != nil {
		logging.Warn().
			Add(logging.RequestID(id)).
			Add(logging.Operation(op)).
			Add(logging.ProblemType(problemType)).
			Add(logging.Phase(phase)).
			Add(logging.Expanded(result.Expanded)).
			Add(logging.Duration(result.Duration)).
			Add(logging.ErrorField(err)).
			Msg("request failed")
		return result, err
	}

	logging.Info().
		Add(logging.RequestID(id)).
		Add(logging.Operation(op)).
		Add(logging.ProblemType(problemType)).
		Add(logging.Phase(phase)).
		Add(logging.PlanField(plan)).
		Add(logging.Expanded(result.Expanded)).
		Add(logging.Duration(result.Duration)).
		Msg("request completed")
	return result, nil
}

// prepare resolves the planner and parses start and goal with the
// problem type's state constructor.
func (r *request) prepare(ctx context.Context, rawStart, rawGoal string) error {
	entry, p, err := r.svc.resolve(ctx, r.problemType)
	if err != nil {
		return err
	}
	r.planner = p

	if r.start, err = entry.NewState(rawStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if r.goal, err = entry.NewState(rawGoal); err != nil {
		return fmt.Errorf("goal: %w", err)
	}
	return nil
}

// GeneratePlan searches for a plan from rawStart to rawGoal.
func (s *Service) GeneratePlan(ctx context.Context, problemType, rawStart, rawGoal string) (*Result, error) {
	return s.execute(ctx, OpGeneratePlan, problemType, rawStart, rawGoal, statemachine.GenerateStages,
		func(ctx context.Context, r *request) (planning.Plan, error) {
			return r.generate(ctx)
		})
}

// ReorderToAvoid reorders every plan into a legal sequence reaching rawGoal.
func (s *Service) ReorderToAvoid(ctx context.Context, problemType, rawStart, rawGoal string, plans []planning.Plan) (*Result, error) {
	return s.execute(ctx, OpReorderToAvoid, problemType, rawStart, rawGoal, statemachine.ReorderStages,
		func(ctx context.Context, r *request) (planning.Plan, error) {
			return r.reorder(ctx, plans)
		})
}

// CompletePlan inserts the actions partial is missing to reach rawGoal.
func (s *Service) CompletePlan(ctx context.Context, problemType, rawStart, rawGoal string, partial planning.Plan) (*Result, error) {
	return s.execute(ctx, OpCompletePlan, problemType, rawStart, rawGoal, statemachine.CompleteStages,
		func(ctx context.Context, r *request) (planning.Plan, error) {
			return r.complete(ctx, partial)
		})
}

// GenerateCompletePlan generates, reorders and completes a plan, failing
// with the first stage error.
func (s *Service) GenerateCompletePlan(ctx context.Context, problemType, rawStart, rawGoal string) (*Result, error) {
	return s.execute(ctx, OpGenerateCompletePlan, problemType, rawStart, rawGoal, statemachine.GenerateCompleteStages,
		func(ctx context.Context, r *request) (planning.Plan, error) {
			plan, err := r.generate(ctx)
			if err != nil {
				return nil, err
			}
			reordered, err := r.reorder(ctx, []planning.Plan{plan})
			if err != nil {
				return nil, err
			}
			r.plans = nil
			return r.complete(ctx, reordered)
		})
}
