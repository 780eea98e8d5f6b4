package application

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/plan-go/infrastructure/dispatch"
	"github.com/felixgeelhaar/plan-go/infrastructure/planner"
	"github.com/felixgeelhaar/plan-go/infrastructure/resilience"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
	"github.com/felixgeelhaar/plan-go/infrastructure/telemetry"
)

// Option configures the service.
type Option func(*ServiceConfig)

// WithRegistry sets the problem type registry.
func WithRegistry(r *dispatch.Registry) Option {
	return func(c *ServiceConfig) {
		c.Registry = r
	}
}

// WithSearchLimits bounds the planners of the default registry. It has no
// effect together with WithRegistry.
func WithSearchLimits(l search.Limits) Option {
	return func(c *ServiceConfig) {
		c.PlannerOptions = append(c.PlannerOptions, planner.WithLimits(l))
	}
}

// WithSearchStrategy selects the search strategy of the default registry's
// planners. It has no effect together with WithRegistry.
func WithSearchStrategy(s search.Strategy) Option {
	return func(c *ServiceConfig) {
		c.PlannerOptions = append(c.PlannerOptions, planner.WithStrategy(s))
	}
}

// WithGuard sets the request guard.
func WithGuard(g *resilience.Guard) Option {
	return func(c *ServiceConfig) {
		c.Guard = g
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m telemetry.Metrics) Option {
	return func(c *ServiceConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *ServiceConfig) {
		c.Tracer = t
	}
}

// New creates a service with the given options.
func New(opts ...Option) (*Service, error) {
	var config ServiceConfig
	for _, opt := range opts {
		opt(&config)
	}
	return NewService(config)
}
