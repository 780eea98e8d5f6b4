// Package telemetry provides OpenTelemetry metrics for planning requests.
package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	requests         metric.Int64Counter
	phaseTransitions metric.Int64Counter
	expandedNodes    metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	rejections       metric.Int64Counter
	errors           metric.Int64Counter

	// Histograms
	stageDuration metric.Float64Histogram
	planLength    metric.Int64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	activeRequests metric.Int64UpDownCounter

	initErr error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/plan-go").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// MeterProvider overrides the global meter provider.
	MeterProvider metric.MeterProvider
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/plan-go",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config.MeterName = DefaultMetricsConfig().MeterName
	}
	provider := config.MeterProvider
	if provider == nil {
		provider = otel.GetMeterProvider()
	}

	mp := &MetricsProvider{
		meter: provider.Meter(config.MeterName, metric.WithInstrumentationVersion(config.MeterVersion)),
	}
	mp.initErr = mp.initInstruments()
	return mp
}

func (mp *MetricsProvider) initInstruments() error {
	var errs []error
	counter := func(name, desc, unit string) metric.Int64Counter {
		c, err := mp.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
		errs = append(errs, err)
		return c
	}

	mp.requests = counter("planner.requests", "Number of planning requests", "{request}")
	mp.phaseTransitions = counter("planner.phase.transitions", "Number of request phase transitions", "{transition}")
	mp.expandedNodes = counter("planner.search.expanded", "Search nodes expanded", "{node}")
	mp.cacheHits = counter("planner.cache.hits", "Planner cache hits", "{hit}")
	mp.cacheMisses = counter("planner.cache.misses", "Planner cache misses", "{miss}")
	mp.rejections = counter("planner.rejections", "Requests rejected by the concurrency guard", "{request}")
	mp.errors = counter("planner.errors", "Number of planning errors", "{error}")

	var err error
	mp.stageDuration, err = mp.meter.Float64Histogram(
		"planner.stage.duration",
		metric.WithDescription("Duration of planning stages"),
		metric.WithUnit("ms"),
	)
	errs = append(errs, err)

	mp.planLength, err = mp.meter.Int64Histogram(
		"planner.plan.length",
		metric.WithDescription("Length of returned plans"),
		metric.WithUnit("{action}"),
	)
	errs = append(errs, err)

	mp.activeRequests, err = mp.meter.Int64UpDownCounter(
		"planner.requests.active",
		metric.WithDescription("Number of in-flight planning requests"),
		metric.WithUnit("{request}"),
	)
	errs = append(errs, err)

	return errors.Join(errs...)
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordRequest records a finished request and, on failure, its error kind.
func (mp *MetricsProvider) RecordRequest(ctx context.Context, operation, problemType string, plan planning.Plan, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("planner.operation", operation),
		attribute.String("planner.problem_type", problemType),
		attribute.Bool("success", err == nil),
	}
	mp.requests.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		mp.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("error.kind", planning.ErrorKind(err)),
			attribute.String("planner.operation", operation),
		))
		return
	}
	mp.planLength.Record(ctx, int64(plan.Len()), metric.WithAttributes(attrs[:2]...))
}

// RecordStage records the duration of one planning stage.
func (mp *MetricsProvider) RecordStage(ctx context.Context, stage, problemType string, duration time.Duration, success bool) {
	mp.stageDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("planner.stage", stage),
		attribute.String("planner.problem_type", problemType),
		attribute.Bool("success", success),
	))
}

// RecordPhaseTransition records a request phase transition.
func (mp *MetricsProvider) RecordPhaseTransition(ctx context.Context, from, to planning.Phase) {
	mp.phaseTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase.from", from.String()),
		attribute.String("phase.to", to.String()),
	))
}

// RecordExpanded records search nodes expanded for a problem type.
func (mp *MetricsProvider) RecordExpanded(ctx context.Context, problemType string, n int) {
	mp.expandedNodes.Add(ctx, int64(n), metric.WithAttributes(attribute.String("planner.problem_type", problemType)))
}

// RecordCacheHit records a planner cache hit.
func (mp *MetricsProvider) RecordCacheHit(ctx context.Context, problemType string) {
	mp.cacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("planner.problem_type", problemType)))
}

// RecordCacheMiss records a planner cache miss.
func (mp *MetricsProvider) RecordCacheMiss(ctx context.Context, problemType string) {
	mp.cacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("planner.problem_type", problemType)))
}

// RecordRejection records a request turned away before planning started.
func (mp *MetricsProvider) RecordRejection(ctx context.Context, operation string) {
	mp.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("planner.operation", operation)))
}

// IncrementActiveRequests increments the in-flight request gauge.
func (mp *MetricsProvider) IncrementActiveRequests(ctx context.Context) {
	mp.activeRequests.Add(ctx, 1)
}

// DecrementActiveRequests decrements the in-flight request gauge.
func (mp *MetricsProvider) DecrementActiveRequests(ctx context.Context) {
	mp.activeRequests.Add(ctx, -1)
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordRequest is a no-op.
func (NoopMetricsProvider) RecordRequest(context.Context, string, string, planning.Plan, error) {}

// RecordStage is a no-op.
func (NoopMetricsProvider) RecordStage(context.Context, string, string, time.Duration, bool) {}

// RecordPhaseTransition is a no-op.
func (NoopMetricsProvider) RecordPhaseTransition(context.Context, planning.Phase, planning.Phase) {}

// RecordExpanded is a no-op.
func (NoopMetricsProvider) RecordExpanded(context.Context, string, int) {}

// RecordCacheHit is a no-op.
func (NoopMetricsProvider) RecordCacheHit(context.Context, string) {}

// RecordCacheMiss is a no-op.
func (NoopMetricsProvider) RecordCacheMiss(context.Context, string) {}

// RecordRejection is a no-op.
func (NoopMetricsProvider) RecordRejection(context.Context, string) {}

// IncrementActiveRequests is a no-op.
func (NoopMetricsProvider) IncrementActiveRequests(context.Context) {}

// DecrementActiveRequests is a no-op.
func (NoopMetricsProvider) DecrementActiveRequests(context.Context) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordRequest(ctx context.Context, operation, problemType string, plan planning.Plan, err error)
	RecordStage(ctx context.Context, stage, problemType string, duration time.Duration, success bool)
	RecordPhaseTransition(ctx context.Context, from, to planning.Phase)
	RecordExpanded(ctx context.Context, problemType string, n int)
	RecordCacheHit(ctx context.Context, problemType string)
	RecordCacheMiss(ctx context.Context, problemType string)
	RecordRejection(ctx context.Context, operation string)
	IncrementActiveRequests(ctx context.Context)
	DecrementActiveRequests(ctx context.Context)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = NoopMetricsProvider{}
)
