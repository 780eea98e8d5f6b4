package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/felixgeelhaar/plan-go/application"
	domainconfig "github.com/felixgeelhaar/plan-go/domain/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/dispatch"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
	"github.com/felixgeelhaar/plan-go/infrastructure/observability"
	"github.com/felixgeelhaar/plan-go/infrastructure/planner"
	"github.com/felixgeelhaar/plan-go/infrastructure/resilience"
	"github.com/felixgeelhaar/plan-go/infrastructure/telemetry"
)

// shutdownTimeout bounds flushing spans and metrics on exit.
const shutdownTimeout = 5 * time.Second

// runtime is the planner assembled from configuration.
type runtime struct {
	config  *domainconfig.PlannerConfig
	build   *config.BuildResult
	service *application.Service
	tracing *observability.Provider

	meters *sdkmetric.MeterProvider
	reader *sdkmetric.ManualReader
}

// loader returns the configuration loader for the global flags.
func (a *App) loader() *config.Loader {
	return config.NewLoaderWithOptions(
		config.WithValidation(true),
		config.WithStrictEnv(a.opts.strictEnv),
	)
}

// loadConfig loads the configuration file, or the defaults when none is given.
func (a *App) loadConfig() (*domainconfig.PlannerConfig, error) {
	if a.opts.configPath == "" {
		return domainconfig.DefaultConfig(), nil
	}
	cfg, err := a.loader().LoadFile(a.opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildConfig turns a configuration into runtime settings.
func buildConfig(cfg *domainconfig.PlannerConfig) (*config.BuildResult, error) {
	result, err := config.NewBuilder(cfg).Build()
	if err != nil {
		return nil, fmt.Errorf("configuration build failed: %w", err)
	}
	return result, nil
}

// newRegistry builds the problem type registry for result, loading every
// declared operator document.
func newRegistry(result *config.BuildResult) (*dispatch.Registry, error) {
	domains := make([]dispatch.Domain, 0, len(result.Domains))
	for _, d := range result.Domains {
		domains = append(domains, dispatch.Domain{
			Name:        d.Name,
			Description: d.Description,
			Operators:   d.Operators,
		})
	}
	return dispatch.NewDefaultRegistry(
		dispatch.WithPlannerOptions(
			planner.WithStrategy(result.Strategy),
			planner.WithLimits(result.Limits),
		),
		dispatch.WithDomains(domains...),
	)
}

// setupLogging installs the logger for the configuration and flags.
func (a *App) setupLogging(result *config.BuildResult) {
	lc := result.Logging
	if a.opts.logLevel != "" {
		lc.Level = a.opts.logLevel
	}
	lc.Output = a.stderr
	logging.Replace(logging.New(lc))
}

// newRuntime loads the configuration and assembles the service.
func (a *App) newRuntime() (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	result, err := buildConfig(cfg)
	if err != nil {
		return nil, err
	}
	a.setupLogging(result)

	rt := &runtime{config: cfg, build: result}

	tracingOpts := append([]observability.Option{}, result.Tracing...)
	if a.opts.trace {
		tracingOpts = append(tracingOpts, observability.WithStdoutTracing(a.stderr))
	}
	rt.tracing, err = observability.New(tracingOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	var metrics telemetry.Metrics = telemetry.NoopMetricsProvider{}
	if result.MetricsEnabled {
		rt.reader = sdkmetric.NewManualReader()
		rt.meters = sdkmetric.NewMeterProvider(sdkmetric.WithReader(rt.reader))
		mc := telemetry.DefaultMetricsConfig()
		mc.MeterVersion = Version
		mc.MeterProvider = rt.meters
		mp := telemetry.NewMetricsProvider(mc)
		if err := mp.Error(); err != nil {
			logging.Warn().Add(logging.Component("cli")).Add(logging.ErrorField(err)).Msg("metric instruments incomplete")
		}
		metrics = mp
	}

	registry, err := newRegistry(result)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	rt.service, err = application.New(
		application.WithRegistry(registry),
		application.WithGuard(resilience.NewGuard(result.Guard)),
		application.WithMetrics(metrics),
		application.WithTracer(rt.tracing.Tracer()),
	)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}

	logging.Debug().
		Add(logging.Component("cli")).
		Add(logging.Strategy(string(result.Strategy))).
		Add(logging.Int("problem_types", registry.Len())).
		Msg("planner ready")
	return rt, nil
}

// Close flushes spans and reports collected metrics.
func (rt *runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if rt.reader != nil {
		var rm metricdata.ResourceMetrics
		if err := rt.reader.Collect(ctx, &rm); err != nil {
			errs = append(errs, err)
		} else {
			logMetrics(rm)
		}
		errs = append(errs, rt.meters.Shutdown(ctx))
	}
	if rt.tracing != nil {
		errs = append(errs, rt.tracing.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

// logMetrics writes one log line per collected instrument.
func logMetrics(rm metricdata.ResourceMetrics) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			e := logging.Info().Add(logging.Component("metrics")).Add(logging.Str("metric", m.Name))
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total int64
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
				e.Add(logging.Int("value", int(total)))
			case metricdata.Histogram[float64]:
				var count uint64
				var sum float64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				e.Add(logging.Int("count", int(count))).Add(logging.Str("sum", fmt.Sprintf("%.3f", sum)))
			case metricdata.Histogram[int64]:
				var count uint64
				var sum int64
				for _, dp := range data.DataPoints {
					count += dp.Count
					sum += dp.Sum
				}
				e.Add(logging.Int("count", int(count))).Add(logging.Int("sum", int(sum)))
			}
			e.Msg("metric")
		}
	}
}
