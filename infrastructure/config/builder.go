package config

import (
	"fmt"

	domainconfig "github.com/felixgeelhaar/plan-go/domain/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
	"github.com/felixgeelhaar/plan-go/infrastructure/observability"
	"github.com/felixgeelhaar/plan-go/infrastructure/resilience"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
)

// Builder builds runtime settings from configuration.
type Builder struct {
	config *domainconfig.PlannerConfig
}

// NewBuilder creates a new configuration builder.
func NewBuilder(config *domainconfig.PlannerConfig) *Builder {
	return &Builder{config: config}
}

// BuildResult contains the built components from configuration.
type BuildResult struct {
	// Strategy is the search strategy.
	Strategy search.Strategy
	// Limits bound every search.
	Limits search.Limits
	// Logging configures the logger.
	Logging logging.Config
	// Guard configures the request guard.
	Guard resilience.GuardConfig
	// Tracing holds the observability provider options.
	Tracing []observability.Option
	// MetricsEnabled enables metric recording.
	MetricsEnabled bool
	// Domains are the operator-file backed problem types.
	Domains []DomainRequest
}

// DomainRequest represents a request to register a problem type.
type DomainRequest struct {
	Name        string
	Description string
	Operators   string
}

// SearchOptions returns the searcher options for the built settings.
func (r *BuildResult) SearchOptions() []search.Option {
	return []search.Option{search.WithStrategy(r.Strategy), search.WithLimits(r.Limits)}
}

// Build builds the runtime settings from configuration.
func (b *Builder) Build() (*BuildResult, error) {
	if b.config == nil {
		return nil, fmt.Errorf("%w: nil configuration", domainconfig.ErrValidationFailed)
	}

	result := &BuildResult{}

	if err := b.buildSearch(result); err != nil {
		return nil, fmt.Errorf("building search: %w", err)
	}

	result.Logging = logging.Config{
		Level:  b.config.Logging.Level,
		Format: b.config.Logging.Format,
	}

	b.buildGuard(result)

	if err := b.buildTracing(result); err != nil {
		return nil, fmt.Errorf("building tracing: %w", err)
	}
	result.MetricsEnabled = b.config.Telemetry.Metrics.Enabled

	for _, d := range b.config.Domains {
		result.Domains = append(result.Domains, DomainRequest{
			Name:        d.Name,
			Description: d.Description,
			Operators:   d.Operators,
		})
	}

	return result, nil
}

func (b *Builder) buildSearch(result *BuildResult) error {
	strategy := search.Strategy(b.config.Search.Strategy)
	if strategy == "" {
		strategy = search.StrategyBFS
	}
	if !strategy.IsValid() {
		return fmt.Errorf("unknown strategy: %s", strategy)
	}
	result.Strategy = strategy

	// Zero values fall back to search.DefaultLimits.
	result.Limits = search.Limits{
		MaxDepth: b.config.Search.MaxDepth,
		MaxNodes: b.config.Search.MaxNodes,
		Timeout:  b.config.Search.Timeout.Duration(),
	}
	return nil
}

func (b *Builder) buildGuard(result *BuildResult) {
	result.Guard = resilience.GuardConfig{
		Timeout: b.config.Resilience.Timeout.Duration(),
	}
	if b.config.Resilience.Bulkhead.Enabled {
		result.Guard.MaxConcurrent = b.config.Resilience.Bulkhead.MaxConcurrent
	}
}

func (b *Builder) buildTracing(result *BuildResult) error {
	tc := b.config.Telemetry.Tracing
	opts := []observability.Option{
		observability.WithServiceName(b.config.Name),
		observability.WithServiceVersion(b.config.Version),
	}
	if !tc.Enabled {
		result.Tracing = opts
		return nil
	}

	exporter, err := parseExporter(tc.Exporter)
	if err != nil {
		return err
	}
	opts = append(opts,
		observability.WithTracing(exporter, tc.Endpoint),
		observability.WithSampleRate(tc.SampleRate),
	)
	if tc.Insecure {
		opts = append(opts, observability.WithTracingInsecure())
	}
	result.Tracing = opts
	return nil
}

func parseExporter(s string) (observability.ExporterType, error) {
	exporterMap := map[string]observability.ExporterType{
		"stdout": observability.ExporterStdout,
		"otlp":   observability.ExporterOTLP,
		"noop":   observability.ExporterNoop,
	}
	exporter, ok := exporterMap[s]
	if !ok {
		return "", fmt.Errorf("unknown exporter: %s", s)
	}
	return exporter, nil
}
