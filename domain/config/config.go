// Package config provides domain models for planner configuration.
package config

import "time"

// PlannerConfig represents the complete planner configuration.
type PlannerConfig struct {
	// Name is a human-readable name for this configuration.
	Name string `json:"name" yaml:"name"`
	// Version is the configuration schema version.
	Version string `json:"version" yaml:"version"`
	// Description describes the deployment.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Search bounds plan generation, reordering and completion.
	Search SearchConfig `json:"search,omitempty" yaml:"search,omitempty"`
	// Logging configures structured logging.
	Logging LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
	// Resilience guards planning requests.
	Resilience ResilienceConfig `json:"resilience,omitempty" yaml:"resilience,omitempty"`
	// Telemetry configures tracing and metrics.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`
	// Domains declares additional problem types backed by operator files.
	Domains []DomainConfig `json:"domains,omitempty" yaml:"domains,omitempty"`
}

// SearchConfig configures the state-space search.
type SearchConfig struct {
	// Strategy is the search algorithm (bfs or astar).
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	// MaxDepth is the longest plan considered.
	MaxDepth int `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	// MaxNodes is the maximum number of node expansions per search.
	MaxNodes int `json:"max_nodes,omitempty" yaml:"max_nodes,omitempty"`
	// Timeout is the wall-clock budget per search.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the minimum level (trace, debug, info, warn, error).
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is json or console.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ResilienceConfig contains resilience settings.
type ResilienceConfig struct {
	// Timeout bounds a whole planning request.
	Timeout Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// Bulkhead configures bulkhead behavior.
	Bulkhead BulkheadConfig `json:"bulkhead,omitempty" yaml:"bulkhead,omitempty"`
}

// BulkheadConfig configures bulkhead behavior.
type BulkheadConfig struct {
	// Enabled enables bulkhead.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// MaxConcurrent is the maximum concurrent planning requests.
	MaxConcurrent int `json:"max_concurrent,omitempty" yaml:"max_concurrent,omitempty"`
}

// TelemetryConfig configures observability.
type TelemetryConfig struct {
	// Tracing configures span export.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`
	// Metrics configures metric instruments.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TracingConfig configures tracing.
type TracingConfig struct {
	// Enabled enables tracing.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	// Exporter is stdout, otlp or noop.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`
	// Endpoint is the OTLP collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	// Insecure disables TLS for the OTLP exporter.
	Insecure bool `json:"insecure,omitempty" yaml:"insecure,omitempty"`
	// SampleRate is the fraction of requests traced (0 to 1).
	SampleRate float64 `json:"sample_rate,omitempty" yaml:"sample_rate,omitempty"`
}

// MetricsConfig configures metrics.
type MetricsConfig struct {
	// Enabled enables metric recording.
	Enabled bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// DomainConfig declares a problem type served by a generic STRIPS planner.
type DomainConfig struct {
	// Name is the problem type, matched exactly.
	Name string `json:"name" yaml:"name"`
	// Description is shown by the domains command.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Operators is the path to a JSON or YAML operator document. Relative
	// paths are resolved against the configuration file's directory.
	Operators string `json:"operators" yaml:"operators"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *PlannerConfig {
	return &PlannerConfig{
		Name:    "planner",
		Version: "1",
		Search: SearchConfig{
			Strategy: "bfs",
			MaxDepth: 64,
			MaxNodes: 100000,
			Timeout:  Duration(10 * time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Resilience: ResilienceConfig{
			Timeout: Duration(30 * time.Second),
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Exporter:   "stdout",
				SampleRate: 1,
			},
		},
	}
}

// Duration is a time.Duration that supports JSON/YAML string representation.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	// Handle null
	if string(b) == "null" {
		return nil
	}

	// Remove quotes
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
