package config

import (
	"strings"
	"testing"
)

func validConfig() *PlannerConfig {
	return &PlannerConfig{Name: "test-planner", Version: "1"}
}

func TestValidator_ValidateMinimal(t *testing.T) {
	if errs := NewValidator().Validate(validConfig()); errs.HasErrors() {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestValidator_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*PlannerConfig)
		wantPath string
	}{
		{"missing name", func(c *PlannerConfig) { c.Name = "" }, "name"},
		{"missing version", func(c *PlannerConfig) { c.Version = "" }, "version"},
		{"bad strategy", func(c *PlannerConfig) { c.Search.Strategy = "dfs" }, "search.strategy"},
		{"negative depth", func(c *PlannerConfig) { c.Search.MaxDepth = -1 }, "search.max_depth"},
		{"negative nodes", func(c *PlannerConfig) { c.Search.MaxNodes = -1 }, "search.max_nodes"},
		{"negative search timeout", func(c *PlannerConfig) { c.Search.Timeout = -1 }, "search.timeout"},
		{"bad level", func(c *PlannerConfig) { c.Logging.Level = "loud" }, "logging.level"},
		{"bad format", func(c *PlannerConfig) { c.Logging.Format = "xml" }, "logging.format"},
		{"negative request timeout", func(c *PlannerConfig) { c.Resilience.Timeout = -1 }, "resilience.timeout"},
		{"bulkhead without limit", func(c *PlannerConfig) {
			c.Resilience.Bulkhead = BulkheadConfig{Enabled: true}
		}, "resilience.bulkhead.max_concurrent"},
		{"tracing without exporter", func(c *PlannerConfig) {
			c.Telemetry.Tracing = TracingConfig{Enabled: true, SampleRate: 1}
		}, "telemetry.tracing.exporter"},
		{"unknown exporter", func(c *PlannerConfig) {
			c.Telemetry.Tracing = TracingConfig{Enabled: true, Exporter: "zipkin"}
		}, "telemetry.tracing.exporter"},
		{"otlp without endpoint", func(c *PlannerConfig) {
			c.Telemetry.Tracing = TracingConfig{Enabled: true, Exporter: "otlp"}
		}, "telemetry.tracing.endpoint"},
		{"sample rate out of range", func(c *PlannerConfig) {
			c.Telemetry.Tracing = TracingConfig{Enabled: true, Exporter: "stdout", SampleRate: 2}
		}, "telemetry.tracing.sample_rate"},
		{"domain without name", func(c *PlannerConfig) {
			c.Domains = []DomainConfig{{Operators: "ops.yaml"}}
		}, "domains[0].name"},
		{"domain name with space", func(c *PlannerConfig) {
			c.Domains = []DomainConfig{{Name: "two words", Operators: "ops.yaml"}}
		}, "domains[0].name"},
		{"domain without operators", func(c *PlannerConfig) {
			c.Domains = []DomainConfig{{Name: "corridor"}}
		}, "domains[0].operators"},
		{"duplicate domain", func(c *PlannerConfig) {
			c.Domains = []DomainConfig{
				{Name: "corridor", Operators: "a.yaml"},
				{Name: "corridor", Operators: "b.yaml"},
			}
		}, "domains[1].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			errs := NewValidator().Validate(cfg)
			found := false
			for _, e := range errs {
				if e.Path == tt.wantPath {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error at %s, got: %v", tt.wantPath, errs)
			}
		})
	}
}

func TestValidator_TracingDisabledSkipsChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry.Tracing = TracingConfig{Exporter: "zipkin"}

	if errs := NewValidator().Validate(cfg); errs.HasErrors() {
		t.Errorf("expected no errors with tracing disabled, got: %v", errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	var none ValidationErrors
	if none.Error() != "no validation errors" {
		t.Errorf("Error() = %q", none.Error())
	}

	one := ValidationErrors{{Path: "name", Message: "name is required"}}
	if one.Error() != "name: name is required" {
		t.Errorf("Error() = %q", one.Error())
	}

	two := ValidationErrors{
		{Path: "name", Message: "name is required"},
		{Message: "bare message"},
	}
	if !strings.HasPrefix(two.Error(), "2 validation errors:") {
		t.Errorf("Error() = %q", two.Error())
	}
	if !strings.Contains(two.Error(), "  - bare message") {
		t.Errorf("Error() = %q", two.Error())
	}
}
