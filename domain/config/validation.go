package config

import (
	"fmt"
	"strings"
	"unicode"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the JSON path to the invalid field.
	Path string
	// Message describes the validation error.
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("%d validation errors:\n  - %s", len(e), strings.Join(msgs, "\n  - "))
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates planner configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the configuration and returns any errors.
func (v *Validator) Validate(config *PlannerConfig) ValidationErrors {
	v.errors = nil

	v.validateRequired(config)
	v.validateSearch(config)
	v.validateLogging(config)
	v.validateResilience(config)
	v.validateTelemetry(config)
	v.validateDomains(config)

	return v.errors
}

func (v *Validator) addError(path, message string) {
	v.errors = append(v.errors, ValidationError{Path: path, Message: message})
}

func (v *Validator) validateRequired(config *PlannerConfig) {
	if config.Name == "" {
		v.addError("name", "name is required")
	}
	if config.Version == "" {
		v.addError("version", "version is required")
	}
}

func (v *Validator) validateSearch(config *PlannerConfig) {
	s := config.Search
	switch s.Strategy {
	case "", "bfs", "astar":
	default:
		v.addError("search.strategy", fmt.Sprintf("invalid strategy: %s", s.Strategy))
	}
	if s.MaxDepth < 0 {
		v.addError("search.max_depth", "max_depth must be non-negative")
	}
	if s.MaxNodes < 0 {
		v.addError("search.max_nodes", "max_nodes must be non-negative")
	}
	if s.Timeout < 0 {
		v.addError("search.timeout", "timeout must be non-negative")
	}
}

func (v *Validator) validateLogging(config *PlannerConfig) {
	switch strings.ToLower(config.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		v.addError("logging.level", fmt.Sprintf("invalid level: %s", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "", "json", "console":
	default:
		v.addError("logging.format", fmt.Sprintf("invalid format: %s", config.Logging.Format))
	}
}

func (v *Validator) validateResilience(config *PlannerConfig) {
	if config.Resilience.Timeout < 0 {
		v.addError("resilience.timeout", "timeout must be non-negative")
	}
	if config.Resilience.Bulkhead.Enabled {
		if config.Resilience.Bulkhead.MaxConcurrent <= 0 {
			v.addError("resilience.bulkhead.max_concurrent", "max_concurrent must be positive when enabled")
		}
	}
}

func (v *Validator) validateTelemetry(config *PlannerConfig) {
	tr := config.Telemetry.Tracing
	if !tr.Enabled {
		return
	}

	switch tr.Exporter {
	case "stdout", "noop":
	case "otlp":
		if tr.Endpoint == "" {
			v.addError("telemetry.tracing.endpoint", "endpoint is required for otlp exporter")
		}
	case "":
		v.addError("telemetry.tracing.exporter", "exporter is required when tracing is enabled")
	default:
		v.addError("telemetry.tracing.exporter", fmt.Sprintf("unknown exporter: %s", tr.Exporter))
	}
	if tr.SampleRate < 0 || tr.SampleRate > 1 {
		v.addError("telemetry.tracing.sample_rate", "sample_rate must be between 0 and 1")
	}
}

func (v *Validator) validateDomains(config *PlannerConfig) {
	seen := make(map[string]int)
	for i, d := range config.Domains {
		path := fmt.Sprintf("domains[%d]", i)
		switch {
		case d.Name == "":
			v.addError(path+".name", "domain name is required")
		case strings.IndexFunc(d.Name, unicode.IsSpace) >= 0:
			v.addError(path+".name", fmt.Sprintf("domain name may not contain whitespace: %q", d.Name))
		default:
			if prev, dup := seen[d.Name]; dup {
				v.addError(path+".name", fmt.Sprintf("duplicate domain %s (also domains[%d])", d.Name, prev))
			} else {
				seen[d.Name] = i
			}
		}
		if d.Operators == "" {
			v.addError(path+".operators", "operators path is required")
		}
	}
}
