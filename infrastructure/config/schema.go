package config

import (
	"encoding/json"
)

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema               string                 `json:"$schema,omitempty"`
	ID                   string                 `json:"$id,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Type                 string                 `json:"type,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	AdditionalProperties *JSONSchema            `json:"additionalProperties,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	Default              any                    `json:"default,omitempty"`
	Minimum              *float64               `json:"minimum,omitempty"`
	Maximum              *float64               `json:"maximum,omitempty"`
	Pattern              string                 `json:"pattern,omitempty"`
	Format               string                 `json:"format,omitempty"`
}

// GenerateSchema generates a JSON Schema for PlannerConfig.
func GenerateSchema() *JSONSchema {
	return &JSONSchema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/felixgeelhaar/plan-go/planner-config.schema.json",
		Title:       "Planner Configuration",
		Description: "Configuration schema for the plan-go planner",
		Type:        "object",
		Required:    []string{"name", "version"},
		Properties: map[string]*JSONSchema{
			"name": {
				Type:        "string",
				Description: "A human-readable name for this configuration",
			},
			"version": {
				Type:        "string",
				Description: "The configuration schema version",
				Default:     "1",
			},
			"description": {
				Type:        "string",
				Description: "Describes the deployment",
			},
			"search":     generateSearchSchema(),
			"logging":    generateLoggingSchema(),
			"resilience": generateResilienceSchema(),
			"telemetry":  generateTelemetrySchema(),
			"domains":    generateDomainsSchema(),
		},
	}
}

func generateSearchSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Bounds for plan generation, reordering and completion",
		Properties: map[string]*JSONSchema{
			"strategy": {
				Type:        "string",
				Description: "Search algorithm",
				Enum:        []string{"bfs", "astar"},
				Default:     "bfs",
			},
			"max_depth": {
				Type:        "integer",
				Description: "Longest plan considered",
				Minimum:     floatPtr(0),
				Default:     64,
			},
			"max_nodes": {
				Type:        "integer",
				Description: "Maximum node expansions per search",
				Minimum:     floatPtr(0),
				Default:     100000,
			},
			"timeout": {
				Type:        "string",
				Description: "Wall-clock budget per search (e.g., '10s')",
				Format:      "duration",
				Default:     "10s",
			},
		},
	}
}

func generateLoggingSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Structured logging",
		Properties: map[string]*JSONSchema{
			"level": {
				Type:    "string",
				Enum:    []string{"trace", "debug", "info", "warn", "error"},
				Default: "info",
			},
			"format": {
				Type:    "string",
				Enum:    []string{"json", "console"},
				Default: "console",
			},
		},
	}
}

func generateResilienceSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Resilience settings",
		Properties: map[string]*JSONSchema{
			"timeout": {
				Type:        "string",
				Description: "Timeout for a whole planning request (e.g., '30s', '1m')",
				Format:      "duration",
				Default:     "30s",
			},
			"bulkhead": {
				Type:        "object",
				Description: "Bulkhead behavior",
				Properties: map[string]*JSONSchema{
					"enabled": {
						Type:    "boolean",
						Default: false,
					},
					"max_concurrent": {
						Type:        "integer",
						Description: "Maximum concurrent planning requests",
						Minimum:     floatPtr(1),
						Default:     10,
					},
				},
			},
		},
	}
}

func generateTelemetrySchema() *JSONSchema {
	return &JSONSchema{
		Type:        "object",
		Description: "Tracing and metrics",
		Properties: map[string]*JSONSchema{
			"tracing": {
				Type:        "object",
				Description: "Span export",
				Properties: map[string]*JSONSchema{
					"enabled": {
						Type:    "boolean",
						Default: false,
					},
					"exporter": {
						Type:    "string",
						Enum:    []string{"stdout", "otlp", "noop"},
						Default: "stdout",
					},
					"endpoint": {
						Type:        "string",
						Description: "OTLP collector address (host:port)",
					},
					"insecure": {
						Type:        "boolean",
						Description: "Disable TLS for the OTLP exporter",
						Default:     false,
					},
					"sample_rate": {
						Type:    "number",
						Minimum: floatPtr(0),
						Maximum: floatPtr(1),
						Default: 1.0,
					},
				},
			},
			"metrics": {
				Type:        "object",
				Description: "Metric instruments",
				Properties: map[string]*JSONSchema{
					"enabled": {
						Type:    "boolean",
						Default: false,
					},
				},
			},
		},
	}
}

func generateDomainsSchema() *JSONSchema {
	return &JSONSchema{
		Type:        "array",
		Description: "Additional problem types backed by operator documents",
		Items: &JSONSchema{
			Type:     "object",
			Required: []string{"name", "operators"},
			Properties: map[string]*JSONSchema{
				"name": {
					Type:        "string",
					Description: "Problem type, matched exactly",
					Pattern:     `^\S+$`,
				},
				"description": {
					Type: "string",
				},
				"operators": {
					Type:        "string",
					Description: "Path to a JSON or YAML operator document",
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}

// SchemaJSON returns the JSON Schema as a JSON string.
func SchemaJSON() (string, error) {
	schema := GenerateSchema()
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
