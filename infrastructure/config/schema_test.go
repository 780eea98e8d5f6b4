package config

import (
	"encoding/json"
	"testing"
)

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema()

	if schema.Schema != "https://json-schema.org/draft/2020-12/schema" {
		t.Errorf("Schema = %s, want draft/2020-12", schema.Schema)
	}
	if schema.Title != "Planner Configuration" {
		t.Errorf("Title = %s, want Planner Configuration", schema.Title)
	}

	requiredSet := make(map[string]bool)
	for _, r := range schema.Required {
		requiredSet[r] = true
	}
	if !requiredSet["name"] || !requiredSet["version"] {
		t.Errorf("Required = %v, want name and version", schema.Required)
	}

	for _, prop := range []string{"name", "version", "description", "search", "logging", "resilience", "telemetry", "domains"} {
		if _, ok := schema.Properties[prop]; !ok {
			t.Errorf("missing property: %s", prop)
		}
	}
}

func TestGenerateSchema_Search(t *testing.T) {
	search := GenerateSchema().Properties["search"]

	strategy := search.Properties["strategy"]
	if len(strategy.Enum) != 2 {
		t.Errorf("strategy.Enum = %v, want bfs and astar", strategy.Enum)
	}
	if search.Properties["timeout"].Format != "duration" {
		t.Error("timeout should have duration format")
	}
}

func TestGenerateSchema_Domains(t *testing.T) {
	domains := GenerateSchema().Properties["domains"]

	if domains.Type != "array" || domains.Items == nil {
		t.Fatalf("domains = %+v, want array of objects", domains)
	}
	if len(domains.Items.Required) != 2 {
		t.Errorf("domain Required = %v, want name and operators", domains.Items.Required)
	}
}

func TestSchemaJSON(t *testing.T) {
	out, err := SchemaJSON()
	if err != nil {
		t.Fatalf("SchemaJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("SchemaJSON() is not valid JSON: %v", err)
	}
	if decoded["title"] != "Planner Configuration" {
		t.Errorf("title = %v", decoded["title"])
	}
}
