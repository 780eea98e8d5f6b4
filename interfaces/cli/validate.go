package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plan-go/infrastructure/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/operators"
)

// validateOptions holds options for the validate command.
type validateOptions struct {
	operatorFiles []string
	showSchema    bool
}

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file or operator documents",
		Long: `Validate a planner configuration file for correctness.

This command checks:
  - File format (YAML or JSON)
  - Required fields (name, version)
  - Search limits, strategy and telemetry settings
  - Every declared domain's operator document
  - Environment variable references (with --strict-env)

Examples:
  # Validate a configuration file
  planner validate -c planner.yaml

  # Validate operator documents on their own
  planner validate --operators corridor.yaml --operators robot.json

  # Show the JSON schema for configuration
  planner validate --schema`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.showSchema {
				return a.showConfigSchema()
			}
			if len(opts.operatorFiles) > 0 {
				return a.validateOperators(opts.operatorFiles)
			}
			return a.validateConfig()
		},
	}

	cmd.Flags().StringArrayVar(&opts.operatorFiles, "operators", nil, "Operator document to validate (repeatable)")
	cmd.Flags().BoolVar(&opts.showSchema, "schema", false, "Show JSON schema for configuration")

	return cmd
}

// validateConfig validates the configuration file.
func (a *App) validateConfig() error {
	if a.opts.configPath == "" {
		return fmt.Errorf("configuration file path is required (-c flag)")
	}

	cfg, err := a.loader().LoadFile(a.opts.configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional validation via the builder
	result, err := buildConfig(cfg)
	if err != nil {
		return err
	}
	registry, err := newRegistry(result)
	if err != nil {
		return fmt.Errorf("domain validation failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Configuration is valid\n")
	fmt.Fprintf(a.stdout, "  Name: %s\n", cfg.Name)
	fmt.Fprintf(a.stdout, "  Version: %s\n", cfg.Version)
	if cfg.Description != "" {
		fmt.Fprintf(a.stdout, "  Description: %s\n", cfg.Description)
	}

	// Summary
	fmt.Fprintf(a.stdout, "\nConfiguration summary:\n")
	fmt.Fprintf(a.stdout, "  Strategy: %s\n", result.Strategy)
	fmt.Fprintf(a.stdout, "  Max depth: %d\n", result.Limits.MaxDepth)
	fmt.Fprintf(a.stdout, "  Max nodes: %d\n", result.Limits.MaxNodes)
	if result.Guard.MaxConcurrent > 0 {
		fmt.Fprintf(a.stdout, "  Bulkhead: %d concurrent requests\n", result.Guard.MaxConcurrent)
	}
	if cfg.Telemetry.Tracing.Enabled {
		fmt.Fprintf(a.stdout, "  Tracing: %s\n", cfg.Telemetry.Tracing.Exporter)
	}

	fmt.Fprintf(a.stdout, "  Problem types: %d\n", registry.Len())
	for _, d := range cfg.Domains {
		fmt.Fprintf(a.stdout, "    - %s (%s)\n", d.Name, d.Operators)
	}

	return nil
}

// validateOperators loads each operator document.
func (a *App) validateOperators(files []string) error {
	var failed int
	for _, f := range files {
		set, err := operators.LoadFile(f)
		if err != nil {
			failed++
			fmt.Fprintf(a.stdout, "✗ %s: %v\n", f, err)
			continue
		}
		fmt.Fprintf(a.stdout, "✓ %s: %d operators\n", f, set.Len())
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d operator documents invalid", failed, len(files))
	}
	return nil
}

// showConfigSchema displays the JSON schema for configuration.
func (a *App) showConfigSchema() error {
	schemaJSON, err := config.SchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Fprintln(a.stdout, schemaJSON)
	return nil
}
