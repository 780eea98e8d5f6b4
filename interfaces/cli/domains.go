package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plan-go/infrastructure/operators"
)

// newDomainsCmd creates the domains command.
func (a *App) newDomainsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List the registered problem types",
		Long: `List every registered problem type, including those declared in the
configuration file. Problem types that are registered without a planner
are marked as not implemented.

Examples:
  planner domains
  planner domains -c planner.yaml --json
  planner domains show robot --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.listDomains()
		},
	}

	cmd.AddCommand(a.newDomainsShowCmd())
	return cmd
}

func (a *App) listDomains() error {
	rt, err := a.newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	infos := rt.service.Registry().Describe()

	if a.opts.jsonOutput {
		type domainOutput struct {
			ProblemType string `json:"problem_type"`
			Description string `json:"description,omitempty"`
			Implemented bool   `json:"implemented"`
		}
		out := make([]domainOutput, 0, len(infos))
		for _, info := range infos {
			out = append(out, domainOutput{
				ProblemType: info.ProblemType,
				Description: info.Description,
				Implemented: info.Implemented,
			})
		}
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	_, _ = fmt.Fprintf(a.stdout, "Problem types (%d):\n", len(infos))
	for _, info := range infos {
		_, _ = fmt.Fprintf(a.stdout, "  - %s", info.ProblemType)
		if !info.Implemented {
			_, _ = fmt.Fprintf(a.stdout, " (not implemented)")
		}
		if info.Description != "" {
			_, _ = fmt.Fprintf(a.stdout, ": %s", info.Description)
		}
		_, _ = fmt.Fprintln(a.stdout)
	}
	return nil
}

// newDomainsShowCmd creates the domains show command.
func (a *App) newDomainsShowCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <problem-type>",
		Short: "Print the operators of a problem type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := a.newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			entry, err := rt.service.Registry().Resolve(args[0])
			if err != nil {
				return err
			}
			p, err := entry.NewPlanner()
			if err != nil {
				return err
			}
			return operators.Encode(a.stdout, p.Operators(), operators.Format(format))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(operators.FormatJSON), "Output format (json or yaml)")
	return cmd
}
