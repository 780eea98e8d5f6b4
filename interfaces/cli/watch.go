package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	domainconfig "github.com/felixgeelhaar/plan-go/domain/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/config"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
)

// newWatchCmd creates the watch command.
func (a *App) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the configuration and reload domains on change",
		Long: `Watch the configuration file and every operator document it declares.
On change the problem type registry is rebuilt and swapped in; a broken
document is reported and the previous registry stays active.

Runs until interrupted.

Examples:
  planner watch -c planner.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if a.opts.configPath == "" {
				return fmt.Errorf("configuration file path is required (-c flag)")
			}

			rt, err := a.newRuntime()
			if err != nil {
				return err
			}
			defer func() {
				if cerr := rt.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			w, err := config.NewWatcher(a.opts.configPath, a.loader(),
				config.OnChange(func(cfg *domainconfig.PlannerConfig) {
					a.reload(rt, cfg)
				}),
				config.OnError(func(err error) {
					_, _ = fmt.Fprintf(a.stderr, "reload failed: %v\n", err)
				}),
			)
			if err != nil {
				return err
			}
			defer w.Close()

			_, _ = fmt.Fprintf(a.stdout, "Watching %s (%d problem types)\n",
				a.opts.configPath, rt.service.Registry().Len())
			return w.Run(cmd.Context())
		},
	}
}

// reload rebuilds the registry from cfg and swaps it into the service.
// Search settings of a reloaded configuration apply to the new planners.
func (a *App) reload(rt *runtime, cfg *domainconfig.PlannerConfig) {
	err := swapRegistry(rt, cfg)
	if err == nil {
		_, _ = fmt.Fprintf(a.stdout, "Reloaded: %d problem types\n", rt.service.Registry().Len())
		return
	}
	logging.Warn().
		Add(logging.Component("cli")).
		Add(logging.ErrorField(err)).
		Msg("keeping previous registry")
	_, _ = fmt.Fprintf(a.stderr, "reload failed: %v\n", err)
}

func swapRegistry(rt *runtime, cfg *domainconfig.PlannerConfig) error {
	result, err := buildConfig(cfg)
	if err != nil {
		return err
	}
	registry, err := newRegistry(result)
	if err != nil {
		return err
	}
	rt.service.ReplaceRegistry(registry)
	rt.config, rt.build = cfg, result
	return nil
}
