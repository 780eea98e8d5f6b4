// Package cli provides a command-line interface for the planner.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	plango "github.com/felixgeelhaar/plan-go"
)

// Version information set at build time.
var (
	Version   = plango.Version
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions are shared by every command.
type globalOptions struct {
	configPath string
	strictEnv  bool
	logLevel   string
	trace      bool
	jsonOutput bool
}

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer
	opts   globalOptions
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "planner",
		Short: "Goal-directed planner over STRIPS-like operators",
		Long: `planner finds, reorders and completes plans: sequences of named actions
that transform a start state into one satisfying a goal.

Problem types select the operator set. "robot" is built in; further
problem types are declared in the configuration file, each backed by a
JSON or YAML operator document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := app.root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "Path to configuration file")
	flags.BoolVar(&app.opts.strictEnv, "strict-env", false, "Fail on unset environment variables in the configuration")
	flags.StringVar(&app.opts.logLevel, "log-level", "", "Log level (overrides config)")
	flags.BoolVar(&app.opts.trace, "trace", false, "Print spans to stderr")
	flags.BoolVar(&app.opts.jsonOutput, "json", false, "Output results as JSON")

	// Add subcommands
	app.root.AddCommand(
		app.newVersionCmd(),
		app.newPlanCmd(),
		app.newReorderCmd(),
		app.newCompleteCmd(),
		app.newDomainsCmd(),
		app.newValidateCmd(),
		app.newWatchCmd(),
		app.newSchemaCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	a.root.SetOut(stdout)
	a.root.SetErr(stderr)
	return a
}

// Execute runs the CLI application.
func (a *App) Execute(ctx context.Context) error {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return a.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for testing).
func (a *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	a.root.SetArgs(args)
	return a.Execute(ctx)
}

// newVersionCmd creates the version command.
func (a *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "plan-go version %s\n", Version)
			fmt.Fprintf(a.stdout, "  Git commit: %s\n", GitCommit)
			fmt.Fprintf(a.stdout, "  Build date: %s\n", BuildDate)
		},
	}
}
