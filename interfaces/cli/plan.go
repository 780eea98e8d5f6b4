package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/plan-go/application"
	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// stateOptions holds the start and goal inputs shared by planning commands.
type stateOptions struct {
	start string
	goal  string
}

func (o *stateOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.start, "start", "s", "", "Start state, or @file to read it from a file")
	cmd.Flags().StringVarP(&o.goal, "goal", "g", "", "Goal state, or @file to read it from a file")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("goal")
}

// resolve reads @file references.
func (o *stateOptions) resolve() (start, goal string, err error) {
	if start, err = readArg(o.start); err != nil {
		return "", "", fmt.Errorf("start: %w", err)
	}
	if goal, err = readArg(o.goal); err != nil {
		return "", "", fmt.Errorf("goal: %w", err)
	}
	return start, goal, nil
}

func readArg(v string) (string, error) {
	if !strings.HasPrefix(v, "@") {
		return v, nil
	}
	data, err := os.ReadFile(strings.TrimPrefix(v, "@"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// planOptions holds options for the plan command.
type planOptions struct {
	states       stateOptions
	generateOnly bool
}

// newPlanCmd creates the plan command.
func (a *App) newPlanCmd() *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "plan <problem-type>",
		Short: "Generate a plan from a start state to a goal",
		Long: `Generate a plan for the given problem type.

By default the generated plan is also reordered and completed, so the
result is a legal action sequence from the start state to the goal.
States are condition lists: "on(robot,floor), dry(ladder)", a JSON array
of strings or a JSON array of tuples.

Examples:
  # Built-in robot domain
  planner plan robot -s "on(robot,floor), dry(ladder), dry(ceiling)" \
    -g "painted(ceiling), painted(ladder)"

  # Search only, JSON output
  planner plan robot --generate-only --json -s @start.txt -g @goal.txt

  # A domain declared in the configuration file
  planner plan corridor -c planner.yaml -s "at(west)" -g "at(east)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, goal, err := opts.states.resolve()
			if err != nil {
				return err
			}
			return a.runRequest(cmd.Context(), func(ctx context.Context, svc *application.Service) (*application.Result, error) {
				if opts.generateOnly {
					return svc.GeneratePlan(ctx, args[0], start, goal)
				}
				return svc.GenerateCompletePlan(ctx, args[0], start, goal)
			})
		},
	}

	opts.states.register(cmd)
	cmd.Flags().BoolVar(&opts.generateOnly, "generate-only", false, "Skip reordering and completion")

	return cmd
}

// reorderOptions holds options for the reorder command.
type reorderOptions struct {
	states stateOptions
	plans  []string
}

// newReorderCmd creates the reorder command.
func (a *App) newReorderCmd() *cobra.Command {
	opts := &reorderOptions{}

	cmd := &cobra.Command{
		Use:   "reorder <problem-type>",
		Short: "Reorder plans into legal action sequences",
		Long: `Reorder each given plan so that every action is applicable when it runs
and the goal holds at the end. The output contains the same actions.

Examples:
  planner reorder robot -s "on(robot,floor), dry(ladder), dry(ceiling)" \
    -g "painted(ceiling), painted(ladder)" \
    --plan "paint-ladder, climb-ladder, paint-ceiling, descend-ladder"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, goal, err := opts.states.resolve()
			if err != nil {
				return err
			}
			plans := make([]planning.Plan, 0, len(opts.plans))
			for _, raw := range opts.plans {
				p, err := parsePlanArg(raw)
				if err != nil {
					return err
				}
				plans = append(plans, p)
			}
			return a.runRequest(cmd.Context(), func(ctx context.Context, svc *application.Service) (*application.Result, error) {
				return svc.ReorderToAvoid(ctx, args[0], start, goal, plans)
			})
		},
	}

	opts.states.register(cmd)
	cmd.Flags().StringArrayVarP(&opts.plans, "plan", "p", nil, "Plan to reorder (repeatable)")
	_ = cmd.MarkFlagRequired("plan")

	return cmd
}

// completeOptions holds options for the complete command.
type completeOptions struct {
	states  stateOptions
	partial string
}

// newCompleteCmd creates the complete command.
func (a *App) newCompleteCmd() *cobra.Command {
	opts := &completeOptions{}

	cmd := &cobra.Command{
		Use:   "complete <problem-type>",
		Short: "Insert the actions a partial plan is missing",
		Long: `Complete a partial plan by inserting the fewest actions needed to reach
the goal. The given actions keep their relative order.

Examples:
  planner complete robot -s "on(robot,floor), dry(ladder), dry(ceiling)" \
    -g "painted(ceiling), painted(ladder)" \
    --partial "climb-ladder, paint-ceiling, paint-ladder"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, goal, err := opts.states.resolve()
			if err != nil {
				return err
			}
			partial, err := parsePlanArg(opts.partial)
			if err != nil {
				return err
			}
			return a.runRequest(cmd.Context(), func(ctx context.Context, svc *application.Service) (*application.Result, error) {
				return svc.CompletePlan(ctx, args[0], start, goal, partial)
			})
		},
	}

	opts.states.register(cmd)
	cmd.Flags().StringVar(&opts.partial, "partial", "", "Partial plan to complete, or @file")

	return cmd
}

func parsePlanArg(raw string) (planning.Plan, error) {
	text, err := readArg(raw)
	if err != nil {
		return nil, err
	}
	return planning.ParsePlan(text)
}

// runRequest assembles the runtime, runs one request and prints its result.
func (a *App) runRequest(ctx context.Context, fn func(context.Context, *application.Service) (*application.Result, error)) (err error) {
	rt, err := a.newRuntime()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	result, reqErr := fn(ctx, rt.service)
	if result != nil {
		if err := a.printResult(result, reqErr); err != nil {
			return err
		}
	}
	if reqErr != nil {
		return fmt.Errorf("%s: %w", planning.ErrorKind(reqErr), reqErr)
	}
	return nil
}

// resultOutput is the JSON form of a result.
type resultOutput struct {
	RequestID   string             `json:"request_id"`
	ProblemType string             `json:"problem_type"`
	Phase       string             `json:"phase"`
	Plan        []string           `json:"plan,omitempty"`
	Plans       [][]string         `json:"plans,omitempty"`
	Expanded    int                `json:"expanded"`
	Duration    string             `json:"duration"`
	Transitions []transitionOutput `json:"transitions"`
	Error       string             `json:"error,omitempty"`
	ErrorKind   string             `json:"error_kind,omitempty"`
}

type transitionOutput struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason,omitempty"`
}

func newResultOutput(r *application.Result, err error) resultOutput {
	out := resultOutput{
		RequestID:   r.RequestID,
		ProblemType: r.ProblemType,
		Phase:       r.Phase.String(),
		Plan:        r.Plan,
		Expanded:    r.Expanded,
		Duration:    r.Duration.String(),
		Transitions: make([]transitionOutput, 0, len(r.Transitions)),
	}
	for _, p := range r.Plans {
		out.Plans = append(out.Plans, p)
	}
	for _, tr := range r.Transitions {
		out.Transitions = append(out.Transitions, transitionOutput{
			From:   tr.From.String(),
			To:     tr.To.String(),
			Reason: tr.Reason,
		})
	}
	if err != nil {
		out.Error = err.Error()
		out.ErrorKind = planning.ErrorKind(err)
	}
	return out
}

// printResult writes a result as JSON or text.
func (a *App) printResult(r *application.Result, err error) error {
	if a.opts.jsonOutput {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(newResultOutput(r, err))
	}

	if err != nil {
		_, _ = fmt.Fprintf(a.stdout, "No plan (%s)\n", r.Phase)
		_, _ = fmt.Fprintf(a.stdout, "  Request: %s\n", r.RequestID)
		return nil
	}

	if len(r.Plans) > 1 {
		for i, p := range r.Plans {
			_, _ = fmt.Fprintf(a.stdout, "Plan %d:\n", i+1)
			printSteps(a, p)
		}
	} else {
		_, _ = fmt.Fprintf(a.stdout, "Plan (%d steps):\n", r.Plan.Len())
		printSteps(a, r.Plan)
	}
	_, _ = fmt.Fprintf(a.stdout, "  Request: %s\n", r.RequestID)
	_, _ = fmt.Fprintf(a.stdout, "  Expanded: %d\n", r.Expanded)
	_, _ = fmt.Fprintf(a.stdout, "  Duration: %s\n", r.Duration)
	return nil
}

func printSteps(a *App, p planning.Plan) {
	if p.Len() == 0 {
		_, _ = fmt.Fprintf(a.stdout, "  (goal already satisfied)\n")
		return
	}
	for i, step := range p {
		_, _ = fmt.Fprintf(a.stdout, "  %d. %s\n", i+1, step)
	}
}
