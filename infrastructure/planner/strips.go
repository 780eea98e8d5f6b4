// Package planner provides Planner implementations over STRIPS operator sets.
//
// STRIPSPlanner is domain independent: it is parameterized by an operator set
// and implements plan generation, reordering and completion with bounded
// search. Domain planners such as RobotPaintingPlanner embed it and supply
// their own operator vocabulary and state constructor.
package planner

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/plan-go/domain/planning"
	"github.com/felixgeelhaar/plan-go/infrastructure/logging"
	"github.com/felixgeelhaar/plan-go/infrastructure/search"
)

// STRIPSPlanner is a Planner over a fixed operator set. It holds no
// per-request state and is safe for concurrent use.
type STRIPSPlanner struct {
	problemType string
	ops         *planning.OperatorSet
	searcher    *search.Searcher
}

// Option configures a STRIPSPlanner.
type Option func(*STRIPSPlanner)

// WithSearcher sets the searcher used for plan generation. Its limits also
// bound reordering and completion.
func WithSearcher(s *search.Searcher) Option {
	return func(p *STRIPSPlanner) {
		if s != nil {
			p.searcher = s
		}
	}
}

// WithLimits replaces the search limits, keeping the current strategy.
func WithLimits(l search.Limits) Option {
	return func(p *STRIPSPlanner) {
		p.searcher = search.New(search.WithStrategy(p.searcher.Strategy()), search.WithLimits(l))
	}
}

// WithStrategy replaces the search strategy, keeping the current limits.
func WithStrategy(s search.Strategy) Option {
	return func(p *STRIPSPlanner) {
		p.searcher = search.New(search.WithStrategy(s), search.WithLimits(p.searcher.Limits()))
	}
}

// NewSTRIPSPlanner creates a planner for problemType over ops.
func NewSTRIPSPlanner(problemType string, ops *planning.OperatorSet, opts ...Option) (*STRIPSPlanner, error) {
	if problemType == "" {
		return nil, fmt.Errorf("%w: empty problem type", planning.ErrOperatorLoad)
	}
	if ops == nil || ops.Len() == 0 {
		return nil, fmt.Errorf("%w: %s: no operators", planning.ErrOperatorLoad, problemType)
	}

	p := &STRIPSPlanner{
		problemType: problemType,
		ops:         ops,
		searcher:    search.New(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ProblemType returns the problem type the planner serves.
func (p *STRIPSPlanner) ProblemType() string {
	return p.problemType
}

// Operators returns the planner's operator set.
func (p *STRIPSPlanner) Operators() *planning.OperatorSet {
	return p.ops
}

// Searcher returns the searcher used for plan generation.
func (p *STRIPSPlanner) Searcher() *search.Searcher {
	return p.searcher
}

// GeneratePlan searches for a plan from start to goal.
func (p *STRIPSPlanner) GeneratePlan(ctx context.Context, start, goal planning.State) (planning.Plan, error) {
	plan, stats, err := p.searcher.Search(ctx, p.ops, start, goal)

	logging.Debug().
		Add(logging.Component("planner")).
		Add(logging.ProblemType(p.problemType)).
		Add(logging.Operation("generate_plan")).
		Add(logging.Strategy(string(p.searcher.Strategy()))).
		Add(logging.Expanded(stats.Expanded)).
		Add(logging.Depth(stats.Depth)).
		Add(logging.Duration(stats.Duration)).
		Add(logging.ErrorField(err)).
		Msg("search finished")

	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.problemType, err)
	}
	return plan, nil
}

// ReorderToAvoid reorders every plan into a legal application chain from
// start that satisfies goal. Each result is a permutation of its input.
//
// At every step the pending actions that would not delete a precondition of
// another pending action are tried first, then the rest, each group in its
// original order. Dead ends backtrack.
func (p *STRIPSPlanner) ReorderToAvoid(ctx context.Context, start, goal planning.State, plans []planning.Plan) ([]planning.Plan, error) {
	out := make([]planning.Plan, 0, len(plans))
	for i, plan := range plans {
		reordered, err := p.reorder(ctx, start, goal, plan)
		if err != nil {
			if len(plans) > 1 {
				return nil, fmt.Errorf("plan %d: %w", i, err)
			}
			return nil, err
		}
		out = append(out, reordered)
	}
	return out, nil
}

func (p *STRIPSPlanner) reorder(ctx context.Context, start, goal planning.State, plan planning.Plan) (planning.Plan, error) {
	steps, err := p.ops.Lookup(plan)
	if err != nil {
		return nil, err
	}

	budget := search.NewBudget(ctx, p.searcher.Limits())
	defer budget.Close()

	r := newReorderer(steps, goal, budget)
	began := time.Now()
	found, err := r.search(start)

	logging.Debug().
		Add(logging.Component("planner")).
		Add(logging.ProblemType(p.problemType)).
		Add(logging.Operation("reorder_to_avoid")).
		Add(logging.Expanded(budget.Spent())).
		Add(logging.Duration(time.Since(began))).
		Msg("reorder finished")

	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", planning.ErrUnorderablePlan, plan, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s: no legal ordering reaches the goal from %s",
			planning.ErrUnorderablePlan, plan, start)
	}

	result := make(planning.Plan, len(r.order))
	for i, idx := range r.order {
		result[i] = steps[idx].Name()
	}
	return result, nil
}

// reorderer is the depth-first permutation search behind ReorderToAvoid.
type reorderer struct {
	steps   []*planning.Operator
	goal    planning.State
	budget  *search.Budget
	used    []bool
	order   []int
	slot    []int // step index -> distinct-name slot
	left    []int // remaining count per slot
	visited map[string]struct{}
}

func newReorderer(steps []*planning.Operator, goal planning.State, budget *search.Budget) *reorderer {
	r := &reorderer{
		steps:   steps,
		goal:    goal,
		budget:  budget,
		used:    make([]bool, len(steps)),
		order:   make([]int, 0, len(steps)),
		slot:    make([]int, len(steps)),
		visited: make(map[string]struct{}),
	}
	slots := make(map[string]int)
	for i, op := range steps {
		s, ok := slots[op.Name()]
		if !ok {
			s = len(r.left)
			slots[op.Name()] = s
			r.left = append(r.left, 0)
		}
		r.slot[i] = s
		r.left[s]++
	}
	return r
}

// key identifies a search node by state and remaining action multiset.
func (r *reorderer) key(state planning.State) string {
	var b strings.Builder
	b.WriteString(state.Key())
	for _, n := range r.left {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

func (r *reorderer) search(state planning.State) (bool, error) {
	if len(r.order) == len(r.steps) {
		return state.Satisfies(r.goal), nil
	}

	key := r.key(state)
	if _, seen := r.visited[key]; seen {
		return false, nil
	}
	if err := r.budget.Spend(); err != nil {
		return false, err
	}

	tried := make(map[int]bool)
	for _, i := range r.candidates() {
		op := r.steps[i]
		if tried[r.slot[i]] || !op.IsApplicable(state) {
			continue
		}
		tried[r.slot[i]] = true

		next, err := op.Apply(state)
		if err != nil {
			return false, err
		}
		r.used[i] = true
		r.left[r.slot[i]]--
		r.order = append(r.order, i)

		found, err := r.search(next)
		if err != nil || found {
			return found, err
		}

		r.order = r.order[:len(r.order)-1]
		r.left[r.slot[i]]++
		r.used[i] = false
	}

	r.visited[key] = struct{}{}
	return false, nil
}

// candidates returns the pending step indices, non-threatening ones first.
func (r *reorderer) candidates() []int {
	type candidate struct {
		index     int
		threatens bool
	}

	var cands []candidate
	for i := range r.steps {
		if r.used[i] {
			continue
		}
		c := candidate{index: i}
		for j := range r.steps {
			if j != i && !r.used[j] && r.steps[i].Threatens(r.steps[j]) {
				c.threatens = true
				break
			}
		}
		cands = append(cands, c)
	}

	sort.SliceStable(cands, func(a, b int) bool {
		return !cands[a].threatens && cands[b].threatens
	})

	out := make([]int, len(cands))
	for i, c := range cands {
		out[i] = c.index
	}
	return out
}

// CompletePlan inserts the fewest actions needed for partial to reach goal
// from start. The given actions keep their relative order.
func (p *STRIPSPlanner) CompletePlan(ctx context.Context, start, goal planning.State, partial planning.Plan) (planning.Plan, error) {
	given, err := p.ops.Lookup(partial)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", planning.ErrIncompletablePlan, err)
	}

	budget := search.NewBudget(ctx, p.searcher.Limits())
	defer budget.Close()

	began := time.Now()
	plan, err := p.complete(budget, start, goal, given)

	logging.Debug().
		Add(logging.Component("planner")).
		Add(logging.ProblemType(p.problemType)).
		Add(logging.Operation("complete_plan")).
		Add(logging.Expanded(budget.Spent())).
		Add(logging.Duration(time.Since(began))).
		Add(logging.ErrorField(err)).
		Msg("completion finished")

	if err != nil {
		return nil, err
	}
	return plan, nil
}

type completionNode struct {
	state    planning.State
	next     int
	inserted int
	action   string
	parent   *completionNode
}

func (p *STRIPSPlanner) complete(budget *search.Budget, start, goal planning.State, given []*planning.Operator) (planning.Plan, error) {
	maxInserted := budget.Limits().MaxDepth
	nodeKey := func(n *completionNode) string {
		return n.state.Key() + "#" + strconv.Itoa(n.next)
	}

	root := &completionNode{state: start}
	queue := []*completionNode{root}
	seen := map[string]struct{}{nodeKey(root): {}}

	push := func(n *completionNode) {
		k := nodeKey(n)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		queue = append(queue, n)
	}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]

		if n.next == len(given) && n.state.Satisfies(goal) {
			return n.path(), nil
		}
		if err := budget.Spend(); err != nil {
			return nil, fmt.Errorf("%w: %v", planning.ErrIncompletablePlan, err)
		}

		if n.next < len(given) && given[n.next].IsApplicable(n.state) {
			next, err := given[n.next].Apply(n.state)
			if err != nil {
				return nil, err
			}
			push(&completionNode{state: next, next: n.next + 1, inserted: n.inserted, action: given[n.next].Name(), parent: n})
		}

		if n.inserted >= maxInserted {
			continue
		}
		for _, op := range p.ops.Operators() {
			if !op.IsApplicable(n.state) {
				continue
			}
			next, err := op.Apply(n.state)
			if err != nil {
				return nil, err
			}
			push(&completionNode{state: next, next: n.next, inserted: n.inserted + 1, action: op.Name(), parent: n})
		}
	}

	return nil, fmt.Errorf("%w: no insertion of at most %d actions reaches the goal", planning.ErrIncompletablePlan, maxInserted)
}

func (n *completionNode) path() planning.Plan {
	var rev []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		rev = append(rev, cur.action)
	}
	plan := make(planning.Plan, len(rev))
	for i := range rev {
		plan[i] = rev[len(rev)-1-i]
	}
	return plan
}

// GenerateCompletePlan runs generation, reordering and completion in order.
// The first failing stage's error is returned unchanged.
func (p *STRIPSPlanner) GenerateCompletePlan(ctx context.Context, start, goal planning.State) (planning.Plan, error) {
	plan, err := p.GeneratePlan(ctx, start, goal)
	if err != nil {
		return nil, err
	}
	reordered, err := p.ReorderToAvoid(ctx, start, goal, []planning.Plan{plan})
	if err != nil {
		return nil, err
	}
	return p.CompletePlan(ctx, start, goal, reordered[0])
}

var _ planning.Planner = (*STRIPSPlanner)(nil)
