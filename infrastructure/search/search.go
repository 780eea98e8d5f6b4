// Package search provides bounded state-space search over STRIPS operators.
//
// Two strategies are available. Breadth-first search is complete and returns
// a shortest plan. A* uses the admissible and consistent heuristic
// ceil(|goal - state| / maxAdd), where maxAdd is the largest add list of any
// operator, so it also returns a shortest plan while expanding fewer nodes on
// goals with many conditions.
//
// Ties are broken by lower f, then lower g, then insertion order, and
// successors are generated in operator declaration order, so results are
// reproducible. Every search is bounded by Limits; exceeding a limit yields
// planning.ErrNoPlanFound.
package search

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Strategy selects the search algorithm.
type Strategy string

const (
	// StrategyBFS is breadth-first search.
	StrategyBFS Strategy = "bfs"
	// StrategyAStar is A* with the unsatisfied-goal heuristic.
	StrategyAStar Strategy = "astar"
)

// IsValid reports whether the strategy is known.
func (s Strategy) IsValid() bool {
	return s == StrategyBFS || s == StrategyAStar
}

// Stats describes the work done by a search.
type Stats struct {
	Expanded  int
	Generated int
	Depth     int
	Duration  time.Duration
}

// Searcher runs bounded forward searches. It holds only configuration and is
// safe for concurrent use.
type Searcher struct {
	strategy Strategy
	limits   Limits
}

// Option configures a Searcher.
type Option func(*Searcher)

// WithStrategy sets the search strategy.
func WithStrategy(s Strategy) Option {
	return func(sr *Searcher) {
		if s.IsValid() {
			sr.strategy = s
		}
	}
}

// WithLimits sets the search limits.
func WithLimits(l Limits) Option {
	return func(sr *Searcher) {
		sr.limits = l.withDefaults()
	}
}

// New creates a searcher. Defaults to breadth-first search with DefaultLimits.
func New(opts ...Option) *Searcher {
	s := &Searcher{
		strategy: StrategyBFS,
		limits:   DefaultLimits(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the configured strategy.
func (s *Searcher) Strategy() Strategy {
	return s.strategy
}

// Limits returns the configured limits.
func (s *Searcher) Limits() Limits {
	return s.limits
}

type node struct {
	state  planning.State
	parent *node
	action string
	g      int
	h      int
	seq    int
	index  int
}

func (n *node) plan() planning.Plan {
	plan := make(planning.Plan, n.g)
	for cur := n; cur.parent != nil; cur = cur.parent {
		plan[cur.g-1] = cur.action
	}
	return plan
}

// Search finds a plan from start to a state satisfying goal.
func (s *Searcher) Search(ctx context.Context, ops *planning.OperatorSet, start, goal planning.State) (planning.Plan, Stats, error) {
	began := time.Now()
	stats := Stats{}
	finish := func(plan planning.Plan, err error) (planning.Plan, Stats, error) {
		stats.Duration = time.Since(began)
		return plan, stats, err
	}

	if start.Satisfies(goal) {
		return finish(planning.Plan{}, nil)
	}

	for _, c := range start.Missing(goal) {
		if !ops.Achievable(c) {
			return finish(nil, fmt.Errorf("%w: no operator produces %s", planning.ErrNoPlanFound, c))
		}
	}

	budget := NewBudget(ctx, s.limits)
	defer budget.Close()

	heuristic := s.heuristic(ops)
	operators := ops.Operators()

	frontier := &queue{}
	seq := 0
	root := &node{state: start, h: heuristic(start, goal), seq: seq}
	heap.Push(frontier, root)
	best := map[string]int{start.Key(): 0}
	depthPruned := false

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(*node)
		if g, ok := best[cur.state.Key()]; ok && g < cur.g {
			continue
		}

		if cur.state.Satisfies(goal) {
			stats.Depth = cur.g
			return finish(cur.plan(), nil)
		}

		if err := budget.Spend(); err != nil {
			return finish(nil, err)
		}
		stats.Expanded++

		if cur.g >= s.limits.MaxDepth {
			depthPruned = true
			continue
		}

		for _, op := range operators {
			if !op.IsApplicable(cur.state) {
				continue
			}
			next, err := op.Apply(cur.state)
			if err != nil {
				return finish(nil, err)
			}
			g := cur.g + 1
			key := next.Key()
			if prev, ok := best[key]; ok && prev <= g {
				continue
			}
			best[key] = g
			seq++
			stats.Generated++
			heap.Push(frontier, &node{
				state:  next,
				parent: cur,
				action: op.Name(),
				g:      g,
				h:      heuristic(next, goal),
				seq:    seq,
			})
		}
	}

	if depthPruned {
		return finish(nil, fmt.Errorf("%w: depth limit %d reached", planning.ErrNoPlanFound, s.limits.MaxDepth))
	}
	return finish(nil, fmt.Errorf("%w: goal unreachable from start", planning.ErrNoPlanFound))
}

func (s *Searcher) heuristic(ops *planning.OperatorSet) func(state, goal planning.State) int {
	if s.strategy != StrategyAStar || ops.MaxAddSize() == 0 {
		return func(planning.State, planning.State) int { return 0 }
	}
	k := ops.MaxAddSize()
	return func(state, goal planning.State) int {
		missing := len(state.Missing(goal))
		return (missing + k - 1) / k
	}
}

// queue is a min-heap ordered by f, then g, then insertion sequence.
type queue []*node

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	fi, fj := q[i].g+q[i].h, q[j].g+q[j].h
	if fi != fj {
		return fi < fj
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	n := x.(*node)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *queue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}
