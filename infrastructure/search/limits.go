package search

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// Limits bound every search so it always terminates.
type Limits struct {
	// MaxDepth is the longest plan considered.
	MaxDepth int

	// MaxNodes is the maximum number of node expansions.
	MaxNodes int

	// Timeout is the wall-clock budget. Zero disables the timer; the
	// caller's context still applies.
	Timeout time.Duration
}

// DefaultLimits returns limits suitable for small hand-written domains.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth: 64,
		MaxNodes: 100000,
		Timeout:  10 * time.Second,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxDepth <= 0 {
		l.MaxDepth = def.MaxDepth
	}
	if l.MaxNodes <= 0 {
		l.MaxNodes = def.MaxNodes
	}
	if l.Timeout < 0 {
		l.Timeout = 0
	}
	return l
}

// ctxCheckInterval is how many expansions pass between context checks.
const ctxCheckInterval = 256

// Budget meters node expansions against Limits. A Budget belongs to a single
// search and must not be shared.
type Budget struct {
	ctx       context.Context
	cancel    context.CancelFunc
	limits    Limits
	spent     int
	collector *Collector
}

// NewBudget creates a budget bound to ctx and the limits' timeout.
func NewBudget(ctx context.Context, limits Limits) *Budget {
	limits = limits.withDefaults()
	cancel := context.CancelFunc(func() {})
	if limits.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, limits.Timeout)
	}
	return &Budget{ctx: ctx, cancel: cancel, limits: limits, collector: collectorFrom(ctx)}
}

// Spend accounts for one expansion. It returns an ErrNoPlanFound-wrapped
// error once the node limit is exhausted, the timeout expires, or the
// context is cancelled.
func (b *Budget) Spend() error {
	if b.spent >= b.limits.MaxNodes {
		return fmt.Errorf("%w: node limit %d reached", planning.ErrNoPlanFound, b.limits.MaxNodes)
	}
	if b.spent%ctxCheckInterval == 0 {
		if err := b.ctx.Err(); err != nil {
			return fmt.Errorf("%w: search interrupted: %w", planning.ErrNoPlanFound, err)
		}
	}
	b.spent++
	return nil
}

// Spent returns the number of expansions accounted so far.
func (b *Budget) Spent() int {
	return b.spent
}

// Limits returns the effective limits.
func (b *Budget) Limits() Limits {
	return b.limits
}

// Close releases the budget's timer and reports its expansions to the
// context's Collector, if any. Close must be called once.
func (b *Budget) Close() {
	b.cancel()
	if b.collector != nil {
		b.collector.expanded.Add(int64(b.spent))
		b.collector.searches.Add(1)
	}
}
