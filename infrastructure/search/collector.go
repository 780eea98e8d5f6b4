package search

import (
	"context"
	"sync/atomic"
)

// Collector accumulates node expansions across every budget opened under a
// context, so a request can report the total work of all its stages.
type Collector struct {
	expanded atomic.Int64
	searches atomic.Int64
}

// Expanded returns the total node expansions recorded.
func (c *Collector) Expanded() int {
	return int(c.expanded.Load())
}

// Searches returns the number of budgets closed.
func (c *Collector) Searches() int {
	return int(c.searches.Load())
}

type collectorKey struct{}

// WithCollector returns a context whose budgets report to c.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, c)
}

func collectorFrom(ctx context.Context) *Collector {
	c, _ := ctx.Value(collectorKey{}).(*Collector)
	return c
}
