// Package resilience guards planning requests using fortify.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/felixgeelhaar/plan-go/domain/planning"
)

// ErrOverloaded indicates a request was rejected before planning started
// because the concurrency limit was reached.
var ErrOverloaded = errors.New("planner overloaded")

// Guard bounds planning requests with a bulkhead and a request timeout.
type Guard struct {
	bulkhead bulkhead.Bulkhead[planning.Plan]
	timeout  time.Duration
	limit    int
}

// GuardConfig configures the guard.
type GuardConfig struct {
	// MaxConcurrent limits concurrent planning requests. Zero disables the bulkhead.
	MaxConcurrent int

	// Timeout bounds a whole request. Zero leaves the caller's context alone.
	Timeout time.Duration
}

// DefaultGuardConfig returns a configuration with sensible defaults.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		MaxConcurrent: 0,
		Timeout:       30 * time.Second,
	}
}

// NewGuard creates a new guard.
func NewGuard(config GuardConfig) *Guard {
	g := &Guard{timeout: config.Timeout}
	if g.timeout < 0 {
		g.timeout = 0
	}
	if config.MaxConcurrent > 0 {
		g.limit = config.MaxConcurrent
		g.bulkhead = bulkhead.New[planning.Plan](bulkhead.Config{
			MaxConcurrent: config.MaxConcurrent,
		})
	}
	return g
}

// NewDefaultGuard creates a guard with default configuration.
func NewDefaultGuard() *Guard {
	return NewGuard(DefaultGuardConfig())
}

// Execute runs fn under the guard.
// Composition order: Bulkhead → Timeout → fn
func (g *Guard) Execute(ctx context.Context, fn func(context.Context) (planning.Plan, error)) (planning.Plan, error) {
	run := func(ctx context.Context) (planning.Plan, error) {
		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		return fn(ctx)
	}

	if g.bulkhead == nil {
		return run(ctx)
	}

	started := false
	plan, err := g.bulkhead.Execute(ctx, func(ctx context.Context) (planning.Plan, error) {
		started = true
		return run(ctx)
	})
	if err != nil && !started {
		return nil, fmt.Errorf("%w: %w", ErrOverloaded, err)
	}
	return plan, err
}

// MaxConcurrent returns the concurrency limit, or zero when unbounded.
func (g *Guard) MaxConcurrent() int {
	return g.limit
}

// Timeout returns the request timeout, or zero when unbounded.
func (g *Guard) Timeout() time.Duration {
	return g.timeout
}
