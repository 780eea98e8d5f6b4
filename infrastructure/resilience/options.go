package resilience

import "time"

// Option configures the guard.
type Option func(*GuardConfig)

// WithMaxConcurrent sets the maximum concurrent planning requests.
func WithMaxConcurrent(n int) Option {
	return func(c *GuardConfig) {
		c.MaxConcurrent = n
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *GuardConfig) {
		c.Timeout = d
	}
}

// NewGuardWithOptions creates a guard with the given options.
func NewGuardWithOptions(opts ...Option) *Guard {
	config := DefaultGuardConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return NewGuard(config)
}
