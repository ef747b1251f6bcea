package bridge

import (
	"github.com/Iron-Ham/linebridge/internal/logging"
)

// DefaultCapacityHint is the initial capacity of the line accumulator.
// Longer lines grow it as needed.
const DefaultCapacityHint = 20

// Option configures a Bridge.
type Option func(*config)

type config struct {
	policy       Policy
	capacityHint int
	logger       *logging.Logger
}

// WithPolicy sets the end-of-stream completion policy.
// The default is PolicyDistinctEOF.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithCapacityHint sets the initial accumulator capacity in bytes.
// A zero or negative value is replaced with the default (20).
func WithCapacityHint(n int) Option {
	return func(c *config) {
		c.capacityHint = n
	}
}

// WithLogger sets the logger for the bridge.
func WithLogger(logger *logging.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
