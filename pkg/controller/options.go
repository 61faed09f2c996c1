package controller

import (
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/goliatone/go-loginform/pkg/form"
	"github.com/goliatone/go-loginform/pkg/validation"
	"github.com/goliatone/go-loginform/pkg/viewport"
)

// Option configures a Controller.
type Option func(*Controller)

// WithValidator overrides the field validator.
func WithValidator(v validation.Validator) Option {
	return func(c *Controller) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithFormOptions forwards options to the underlying form.
func WithFormOptions(opts ...form.Option) Option {
	return func(c *Controller) {
		c.formOptions = append(c.formOptions, opts...)
	}
}

// WithViewportSource sets the source of viewport events.
func WithViewportSource(source viewport.Source) Option {
	return func(c *Controller) {
		c.source = source
	}
}

// WithClock overrides the clock driving the loading window.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoadingWindow overrides DefaultLoadingWindow. Non-positive values are
// ignored.
func WithLoadingWindow(window time.Duration) Option {
	return func(c *Controller) {
		if window > 0 {
			c.window = window
		}
	}
}

// WithLoadingPolicy selects the loading policy.
func WithLoadingPolicy(policy LoadingPolicy) Option {
	return func(c *Controller) {
		if policy != "" {
			c.policy = policy
		}
	}
}
