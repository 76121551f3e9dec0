// File: internal/autosave/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package autosave

import (
	"time"

	"go.uber.org/zap"

	"github.com/momentics/relaybot/api"
)

// DefaultInterval is the minimum spacing between two autosaves.
const DefaultInterval = 15 * time.Minute

type options struct {
	interval time.Duration
	clock    api.Clock
	timer    api.Timer
	logger   *zap.Logger
	failed   api.Counter
	saved    api.Counter
}

// Option configures a Store.
type Option func(*options)

func defaultOptions() options {
	return options{
		interval: DefaultInterval,
		clock:    SystemClock{},
		logger:   zap.NewNop(),
		failed:   api.NopCounter,
		saved:    api.NopCounter,
	}
}

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithClock sets the clock used by the default DeadlineTimer.
func WithClock(c api.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithTimer replaces the default DeadlineTimer. The timer must already be armed.
func WithTimer(t api.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithLogger sets the logger used for load and persist reports.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithFailureCounter sets the counter incremented on every failed persist.
func WithFailureCounter(c api.Counter) Option {
	return func(o *options) {
		if c != nil {
			o.failed = c
		}
	}
}

// WithSuccessCounter sets the counter incremented on every successful persist.
func WithSuccessCounter(c api.Counter) Option {
	return func(o *options) {
		if c != nil {
			o.saved = c
		}
	}
}
