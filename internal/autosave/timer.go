// File: internal/autosave/timer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package autosave

import (
	"time"

	"github.com/momentics/relaybot/api"
)

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

var _ api.Timer = (*DeadlineTimer)(nil)

// DeadlineTimer is a polled timer that is always armed with a deadline.
// It is not safe for concurrent use; Store guards it with its write lock.
type DeadlineTimer struct {
	clock    api.Clock
	interval time.Duration
	deadline time.Time
}

// NewDeadlineTimer returns a timer armed to fire one interval from now.
func NewDeadlineTimer(clock api.Clock, interval time.Duration) *DeadlineTimer {
	if clock == nil {
		clock = SystemClock{}
	}
	t := &DeadlineTimer{clock: clock, interval: interval}
	t.Rearm()
	return t
}

// Elapsed reports whether the deadline has been reached or passed.
func (t *DeadlineTimer) Elapsed() bool {
	return !t.clock.Now().Before(t.deadline)
}

// Rearm moves the deadline to now + interval.
func (t *DeadlineTimer) Rearm() {
	t.deadline = t.clock.Now().Add(t.interval)
}

// Deadline returns the currently armed deadline.
func (t *DeadlineTimer) Deadline() time.Time {
	return t.deadline
}

// Interval returns the rearm interval.
func (t *DeadlineTimer) Interval() time.Duration {
	return t.interval
}
