// control/scope.go
// Author: momentics <momentics@gmail.com>
//
// Operation scope: an increment that is recorded exactly once on the exit
// path chosen by the caller.

package control

import (
	"sync/atomic"

	"github.com/momentics/relaybot/api"
)

// Scope is acquired at the start of an operation. Done records the
// increment, Cancel discards it; whichever comes first wins and later calls
// are no-ops. Callers typically `defer s.Done()` and Cancel on paths that
// must not count.
type Scope struct {
	counter api.Counter
	settled atomic.Bool
}

// Begin opens a scope on the counter called name.
func (t *Telemetry) Begin(name string) *Scope {
	return NewScope(t.Counter(name))
}

// NewScope opens a scope on c.
func NewScope(c api.Counter) *Scope {
	return &Scope{counter: c}
}

// Done records the increment unless the scope is already settled.
func (s *Scope) Done() {
	if s.settled.CompareAndSwap(false, true) {
		s.counter.Inc()
	}
}

// Cancel settles the scope without recording.
func (s *Scope) Cancel() {
	s.settled.Store(true)
}
