// File: internal/autosave/store.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Store couples an RWMutex-guarded state value with a debounce timer and a
// storage backend.

package autosave

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/momentics/relaybot/api"
)

// Store guards a state value of type S. Mutations go through WithWrite, which
// also drives the autosave timer.
type Store[S any] struct {
	mu      sync.RWMutex
	state   S
	timer   api.Timer
	backend api.Backend[S]

	log    *zap.Logger
	failed api.Counter
	saved  api.Counter

	closed bool
}

// New loads the state from backend and arms the autosave timer. Any load
// failure falls back to defaults() (or the zero value of S when defaults is
// nil); construction never fails.
func New[S any](backend api.Backend[S], defaults func() S, opts ...Option) *Store[S] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	st := &Store[S]{
		backend: backend,
		log:     o.logger,
		failed:  o.failed,
		saved:   o.saved,
	}

	state, err := backend.Load()
	if err != nil {
		if errors.Is(err, api.ErrStateNotFound) {
			st.log.Info("no stored state, starting from defaults")
		} else {
			st.log.Warn("stored state unreadable, starting from defaults", zap.Error(err))
		}
		var zero S
		state = zero
		if defaults != nil {
			state = defaults()
		}
	}
	st.state = state

	st.timer = o.timer
	if st.timer == nil {
		st.timer = NewDeadlineTimer(o.clock, o.interval)
	}
	return st
}

// WithRead runs fn with shared access to the state. It never touches the
// timer and never persists. fn must not retain the pointer.
func (st *Store[S]) WithRead(fn func(state *S)) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	fn(&st.state)
}

// WithWrite runs fn with exclusive access to the state and then runs the
// autosave tick while still holding the lock. If fn panics the lock is
// released and no tick happens.
func (st *Store[S]) WithWrite(fn func(state *S)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	fn(&st.state)
	st.tick()
}

// Read is WithRead returning fn's result.
func Read[S, R any](st *Store[S], fn func(state *S) R) (res R) {
	st.WithRead(func(s *S) { res = fn(s) })
	return res
}

// Write is WithWrite returning fn's result. The tick never alters it.
func Write[S, R any](st *Store[S], fn func(state *S) R) (res R) {
	st.WithWrite(func(s *S) { res = fn(s) })
	return res
}

// Save persists the current state immediately, regardless of the timer.
// Used at graceful shutdown. The timer is left as is. Returns api.ErrClosed
// after Close.
func (st *Store[S]) Save() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return api.ErrClosed
	}
	return st.persist()
}

// Close releases the backend. Later writes still update the in-memory state
// but no longer persist. Calling it again is a no-op.
func (st *Store[S]) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return nil
	}
	st.closed = true
	return st.backend.Close()
}

// tick must be called with mu held for writing.
func (st *Store[S]) tick() {
	if st.closed || !st.timer.Elapsed() {
		return
	}
	// failure is already reported; the next elapsed write retries
	_ = st.persist()
	st.timer.Rearm()
}

func (st *Store[S]) persist() error {
	if err := st.backend.Save(&st.state); err != nil {
		st.failed.Inc()
		st.log.Error("unable to save state", zap.Error(err))
		return api.Wrap(api.ErrCodePersist, "persist state", err)
	}
	st.saved.Inc()
	st.log.Info("state saved")
	return nil
}
