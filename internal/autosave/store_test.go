package autosave

import (
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/relaybot/api"
	"github.com/momentics/relaybot/internal/storage"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type counter struct{ n atomic.Int64 }

func (c *counter) Inc() { c.n.Add(1) }
func (c *counter) Value() int64 { return c.n.Load() }

type settings struct {
	Name  string
	Count int
}

type memBackend struct {
	mu      sync.Mutex
	stored  *settings
	loadErr error
	saveErr error
	saves   int
}

func (b *memBackend) Load() (settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return settings{}, b.loadErr
	}
	if b.stored == nil {
		return settings{}, api.ErrStateNotFound
	}
	return *b.stored, nil
}

func (b *memBackend) Save(s *settings) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	cp := *s
	b.stored = &cp
	b.saves++
	return nil
}

func (b *memBackend) Close() error { return nil }

func (b *memBackend) Saves() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves
}

func TestNewFallsBackToDefaults(t *testing.T) {
	b := &memBackend{loadErr: errors.New("corrupt")}
	st := New[settings](b, func() settings { return settings{Name: "default"} })
	assert.Equal(t, "default", Read(st, func(s *settings) string { return s.Name }))

	st = New[settings](&memBackend{}, nil)
	assert.Equal(t, settings{}, Read(st, func(s *settings) settings { return *s }))
}

func TestNewLoadsStoredState(t *testing.T) {
	b := &memBackend{stored: &settings{Name: "stored", Count: 3}}
	st := New[settings](b, nil)
	assert.Equal(t, settings{Name: "stored", Count: 3}, Read(st, func(s *settings) settings { return *s }))
}

func TestReadNeverPersists(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{}
	saved := &counter{}
	st := New[settings](b, nil, WithClock(clock), WithInterval(time.Second), WithSuccessCounter(saved))

	clock.Advance(time.Hour)
	for i := 0; i < 100; i++ {
		st.WithRead(func(s *settings) { _ = s.Count })
	}
	assert.Equal(t, 0, b.Saves())
	assert.Zero(t, saved.Value())

	// the timer was not touched by the reads: the first write still fires
	st.WithWrite(func(s *settings) { s.Count++ })
	assert.Equal(t, 1, b.Saves())
}

func TestDebouncedPersistence(t *testing.T) {
	clock := newManualClock()
	start := clock.Now()
	unit := time.Second
	timer := NewDeadlineTimer(clock, unit)
	b := &memBackend{}
	st := New[settings](b, nil, WithTimer(timer))

	// t=0: armed to t=1
	st.WithWrite(func(s *settings) { s.Count = 1 })
	assert.Equal(t, 0, b.Saves())
	assert.Equal(t, start.Add(unit), timer.Deadline())

	// t=0.5: not elapsed
	clock.Advance(unit / 2)
	st.WithWrite(func(s *settings) { s.Count = 2 })
	assert.Equal(t, 0, b.Saves())

	// t=1.2: exactly one persist, rearmed to t=2.2
	clock.Advance(700 * time.Millisecond)
	st.WithWrite(func(s *settings) { s.Count = 3 })
	assert.Equal(t, 1, b.Saves())
	assert.Equal(t, 3, b.stored.Count)
	assert.Equal(t, start.Add(2200*time.Millisecond), timer.Deadline())

	// t=2.1: still before the new deadline
	clock.Advance(900 * time.Millisecond)
	st.WithWrite(func(s *settings) { s.Count = 4 })
	assert.Equal(t, 1, b.Saves())

	// t=2.2: deadline reached
	clock.Advance(100 * time.Millisecond)
	st.WithWrite(func(s *settings) { s.Count = 5 })
	assert.Equal(t, 2, b.Saves())
}

func TestIdlePeriodDefersSaveToNextWrite(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{}
	st := New[settings](b, nil, WithClock(clock), WithInterval(time.Minute))

	st.WithWrite(func(s *settings) { s.Count = 1 })
	clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, b.Saves())

	st.WithWrite(func(s *settings) { s.Count = 2 })
	assert.Equal(t, 1, b.Saves())
	assert.Equal(t, 2, b.stored.Count)
}

func TestWriteReturnsClosureResult(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{}
	st := New[settings](b, nil, WithClock(clock), WithInterval(time.Second))
	clock.Advance(time.Second)

	got := Write(st, func(s *settings) string {
		s.Name = "x"
		return "result"
	})
	assert.Equal(t, "result", got)
	assert.Equal(t, 1, b.Saves())
}

func TestPersistFailureCountedAndRetried(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{saveErr: errors.New("disk full")}
	failed := &counter{}
	saved := &counter{}
	st := New[settings](b, nil,
		WithClock(clock), WithInterval(time.Second),
		WithFailureCounter(failed), WithSuccessCounter(saved))

	clock.Advance(time.Second)
	st.WithWrite(func(s *settings) { s.Count = 1 })
	assert.Equal(t, int64(1), failed.Value())
	assert.Zero(t, saved.Value())

	// rearmed after the failed attempt
	st.WithWrite(func(s *settings) { s.Count = 2 })
	assert.Equal(t, int64(1), failed.Value())

	b.mu.Lock()
	b.saveErr = nil
	b.mu.Unlock()
	clock.Advance(time.Second)
	st.WithWrite(func(s *settings) { s.Count = 3 })
	assert.Equal(t, int64(1), saved.Value())
	assert.Equal(t, 3, b.stored.Count)

	b.mu.Lock()
	b.saveErr = errors.New("gone")
	b.mu.Unlock()
	err := st.Save()
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, api.ErrCodePersist, apiErr.Code)
	assert.Equal(t, int64(2), failed.Value())
}

func TestPanicInWriteReleasesLock(t *testing.T) {
	st := New[settings](&memBackend{}, nil)

	func() {
		defer func() { _ = recover() }()
		st.WithWrite(func(s *settings) { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		st.WithWrite(func(s *settings) { s.Count = 1 })
		st.WithRead(func(s *settings) {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("lock still held after panic")
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{}
	st := New[settings](b, nil, WithClock(clock), WithInterval(time.Millisecond))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				st.WithWrite(func(s *settings) { s.Count++ })
				clock.Advance(time.Microsecond * 10)
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				st.WithRead(func(s *settings) { _ = s.Count })
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2000, Read(st, func(s *settings) int { return s.Count }))
	require.NoError(t, st.Save())
	assert.Equal(t, 2000, b.stored.Count)
}

func TestColdStartRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	st := New[settings](storage.NewFileBackend[settings](path), nil)
	assert.Equal(t, settings{}, Read(st, func(s *settings) settings { return *s }))

	st.WithWrite(func(s *settings) {
		s.Name = "saved"
		s.Count = 9
	})
	require.NoError(t, st.Save())
	require.NoError(t, st.Close())

	again := New[settings](storage.NewFileBackend[settings](path), nil)
	assert.Equal(t, settings{Name: "saved", Count: 9}, Read(again, func(s *settings) settings { return *s }))
}

func TestClosedStoreStopsPersisting(t *testing.T) {
	clock := newManualClock()
	b := &memBackend{}
	failed := &counter{}
	st := New[settings](b, nil, WithClock(clock), WithInterval(time.Second), WithFailureCounter(failed))

	require.NoError(t, st.Close())
	require.NoError(t, st.Close())

	clock.Advance(time.Minute)
	st.WithWrite(func(s *settings) { s.Count = 1 })
	assert.Equal(t, 0, b.Saves())
	assert.Zero(t, failed.Value())
	assert.Equal(t, 1, Read(st, func(s *settings) int { return s.Count }))
	assert.ErrorIs(t, st.Save(), api.ErrClosed)
}

func TestDeadlineTimer(t *testing.T) {
	clock := newManualClock()
	timer := NewDeadlineTimer(clock, time.Minute)
	assert.Equal(t, time.Minute, timer.Interval())
	assert.False(t, timer.Elapsed())

	clock.Advance(time.Minute - time.Nanosecond)
	assert.False(t, timer.Elapsed())
	clock.Advance(time.Nanosecond)
	assert.True(t, timer.Elapsed())

	timer.Rearm()
	assert.False(t, timer.Elapsed())
	assert.Equal(t, clock.Now().Add(time.Minute), timer.Deadline())

	assert.NotNil(t, NewDeadlineTimer(nil, time.Second))
}
