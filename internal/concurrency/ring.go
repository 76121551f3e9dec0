// File: internal/concurrency/ring.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingQueue is a bounded multi-producer/multi-consumer queue using per-slot
// sequence numbers (Dmitry Vyukov's bounded MPMC pattern).

package concurrency

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/relaybot/api"
)

// QueueCapacity is the fixed number of slots in every RingQueue. Must be a
// power of two.
const QueueCapacity = 64

const queueMask = QueueCapacity - 1

// Ensure compile-time interface compliance.
var _ api.Ring[any] = (*RingQueue[any])(nil)

// slot pairs a payload with its generation counter. A slot is writable by the
// producer holding position p when seq == p, and readable by the consumer
// holding position p when seq == p+1.
type slot[T any] struct {
	seq  atomic.Uint64
	data T
}

// RingQueue is a lock-free bounded MPMC queue of QueueCapacity items.
// The zero value is not usable; construct with NewRingQueue.
type RingQueue[T any] struct {
	enqueuePos atomic.Uint64
	_          cpu.CacheLinePad
	dequeuePos atomic.Uint64
	_          cpu.CacheLinePad
	slots      [QueueCapacity]slot[T]
}

// NewRingQueue builds an empty queue with every slot primed for the first
// producer generation.
func NewRingQueue[T any]() *RingQueue[T] {
	q := &RingQueue[T]{}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Enqueue inserts item at the tail. When the queue is full it returns the
// original item and false; on success it returns the zero value and true.
// Never blocks.
func (q *RingQueue[T]) Enqueue(item T) (T, bool) {
	pos := q.enqueuePos.Load()
	for {
		s := &q.slots[pos&queueMask]
		seq := s.seq.Load()
		dif := int64(seq - pos)

		switch {
		case dif == 0:
			if q.enqueuePos.CompareAndSwap(pos, pos+1) {
				s.data = item
				s.seq.Store(pos + 1)
				var zero T
				return zero, true
			}
			pos = q.enqueuePos.Load()
		case dif < 0:
			// slot still holds the previous generation
			return item, false
		default:
			pos = q.enqueuePos.Load()
		}
	}
}

// Dequeue removes and returns the head item; ok is false if empty.
// Never blocks.
func (q *RingQueue[T]) Dequeue() (item T, ok bool) {
	pos := q.dequeuePos.Load()
	for {
		s := &q.slots[pos&queueMask]
		seq := s.seq.Load()
		dif := int64(seq - (pos + 1))

		switch {
		case dif == 0:
			if q.dequeuePos.CompareAndSwap(pos, pos+1) {
				item = s.data
				var zero T
				s.data = zero
				s.seq.Store(pos + QueueCapacity)
				return item, true
			}
			pos = q.dequeuePos.Load()
		case dif < 0:
			return item, false
		default:
			pos = q.dequeuePos.Load()
		}
	}
}

// Len returns a snapshot of the number of queued items. The value may be
// stale by the time the caller looks at it.
func (q *RingQueue[T]) Len() int {
	head := q.dequeuePos.Load()
	tail := q.enqueuePos.Load()
	n := int64(tail - head)
	switch {
	case n < 0:
		return 0
	case n > QueueCapacity:
		return QueueCapacity
	}
	return int(n)
}

// Cap returns QueueCapacity.
func (q *RingQueue[T]) Cap() int {
	return QueueCapacity
}
