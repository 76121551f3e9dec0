// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

var (
	// ErrQueueFull indicates Enqueue found no free slot; the item was handed back.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueEmpty indicates Dequeue found nothing to return.
	ErrQueueEmpty = errors.New("queue is empty")
)

// Push is Enqueue expressed with an error result for callers that propagate
// errors. On ErrQueueFull the caller still owns item.
func (q *RingQueue[T]) Push(item T) error {
	if _, ok := q.Enqueue(item); !ok {
		return ErrQueueFull
	}
	return nil
}

// Pop is Dequeue expressed with an error result.
func (q *RingQueue[T]) Pop() (T, error) {
	item, ok := q.Dequeue()
	if !ok {
		return item, ErrQueueEmpty
	}
	return item, nil
}
