// Package api
// Author: momentics@gmail.com
//
// Lock-free ring buffer for cross-goroutine producer/consumer.

package api

// Ring is a bounded lock-free queue contract.
type Ring[T any] interface {
	// Enqueue adds an item. When full it returns the item back and false.
	Enqueue(item T) (T, bool)
	// Dequeue removes oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}
