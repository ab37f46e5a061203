package otlp

import (
	"errors"
	"sync"
)

// DefaultBatchCapacity is the pending-batch bound used when a Config leaves
// BatchCapacity unset.
const DefaultBatchCapacity = 64

// ErrBatchFull is returned by Append when the pending batch is at capacity.
// The item is dropped; the exporter favors the producing call's latency over
// telemetry completeness.
var ErrBatchFull = errors.New("pending batch full")

// BatchQueue is a bounded, mutex-guarded pending list with atomic
// drain-and-clear semantics. Append and Drain are mutually exclusive, so a
// concurrent producer never observes a partially-drained batch.
type BatchQueue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
}

// NewBatchQueue creates a queue bounded at capacity items. Non-positive
// capacities fall back to DefaultBatchCapacity.
func NewBatchQueue[T any](capacity int) *BatchQueue[T] {
	if capacity <= 0 {
		capacity = DefaultBatchCapacity
	}
	return &BatchQueue[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Append adds item to the pending batch, or returns ErrBatchFull when the
// batch is at capacity. Ownership of item transfers to the queue.
func (q *BatchQueue[T]) Append(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.capacity {
		return ErrBatchFull
	}
	q.items = append(q.items, item)
	return nil
}

// Drain atomically takes the entire pending batch, leaving the queue empty.
// Items are returned in enqueue order. Returns nil when nothing is pending.
func (q *BatchQueue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	batch := q.items
	q.items = make([]T, 0, q.capacity)
	return batch
}

// Len reports the number of pending items.
func (q *BatchQueue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
