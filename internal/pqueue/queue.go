// Package pqueue contains an unbounded FIFO queue
// shared between one producer side and a single consumer.
//
// The consumer can poll without blocking (during a drain cycle)
// or wait with a timeout (in a sender loop),
// so neither side needs a fixed-sleep polling loop.
package pqueue

import (
	"sync"
	"time"
)

// Queue is an unbounded FIFO.
// Any number of goroutines may push;
// only one goroutine may pop.
type Queue[T any] struct {
	mu    sync.Mutex
	items []T

	// Capacity 1: a pending signal means items may be available.
	// Only the single consumer receives from it.
	signal chan struct{}
}

// New returns an initialized queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{
		signal: make(chan struct{}, 1),
	}
}

// Push appends v to the tail of the queue. It never blocks.
func (q *Queue[T]) Push(v T) {
	q.mu.Lock()
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// TryPop removes and returns the head of the queue,
// reporting false if the queue is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}

	v := q.items[0]
	q.items[0] = zero // Don't retain a reference through the backing array.
	q.items = q.items[1:]
	return v, true
}

// Pop removes and returns the head of the queue,
// waiting up to d for an item if the queue is empty.
// It reports false if the wait timed out.
func (q *Queue[T]) Pop(d time.Duration) (T, bool) {
	if v, ok := q.TryPop(); ok {
		return v, true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-q.signal:
			if v, ok := q.TryPop(); ok {
				return v, true
			}
			// Stale signal; keep waiting.
		case <-timer.C:
			var zero T
			return zero, false
		}
	}
}

// Len reports the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
