// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package events

import (
	"sync"

	"github.com/danielhkuo/olympiad/metrics"
)

const defaultQueueCapacity = 1024

// Queue is a bounded in-memory event buffer with non-blocking enqueue.
type Queue struct {
	events chan Event
	mu     sync.RWMutex
	closed bool
}

// NewQueue creates a queue holding at most capacity events.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = defaultQueueCapacity
	}
	metrics.UpdateEventQueueSize(0)
	return &Queue{events: make(chan Event, capacity)}
}

// Enqueue adds e without blocking. It returns false when the queue is full
// or closed.
func (q *Queue) Enqueue(e Event) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.events <- e:
		metrics.UpdateEventQueueSize(len(q.events))
		return true
	default:
		return false
	}
}

// Events is drained by the dispatcher worker. It is closed by Close.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	return len(q.events)
}

// Close stops new enqueues. Buffered events stay readable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	close(q.events)
	q.closed = true
}
