package core

import (
	"context"
	"sync"
)

// Queue is the single logical channel of the bus: an unbounded FIFO shared by
// all producers and drained by exactly one consumer (the dispatch loop).
//
// Enqueue never blocks; ordering equals enqueue order. Because there is only
// one consumer, no additional locking is needed around dequeue beyond the
// internal mutex.
type Queue struct {
	mu     sync.Mutex
	items  []Message
	notify chan struct{}
	closed bool
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Enqueue appends a message. It returns ErrQueueClosed after Close and never
// blocks the caller.
func (q *Queue) Enqueue(msg Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

// Dequeue removes and returns the oldest message, blocking until one is
// available, the context is cancelled, or the queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return msg, nil
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Message{}, ErrQueueClosed
		}

		select {
		case <-ctx.Done():
			return Message{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Len reports the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed and wakes a blocked consumer. Messages already
// queued remain readable until drained; new enqueues are rejected.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}
