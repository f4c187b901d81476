package engine

import (
	"sync"

	"github.com/roach88/perfmodel/internal/trace"
)

// Request is one trace waiting to be merged into a scenario.
type Request struct {
	Scenario string
	Trace    *trace.Trace
}

// requestQueue is a thread-safe unbounded FIFO of merge requests.
//
// Producers may enqueue from any goroutine; Session.Run drains it on one.
// The signal channel lets Run wait without ignoring context cancellation.
type requestQueue struct {
	mu     sync.Mutex
	items  []Request
	closed bool
	signal chan struct{} // buffered, size 1
}

func newRequestQueue() *requestQueue {
	return &requestQueue{
		items:  make([]Request, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds r to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, r)

	// Non-blocking: a buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front request without blocking.
func (q *requestQueue) TryDequeue() (Request, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Request{}, false
	}
	r := q.items[0]

	// Release the trace for GC.
	q.items[0] = Request{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return r, true
}

// Wait returns a channel that signals when requests may be available.
// It is closed once the queue is closed.
func (q *requestQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Drained reports whether the queue is closed and empty.
func (q *requestQueue) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && len(q.items) == 0
}

// Close signals that no more requests will be enqueued.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
