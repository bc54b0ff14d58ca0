package backend

import (
	"encoding/json"
	"errors"
	"sync"
)

// errInstanceStopping reports an enqueue against an instance whose stop
// is in flight. Callers treat it like any other backend failure, which
// drives the dispatcher's fallback path.
var errInstanceStopping = errors.New("backend instance is stopping")

// errQueueFull reports a request queue at capacity.
var errQueueFull = errors.New("backend request queue is full")

// request represents a JSON-RPC request to send to a backend process.
type request struct {
	ID     int
	Method string
	Params json.RawMessage
	Result chan response
}

// response is the result of a backend call.
type response struct {
	Data json.RawMessage
	Err  error
}

// requestQueue is a bounded queue of pending requests that tolerates
// enqueue racing close: once closed, enqueue returns an error instead
// of sending on the closed channel.
type requestQueue struct {
	mu     sync.Mutex
	ch     chan request
	closed bool
}

func newRequestQueue(size int) *requestQueue {
	return &requestQueue{ch: make(chan request, size)}
}

// enqueue adds a request without blocking. The error return is the
// caller's signal to fail the attempt rather than wait on an instance
// that is saturated or going away.
func (q *requestQueue) enqueue(r request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return errInstanceStopping
	}
	select {
	case q.ch <- r:
		return nil
	default:
		return errQueueFull
	}
}

// dequeue blocks until a request is available or the queue is closed
// and drained.
func (q *requestQueue) dequeue() (request, bool) {
	r, ok := <-q.ch
	return r, ok
}

// close marks the queue closed. Requests already in the channel still
// drain; later enqueues fail. Safe to call more than once.
func (q *requestQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}
