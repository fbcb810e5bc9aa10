package store

import (
	"sync"

	"github.com/roach88/fastpath/internal/ir"
)

// intakeQueue is a thread-safe FIFO of operations awaiting intake.
//
// The queue is unbounded so that completions posted from executor
// goroutines never block.
//
// The signal channel enables context-aware waiting in the Run loop.
type intakeQueue struct {
	mu     sync.Mutex
	ops    []ir.Operation
	closed bool
	signal chan struct{} // buffered, size 1
}

func newIntakeQueue() *intakeQueue {
	return &intakeQueue{
		ops:    make([]ir.Operation, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an operation to the back of the queue.
// Returns false if the queue is closed.
func (q *intakeQueue) Enqueue(op ir.Operation) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.ops = append(q.ops, op)

	// Non-blocking: the buffer of 1 coalesces multiple signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes and returns the front operation without blocking.
func (q *intakeQueue) TryDequeue() (ir.Operation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.ops) == 0 {
		return ir.Operation{}, false
	}

	op := q.ops[0]

	// Release the slot so the backing array does not pin payloads.
	q.ops[0] = ir.Operation{}
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}

	return op, true
}

// Wait returns a channel that signals when operations may be available.
// The channel is closed when the queue is closed.
func (q *intakeQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *intakeQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ops)
}

// Close stops further enqueues and wakes any waiter.
func (q *intakeQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
