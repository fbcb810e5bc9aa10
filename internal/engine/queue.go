package engine

import "github.com/roach88/fastpath/internal/ir"

// pendingQueue is the FIFO of authoritative operations waiting for the
// in-flight operation to complete.
//
// Only ever touched from the intake goroutine, so it needs no locking.
// Identity is the operation ID: an operation already queued is never queued
// twice.
type pendingQueue struct {
	ops []ir.Operation
}

func newPendingQueue() *pendingQueue {
	return &pendingQueue{ops: make([]ir.Operation, 0, 8)}
}

// enqueue appends op unless an operation with the same ID is already queued.
// Returns false when op was a duplicate.
func (q *pendingQueue) enqueue(op ir.Operation) bool {
	if q.contains(op.ID) {
		return false
	}
	q.ops = append(q.ops, op)
	return true
}

// dequeue removes and returns the head of the queue.
func (q *pendingQueue) dequeue() (ir.Operation, bool) {
	if len(q.ops) == 0 {
		return ir.Operation{}, false
	}
	op := q.ops[0]

	// Zero the slot so the backing array does not retain payloads.
	q.ops[0] = ir.Operation{}
	if len(q.ops) == 1 {
		q.ops = q.ops[:0]
	} else {
		q.ops = q.ops[1:]
	}
	return op, true
}

// removeIfPresent deletes the queued operation with the given ID, keeping
// the relative order of the rest.
func (q *pendingQueue) removeIfPresent(id string) bool {
	for i, op := range q.ops {
		if op.ID == id {
			q.ops = append(q.ops[:i], q.ops[i+1:]...)
			return true
		}
	}
	return false
}

func (q *pendingQueue) contains(id string) bool {
	for _, op := range q.ops {
		if op.ID == id {
			return true
		}
	}
	return false
}

// clear drops every queued operation and returns them in queue order.
func (q *pendingQueue) clear() []ir.Operation {
	dropped := q.ops
	q.ops = make([]ir.Operation, 0, 8)
	return dropped
}

func (q *pendingQueue) len() int {
	return len(q.ops)
}

// snapshot returns a copy of the queued operations in FIFO order.
func (q *pendingQueue) snapshot() []ir.Operation {
	out := make([]ir.Operation, len(q.ops))
	copy(out, q.ops)
	return out
}
