package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/store"
)

// Call is one authoritative operation handed to a DeferredExecutor.
type Call struct {
	Snapshot ir.Value
	Op       ir.Operation

	complete store.Completion
	resolved bool
}

// DeferredExecutor records authoritative calls and completes them only when
// told to, so tests and scenarios control exactly when responses arrive.
//
// Resolving a call posts the response onto the store's intake queue before
// returning; a subsequent Drain is guaranteed to see it.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type DeferredExecutor struct {
	mu    sync.Mutex
	calls []*Call
}

// NewDeferredExecutor creates an executor with no recorded calls.
func NewDeferredExecutor() *DeferredExecutor {
	return &DeferredExecutor{}
}

// Execute implements store.Executor. It never blocks.
func (d *DeferredExecutor) Execute(_ context.Context, snapshot ir.Value, op ir.Operation, complete store.Completion) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, &Call{Snapshot: snapshot, Op: op, complete: complete})
}

// Calls returns every call received so far, resolved or not, in order.
func (d *DeferredExecutor) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	for i, c := range d.calls {
		out[i] = *c
	}
	return out
}

// Outstanding returns the number of calls not yet resolved.
func (d *DeferredExecutor) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if !c.resolved {
			n++
		}
	}
	return n
}

// Resolve completes the oldest outstanding call with result.
// Returns the call that was resolved.
func (d *DeferredExecutor) Resolve(result ir.Value) (Call, error) {
	return d.ResolveWith(func(Call) (ir.Value, error) { return result, nil })
}

// ResolveWith completes the oldest outstanding call with the value computed
// by fn from that call's snapshot and operation.
func (d *DeferredExecutor) ResolveWith(fn func(Call) (ir.Value, error)) (Call, error) {
	d.mu.Lock()
	var next *Call
	for _, c := range d.calls {
		if !c.resolved {
			next = c
			break
		}
	}
	if next == nil {
		d.mu.Unlock()
		return Call{}, fmt.Errorf("no outstanding authoritative call")
	}
	next.resolved = true
	call := *next
	d.mu.Unlock()

	result, err := fn(call)
	if err != nil {
		return call, fmt.Errorf("resolve %s: %w", call.Op.Kind, err)
	}
	call.complete(result)
	return call, nil
}
