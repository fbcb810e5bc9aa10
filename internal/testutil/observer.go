package testutil

import (
	"context"
	"sync"

	"github.com/roach88/fastpath/internal/engine"
)

// RecordingObserver keeps every dispatch and cycle it observes.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingObserver struct {
	mu         sync.Mutex
	dispatches []engine.Dispatch
	cycles     []engine.Cycle
}

// ObserveDispatch implements store.Observer.
func (r *RecordingObserver) ObserveDispatch(_ context.Context, d engine.Dispatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dispatches = append(r.dispatches, d)
	return nil
}

// ObserveCycle implements store.Observer.
func (r *RecordingObserver) ObserveCycle(_ context.Context, c engine.Cycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cycles = append(r.cycles, c)
	return nil
}

// Dispatches returns a copy of the observed dispatches.
func (r *RecordingObserver) Dispatches() []engine.Dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Dispatch(nil), r.dispatches...)
}

// Cycles returns a copy of the observed cycles.
func (r *RecordingObserver) Cycles() []engine.Cycle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]engine.Cycle(nil), r.cycles...)
}
