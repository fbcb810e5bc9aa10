package engine

import "github.com/roach88/fastpath/internal/ir"

// divergenceTracker holds the last confirmed baseline and the local
// operations observed since the current authoritative operation started.
//
// INVARIANT: log holds exactly the operations recorded between open() and
// the present, or since the last reset(), whichever is later. Outside an
// open cycle recordLocal is a no-op.
type divergenceTracker struct {
	baseline ir.Value
	log      []ir.Operation
	open     bool
}

func newDivergenceTracker(initial ir.Value) *divergenceTracker {
	return &divergenceTracker{baseline: initial}
}

// begin marks the start of an authoritative cycle.
func (t *divergenceTracker) begin() {
	t.open = true
}

// rebase replaces the baseline at the start of a cycle. Only used when
// rebase-on-dispatch is enabled; the log is always empty at that point.
func (t *divergenceTracker) rebase(state ir.Value) {
	t.baseline = state
}

// recordLocal appends op if a cycle is open.
func (t *divergenceTracker) recordLocal(op ir.Operation) bool {
	if !t.open {
		return false
	}
	t.log = append(t.log, op)
	return true
}

// reset installs a new baseline, clears the log and closes the cycle.
func (t *divergenceTracker) reset(baseline ir.Value) {
	t.baseline = baseline
	t.log = nil
	t.open = false
}

func (t *divergenceTracker) pendingLog() []ir.Operation {
	out := make([]ir.Operation, len(t.log))
	copy(out, t.log)
	return out
}
