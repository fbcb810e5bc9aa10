// Package counter is the reference application used by the scenario
// harness, the CLI and the engine tests: a single integer counter with local
// increments and authoritative load/double operations.
package counter

import (
	"context"
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
)

// Operation kinds understood by the counter application.
const (
	KindIncrease       = "INCREASE_COUNTER"
	KindIncreaseBelow5 = "INCREASE_COUNTER_IF_BELOW_5"
	KindLoad           = "LOAD_COUNTER"
	KindRemoteLoad     = "REMOTE_LOAD_COUNTER"
	KindDouble         = "DOUBLE_COUNTER"
	KindRemoteDouble   = "REMOTE_DOUBLE_COUNTER"
)

const (
	field             = "counter"
	loadedValue int64 = 5
)

// State builds a counter state {counter: n}.
func State(n int64) ir.Object {
	return ir.NewObject(ir.O(field, ir.Int(n)))
}

// Value extracts the counter from a state.
func Value(state ir.Value) (int64, error) {
	obj, ok := state.(ir.Object)
	if !ok {
		return 0, fmt.Errorf("counter state must be an object, got %T", state)
	}
	n, ok := obj.Int(field)
	if !ok {
		return 0, fmt.Errorf("counter state has no integer %q field", field)
	}
	return n, nil
}

// Transition is the local (optimistic) transition. Authoritative kinds are
// left to the server; unknown kinds leave the state unchanged.
func Transition(state ir.Value, op ir.Operation) (ir.Value, error) {
	switch op.Kind {
	case KindIncrease:
		n, err := Value(state)
		if err != nil {
			return nil, err
		}
		return State(n + 1), nil

	case KindIncreaseBelow5:
		n, err := Value(state)
		if err != nil {
			return nil, err
		}
		if n < 5 {
			return State(n + 1), nil
		}
		return state, nil

	default:
		return state, nil
	}
}

// Compute is the authoritative computation of op against snapshot.
func Compute(snapshot ir.Value, kind string) (ir.Value, error) {
	switch kind {
	case KindLoad, KindRemoteLoad:
		return State(loadedValue), nil

	case KindDouble, KindRemoteDouble:
		n, err := Value(snapshot)
		if err != nil {
			return nil, err
		}
		return State(n * 2), nil

	default:
		return snapshot, nil
	}
}

// Server executes authoritative operations. It has the signature of
// store.ExecutorFunc.
func Server(_ context.Context, snapshot ir.Value, op ir.Operation) (ir.Value, error) {
	return Compute(snapshot, op.Kind)
}

// RecomputeMerge is a response merge that re-runs the authoritative
// computation against the state it is folded into instead of replacing it.
// Under this merge the order of a response relative to local operations is
// observable, which is what makes fast and replay paths diverge.
func RecomputeMerge(state ir.Value, resp ir.Operation) (ir.Value, error) {
	return Compute(state, resp.OriginKind)
}
