package engine

import (
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
)

// Transition computes the next state from a state and an operation.
// It must be deterministic and side-effect free: the engine calls it on both
// the fast path and the replay path and compares the results.
type Transition func(state ir.Value, op ir.Operation) (ir.Value, error)

// ResponseMerge folds a response operation into a state.
type ResponseMerge func(state ir.Value, resp ir.Operation) (ir.Value, error)

// ReplaceWithResult is the default ResponseMerge: the authoritative result
// replaces the state wholesale.
func ReplaceWithResult(_ ir.Value, resp ir.Operation) (ir.Value, error) {
	return resp.Result, nil
}

// WrapTransition composes the application transition with the engine's own
// operation variants. Responses are folded through merge, corrections replace
// the state with the reconciled value, and the user transition then sees
// every operation (including responses and corrections) so it can react to
// them if it wants to.
func WrapTransition(user Transition, merge ResponseMerge) Transition {
	if merge == nil {
		merge = ReplaceWithResult
	}
	return func(state ir.Value, op ir.Operation) (ir.Value, error) {
		switch op.Variant {
		case ir.VariantResponse:
			merged, err := merge(state, op)
			if err != nil {
				return nil, fmt.Errorf("merge response %s: %w", op.Kind, err)
			}
			state = merged
		case ir.VariantCorrection:
			state = op.State
		}
		if user == nil {
			return state, nil
		}
		return user(state, op)
	}
}

// Fold applies ops to state left to right. An empty sequence is the identity.
// The first transition error stops the fold and is returned wrapped in a
// RuntimeError naming the failing operation.
func Fold(t Transition, state ir.Value, ops []ir.Operation) (ir.Value, error) {
	for i, op := range ops {
		next, err := t(state, op)
		if err != nil {
			return nil, NewTransitionError(op, i, err)
		}
		state = next
	}
	return state, nil
}
