package store

import (
	"context"

	"github.com/roach88/fastpath/internal/engine"
)

// Observer receives the audit trail of a store: every dispatch of an
// authoritative operation and every completed reconciliation cycle.
//
// Observers are called on the writer goroutine, after the store state has
// been updated. Errors are logged; they never stop intake.
type Observer interface {
	ObserveDispatch(ctx context.Context, d engine.Dispatch) error
	ObserveCycle(ctx context.Context, c engine.Cycle) error
}
