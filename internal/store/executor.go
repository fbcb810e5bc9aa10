package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/fastpath/internal/ir"
)

// Completion reports the result of an authoritative operation. It posts the
// correlated response onto the intake queue and returns; only the first call
// has any effect.
type Completion func(result ir.Value)

// Executor performs authoritative operations.
//
// Execute must not block the caller for long: it runs on the store's writer
// goroutine. It must eventually call complete at most once. Retries,
// timeouts and transport are the executor's concern; if complete is never
// called the engine stays in flight indefinitely.
type Executor interface {
	Execute(ctx context.Context, snapshot ir.Value, op ir.Operation, complete Completion)
}

// ExecutorFunc adapts a blocking request function into an Executor. Each
// call runs on its own goroutine; an error is logged and the completion is
// never fired.
type ExecutorFunc func(ctx context.Context, snapshot ir.Value, op ir.Operation) (ir.Value, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, snapshot ir.Value, op ir.Operation, complete Completion) {
	go func() {
		result, err := f(ctx, snapshot, op)
		if err != nil {
			slog.Error("authoritative operation failed",
				"op", op.ID,
				"kind", op.Kind,
				"error", err,
			)
			return
		}
		complete(result)
	}()
}

// completionFor builds the at-most-once completion for op.
func (s *Store) completionFor(op ir.Operation) Completion {
	var once sync.Once
	return func(result ir.Value) {
		once.Do(func() {
			if !s.queue.Enqueue(ir.NewResponse(op, result)) {
				slog.Warn("response dropped: store closed", "op", op.ID, "kind", op.Kind)
			}
		})
	}
}
