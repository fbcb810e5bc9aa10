package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
)

// ErrClosed is returned when an operation is submitted to a stopped store.
var ErrClosed = errors.New("store closed")

// Store owns the fast state and feeds every operation through the
// reconciliation engine.
type Store struct {
	engine     *engine.Engine
	transition engine.Transition
	exec       Executor
	observers  []Observer
	queue      *intakeQueue

	// lifetime bounds executor calls; cancelled by Stop.
	lifetime context.Context
	cancel   context.CancelFunc

	mu    sync.RWMutex
	state ir.Value
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// New creates a store driven by eng. The initial fast state is the engine's
// baseline, so both views start in agreement.
func New(eng *engine.Engine, exec Executor, opts ...Option) *Store {
	lifetime, cancel := context.WithCancel(context.Background())
	s := &Store{
		engine:     eng,
		transition: eng.Transition(),
		exec:       exec,
		queue:      newIntakeQueue(),
		lifetime:   lifetime,
		cancel:     cancel,
		state:      eng.Baseline(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Enqueue submits an operation for intake.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the store has been stopped.
func (s *Store) Enqueue(op ir.Operation) bool {
	return s.queue.Enqueue(op)
}

// State returns the current fast state.
// Thread-safe: may be called from any goroutine.
func (s *Store) State() ir.Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Engine returns the engine driving this store. Its accessors are only safe
// while no writer is running.
func (s *Store) Engine() *engine.Engine {
	return s.engine
}

// Pending returns the number of operations waiting for intake.
func (s *Store) Pending() int {
	return s.queue.Len()
}

// Dispatch enqueues op and drains the intake queue synchronously.
// Must not be used while Run is active.
func (s *Store) Dispatch(ctx context.Context, op ir.Operation) error {
	if !s.queue.Enqueue(op) {
		return ErrClosed
	}
	return s.Drain(ctx)
}

// Drain processes queued operations until the queue is empty.
// Must not be used while Run is active.
//
// The first intake error stops the drain; operations queued behind the
// failing one stay queued.
func (s *Store) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		op, ok := s.queue.TryDequeue()
		if !ok {
			return nil
		}
		if err := s.process(ctx, op, false); err != nil {
			return err
		}
	}
}

// Run starts the single-writer intake loop.
// Blocks until ctx is cancelled, Stop() is called, or an intake fails.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// Transition failures are returned: a broken transition is fatal to intake
// rather than being skipped. The store is stopped before Run returns.
func (s *Store) Run(ctx context.Context) error {
	slog.Info("store intake starting")

	for {
		op, ok := s.queue.TryDequeue()
		if ok {
			if err := s.process(ctx, op, false); err != nil {
				slog.Error("intake failed", "op", op.ID, "kind", op.Kind, "error", err)
				s.Stop()
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("store intake stopping: context cancelled")
			s.Stop()
			return ctx.Err()

		case _, open := <-s.queue.Wait():
			if !open && s.queue.Len() == 0 {
				slog.Info("store intake stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the intake queue and cancels outstanding executor calls.
func (s *Store) Stop() {
	s.queue.Close()
	s.cancel()
}

// process runs one operation through the transition and the engine, then
// its follow-ups, depth first.
func (s *Store) process(ctx context.Context, op ir.Operation, redispatch bool) error {
	before := s.State()

	var out engine.Outcome
	var err error

	switch {
	case op.IsResponse():
		// The engine folds the response onto the current state for the fast
		// path; that fold is exactly what the store would compute.
		out, err = s.engine.Intake(before, op)
		if err != nil {
			return fmt.Errorf("intake %s: %w", op.Kind, err)
		}
		s.setState(out.Cycle.Fast)

	case redispatch:
		out, err = s.engine.Intake(before, op)
		if err != nil {
			return fmt.Errorf("intake %s: %w", op.Kind, err)
		}

	default:
		next, terr := s.transition(before, op)
		if terr != nil {
			return fmt.Errorf("apply %s: %w", op.Kind, engine.NewTransitionError(op, 0, terr))
		}
		out, err = s.engine.Intake(before, op)
		if err != nil {
			return fmt.Errorf("intake %s: %w", op.Kind, err)
		}
		s.setState(next)
	}

	slog.Debug("operation processed",
		"op", op.ID,
		"kind", op.Kind,
		"variant", op.Variant,
		"redispatch", redispatch,
		"phase", s.engine.Phase(),
	)

	if out.Dispatch != nil {
		d := *out.Dispatch
		s.notifyDispatch(ctx, d)
		s.exec.Execute(s.lifetime, d.Snapshot, d.Op, s.completionFor(d.Op))
	}

	if out.Cycle != nil {
		s.notifyCycle(ctx, *out.Cycle)
	}

	for _, f := range out.FollowUps {
		if err := s.process(ctx, f.Op, f.Redispatch); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) setState(v ir.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = v
}

func (s *Store) notifyDispatch(ctx context.Context, d engine.Dispatch) {
	for _, o := range s.observers {
		if err := o.ObserveDispatch(ctx, d); err != nil {
			slog.Warn("observer failed on dispatch", "op", d.Op.ID, "seq", d.Seq, "error", err)
		}
	}
}

func (s *Store) notifyCycle(ctx context.Context, c engine.Cycle) {
	for _, o := range s.observers {
		if err := o.ObserveCycle(ctx, c); err != nil {
			slog.Warn("observer failed on cycle", "origin", c.Origin.ID, "seq", c.Seq, "error", err)
		}
	}
}
