package engine

import (
	"log/slog"

	"github.com/roach88/fastpath/internal/ir"
)

// Engine is the reconciliation engine.
//
// It classifies operations, keeps at most one authoritative operation in
// flight, queues further authoritative operations FIFO, records the local
// operations applied during a cycle, and reconciles when the response
// arrives.
//
// Thread-safety model:
//   - Intake(): must be called from exactly one goroutine
//   - Accessors: same goroutine as Intake, or while intake is quiescent
//
// INVARIANTS:
//   - inFlight != nil exactly between a dispatch and its response
//   - the pending queue only grows while inFlight != nil
//   - the baseline changes once per response (plus at dispatch when
//     rebase-on-dispatch is enabled)
type Engine struct {
	user       Transition
	merge      ResponseMerge
	transition Transition // user wrapped with merge, see WrapTransition

	classify         Classifier
	conservative     bool
	reapply          ReapplyMode
	rebaseOnDispatch bool

	ids   ir.IDGenerator
	clock *Clock

	inFlight *ir.Operation
	queue    *pendingQueue
	tracker  *divergenceTracker
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithConservative selects the conservative policy on divergence.
//
// Default: false (permissive - adopt the replay result).
func WithConservative(conservative bool) Option {
	return func(e *Engine) {
		e.conservative = conservative
	}
}

// WithClassifier overrides the authoritative classifier.
//
// Default: DefaultClassifier (Remote flag or "REMOTE_" prefix).
func WithClassifier(c Classifier) Option {
	return func(e *Engine) {
		if c != nil {
			e.classify = c
		}
	}
}

// WithResponseMerge overrides how a response is folded into a state.
//
// Default: ReplaceWithResult.
func WithResponseMerge(m ResponseMerge) Option {
	return func(e *Engine) {
		if m != nil {
			e.merge = m
		}
	}
}

// WithReapply selects what the conservative policy re-applies the response
// onto. Ignored by the permissive policy.
//
// Default: ReapplyBaseline.
func WithReapply(mode ReapplyMode) Option {
	return func(e *Engine) {
		if mode != "" {
			e.reapply = mode
		}
	}
}

// WithRebaseOnDispatch moves the baseline to the fast state each time an
// authoritative operation is dispatched from idle.
//
// With the default replace merge the baseline only matters as the start of
// the replay path, which the response overwrites, so this is off by default.
// Merges that combine the result with the prior state need it, otherwise
// local operations applied between cycles are missing from the replay.
func WithRebaseOnDispatch(enabled bool) Option {
	return func(e *Engine) {
		e.rebaseOnDispatch = enabled
	}
}

// WithIDGenerator sets the generator used for correction operation ids.
//
// Default: ir.UUIDv7Generator.
func WithIDGenerator(g ir.IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithClock sets the logical clock stamping dispatches and cycles.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.clock = c
		}
	}
}

// New creates an Engine whose baseline is initial.
//
// transition is the application transition; the engine wraps it with the
// response merge (see WrapTransition). Stores built on this engine must use
// Transition() so that both views fold operations identically.
func New(initial ir.Value, transition Transition, opts ...Option) *Engine {
	e := &Engine{
		user:     transition,
		merge:    ReplaceWithResult,
		classify: DefaultClassifier,
		reapply:  ReapplyBaseline,
		ids:      ir.UUIDv7Generator{},
		clock:    NewClock(),
		queue:    newPendingQueue(),
		tracker:  newDivergenceTracker(initial),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.transition = WrapTransition(e.user, e.merge)
	return e
}

// Intake processes one operation observed by the store.
//
// state is the fast state BEFORE op is applied; it becomes the snapshot for
// a dispatched authoritative operation and the starting point of the fast
// path for a response. Intake never applies ordinary operations itself.
//
// Errors are returned unchanged to the caller and leave the engine as it
// was before the call.
func (e *Engine) Intake(state ir.Value, op ir.Operation) (Outcome, error) {
	if op.IsResponse() {
		return e.reconcile(state, op)
	}

	// Queue dedup and in-flight matching are by id, so two anonymous
	// operations would be indistinguishable.
	if op.ID == "" {
		return Outcome{}, NewInvalidOperationError(op, "operation has no id")
	}

	var out Outcome

	if e.inFlight != nil && e.tracker.recordLocal(op) {
		slog.Debug("local operation recorded",
			"op", op.ID,
			"kind", op.Kind,
			"in_flight", e.inFlight.ID,
		)
	}

	if !e.isAuthoritative(op) {
		return out, nil
	}

	if e.inFlight != nil {
		if op.ID == e.inFlight.ID {
			slog.Debug("authoritative operation already in flight", "op", op.ID, "kind", op.Kind)
			return out, nil
		}
		if e.queue.enqueue(op) {
			out.Queued = true
			slog.Debug("authoritative operation queued",
				"op", op.ID,
				"kind", op.Kind,
				"queue_len", e.queue.len(),
			)
		} else {
			slog.Debug("authoritative operation already queued", "op", op.ID, "kind", op.Kind)
		}
		return out, nil
	}

	e.queue.removeIfPresent(op.ID)

	inFlight := op
	e.inFlight = &inFlight
	if e.rebaseOnDispatch {
		e.tracker.rebase(state)
	}
	e.tracker.begin()

	out.Dispatch = &Dispatch{
		Seq:      e.clock.Next(),
		Op:       op,
		Snapshot: state,
	}

	slog.Info("authoritative operation dispatched",
		"op", op.ID,
		"kind", op.Kind,
		"seq", out.Dispatch.Seq,
	)

	return out, nil
}

// reconcile handles the response to the in-flight operation.
//
// Every fold runs before any engine state is touched.
func (e *Engine) reconcile(state ir.Value, resp ir.Operation) (Outcome, error) {
	if e.inFlight == nil || resp.Origin != e.inFlight.ID {
		return Outcome{}, NewUnexpectedResponseError(resp, e.inFlight)
	}

	replayed := e.tracker.pendingLog()
	baseline := e.tracker.baseline

	fast, err := Fold(e.transition, state, []ir.Operation{resp})
	if err != nil {
		return Outcome{}, err
	}

	// The response is ordered before the local operations that ran
	// concurrently with the authoritative call.
	replayPath := make([]ir.Operation, 0, len(replayed)+1)
	replayPath = append(replayPath, resp)
	replayPath = append(replayPath, replayed...)

	trueResult, err := Fold(e.transition, baseline, replayPath)
	if err != nil {
		return Outcome{}, err
	}

	cycle := &Cycle{
		Origin:   *e.inFlight,
		Response: resp,
		Replayed: replayed,
		Fast:     fast,
		True:     trueResult,
		Policy:   e.Policy(),
	}

	reconciled := fast
	var out Outcome

	if !ir.Equal(fast, trueResult) {
		cycle.Diverged = true

		if e.conservative {
			base := baseline
			if e.reapply == ReapplyReplay {
				base = trueResult
			}
			reconciled, err = Fold(e.transition, base, []ir.Operation{resp})
			if err != nil {
				return Outcome{}, err
			}
			// Queued operations were validated against a state that no
			// longer exists.
			cycle.Dropped = e.queue.clear()
		} else {
			reconciled = trueResult
		}

		correction := ir.NewCorrection(e.ids.Generate(), reconciled)
		cycle.Correction = &correction
		out.FollowUps = append(out.FollowUps, FollowUp{Op: correction})
	}

	cycle.Reconciled = reconciled
	cycle.Seq = e.clock.Next()

	e.tracker.reset(reconciled)
	e.inFlight = nil

	if next, ok := e.queue.dequeue(); ok {
		out.FollowUps = append(out.FollowUps, FollowUp{Op: next, Redispatch: true})
	}

	out.Cycle = cycle

	slog.Info("reconciled",
		"origin", cycle.Origin.ID,
		"kind", cycle.Origin.Kind,
		"seq", cycle.Seq,
		"replayed", len(replayed),
		"diverged", cycle.Diverged,
		"policy", cycle.Policy,
		"dropped", len(cycle.Dropped),
	)

	return out, nil
}

// Transition returns the wrapped transition the store must use.
func (e *Engine) Transition() Transition {
	return e.transition
}

// Policy returns the configured divergence policy.
func (e *Engine) Policy() Policy {
	if e.conservative {
		return PolicyConservative
	}
	return PolicyPermissive
}

// Phase reports whether an authoritative operation is in flight.
func (e *Engine) Phase() Phase {
	if e.inFlight != nil {
		return PhaseInFlight
	}
	return PhaseIdle
}

// InFlight returns the in-flight operation, if any.
func (e *Engine) InFlight() (ir.Operation, bool) {
	if e.inFlight == nil {
		return ir.Operation{}, false
	}
	return *e.inFlight, true
}

// Baseline returns the last confirmed state.
func (e *Engine) Baseline() ir.Value {
	return e.tracker.baseline
}

// PendingLog returns a copy of the local operations recorded this cycle.
func (e *Engine) PendingLog() []ir.Operation {
	return e.tracker.pendingLog()
}

// QueueLen returns the number of queued authoritative operations.
func (e *Engine) QueueLen() int {
	return e.queue.len()
}

// Queued returns a copy of the queued authoritative operations in FIFO order.
func (e *Engine) Queued() []ir.Operation {
	return e.queue.snapshot()
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}
