package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/fastpath/internal/config"
	"github.com/roach88/fastpath/internal/counter"
	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/store"
	"github.com/roach88/fastpath/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs scenarios with deterministic ids and a deferred executor.
type Harness struct {
	store  *store.Store
	engine *engine.Engine
	exec   *testutil.DeferredExecutor
	ids    ir.IDGenerator
	result *Result

	// ops remembers dispatched operations so responses and re-dispatches
	// can refer to them by id.
	ops map[string]ir.Operation
}

// RunOption configures a scenario run.
type RunOption func(*runOptions)

type runOptions struct {
	observers []store.Observer
}

// WithObserver attaches an additional store observer, such as a journal or
// a metrics recorder.
func WithObserver(o store.Observer) RunOption {
	return func(r *runOptions) {
		r.observers = append(r.observers, o)
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh engine and store. Execution flow:
// 1. Build the engine from the scenario config
// 2. Execute steps in order, recording the trace
// 3. Evaluate assertions against the final trace and state
//
// Failed expectations and assertions mark the result as failed; an error is
// returned only when a step cannot be executed at all.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	initial, err := scenario.InitialState()
	if err != nil {
		return nil, err
	}

	eng := engine.New(initial, counter.Transition, EngineOptions(scenario.Config)...)
	exec := testutil.NewDeferredExecutor()
	result := NewResult()

	storeOpts := []store.Option{store.WithObserver(&traceObserver{result: result})}
	for _, o := range ro.observers {
		storeOpts = append(storeOpts, store.WithObserver(o))
	}
	st := store.New(eng, exec, storeOpts...)
	defer st.Stop()

	h := &Harness{
		store:  st,
		engine: eng,
		exec:   exec,
		ids:    ir.NewSequenceGenerator("op"),
		result: result,
		ops:    make(map[string]ir.Operation),
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	result.FinalState = st.State()

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// EngineOptions builds the engine options for cfg in the counter domain,
// with deterministic correction ids.
func EngineOptions(cfg config.Config) []engine.Option {
	merge := engine.ReplaceWithResult
	if cfg.Merge == config.MergeRecompute {
		merge = counter.RecomputeMerge
	}
	opts := cfg.EngineOptions()
	return append(opts,
		engine.WithResponseMerge(merge),
		engine.WithIDGenerator(ir.NewSequenceGenerator("correction")),
	)
}

func (h *Harness) executeStep(ctx context.Context, index int, step Step) error {
	switch {
	case step.Dispatch != nil:
		return h.executeDispatch(ctx, index, step.Dispatch)
	case step.Resolve != nil:
		return h.executeResolve(ctx, step.Resolve)
	case step.Expect != nil:
		h.checkExpect(index, step.Expect)
		return nil
	default:
		return fmt.Errorf("empty step")
	}
}

func (h *Harness) executeDispatch(ctx context.Context, index int, d *DispatchStep) error {
	op, err := h.buildOperation(d)
	if err != nil {
		return err
	}

	idx := h.result.addEvent(TraceEvent{Type: EventIntake, Kind: op.Kind, ID: op.ID})
	err = h.store.Dispatch(ctx, op)
	h.result.Trace[idx].State = h.store.State()

	code := errorCode(err)
	switch {
	case err == nil && d.Error == "":
		return nil
	case err == nil:
		h.result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got none", index, d.Error))
		return nil
	case code == "" || d.Error == "":
		return err
	case code != d.Error:
		h.result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s", index, d.Error, code))
	}
	h.result.Trace[idx].Error = code
	return nil
}

func (h *Harness) buildOperation(d *DispatchStep) (ir.Operation, error) {
	if d.ResponseTo != "" {
		origin, ok := h.ops[d.ResponseTo]
		if !ok {
			origin = ir.NewActionWithID(d.ResponseTo, d.Kind, nil)
		}
		var result ir.Value = ir.Null{}
		if d.Result != nil {
			v, err := ir.FromGo(d.Result)
			if err != nil {
				return ir.Operation{}, fmt.Errorf("result: %w", err)
			}
			result = v
		}
		return ir.NewResponse(origin, result), nil
	}

	if d.ID != "" {
		if op, ok := h.ops[d.ID]; ok {
			return op, nil
		}
	}

	payload := ir.Object{}
	if d.Payload != nil {
		v, err := ir.FromGo(d.Payload)
		if err != nil {
			return ir.Operation{}, fmt.Errorf("payload: %w", err)
		}
		payload = v.(ir.Object)
	}

	id := d.ID
	if id == "" {
		id = h.ids.Generate()
	}
	op := ir.NewActionWithID(id, d.Kind, payload)
	op.Remote = d.Remote
	h.ops[id] = op
	return op, nil
}

func (h *Harness) executeResolve(ctx context.Context, r *ResolveStep) error {
	var result ir.Value
	call, err := h.exec.ResolveWith(func(c testutil.Call) (ir.Value, error) {
		var err error
		if r.Result != nil {
			result, err = ir.FromGo(r.Result)
		} else {
			result, err = counter.Compute(c.Snapshot, c.Op.Kind)
		}
		return result, err
	})
	if err != nil {
		return err
	}

	// The response is queued but not yet processed; record it before the
	// cycle it produces.
	idx := h.result.addEvent(TraceEvent{
		Type:   EventResolve,
		Kind:   call.Op.Kind,
		ID:     call.Op.ID,
		Result: result,
	})

	if err := h.store.Drain(ctx); err != nil {
		return err
	}
	h.result.Trace[idx].State = h.store.State()
	return nil
}

func (h *Harness) checkExpect(index int, e *ExpectStep) {
	if e.State != nil {
		want, err := ir.FromGo(e.State)
		if err != nil {
			h.result.AddError(fmt.Sprintf("steps[%d]: invalid expected state: %v", index, err))
		} else if got := h.store.State(); !ir.Equal(got, want) {
			h.result.AddError(fmt.Sprintf("steps[%d]: state = %s, want %s", index, formatValue(got), formatValue(want)))
		}
	}

	if e.Phase != "" {
		if got := h.engine.Phase(); string(got) != e.Phase {
			h.result.AddError(fmt.Sprintf("steps[%d]: phase = %s, want %s", index, got, e.Phase))
		}
	}

	if e.QueueLen != nil {
		if got := h.engine.QueueLen(); got != *e.QueueLen {
			h.result.AddError(fmt.Sprintf("steps[%d]: queue_len = %d, want %d", index, got, *e.QueueLen))
		}
	}

	if e.PendingLog != nil {
		if got := len(h.engine.PendingLog()); got != *e.PendingLog {
			h.result.AddError(fmt.Sprintf("steps[%d]: pending_log = %d, want %d", index, got, *e.PendingLog))
		}
	}
}

// errorCode extracts the runtime error code from err, or "".
func errorCode(err error) string {
	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		return string(rtErr.Code)
	}
	return ""
}

func formatValue(v ir.Value) string {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// traceObserver appends store notifications to the scenario trace.
type traceObserver struct {
	result *Result
}

func (o *traceObserver) ObserveDispatch(_ context.Context, d engine.Dispatch) error {
	o.result.addEvent(TraceEvent{
		Type:  EventDispatch,
		Kind:  d.Op.Kind,
		ID:    d.Op.ID,
		Seq:   d.Seq,
		State: d.Snapshot,
	})
	return nil
}

func (o *traceObserver) ObserveCycle(_ context.Context, c engine.Cycle) error {
	e := TraceEvent{
		Type:     EventCycle,
		Kind:     c.Origin.Kind,
		ID:       c.Origin.ID,
		Seq:      c.Seq,
		State:    c.Reconciled,
		Diverged: c.Diverged,
		Fast:     c.Fast,
		True:     c.True,
		Replayed: kindsOf(c.Replayed),
		Dropped:  kindsOf(c.Dropped),
	}
	if c.Correction != nil {
		e.Correction = c.Correction.ID
	}
	o.result.addEvent(e)
	return nil
}

func kindsOf(ops []ir.Operation) []string {
	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = op.Kind
	}
	return kinds
}
