package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/counter"
	"github.com/roach88/fastpath/internal/ir"
)

const kindBoom = "BOOM"

var errBoom = errors.New("boom")

// boomTransition is the counter transition plus a kind that always fails.
func boomTransition(state ir.Value, op ir.Operation) (ir.Value, error) {
	if op.Kind == kindBoom {
		return nil, errBoom
	}
	return counter.Transition(state, op)
}

func action(id, kind string) ir.Operation {
	return ir.NewActionWithID(id, kind, nil)
}

// harness drives an engine the way a store does: it applies ordinary
// operations to its own fast state after Intake, and feeds follow-ups back
// immediately.
type harness struct {
	t      *testing.T
	engine *Engine
	state  ir.Value

	dispatches []*Dispatch
	cycles     []*Cycle
}

func newHarness(t *testing.T, initial ir.Value, opts ...Option) *harness {
	t.Helper()
	opts = append([]Option{WithIDGenerator(ir.NewSequenceGenerator("correction"))}, opts...)
	return &harness{
		t:      t,
		engine: New(initial, counter.Transition, opts...),
		state:  initial,
	}
}

func (h *harness) dispatch(op ir.Operation) Outcome {
	h.t.Helper()
	out, err := h.process(op, false)
	require.NoError(h.t, err)
	return out
}

func (h *harness) process(op ir.Operation, redispatch bool) (Outcome, error) {
	out, err := h.engine.Intake(h.state, op)
	if err != nil {
		return out, err
	}
	if out.Dispatch != nil {
		h.dispatches = append(h.dispatches, out.Dispatch)
	}
	if out.Cycle != nil {
		h.cycles = append(h.cycles, out.Cycle)
	}
	if !redispatch {
		next, err := h.engine.Transition()(h.state, op)
		if err != nil {
			return out, err
		}
		h.state = next
	}
	for _, f := range out.FollowUps {
		if _, err := h.process(f.Op, f.Redispatch); err != nil {
			return out, err
		}
	}
	return out, nil
}

// respond completes the in-flight operation with result.
func (h *harness) respond(result ir.Value) Outcome {
	h.t.Helper()
	origin, ok := h.engine.InFlight()
	require.True(h.t, ok, "no operation in flight")
	return h.dispatch(ir.NewResponse(origin, result))
}

// serve completes the in-flight operation with the counter server's answer
// computed from the dispatch snapshot.
func (h *harness) serve() Outcome {
	h.t.Helper()
	require.NotEmpty(h.t, h.dispatches)
	d := h.dispatches[len(h.dispatches)-1]
	result, err := counter.Compute(d.Snapshot, d.Op.Kind)
	require.NoError(h.t, err)
	return h.respond(result)
}

func kinds(ops []ir.Operation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = op.Kind
	}
	return out
}
