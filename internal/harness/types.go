package harness

import (
	"github.com/roach88/fastpath/internal/ir"
)

// Trace event types.
const (
	EventIntake   = "intake"
	EventDispatch = "dispatch"
	EventResolve  = "resolve"
	EventCycle    = "cycle"
)

// TraceEvent is one entry of a scenario trace.
type TraceEvent struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
	ID   string `json:"id"`

	// Seq is the engine clock value for dispatch and cycle events.
	Seq int64 `json:"seq,omitempty"`

	// State is the fast state after an intake or resolve step, the snapshot
	// of a dispatch, or the reconciled state of a cycle.
	State ir.Value `json:"state,omitempty"`

	// Result is the authoritative result of a resolve step.
	Result ir.Value `json:"result,omitempty"`

	// Error is the runtime error code of a failed intake step.
	Error string `json:"error,omitempty"`

	// Cycle details.
	Diverged   bool     `json:"diverged,omitempty"`
	Fast       ir.Value `json:"fast,omitempty"`
	True       ir.Value `json:"true,omitempty"`
	Replayed   []string `json:"replayed,omitempty"`
	Dropped    []string `json:"dropped,omitempty"`
	Correction string   `json:"correction,omitempty"`
}

// toValue converts the event into an ir.Object for canonical marshaling.
// Empty fields are omitted.
func (e TraceEvent) toValue() ir.Object {
	obj := ir.Object{
		"type": ir.String(e.Type),
		"kind": ir.String(e.Kind),
		"id":   ir.String(e.ID),
	}
	if e.Seq != 0 {
		obj["seq"] = ir.Int(e.Seq)
	}
	setValue(obj, "state", e.State)
	setValue(obj, "result", e.Result)
	if e.Error != "" {
		obj["error"] = ir.String(e.Error)
	}
	if e.Type == EventCycle {
		obj["diverged"] = ir.Bool(e.Diverged)
		setValue(obj, "fast", e.Fast)
		setValue(obj, "true", e.True)
		obj["replayed"] = stringArray(e.Replayed)
		obj["dropped"] = stringArray(e.Dropped)
		if e.Correction != "" {
			obj["correction"] = ir.String(e.Correction)
		}
	}
	return obj
}

func setValue(obj ir.Object, key string, v ir.Value) {
	if v == nil {
		return
	}
	if _, ok := v.(ir.Null); ok {
		return
	}
	obj[key] = v
}

func stringArray(ss []string) ir.Array {
	arr := make(ir.Array, len(ss))
	for i, s := range ss {
		arr[i] = ir.String(s)
	}
	return arr
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect step and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every intake, dispatch, resolve and cycle in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// FinalState is the fast state after the last step.
	FinalState ir.Value `json:"final_state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// addEvent appends e and returns its index.
func (r *Result) addEvent(e TraceEvent) int {
	r.Trace = append(r.Trace, e)
	return len(r.Trace) - 1
}

// Cycles returns the cycle events of the trace.
func (r *Result) Cycles() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.Type == EventCycle {
			out = append(out, e)
		}
	}
	return out
}
