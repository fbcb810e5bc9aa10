package engine

import "github.com/roach88/fastpath/internal/ir"

// Policy names the reconciliation policy applied on divergence.
type Policy string

const (
	// PolicyPermissive adopts the replay result (default).
	PolicyPermissive Policy = "permissive"
	// PolicyConservative drops queued authoritative ops and discards local progress.
	PolicyConservative Policy = "conservative"
)

// ReapplyMode selects the state the conservative policy re-applies the
// response onto.
type ReapplyMode string

const (
	// ReapplyBaseline re-applies the response onto the previous baseline,
	// discarding every local operation recorded during the cycle (default).
	ReapplyBaseline ReapplyMode = "baseline"

	// ReapplyReplay re-applies the response onto the replay result. This
	// applies the response twice and only makes sense for idempotent merges.
	ReapplyReplay ReapplyMode = "replay"
)

// Phase is the externally visible state of the engine.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseInFlight Phase = "in_flight"
)

// Dispatch records an authoritative operation handed to the collaborator.
type Dispatch struct {
	Seq      int64
	Op       ir.Operation
	Snapshot ir.Value
}

// Cycle records one completed reconciliation.
type Cycle struct {
	Seq      int64
	Origin   ir.Operation
	Response ir.Operation

	// Replayed is the pending log that was folded after the response.
	Replayed []ir.Operation

	Fast       ir.Value
	True       ir.Value
	Reconciled ir.Value

	Diverged bool
	Policy   Policy

	// Dropped holds queued authoritative ops discarded by the conservative policy.
	Dropped []ir.Operation

	// Correction is set when a correction follow-up was emitted.
	Correction *ir.Operation
}

// FollowUp is an operation the store must feed back through intake
// immediately, before any other queued operation.
type FollowUp struct {
	Op ir.Operation

	// Redispatch marks a queued authoritative op being re-fed. It was already
	// applied to the fast state when first observed, so the store must not
	// apply it again: it only goes back through Intake to be dispatched.
	//
	// Middleware that re-feeds the queue head through its whole pipeline
	// applies the op a second time. For transitions that are not idempotent
	// on authoritative kinds the two designs produce different fast states;
	// this one counts each observed op exactly once.
	Redispatch bool
}

// Outcome is the result of one Intake call.
type Outcome struct {
	// Dispatch is set when op must now be executed by the collaborator.
	Dispatch *Dispatch

	// Queued is true when op was added to the pending queue.
	Queued bool

	// FollowUps are correction and redispatch operations, in order.
	FollowUps []FollowUp

	// Cycle is set when op was the response that closed a cycle.
	Cycle *Cycle
}
