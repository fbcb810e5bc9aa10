// Package engine implements the fastpath reconciliation engine.
//
// The engine sits in front of a store that applies operations optimistically
// (the "fast" view). Operations classified as authoritative are executed by an
// external collaborator against a snapshot of the fast state; while that call
// is in flight every other operation is recorded so that, when the response
// arrives, the engine can replay the corrected order against the last
// confirmed baseline (the "true" view) and compare it with the fast view.
//
// ARCHITECTURE:
//
// Single-Writer Intake:
// Intake must be called from exactly one goroutine (the store's intake
// loop). The engine holds no locks; its in-flight marker is the only mutual
// exclusion needed because at most one authoritative operation is ever
// outstanding.
//
// Cycle State Machine:
//
//	IDLE -> IN_FLIGHT -> RECONCILING -> IDLE
//
// Transitions:
//
//  1. An authoritative op arrives while idle: Outcome.Dispatch is set and the
//     engine enters IN_FLIGHT. Further authoritative ops are queued FIFO.
//  2. While in flight, every non-response op is appended to the pending log.
//  3. The correlated response arrives: fast and replay paths are folded and
//     compared; on divergence a correction follow-up is emitted.
//  4. The baseline is reset, the log cleared, and the queue head (if any) is
//     returned as a redispatch follow-up, re-entering IN_FLIGHT immediately.
//
// The engine performs no I/O. Observability (journal, metrics) hangs off the
// Cycle records returned in each Outcome.
package engine
