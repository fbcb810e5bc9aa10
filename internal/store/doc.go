// Package store owns the fast (optimistic) state and drives the
// reconciliation engine.
//
// Every operation enters through a FIFO intake queue. A single writer
// (Run, or Drain for synchronous callers) dequeues one operation at a time,
// applies it with the engine's wrapped transition, hands it to the engine,
// and immediately processes any follow-ups the engine returns (corrections
// and redispatched queued operations) before looking at the queue again.
//
// Authoritative operations are passed to an Executor together with a
// snapshot of the state they were issued against. The executor reports back
// through a Completion, which only posts a response operation onto the
// intake queue; the response is reconciled by the writer like any other
// operation.
//
// Thread-safety model:
//   - Enqueue(), State(), Completion: safe from any goroutine
//   - Run() / Drain() / Dispatch(): one writer at a time, never mixed
package store
