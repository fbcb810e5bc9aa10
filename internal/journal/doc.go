// Package journal provides a SQLite-backed audit trail of authoritative
// dispatches and reconciliation cycles.
//
// The journal is append-only and is only read back for tracing. An engine
// never restores its baseline, pending log or queue from it.
//
// # Conventions
//
//   - Records are keyed by (run, seq). Each writer claims a new run, since
//     every engine numbers its records from seq 1
//   - All ordering uses the engine's logical seq, never timestamps
//   - All queries read one run and include ORDER BY seq ASC
//   - Writes use ON CONFLICT DO NOTHING, so re-recording a seq is a no-op
//   - State columns hold JSON produced by ir.MarshalValue; reconciled_hash
//     is ir.StateHash of the reconciled state (empty for null states)
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
package journal
