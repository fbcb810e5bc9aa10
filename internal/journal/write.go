package journal

import (
	"context"
	"fmt"

	"github.com/roach88/fastpath/internal/engine"
)

// WriteDispatch records an authoritative dispatch under the current run.
// Uses ON CONFLICT(run, seq) DO NOTHING for idempotency.
func (j *Journal) WriteDispatch(ctx context.Context, d engine.Dispatch) error {
	run, err := j.writeRun(ctx)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	opJSON, err := marshalOperation(d.Op)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	snapJSON, err := marshalState(d.Snapshot)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO dispatches (run, seq, op_id, kind, operation, snapshot)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run, seq) DO NOTHING
	`,
		run,
		d.Seq,
		d.Op.ID,
		d.Op.Kind,
		opJSON,
		snapJSON,
	)
	if err != nil {
		return fmt.Errorf("write dispatch: %w", err)
	}
	return nil
}

// WriteCycle records a completed reconciliation cycle under the current run.
// Uses ON CONFLICT(run, seq) DO NOTHING for idempotency.
func (j *Journal) WriteCycle(ctx context.Context, c engine.Cycle) error {
	run, err := j.writeRun(ctx)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	fastJSON, err := marshalState(c.Fast)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	trueJSON, err := marshalState(c.True)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	reconciledJSON, err := marshalState(c.Reconciled)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	replayedJSON, err := marshalRefs(c.Replayed)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	droppedJSON, err := marshalRefs(c.Dropped)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}

	correctionID := ""
	if c.Correction != nil {
		correctionID = c.Correction.ID
	}

	diverged := 0
	if c.Diverged {
		diverged = 1
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO cycles
		(run, seq, origin_id, origin_kind, response_kind, replayed, fast_state, true_state,
		 reconciled, reconciled_hash, diverged, policy, dropped, correction_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run, seq) DO NOTHING
	`,
		run,
		c.Seq,
		c.Origin.ID,
		c.Origin.Kind,
		c.Response.Kind,
		replayedJSON,
		fastJSON,
		trueJSON,
		reconciledJSON,
		stateHash(c.Reconciled),
		diverged,
		string(c.Policy),
		droppedJSON,
		correctionID,
	)
	if err != nil {
		return fmt.Errorf("write cycle: %w", err)
	}
	return nil
}

// ObserveDispatch implements store.Observer.
func (j *Journal) ObserveDispatch(ctx context.Context, d engine.Dispatch) error {
	return j.WriteDispatch(ctx, d)
}

// ObserveCycle implements store.Observer.
func (j *Journal) ObserveCycle(ctx context.Context, c engine.Cycle) error {
	return j.WriteCycle(ctx, c)
}
