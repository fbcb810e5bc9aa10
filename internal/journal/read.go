package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
	"github.com/roach88/fastpath/internal/queryir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("journal record not found")

// DispatchRecord is a dispatch as read back from the journal.
type DispatchRecord struct {
	Run      int64    `json:"run"`
	Seq      int64    `json:"seq"`
	OpID     string   `json:"op_id"`
	Kind     string   `json:"kind"`
	Snapshot ir.Value `json:"snapshot"`
}

// CycleRecord is a reconciliation cycle as read back from the journal.
type CycleRecord struct {
	Run            int64          `json:"run"`
	Seq            int64          `json:"seq"`
	OriginID       string         `json:"origin_id"`
	OriginKind     string         `json:"origin_kind"`
	ResponseKind   string         `json:"response_kind"`
	Replayed       []OperationRef `json:"replayed"`
	Fast           ir.Value       `json:"fast"`
	True           ir.Value       `json:"true"`
	Reconciled     ir.Value       `json:"reconciled"`
	ReconciledHash string         `json:"reconciled_hash"`
	Diverged       bool           `json:"diverged"`
	Policy         string         `json:"policy"`
	Dropped        []OperationRef `json:"dropped"`
	CorrectionID   string         `json:"correction_id,omitempty"`
}

// ReadDispatches returns every dispatch of run in seq order. Run 0 reads
// the latest run. Returns an empty slice (not nil) if there are none.
func (j *Journal) ReadDispatches(ctx context.Context, run int64) ([]DispatchRecord, error) {
	run, err := j.resolveRun(ctx, run)
	if err != nil {
		return nil, err
	}
	if run == 0 {
		return []DispatchRecord{}, nil
	}

	query, params, err := compiler.Compile(queryir.Select{
		From:    "dispatches",
		Columns: dispatchColumns,
		Filter:  queryir.Equals{Field: "run", Value: ir.Int(run)},
	})
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query dispatches: %w", err)
	}
	defer rows.Close()

	records := []DispatchRecord{}
	for rows.Next() {
		var rec DispatchRecord
		var snapJSON string
		if err := rows.Scan(&rec.Run, &rec.Seq, &rec.OpID, &rec.Kind, &snapJSON); err != nil {
			return nil, fmt.Errorf("scan dispatch: %w", err)
		}
		if rec.Snapshot, err = unmarshalState(snapJSON); err != nil {
			return nil, fmt.Errorf("dispatch %d: %w", rec.Seq, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dispatches: %w", err)
	}
	return records, nil
}

// ReadCycles returns the reconciliation cycles matching filter in seq order.
// A zero filter.Run reads the latest run.
// Returns an empty slice (not nil) if there are none.
func (j *Journal) ReadCycles(ctx context.Context, filter CycleFilter) ([]CycleRecord, error) {
	run, err := j.resolveRun(ctx, filter.Run)
	if err != nil {
		return nil, err
	}
	if run == 0 {
		return []CycleRecord{}, nil
	}
	filter.Run = run

	query, params, err := compiler.Compile(queryir.Select{
		From:    "cycles",
		Columns: cycleColumns,
		Filter:  filter.Predicate(),
	})
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	records := []CycleRecord{}
	for rows.Next() {
		rec, err := scanCycle(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cycles: %w", err)
	}
	return records, nil
}

// ReadCycle returns the cycle (run, seq), or ErrNotFound. Run 0 reads the
// latest run.
func (j *Journal) ReadCycle(ctx context.Context, run, seq int64) (CycleRecord, error) {
	run, err := j.resolveRun(ctx, run)
	if err != nil {
		return CycleRecord{}, err
	}

	query, params, err := compiler.Compile(queryir.Select{
		From:    "cycles",
		Columns: cycleColumns,
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: "run", Value: ir.Int(run)},
			queryir.Equals{Field: "seq", Value: ir.Int(seq)},
		}},
	})
	if err != nil {
		return CycleRecord{}, err
	}

	rec, err := scanCycle(j.db.QueryRowContext(ctx, query, params...))
	if errors.Is(err, sql.ErrNoRows) {
		return CycleRecord{}, fmt.Errorf("cycle %d/%d: %w", run, seq, ErrNotFound)
	}
	return rec, err
}

func (j *Journal) resolveRun(ctx context.Context, run int64) (int64, error) {
	if run > 0 {
		return run, nil
	}
	return j.LatestRun(ctx)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCycle(row rowScanner) (CycleRecord, error) {
	var rec CycleRecord
	var replayedJSON, fastJSON, trueJSON, reconciledJSON, droppedJSON string
	var diverged int

	err := row.Scan(
		&rec.Run,
		&rec.Seq,
		&rec.OriginID,
		&rec.OriginKind,
		&rec.ResponseKind,
		&replayedJSON,
		&fastJSON,
		&trueJSON,
		&reconciledJSON,
		&rec.ReconciledHash,
		&diverged,
		&rec.Policy,
		&droppedJSON,
		&rec.CorrectionID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CycleRecord{}, err
		}
		return CycleRecord{}, fmt.Errorf("scan cycle: %w", err)
	}
	rec.Diverged = diverged == 1

	if rec.Replayed, err = unmarshalRefs(replayedJSON); err != nil {
		return CycleRecord{}, fmt.Errorf("cycle %d: %w", rec.Seq, err)
	}
	if rec.Dropped, err = unmarshalRefs(droppedJSON); err != nil {
		return CycleRecord{}, fmt.Errorf("cycle %d: %w", rec.Seq, err)
	}
	if rec.Fast, err = unmarshalState(fastJSON); err != nil {
		return CycleRecord{}, fmt.Errorf("cycle %d fast: %w", rec.Seq, err)
	}
	if rec.True, err = unmarshalState(trueJSON); err != nil {
		return CycleRecord{}, fmt.Errorf("cycle %d true: %w", rec.Seq, err)
	}
	if rec.Reconciled, err = unmarshalState(reconciledJSON); err != nil {
		return CycleRecord{}, fmt.Errorf("cycle %d reconciled: %w", rec.Seq, err)
	}
	return rec, nil
}
