package journal

import (
	"path/filepath"
	"testing"

	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
)

// createTestJournal opens a file-backed journal under t.TempDir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func counterState(n int64) ir.Object {
	return ir.NewObject(ir.O("counter", ir.Int(n)))
}

func testCycle(seq int64, diverged bool) engine.Cycle {
	origin := ir.NewActionWithID("op-load", "REMOTE_LOAD", ir.Object{})
	resp := ir.NewResponse(origin, counterState(5))
	local := ir.NewActionWithID("op-inc", "INCREASE_COUNTER", ir.Object{})

	c := engine.Cycle{
		Seq:        seq,
		Origin:     origin,
		Response:   resp,
		Replayed:   []ir.Operation{local},
		Fast:       counterState(5),
		True:       counterState(6),
		Reconciled: counterState(6),
		Diverged:   diverged,
		Policy:     engine.PolicyPermissive,
		Dropped:    []ir.Operation{},
	}
	if diverged {
		corr := ir.NewCorrection("corr-1", counterState(6))
		c.Correction = &corr
	}
	return c
}
