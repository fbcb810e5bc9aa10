package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/engine"
	"github.com/roach88/fastpath/internal/ir"
)

func TestRecordingObserver(t *testing.T) {
	r := &RecordingObserver{}
	ctx := context.Background()

	require.NoError(t, r.ObserveDispatch(ctx, engine.Dispatch{Seq: 1, Op: ir.NewActionWithID("a", "REMOTE_A", nil)}))
	require.NoError(t, r.ObserveCycle(ctx, engine.Cycle{Seq: 2, Diverged: true}))

	dispatches := r.Dispatches()
	require.Len(t, dispatches, 1)
	assert.Equal(t, int64(1), dispatches[0].Seq)

	cycles := r.Cycles()
	require.Len(t, cycles, 1)
	assert.True(t, cycles[0].Diverged)

	dispatches[0].Seq = 99
	assert.Equal(t, int64(1), r.Dispatches()[0].Seq, "accessors return copies")
}
