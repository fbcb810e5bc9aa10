package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/ir"
)

func TestIntakeQueueFIFO(t *testing.T) {
	q := newIntakeQueue()

	require.True(t, q.Enqueue(ir.NewActionWithID("a", "A", nil)))
	require.True(t, q.Enqueue(ir.NewActionWithID("b", "B", nil)))
	assert.Equal(t, 2, q.Len())

	op, ok := q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "a", op.ID)

	op, ok = q.TryDequeue()
	require.True(t, ok)
	assert.Equal(t, "b", op.ID)

	_, ok = q.TryDequeue()
	assert.False(t, ok)
}

func TestIntakeQueueSignalCoalesces(t *testing.T) {
	q := newIntakeQueue()
	q.Enqueue(ir.NewActionWithID("a", "A", nil))
	q.Enqueue(ir.NewActionWithID("b", "B", nil))

	select {
	case <-q.Wait():
	default:
		t.Fatal("expected a pending signal")
	}

	select {
	case <-q.Wait():
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestIntakeQueueClose(t *testing.T) {
	q := newIntakeQueue()
	q.Enqueue(ir.NewActionWithID("a", "A", nil))
	q.Close()
	q.Close()

	assert.False(t, q.Enqueue(ir.NewActionWithID("b", "B", nil)))

	op, ok := q.TryDequeue()
	require.True(t, ok, "queued ops survive Close")
	assert.Equal(t, "a", op.ID)

	// Drain the buffered signal, then observe the closed channel.
	<-q.Wait()
	_, open := <-q.Wait()
	assert.False(t, open)
}
