package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fastpath/internal/ir"
)

func op(kind string) ir.Operation {
	return ir.NewActionWithID("op-1", kind, ir.Object{})
}

func TestValue(t *testing.T) {
	n, err := Value(State(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	_, err = Value(ir.Null{})
	assert.Error(t, err)

	_, err = Value(ir.NewObject(ir.O("counter", ir.String("7"))))
	assert.Error(t, err)
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		kind  string
		want  int64
	}{
		{"increase", 3, KindIncrease, 4},
		{"increase below 5 applies", 4, KindIncreaseBelow5, 5},
		{"increase below 5 capped", 5, KindIncreaseBelow5, 5},
		{"remote kinds untouched", 3, KindRemoteLoad, 3},
		{"unknown kinds untouched", 3, "RESET", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(State(tt.start), op(tt.kind))
			require.NoError(t, err)
			assert.True(t, ir.Equal(State(tt.want), got), "got %v", got)
		})
	}
}

func TestTransition_NonCounterState(t *testing.T) {
	_, err := Transition(ir.Null{}, op(KindIncrease))
	assert.Error(t, err)
}

func TestCompute(t *testing.T) {
	got, err := Compute(State(1), KindRemoteLoad)
	require.NoError(t, err)
	assert.True(t, ir.Equal(State(5), got))

	got, err = Compute(State(3), KindRemoteDouble)
	require.NoError(t, err)
	assert.True(t, ir.Equal(State(6), got))

	got, err = Compute(State(3), "UNKNOWN")
	require.NoError(t, err)
	assert.True(t, ir.Equal(State(3), got))

	_, err = Compute(ir.Null{}, KindDouble)
	assert.Error(t, err)
}

func TestServer(t *testing.T) {
	got, err := Server(context.Background(), State(4), op(KindRemoteDouble))
	require.NoError(t, err)
	assert.True(t, ir.Equal(State(8), got))
}

func TestRecomputeMerge(t *testing.T) {
	origin := op(KindRemoteDouble)
	resp := ir.NewResponse(origin, State(6))

	// The carried result is ignored; the double is re-run on the folded state.
	got, err := RecomputeMerge(State(4), resp)
	require.NoError(t, err)
	assert.True(t, ir.Equal(State(8), got))
}
