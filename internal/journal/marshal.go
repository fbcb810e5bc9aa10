package journal

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
)

// OperationRef identifies an operation in a journal record.
type OperationRef struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
}

func refsOf(ops []ir.Operation) []OperationRef {
	refs := make([]OperationRef, len(ops))
	for i, op := range ops {
		refs[i] = OperationRef{ID: op.ID, Kind: op.Kind}
	}
	return refs
}

// marshalState converts a state to JSON TEXT for storage. null is allowed.
func marshalState(v ir.Value) (string, error) {
	data, err := ir.MarshalValue(v)
	if err != nil {
		return "", fmt.Errorf("marshal state: %w", err)
	}
	return string(data), nil
}

// unmarshalState parses JSON TEXT back into a state.
func unmarshalState(data string) (ir.Value, error) {
	v, err := ir.ParseValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return v, nil
}

// marshalOperation converts an operation to JSON TEXT for storage.
func marshalOperation(op ir.Operation) (string, error) {
	data, err := ir.MarshalValue(op.ToValue())
	if err != nil {
		return "", fmt.Errorf("marshal operation: %w", err)
	}
	return string(data), nil
}

func marshalRefs(ops []ir.Operation) (string, error) {
	data, err := json.Marshal(refsOf(ops))
	if err != nil {
		return "", fmt.Errorf("marshal operation refs: %w", err)
	}
	return string(data), nil
}

func unmarshalRefs(data string) ([]OperationRef, error) {
	refs := []OperationRef{}
	if err := json.Unmarshal([]byte(data), &refs); err != nil {
		return nil, fmt.Errorf("unmarshal operation refs: %w", err)
	}
	return refs, nil
}

// stateHash returns the content hash of v, or "" when v cannot be hashed
// (null states).
func stateHash(v ir.Value) string {
	h, err := ir.StateHash(v)
	if err != nil {
		return ""
	}
	return h
}
