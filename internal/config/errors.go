package config

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// PositionError is a config error located in a CUE source file.
type PositionError struct {
	Message string
	Pos     token.Pos
}

func (e *PositionError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
}

// Unwrap makes every PositionError match ErrInvalid.
func (e *PositionError) Unwrap() error {
	return ErrInvalid
}

// formatCUEError returns the first CUE error that carries a position,
// falling back to a plain ErrInvalid wrap.
func formatCUEError(err error) error {
	for _, e := range cueerrors.Errors(err) {
		for _, pos := range cueerrors.Positions(e) {
			if pos.IsValid() {
				return &PositionError{Message: e.Error(), Pos: pos}
			}
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}
