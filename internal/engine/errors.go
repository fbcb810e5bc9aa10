package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/fastpath/internal/ir"
)

// RuntimeError represents an error detected while the engine processes an
// operation.
//
// Runtime errors include:
//   - Transition failure: the application transition returned an error
//   - Unexpected response: a response that does not correlate with the
//     in-flight operation
//   - Invalid operation: an operation without an identity
//
// Divergence between the fast and replay paths is NOT an error.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// OperationID identifies the operation being processed.
	OperationID string

	// Kind is the discriminator of that operation.
	Kind string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeTransitionFailed indicates the transition function failed.
	ErrCodeTransitionFailed RuntimeErrorCode = "TRANSITION_FAILED"

	// ErrCodeUnexpectedResponse indicates a response with no matching in-flight operation.
	ErrCodeUnexpectedResponse RuntimeErrorCode = "UNEXPECTED_RESPONSE"

	// ErrCodeInvalidOperation indicates an operation the engine cannot track.
	ErrCodeInvalidOperation RuntimeErrorCode = "INVALID_OPERATION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Kind != "" {
		msg = fmt.Sprintf("%s (op=%s, kind=%s)", msg, e.OperationID, e.Kind)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsTransitionError returns true if err is (or wraps) a transition failure.
func IsTransitionError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeTransitionFailed
	}
	return false
}

// IsUnexpectedResponse returns true if err is (or wraps) an uncorrelated response.
func IsUnexpectedResponse(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnexpectedResponse
	}
	return false
}

// IsInvalidOperation returns true if err is (or wraps) a rejected operation.
func IsInvalidOperation(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidOperation
	}
	return false
}

// NewTransitionError wraps a transition failure for op at position index of a fold.
func NewTransitionError(op ir.Operation, index int, err error) *RuntimeError {
	// Avoid stacking the same failure once per nested fold.
	var re *RuntimeError
	if errors.As(err, &re) && re.Code == ErrCodeTransitionFailed {
		return re
	}
	return &RuntimeError{
		Code:        ErrCodeTransitionFailed,
		Message:     fmt.Sprintf("transition failed at fold position %d", index),
		OperationID: op.ID,
		Kind:        op.Kind,
		Err:         err,
	}
}

// NewUnexpectedResponseError reports a response whose origin is not in flight.
func NewUnexpectedResponseError(resp ir.Operation, inFlight *ir.Operation) *RuntimeError {
	msg := "response received while idle"
	if inFlight != nil {
		msg = fmt.Sprintf("response for %s while %s is in flight", resp.Origin, inFlight.ID)
	}
	return &RuntimeError{
		Code:        ErrCodeUnexpectedResponse,
		Message:     msg,
		OperationID: resp.ID,
		Kind:        resp.Kind,
	}
}

// NewInvalidOperationError rejects op before it reaches the queue or log.
func NewInvalidOperationError(op ir.Operation, reason string) *RuntimeError {
	return &RuntimeError{
		Code:        ErrCodeInvalidOperation,
		Message:     reason,
		OperationID: op.ID,
		Kind:        op.Kind,
	}
}
