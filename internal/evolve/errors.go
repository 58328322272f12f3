package evolve

import (
	"errors"
	"fmt"
)

// PipelineError represents an error raised by the resolver or the
// applier's preconditions.
//
// Pipeline errors include:
//   - Unknown operation: a resolution referenced an ID the ledger never saw
//   - Unresolvable: a resolution targeted an operation with no intent
//     (unknown change/element pair - permanently stuck)
//   - Unresolved batch: ApplyPending called while the ambiguity set is
//     non-empty
//
// Validation and lookup problems during interpretation or application are
// NOT pipeline errors - they are captured into operation state
// (ambiguity reason, failure detail) and returned to the caller as data.
type PipelineError struct {
	// Code identifies the error category.
	Code PipelineErrorCode

	// Message is a human-readable description.
	Message string

	// OperationID identifies the affected operation, if any.
	OperationID string
}

// PipelineErrorCode categorizes pipeline errors.
type PipelineErrorCode string

const (
	// ErrCodeUnknownOperation indicates an operation reference that does
	// not identify a known ledger entry.
	ErrCodeUnknownOperation PipelineErrorCode = "UNKNOWN_OPERATION"

	// ErrCodeUnresolvable indicates a resolution attempt on an operation
	// with no mutation intent.
	ErrCodeUnresolvable PipelineErrorCode = "UNRESOLVABLE"

	// ErrCodeUnresolvedBatch indicates ApplyPending was refused because
	// ambiguous operations remain.
	ErrCodeUnresolvedBatch PipelineErrorCode = "UNRESOLVED_BATCH"
)

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.OperationID != "" {
		return fmt.Sprintf("%s: %s (op=%s)", e.Code, e.Message, e.OperationID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnknownOperation returns true if the error is an unknown-operation
// lookup failure. Uses errors.As to handle wrapped errors.
func IsUnknownOperation(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeUnknownOperation
	}
	return false
}

// IsUnresolvable returns true if the error is a resolution attempt on a
// permanently stuck operation. Uses errors.As to handle wrapped errors.
func IsUnresolvable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code == ErrCodeUnresolvable
	}
	return false
}

// NewUnknownOperationError creates a PipelineError for a bad operation
// reference.
func NewUnknownOperationError(id string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeUnknownOperation,
		Message:     "no operation with this id",
		OperationID: id,
	}
}

// NewUnresolvableError creates a PipelineError for a resolution attempt
// on an operation with no intent.
func NewUnresolvableError(id string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeUnresolvable,
		Message:     "operation has no mutation intent and cannot be resolved",
		OperationID: id,
	}
}
