package inventory

import (
	"errors"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrValidationConflict   = errors.New("validation conflict")
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// ConflictError rejects a mutation and carries the full validation result.
// It matches ErrValidationConflict, and ErrInsufficientQuantity when a
// quantity conflict is among the reasons.
type ConflictError struct {
	Result Result
}

func (e *ConflictError) Error() string {
	msgs := make([]string, 0, len(e.Result.Conflicts))
	for _, c := range e.Result.Conflicts {
		msgs = append(msgs, string(c.Code)+": "+c.Message)
	}
	return "transition rejected: " + strings.Join(msgs, "; ")
}

func (e *ConflictError) Is(target error) bool {
	switch target {
	case ErrValidationConflict:
		return true
	case ErrInsufficientQuantity:
		return e.Result.HasConflict(ConflictInsufficientQuantity)
	}
	return false
}

// Reject builds a ConflictError from a single conflict.
func Reject(c Conflict) *ConflictError {
	return &ConflictError{Result: Result{Conflicts: []Conflict{c}, Warnings: []Warning{}}}
}
