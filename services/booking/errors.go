package booking

import (
	"errors"
	"fmt"
)

// Error codes for booking failures. Validation, conflict, invalid-state
// and not-found errors are surfaced to the caller and never retried;
// upstream and timeout errors are retryable at the queue layer.
const (
	CodeValidation   = "validationError"
	CodeConflict     = "conflictError"
	CodeInvalidState = "invalidStateError"
	CodeNotFound     = "notFoundError"
	CodeUpstream     = "upstreamUnavailable"
	CodeTimeout      = "timeout"
)

// DomainError carries a machine-readable code alongside the message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(format string, args ...any) error {
	return &DomainError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) error {
	return &DomainError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewInvalidStateError(format string, args ...any) error {
	return &DomainError{Code: CodeInvalidState, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &DomainError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewUpstreamError(format string, args ...any) error {
	return &DomainError{Code: CodeUpstream, Message: fmt.Sprintf(format, args...)}
}

func NewTimeoutError(format string, args ...any) error {
	return &DomainError{Code: CodeTimeout, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the domain error code, or empty for unclassified errors.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func IsConflict(err error) bool     { return CodeOf(err) == CodeConflict }
func IsInvalidState(err error) bool { return CodeOf(err) == CodeInvalidState }
func IsNotFound(err error) bool     { return CodeOf(err) == CodeNotFound }
func IsValidation(err error) bool   { return CodeOf(err) == CodeValidation }
