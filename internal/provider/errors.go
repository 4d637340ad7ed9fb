package provider

import (
	"errors"
	"fmt"
)

// ErrorCode classifies provider failures.
type ErrorCode int

const (
	RateLimited ErrorCode = iota
	AuthFailure
	Timeout
	SchemaMismatch
)

func (c ErrorCode) String() string {
	switch c {
	case RateLimited:
		return "rate_limited"
	case AuthFailure:
		return "auth_failure"
	case Timeout:
		return "timeout"
	case SchemaMismatch:
		return "schema_mismatch"
	}
	return "unknown"
}

// Error is a classified provider failure.
type Error struct {
	Provider string
	Code     ErrorCode
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Code, e.Err)
	}
	return fmt.Sprintf("provider %s: %s", e.Provider, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// IsRetryable returns true if the failure should trigger a retry.
// Auth failures and schema drift never resolve by retrying.
func (e *Error) IsRetryable() bool {
	return e.Code == RateLimited || e.Code == Timeout
}

// NewError wraps err with a provider ID and classification.
func NewError(providerID string, code ErrorCode, err error) *Error {
	return &Error{Provider: providerID, Code: code, Err: err}
}

// CodeOf extracts the classification from err, if it carries one.
func CodeOf(err error) (ErrorCode, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code, true
	}
	return 0, false
}

// Retryable reports whether err is a transient provider failure.
func Retryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}
