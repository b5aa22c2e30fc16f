package listsync

import (
	"errors"
	"fmt"

	"collablist/store"
)

var (
	// ErrBusy is returned by Form.Begin while a write is outstanding.
	ErrBusy = errors.New("a write is already in progress")
	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session is closed")
)

// ConfigError means required connection configuration is absent or malformed.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Reason, e.Err)
	}
	return "configuration error: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// AuthError means the identity could not be established.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return fmt.Sprintf("authentication failed: %v", e.Err) }

func (e *AuthError) Unwrap() error { return e.Err }

// SubscriptionError ends a live subscription. It is delivered at most once.
type SubscriptionError struct {
	Path string
	Err  error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Path, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// ValidationError reports local input that failed the required-field checks.
// No write is issued when it is returned.
type ValidationError struct {
	Field  string
	Reason string
	Err    *store.ValidationError
}

func newValidationError(err *store.ValidationError) *ValidationError {
	return &ValidationError{Field: err.Field, Reason: err.Reason, Err: err}
}

func (e *ValidationError) Error() string { return e.Err.Error() }

func (e *ValidationError) Unwrap() error { return e.Err }

// WriteError means an append reached the store and failed.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
