package internal

import (
	"errors"
	"fmt"
)

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError represents bad credentials or a rejected registration. The
// Detail text comes from the server response body when available.
type AuthError struct {
	Op     string // "login", "register"
	Detail string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Detail)
}

// SessionExpiredError means an authenticated-only request came back
// unauthorized: the server session cookie is stale. Recovery is forcing the
// identity back to anonymous, never a crash.
type SessionExpiredError struct {
	Endpoint string
}

func (e *SessionExpiredError) Error() string {
	return fmt.Sprintf("session expired: %s returned unauthorized", e.Endpoint)
}

// IsSessionExpired reports whether err is (or wraps) a SessionExpiredError.
func IsSessionExpired(err error) bool {
	var se *SessionExpiredError
	return errors.As(err, &se)
}

// RequestError represents a non-2xx response or transport failure on a query
// or execute call.
type RequestError struct {
	Endpoint string
	Status   int // 0 for transport errors
	Body     string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the local durable store.
type StorageError struct {
	Op  string // "open", "get", "set", "delete"
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during session export.
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
