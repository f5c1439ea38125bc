package entity

import (
	"fmt"
	"net/http"
	"time"
)

// ValidationError reports client-side input rejected before any network
// call was issued.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// TimeoutError reports an upstream call that exceeded its time budget.
type TimeoutError struct {
	Endpoint string
	Budget   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("request to %s timed out after %s", e.Endpoint, e.Budget)
}

// NetworkError reports a transport failure before a response was received.
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx upstream response. Detail carries the
// server-supplied message when the body was parseable JSON with a
// "detail" field, otherwise it is empty.
type HTTPError struct {
	Endpoint string
	Status   int
	Detail   string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s returned %d", e.Endpoint, e.Status)
}

// Retryable reports whether err is a transient condition worth another
// attempt. Timeouts and transport failures are transient; an HTTP 404 is
// a missing resource and never retried; every other HTTP status follows
// the same policy as transport failures.
func Retryable(err error) bool {
	switch e := err.(type) {
	case *TimeoutError, *NetworkError:
		return true
	case *HTTPError:
		return e.Status != http.StatusNotFound
	default:
		return false
	}
}

// ErrorDetail extracts the server-supplied detail message from an
// HTTPError, falling back to the full error text for other kinds.
func ErrorDetail(err error) string {
	if err == nil {
		return ""
	}
	if he, ok := err.(*HTTPError); ok && he.Detail != "" {
		return he.Detail
	}
	return err.Error()
}
