package deltaapi

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// AuthError means the OAuth credential exchange failed. Status and Body carry
// the upstream response when one was received; transport faults are wrapped in
// Err instead.
type AuthError struct {
	Status int
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oauth token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("oauth token exchange failed: status=%d body=%s", e.Status, e.Body)
}

func (e *AuthError) Unwrap() error { return e.Err }

// APIError is a non-2xx upstream response or an unusable payload. Status and
// Body are carried verbatim; nothing is synthesized. Status 0 marks a
// non-timeout transport fault (DNS, connection refused) where no response
// exists.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("menu api request failed: %s", e.Body)
	}
	return fmt.Sprintf("menu api returned status %d: %s", e.Status, e.Body)
}

// TimeoutError means a call exceeded its deadline. Callers may treat it as
// possibly transient; this layer never retries.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Op)
}

// classifyTransport maps a transport-level failure from http.Client.Do into
// the caller-facing taxonomy.
func classifyTransport(op string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Op: op}
	}
	return &APIError{Status: 0, Body: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
