package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrNoAPIKey indicates a missing credential. Fatal at startup, never
// retryable.
var ErrNoAPIKey = errors.New("gemini: no API key configured")

// ErrEmptyPrompt indicates the caller passed an empty prompt.
var ErrEmptyPrompt = errors.New("gemini: empty prompt")

// BackendError is a non-2xx response from the generation backend. It
// carries the status code and the backend-provided error body.
type BackendError struct {
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("gemini: backend error %d: %s", e.StatusCode, e.Body)
}

// SchemaError means the backend's response envelope itself was
// malformed: valid transport, but the candidates/content/parts/text
// path is absent.
type SchemaError struct {
	Detail string
}

func (e *SchemaError) Error() string {
	return "gemini: unexpected response schema: " + e.Detail
}

// NetworkError wraps connection, DNS and timeout failures. Transient;
// the caller may retry.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("gemini: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Retryable reports whether err is a transient failure: a network
// error, a deadline, a 429, or a 5xx from the backend. Configuration
// and schema errors are never retryable.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode == 429 || be.StatusCode >= 500
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
