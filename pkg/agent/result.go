// Package agent implements the learning-activity agents: each one
// composes a prompt for its domain, sends it through a completion
// backend, accumulates the chunked output and reshapes it into a
// structured or plain-text result. Agents never return Go errors
// across their Run boundary; every failure becomes a typed Result.
package agent

import (
	"context"
	"errors"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// ErrorKind classifies a failed Result.
type ErrorKind string

const (
	KindConfiguration    ErrorKind = "configuration_error"
	KindNetwork          ErrorKind = "network_error"
	KindBackend          ErrorKind = "backend_error"
	KindSchema           ErrorKind = "unexpected_schema"
	KindMalformedOutput  ErrorKind = "malformed_output"
	KindIncompleteSchema ErrorKind = "incomplete_schema"
	KindInvalidInput     ErrorKind = "invalid_input"
	KindCancelled        ErrorKind = "cancelled"
)

// ResultError is the failure half of a Result.
type ResultError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result is the tagged outcome of one agent operation. Raw always
// retains the accumulated backend text for diagnostics, including on
// failure paths.
type Result struct {
	Type    string         `json:"type"` // "text", "json" or "error"
	Content string         `json:"content,omitempty"`
	Value   map[string]any `json:"value,omitempty"`
	Raw     string         `json:"raw,omitempty"`
	Err     *ResultError   `json:"error,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool { return r.Err == nil }

// TextResult builds a successful plain-text result.
func TextResult(content, raw string) Result {
	return Result{Type: "text", Content: content, Raw: raw}
}

// JSONResult builds a successful structured result.
func JSONResult(value map[string]any, raw string) Result {
	return Result{Type: "json", Value: value, Raw: raw}
}

// ErrResult builds a failed result of the given kind.
func ErrResult(kind ErrorKind, message, raw string) Result {
	return Result{Type: "error", Raw: raw, Err: &ResultError{Kind: kind, Message: message}}
}

// FromError converts a completion-layer error into a failed Result,
// preserving whatever partial text had accumulated.
func FromError(err error, raw string) Result {
	switch {
	case errors.Is(err, gemini.ErrNoAPIKey):
		return ErrResult(KindConfiguration, err.Error(), raw)
	case errors.Is(err, gemini.ErrEmptyPrompt):
		return ErrResult(KindInvalidInput, err.Error(), raw)
	case errors.Is(err, context.Canceled):
		return ErrResult(KindCancelled, err.Error(), raw)
	}

	var be *gemini.BackendError
	if errors.As(err, &be) {
		return ErrResult(KindBackend, err.Error(), raw)
	}
	var se *gemini.SchemaError
	if errors.As(err, &se) {
		return ErrResult(KindSchema, err.Error(), raw)
	}
	var ne *gemini.NetworkError
	if errors.As(err, &ne) {
		return ErrResult(KindNetwork, err.Error(), raw)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrResult(KindNetwork, err.Error(), raw)
	}
	return ErrResult(KindBackend, err.Error(), raw)
}
