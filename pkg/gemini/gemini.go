// Package gemini implements the completion client for Google's Gemini
// text-generation API, speaking the raw HTTP wire protocol in both
// unary and streaming modes.
package gemini

import (
	"context"
	"time"
)

// GenerationConfig tunes a single generation request.
//
// Temperature must be within the backend's accepted range ([0,2] for
// Gemini); the client forwards it as-is and range validation is the
// caller's responsibility.
type GenerationConfig struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
	Streaming       bool
}

// Chunk is one unit of incrementally delivered generated text.
//
// A Chunk with a non-nil Err is terminal: the sequence ends after it.
// Chunks must be concatenated in arrival order to reconstruct the full
// response; no chunk is meaningful on its own.
type Chunk struct {
	Text string
	Err  error
}

// Completer is the interface agents consume to reach the generation
// backend. The returned sequence is finite and not restartable: it
// yields zero or more text chunks followed by either a clean close or
// a single terminal error chunk.
type Completer interface {
	// Model returns the backend model identifier, for logging and metrics.
	Model() string

	// Send issues one generation request. Exactly one attempt is made;
	// retry policy, if any, belongs to the caller.
	Send(ctx context.Context, prompt string, cfg GenerationConfig) <-chan Chunk
}

// KeySource supplies API credentials per request and accepts
// rate-limit feedback. *resilience.KeyPool satisfies it.
type KeySource interface {
	Next() (string, error)
	MarkRateLimited(key string, resetAt time.Time)
}
