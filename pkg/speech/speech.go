// Package speech wraps the external speech engines behind two small
// interfaces. Both engines are best-effort collaborators: callers
// treat an error as a soft failure and fall back to text-only flow.
package speech

import "context"

// Transcriber converts recorded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Synthesizer renders text into an audio file and returns its path.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (string, error)
}
