package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthanh/engmate/pkg/gemini"
)

func chunkChannel(chunks ...gemini.Chunk) <-chan gemini.Chunk {
	ch := make(chan gemini.Chunk, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return ch
}

func TestCollectPreservesArrivalOrder(t *testing.T) {
	full := "The quick brown fox jumps over the lazy dog."

	// Any split of the same text must accumulate identically.
	for _, n := range []int{1, 2, 3, 7, len(full)} {
		var chunks []gemini.Chunk
		for i := 0; i < len(full); i += n {
			end := i + n
			if end > len(full) {
				end = len(full)
			}
			chunks = append(chunks, gemini.Chunk{Text: full[i:end]})
		}

		got, err := Collect(context.Background(), chunkChannel(chunks...))
		require.NoError(t, err)
		assert.Equal(t, full, got, "split size %d", n)
	}
}

func TestCollectTerminalErrorKeepsPartial(t *testing.T) {
	boom := errors.New("backend gone")
	got, err := Collect(context.Background(), chunkChannel(
		gemini.Chunk{Text: "partial "},
		gemini.Chunk{Text: "text"},
		gemini.Chunk{Err: boom},
	))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial text", got)
}

func TestCollectCancellationDiscardsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ch := make(chan gemini.Chunk) // never written: cancellation must win
	got, err := Collect(ctx, ch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, got)
}
