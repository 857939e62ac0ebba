package agent

import (
	"context"
	"strings"

	"github.com/ndthanh/engmate/pkg/gemini"
)

// Collect drains a chunk sequence into one string, preserving arrival
// order. It returns whatever text accumulated before a terminal error
// so diagnostics can include the partial response. On caller
// cancellation the partial accumulation is discarded.
func Collect(ctx context.Context, chunks <-chan gemini.Chunk) (string, error) {
	var b strings.Builder
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ch, ok := <-chunks:
			if !ok {
				return b.String(), nil
			}
			if ch.Err != nil {
				return b.String(), ch.Err
			}
			b.WriteString(ch.Text)
		}
	}
}
