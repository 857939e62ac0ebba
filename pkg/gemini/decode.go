package gemini

import (
	"bytes"
	"encoding/json"
)

// The streaming endpoint frames its output two ways depending on
// transport negotiation: SSE lines carrying a "data: " prefix, or a
// JSON array split across lines with comma and bracket framing. Both
// reduce to one envelope object per useful line.

var (
	ssePrefix    = []byte("data: ")
	openBracket  = []byte("[")
	closeBracket = []byte("]")
	comma        = []byte(",")
)

// decodeLine extracts the text fragment carried by one raw stream
// line. ok is false for lines with nothing to contribute: blanks,
// array framing, fragments that fail to parse, or envelopes missing
// the candidate text path. A bad line never aborts the stream; the
// caller simply moves on to the next one.
func decodeLine(line []byte) (string, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", false
	}
	line = bytes.TrimPrefix(line, ssePrefix)
	line = bytes.TrimSuffix(line, comma)
	line = bytes.TrimPrefix(line, comma)
	if bytes.Equal(line, openBracket) || bytes.Equal(line, closeBracket) {
		return "", false
	}
	if bytes.HasPrefix(line, openBracket) {
		if json.Valid(line) {
			// Entire array on one line.
			var envs []envelope
			if err := json.Unmarshal(line, &envs); err != nil || len(envs) == 0 {
				return "", false
			}
			text, ok := envs[0].text()
			return text, ok && text != ""
		}
		// First object of the array framing rides the opening bracket.
		line = bytes.TrimPrefix(line, openBracket)
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return "", false
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return "", false
	}
	text, ok := env.text()
	if !ok || text == "" {
		return "", false
	}
	return text, true
}

// isFraming reports whether a line is pure array framing, so the
// caller can avoid logging noise for expected non-data lines.
func isFraming(line []byte) bool {
	t := bytes.TrimSpace(line)
	t = bytes.TrimPrefix(t, ssePrefix)
	t = bytes.TrimSuffix(t, comma)
	t = bytes.TrimPrefix(t, comma)
	return len(t) == 0 || bytes.Equal(t, openBracket) || bytes.Equal(t, closeBracket)
}
