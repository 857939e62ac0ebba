package agent

import (
	"encoding/json"
	"strings"
)

// ParseStructured decodes the accumulated backend text into a JSON
// object and verifies the required top-level keys. Code fences are
// stripped first; models wrap JSON in them regardless of instructions.
// Failures degrade to a typed error result carrying the raw text,
// never a panic or a lost response.
func ParseStructured(raw string, requiredKeys ...string) Result {
	cleaned := stripFences(raw)

	var value map[string]any
	if err := json.Unmarshal([]byte(cleaned), &value); err != nil {
		return ErrResult(KindMalformedOutput, "decode JSON: "+err.Error(), raw)
	}

	var missing []string
	for _, key := range requiredKeys {
		if _, ok := value[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return ErrResult(KindIncompleteSchema, "missing keys: "+strings.Join(missing, ", "), raw)
	}

	return JSONResult(value, raw)
}

// stripFences removes a leading ```/```json opener line and a trailing
// ``` closer, then trims whitespace.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimPrefix(s, "```json")
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
