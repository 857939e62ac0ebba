package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
)

// Key derives the deterministic cache key for one agent operation.
// Params are serialized as JSON, which sorts map keys, so equal
// parameter sets always hash identically.
func Key(agent, operation string, params map[string]string) string {
	p, _ := json.Marshal(params)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s", agent, operation, p)
	return fmt.Sprintf("resp_cache:%x", h.Sum(nil)[:16])
}
