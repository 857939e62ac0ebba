// Package resilience provides the availability patterns wrapped around
// the generation backend: credential rotation, retry with backoff, and
// a circuit breaker.
package resilience

import (
	"fmt"
	"sync"
	"time"
)

// KeyPool rotates over a set of API keys round-robin and tracks which
// keys are sitting out a rate-limit cooldown.
type KeyPool struct {
	mu      sync.Mutex
	keys    []keyEntry
	current int
}

type keyEntry struct {
	key     string
	resetAt time.Time
	limited bool
}

// NewKeyPool builds a pool from the configured key list.
func NewKeyPool(keys []string) *KeyPool {
	entries := make([]keyEntry, len(keys))
	for i, k := range keys {
		entries[i] = keyEntry{key: k}
	}
	return &KeyPool{keys: entries}
}

// Next returns the next usable key, skipping keys still inside their
// rate-limit cooldown. It fails when the pool is empty or every key is
// limited.
func (kp *KeyPool) Next() (string, error) {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	n := len(kp.keys)
	if n == 0 {
		return "", fmt.Errorf("keypool: no keys configured")
	}

	now := time.Now()
	for i := 0; i < n; i++ {
		idx := (kp.current + i) % n
		entry := &kp.keys[idx]
		if entry.limited && now.After(entry.resetAt) {
			entry.limited = false
		}
		if !entry.limited {
			kp.current = (idx + 1) % n
			return entry.key, nil
		}
	}

	earliest := kp.keys[0].resetAt
	for _, e := range kp.keys[1:] {
		if e.resetAt.Before(earliest) {
			earliest = e.resetAt
		}
	}
	return "", fmt.Errorf("keypool: all keys rate limited, earliest reset at %s", earliest.Format(time.RFC3339))
}

// MarkRateLimited sidelines a key until resetAt.
func (kp *KeyPool) MarkRateLimited(key string, resetAt time.Time) {
	kp.mu.Lock()
	defer kp.mu.Unlock()

	for i := range kp.keys {
		if kp.keys[i].key == key {
			kp.keys[i].limited = true
			kp.keys[i].resetAt = resetAt
			return
		}
	}
}

// Size returns the number of keys in the pool.
func (kp *KeyPool) Size() int {
	kp.mu.Lock()
	defer kp.mu.Unlock()
	return len(kp.keys)
}
