package cache

import (
	"context"

	"github.com/apex/log"
)

// ResponseCache layers semantic lookup over the exact-key Redis cache.
// Every internal failure degrades to a miss: a broken cache slows the
// system down, it never breaks a request.
type ResponseCache struct {
	embedder    *Embedder
	vectorStore *VectorStore
	redis       *RedisCache
	threshold   float32
}

// NewResponseCache assembles the cache. Embedder and vector store may
// be nil, which disables the semantic layer and leaves exact-key
// caching in place.
func NewResponseCache(embedder *Embedder, vectorStore *VectorStore, redis *RedisCache, threshold float32) *ResponseCache {
	return &ResponseCache{
		embedder:    embedder,
		vectorStore: vectorStore,
		redis:       redis,
		threshold:   threshold,
	}
}

// Lookup checks the exact key first, then falls back to semantic
// search over the prompt. The returned payload is whatever Store was
// given for the matching entry.
func (rc *ResponseCache) Lookup(ctx context.Context, key, prompt string) ([]byte, bool) {
	payload, found, err := rc.redis.Get(ctx, key)
	if err != nil {
		log.WithError(err).Warn("cache: exact lookup failed, treating as miss")
		return nil, false
	}
	if found {
		return payload, true
	}

	if rc.embedder == nil || rc.vectorStore == nil {
		return nil, false
	}

	vector, err := rc.embedder.Embed(ctx, prompt)
	if err != nil {
		log.WithError(err).Warn("cache: embedding failed, treating as miss")
		return nil, false
	}
	result, err := rc.vectorStore.Search(ctx, vector, rc.threshold)
	if err != nil {
		log.WithError(err).Warn("cache: vector search failed, treating as miss")
		return nil, false
	}
	if !result.Found {
		return nil, false
	}

	payload, found, err = rc.redis.Get(ctx, result.CacheKey)
	if err != nil {
		log.WithError(err).Warn("cache: neighbor fetch failed, treating as miss")
		return nil, false
	}
	// The vector can outlive the Redis entry's TTL.
	return payload, found
}

// Store writes the payload under the exact key and indexes the prompt
// embedding pointing back at it. Failures are logged and swallowed.
func (rc *ResponseCache) Store(ctx context.Context, key, prompt string, payload []byte) {
	if err := rc.redis.Set(ctx, key, payload); err != nil {
		log.WithError(err).Warn("cache: store failed")
		return
	}
	if rc.embedder == nil || rc.vectorStore == nil {
		return
	}

	vector, err := rc.embedder.Embed(ctx, prompt)
	if err != nil {
		log.WithError(err).Warn("cache: store embedding failed")
		return
	}
	if err := rc.vectorStore.Upsert(ctx, key, vector); err != nil {
		log.WithError(err).Warn("cache: vector upsert failed")
	}
}
