// Package cache stores rendered modules keyed by source content and run
// settings, so unchanged stylesheets skip the transform on the next run.
//
// Usage:
//
//	c := cache.NewMemoryCache()
//	c.Set(ctx, key, rendered, time.Hour)
//	if data, ok := c.Get(ctx, key); ok {
//	    // reuse data
//	}
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Cache stores opaque byte payloads.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// ComputeKey generates a cache key from the given parts using SHA-256. Parts
// are length-prefixed so adjacent parts cannot collide.
func ComputeKey(parts ...[]byte) string {
	h := sha256.New()
	for _, part := range parts {
		_, _ = fmt.Fprintf(h, "%d:", len(part))
		_, _ = h.Write(part)
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:16]) // use first 128 bits
}

// ComputeKeyWithPrefix generates a cache key with a prefix.
func ComputeKeyWithPrefix(prefix string, parts ...[]byte) string {
	return fmt.Sprintf("%s:%s", prefix, ComputeKey(parts...))
}

// Entry represents a cached entry with expiration.
type Entry struct {
	Value     []byte
	ExpiresAt time.Time
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}
