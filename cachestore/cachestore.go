// Package cachestore is a small namespaced get/set/purge cache. Entries carry
// their own TTL, so a single store serves concerns with different lifetimes:
// the engine's daylong escalation dedupe markers and the daemon's seconds-long
// counter document reads. A missing or expired entry reads as the empty
// string, not an error.
package cachestore

import (
	"context"
	"time"
)

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key, val string, ttl time.Duration) error
	Purge(ctx context.Context, name, key string) error
}
