package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/eventra/landingpages/storage"
)

const (
	// Rendered pages change rarely; invalidation happens on every index
	// upload or deletion, so a long TTL is safe.
	pageCacheTTL = time.Hour
)

// CacheGetBytes returns cached bytes for a key from Redis.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// CacheSetBytes stores bytes with the page cache TTL.
func CacheSetBytes(key string, b []byte) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, pageCacheTTL).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed key=%s err=%v", key, err)
		}
	}
}

// CacheDelete removes one key. Errors are logged and swallowed.
func CacheDelete(key string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, key).Err(); err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache delete failed key=%s err=%v", key, err)
		}
	}
}

// PageCacheKey maps a storage scope to its rendered page cache key.
func PageCacheKey(scope storage.Scope) string {
	if scope.IsGlobal() {
		return "cache:page:start"
	}
	return fmt.Sprintf("cache:page:org:%d", scope.OrganizerID)
}

// PageCache invalidates rendered pages in Redis after content changes.
// Dropping the key is synchronous best-effort and never fails the mutating
// request.
type PageCache struct{}

// InvalidatePage drops the scope's rendered page from the cache.
func (PageCache) InvalidatePage(scope storage.Scope) {
	CacheDelete(PageCacheKey(scope))
}
