package utils

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = time.Hour

// memCacheEntry backs the in-process cache used when Redis is not configured.
type memCacheEntry struct {
	b         []byte
	expiresAt time.Time
}

var (
	memCache   = map[string]memCacheEntry{}
	memCacheMu sync.RWMutex
)

// CacheGetBytes returns cached bytes for a key, from Redis when configured
// or from the in-process map otherwise.
func CacheGetBytes(key string) ([]byte, bool) {
	if rc := GetRedis(); rc != nil {
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

	memCacheMu.RLock()
	entry, ok := memCache[key]
	memCacheMu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		memCacheMu.Lock()
		delete(memCache, key)
		memCacheMu.Unlock()
		return nil, false
	}
	return entry.b, true
}

// CacheSetBytes stores bytes with the given TTL (default one hour).
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
			if Sugar != nil {
				Sugar.Warnf("cache set failed key=%s err=%v", key, err)
			}
		}
		return
	}

	memCacheMu.Lock()
	memCache[key] = memCacheEntry{b: b, expiresAt: time.Now().Add(ttl)}
	memCacheMu.Unlock()
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidateByPrefix deletes keys that match the given prefix. On Redis this
// walks the keyspace with SCAN and deletes in one pipeline per round.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		memCacheMu.Lock()
		for k := range memCache {
			if strings.HasPrefix(k, prefix) {
				delete(memCache, k)
			}
		}
		memCacheMu.Unlock()
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for i := 0; i < 10; i++ { // limit rounds to avoid long loops
		keys, cur, err := rc.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			break
		}
		cursor = cur
		if len(keys) > 0 {
			pipe := rc.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			_, _ = pipe.Exec(ctx)
		}
		if cursor == 0 {
			break
		}
	}
}
