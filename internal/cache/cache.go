// Package cache provides in-memory caching of pipeline results keyed by content hash.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/clever-handicapper/internal/models"
	"github.com/yourusername/clever-handicapper/internal/pipeline"
)

// Key identifies one pipeline run: the profile name plus a SHA-256 of every input
type Key struct {
	Profile string
	Hash    string
}

// String returns string representation of cache key
func (k Key) String() string {
	return k.Profile + ":" + k.Hash
}

// NewKey hashes the JSON encoding of each part in order
func NewKey(profile string, parts ...any) (Key, error) {
	h := sha256.New()
	for i, part := range parts {
		data, err := json.Marshal(part)
		if err != nil {
			return Key{}, fmt.Errorf("failed to encode cache key part %d: %w", i, err)
		}
		h.Write(data)
		h.Write([]byte{0})
	}
	return Key{Profile: profile, Hash: hex.EncodeToString(h.Sum(nil))}, nil
}

// ResultCache keeps pipeline results in memory with a TTL
type ResultCache struct {
	cache   *gocache.Cache
	ttl     time.Duration
	maxSize int

	mu        sync.Mutex
	hitCount  uint64
	missCount uint64
}

// NewResultCache creates a result cache; maxSize <= 0 means unbounded
func NewResultCache(ttl, cleanupInterval time.Duration, maxSize int) *ResultCache {
	if cleanupInterval <= 0 {
		cleanupInterval = ttl * 2
	}
	return &ResultCache{
		cache:   gocache.New(ttl, cleanupInterval),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get retrieves a cached result; it is shared between hits and must not be modified
func (rc *ResultCache) Get(key Key) (*pipeline.Result, bool) {
	var result *pipeline.Result
	if v, found := rc.cache.Get(key.String()); found {
		result, _ = v.(*pipeline.Result)
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if result == nil {
		rc.missCount++
		return nil, false
	}
	rc.hitCount++
	return result, true
}

// Set stores a copy of result whose horse records no longer point into the caller's snapshot.
// When full, expired entries are dropped first and the write is skipped if none were.
func (rc *ResultCache) Set(key Key, result *pipeline.Result) bool {
	if result == nil {
		return false
	}
	if rc.maxSize > 0 && rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
		if rc.cache.ItemCount() >= rc.maxSize {
			return false
		}
	}
	rc.cache.Set(key.String(), detach(result), rc.ttl)
	return true
}

// detach copies the scored field and clones each horse record
func detach(result *pipeline.Result) *pipeline.Result {
	out := *result
	if result.Field == nil {
		return &out
	}
	field := *result.Field
	field.Horses = make([]models.ScoredHorse, len(result.Field.Horses))
	for i, sh := range result.Field.Horses {
		sh.Horse = sh.Horse.Clone()
		field.Horses[i] = sh
	}
	out.Field = &field
	return &out
}

// Invalidate removes every entry computed under a profile
func (rc *ResultCache) Invalidate(profile string) int {
	prefix := profile + ":"
	removed := 0
	for k := range rc.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			rc.cache.Delete(k)
			removed++
		}
	}
	return removed
}

// Clear flushes the entire cache
func (rc *ResultCache) Clear() {
	rc.cache.Flush()

	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.hitCount = 0
	rc.missCount = 0
}

// Stats returns cache statistics
func (rc *ResultCache) Stats() (hits, misses uint64, ratio float64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	hits = rc.hitCount
	misses = rc.missCount
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ResultCache) ItemCount() int {
	return rc.cache.ItemCount()
}
