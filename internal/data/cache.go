package data

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tazeemc/Entropy/internal/model"
)

// ResponseCache keeps decoded chart series in memory for a fixed TTL.
//
// Meant for local development, where the same symbol is backtested over and
// over. GetCache never returns one when API_ENV=production.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	series    model.PriceSeries
	expiresAt time.Time
}

var (
	globalCache *ResponseCache
	cacheOnce   sync.Once
)

// GetCache returns the process-wide cache when ENABLE_CHART_CACHE=true, and
// nil otherwise. CHART_CACHE_TTL (a Go duration) overrides the 1h TTL.
func GetCache() *ResponseCache {
	if os.Getenv("ENABLE_CHART_CACHE") != "true" || os.Getenv("API_ENV") == "production" {
		return nil
	}

	cacheOnce.Do(func() {
		ttl := time.Hour
		if v := os.Getenv("CHART_CACHE_TTL"); v != "" {
			if parsed, err := time.ParseDuration(v); err == nil {
				ttl = parsed
			}
		}
		globalCache = NewResponseCache(ttl)
		go globalCache.pruneEvery(5 * time.Minute)
	})
	return globalCache
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: make(map[string]cacheEntry), ttl: ttl}
}

// Get returns a copy of the cached series, so callers may filter or trim it.
func (c *ResponseCache) Get(key string) (*model.PriceSeries, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return copySeries(&e.series), true
}

// Set stores a copy of series under key.
func (c *ResponseCache) Set(key string, series *model.PriceSeries) {
	if c == nil || series == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{series: *copySeries(series), expiresAt: time.Now().Add(c.ttl)}
}

func (c *ResponseCache) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len counts stored entries, expired or not.
func (c *ResponseCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prune drops entries that expired before now and returns how many it removed.
func (c *ResponseCache) Prune(now time.Time) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *ResponseCache) pruneEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for now := range ticker.C {
		c.Prune(now)
	}
}

// GenerateCacheKey derives the cache key of a daily-series query.
func GenerateCacheKey(symbol string, start, end time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%s", symbol, fmtDate(start), fmtDate(end))))
	return hex.EncodeToString(sum[:])
}

func copySeries(s *model.PriceSeries) *model.PriceSeries {
	out := &model.PriceSeries{Symbol: s.Symbol}
	if s.Data != nil {
		out.Data = append([]model.Observation(nil), s.Data...)
	}
	return out
}
