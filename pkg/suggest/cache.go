package suggest

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"
)

type cacheEntry struct {
	results    []Suggestion
	accessTime int64
}

// ResultCache keeps recent results keyed by request. Entries never go stale
// because the store is immutable; the least recently used entry is evicted
// once maxEntries is reached.
type ResultCache struct {
	entries     map[string]*cacheEntry
	accessCount int64
	hits        int
	misses      int
	maxEntries  int
	mu          sync.Mutex
}

func NewResultCache(maxEntries int) *ResultCache {
	return &ResultCache{
		entries:    make(map[string]*cacheEntry, maxEntries),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the cached results for key.
func (rc *ResultCache) Get(key string) ([]Suggestion, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	e, ok := rc.entries[key]
	if !ok {
		rc.misses++
		return nil, false
	}
	rc.hits++
	e.accessTime = rc.getNextAccessTime()
	return append([]Suggestion(nil), e.results...), true
}

// Put stores a copy of results under key.
func (rc *ResultCache) Put(key string, results []Suggestion) {
	if rc.maxEntries <= 0 {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if _, ok := rc.entries[key]; !ok && len(rc.entries) >= rc.maxEntries {
		rc.evictLRU()
	}
	rc.entries[key] = &cacheEntry{
		results:    append([]Suggestion(nil), results...),
		accessTime: rc.getNextAccessTime(),
	}
}

func (rc *ResultCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

func (rc *ResultCache) Stats() map[string]int {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	return map[string]int{
		"cacheEntries":    len(rc.entries),
		"maxCacheEntries": rc.maxEntries,
		"cacheHits":       rc.hits,
		"cacheMisses":     rc.misses,
	}
}

func (rc *ResultCache) getNextAccessTime() int64 {
	rc.accessCount++
	return rc.accessCount
}

func (rc *ResultCache) evictLRU() {
	var oldestKey string
	var oldestTime int64 = math.MaxInt64

	for key, e := range rc.entries {
		if e.accessTime < oldestTime {
			oldestTime = e.accessTime
			oldestKey = key
		}
	}

	if oldestTime != math.MaxInt64 {
		delete(rc.entries, oldestKey)
		log.Debugf("Evicted %q from result cache", oldestKey)
	}
}
