package code_analyzer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/meysamhadeli/gitai/metrics"
)

// LookupStats summarizes content and outline lookups since the cache was opened or cleared.
type LookupStats struct {
	Hits    int64     `json:"hits" yaml:"hits"`
	Misses  int64     `json:"misses" yaml:"misses"`
	HitRate float64   `json:"hit_rate_percent" yaml:"hit_rate_percent"`
	Since   time.Time `json:"since" yaml:"since"`
}

func (s LookupStats) Total() int64 {
	return s.Hits + s.Misses
}

type lookupCounter struct {
	hits   atomic.Int64
	misses atomic.Int64

	mu    sync.Mutex
	since time.Time
}

func newLookupCounter() *lookupCounter {
	return &lookupCounter{since: time.Now()}
}

func (cm *CacheManager) recordLookup(hit bool) {
	metrics.RecordCacheLookup(hit)
	if hit {
		cm.lookups.hits.Add(1)
	} else {
		cm.lookups.misses.Add(1)
	}
}

// LookupStats returns the hit and miss counts of this process.
func (cm *CacheManager) LookupStats() LookupStats {
	cm.lookups.mu.Lock()
	since := cm.lookups.since
	cm.lookups.mu.Unlock()

	stats := LookupStats{
		Hits:   cm.lookups.hits.Load(),
		Misses: cm.lookups.misses.Load(),
		Since:  since,
	}
	if total := stats.Total(); total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total) * 100
	}
	return stats
}

func (cm *CacheManager) ResetLookupStats() {
	cm.lookups.mu.Lock()
	defer cm.lookups.mu.Unlock()

	cm.lookups.hits.Store(0)
	cm.lookups.misses.Store(0)
	cm.lookups.since = time.Now()
}
