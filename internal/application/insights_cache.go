package application

import (
	"sync"
	"time"
)

// insightsCache keeps recently computed insights per user. Session writes
// invalidate the owner's entry.
type insightsCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]insightsCacheEntry
}

type insightsCacheEntry struct {
	insights  AnalyticsInsights
	expiresAt time.Time
}

func newInsightsCache(ttl time.Duration, maxEntries int, now func() time.Time) *insightsCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &insightsCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]insightsCacheEntry),
	}
}

func (c *insightsCache) Get(userID string) (AnalyticsInsights, bool) {
	if c == nil {
		return AnalyticsInsights{}, false
	}
	c.mu.RLock()
	entry, ok := c.entries[userID]
	c.mu.RUnlock()
	if !ok {
		return AnalyticsInsights{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, userID)
		c.mu.Unlock()
		return AnalyticsInsights{}, false
	}
	return cloneInsights(entry.insights), true
}

func (c *insightsCache) Store(userID string, insights AnalyticsInsights) {
	if c == nil {
		return
	}
	cloned := cloneInsights(insights)
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if _, exists := c.entries[userID]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[userID] = insightsCacheEntry{insights: cloned, expiresAt: expiry}
}

// Invalidate drops the entry for userID.
func (c *insightsCache) Invalidate(userID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, userID)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *insightsCache) Purge() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]insightsCacheEntry)
	c.mu.Unlock()
}

func (c *insightsCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

// evictOneLocked drops the entry closest to expiry.
func (c *insightsCache) evictOneLocked() {
	var (
		victim string
		oldest time.Time
		found  bool
	)
	for key, entry := range c.entries {
		if !found || entry.expiresAt.Before(oldest) {
			victim, oldest, found = key, entry.expiresAt, true
		}
	}
	if found {
		delete(c.entries, victim)
	}
}

func cloneInsights(insights AnalyticsInsights) AnalyticsInsights {
	out := insights
	if insights.Recommendations != nil {
		out.Recommendations = append([]string(nil), insights.Recommendations...)
	}
	return out
}
