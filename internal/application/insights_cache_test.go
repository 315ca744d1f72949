package application

import (
	"testing"
	"time"
)

func TestInsightsCache(t *testing.T) {
	t.Parallel()

	t.Run("returns copies until expiry", func(t *testing.T) {
		t.Parallel()

		current := referenceTime
		cache := newInsightsCache(time.Minute, 0, func() time.Time { return current })
		cache.Store("u1", AnalyticsInsights{CurrentStreak: 3, Recommendations: []string{"a"}})

		got, ok := cache.Get("u1")
		if !ok || got.CurrentStreak != 3 {
			t.Fatalf("expected cached insights, got %+v %v", got, ok)
		}
		got.Recommendations[0] = "mutated"
		again, _ := cache.Get("u1")
		if again.Recommendations[0] != "a" {
			t.Fatalf("cache must hand out copies")
		}

		current = current.Add(time.Minute + time.Second)
		if _, ok := cache.Get("u1"); ok {
			t.Fatalf("expected entry to expire")
		}
	})

	t.Run("invalidate and purge drop entries", func(t *testing.T) {
		t.Parallel()

		cache := newInsightsCache(0, 0, fixedNow(referenceTime))
		cache.Store("u1", AnalyticsInsights{})
		cache.Store("u2", AnalyticsInsights{})

		cache.Invalidate("u1")
		if _, ok := cache.Get("u1"); ok {
			t.Fatalf("expected u1 to be invalidated")
		}
		if _, ok := cache.Get("u2"); !ok {
			t.Fatalf("expected u2 to survive")
		}
		cache.Purge()
		if _, ok := cache.Get("u2"); ok {
			t.Fatalf("expected purge to drop u2")
		}
	})

	t.Run("evicts the entry closest to expiry when full", func(t *testing.T) {
		t.Parallel()

		current := referenceTime
		cache := newInsightsCache(time.Hour, 2, func() time.Time { return current })
		cache.Store("u1", AnalyticsInsights{})
		current = current.Add(time.Minute)
		cache.Store("u2", AnalyticsInsights{})
		current = current.Add(time.Minute)
		cache.Store("u3", AnalyticsInsights{})

		if _, ok := cache.Get("u1"); ok {
			t.Fatalf("expected the oldest entry to be evicted")
		}
		for _, user := range []string{"u2", "u3"} {
			if _, ok := cache.Get(user); !ok {
				t.Fatalf("expected %s to be cached", user)
			}
		}
	})

	t.Run("nil cache is inert", func(t *testing.T) {
		t.Parallel()

		var cache *insightsCache
		cache.Store("u1", AnalyticsInsights{})
		cache.Invalidate("u1")
		cache.Purge()
		if _, ok := cache.Get("u1"); ok {
			t.Fatalf("nil cache must never hit")
		}
	})
}
