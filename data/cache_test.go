package data

import (
	"testing"
	"time"

	"code.cloudfoundry.org/clock/fakeclock"
)

func TestCacheSlidingExpiry(t *testing.T) {
	clk := fakeclock.NewFakeClock(time.Date(2024, 1, 27, 9, 0, 0, 0, time.UTC))
	c := NewCache[string, string](10*time.Minute, clk)

	v := "etag-1"
	c.Set("a", &v)

	clk.Increment(9 * time.Minute)
	if got := c.Get("a"); got == nil || *got != v {
		t.Fatalf("expected hit before expiry, got %v", got)
	}

	// the Get above extended the TTL
	clk.Increment(9 * time.Minute)
	if got := c.Get("a"); got == nil {
		t.Fatalf("expected sliding TTL to keep the item")
	}

	clk.Increment(11 * time.Minute)
	if got := c.Get("a"); got != nil {
		t.Fatalf("expected miss after expiry, got %v", *got)
	}
}

func TestCacheSetDropsExpired(t *testing.T) {
	clk := fakeclock.NewFakeClock(time.Date(2024, 1, 27, 9, 0, 0, 0, time.UTC))
	c := NewCache[string, int](time.Minute, clk)
	one, two := 1, 2
	c.Set("one", &one)
	clk.Increment(2 * time.Minute)
	c.Set("two", &two)
	if c.Len() != 1 {
		t.Fatalf("expected expired entry to be dropped, have %d", c.Len())
	}
}
