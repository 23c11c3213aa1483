package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPhaseIsExclusive(t *testing.T) {
	all := []string{"locating", "fetching", "loaded"}
	Phase("fetching", all)
	Phase("loaded", all)

	if v := testutil.ToFloat64(phaseGauge.WithLabelValues("loaded")); v != 1 {
		t.Fatalf("loaded gauge = %v, want 1", v)
	}
	if v := testutil.ToFloat64(phaseGauge.WithLabelValues("fetching")); v != 0 {
		t.Fatalf("fetching gauge = %v, want 0", v)
	}
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(noticeCounter.WithLabelValues("weather-updated"))
	Notice("weather-updated")
	if got := testutil.ToFloat64(noticeCounter.WithLabelValues("weather-updated")); got != before+1 {
		t.Fatalf("notice counter = %v, want %v", got, before+1)
	}

	Fetch(time.Second, nil)
	Fetch(time.Second, errors.New("boom"))
	if n := testutil.CollectAndCount(fetchDuration); n != 2 {
		t.Fatalf("expected success and failure series, got %d", n)
	}
}
