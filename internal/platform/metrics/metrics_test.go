package metrics

import (
	"testing"
	"time"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	for _, status := range []int{200, 201, 400, 429, 500} {
		c.Begin()
		c.Record(status, 10*time.Millisecond)
	}
	c.Begin()

	snap := c.Snapshot()
	if snap.RequestsTotal != 5 {
		t.Fatalf("expected 5 requests, got %d", snap.RequestsTotal)
	}
	if snap.ClientErrors != 2 || snap.ServerErrors != 1 || snap.RateLimitedTotal != 1 {
		t.Fatalf("unexpected error counters: %+v", snap)
	}
	if snap.InFlight != 1 {
		t.Fatalf("expected 1 in flight, got %d", snap.InFlight)
	}
	if snap.AvgDurationMs != 10 {
		t.Fatalf("expected avg 10ms, got %v", snap.AvgDurationMs)
	}
}
