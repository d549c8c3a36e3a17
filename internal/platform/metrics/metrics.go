package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide request counters for the admin metrics
// endpoint.
type Collector struct {
	started         time.Time
	inFlight        int64
	totalRequests   uint64
	clientErrors    uint64
	serverErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64
}

type Snapshot struct {
	UptimeSeconds    int64   `json:"uptimeSeconds"`
	InFlight         int64   `json:"inFlight"`
	RequestsTotal    uint64  `json:"requestsTotal"`
	ClientErrors     uint64  `json:"clientErrorsTotal"`
	ServerErrors     uint64  `json:"serverErrorsTotal"`
	RateLimitedTotal uint64  `json:"rateLimitedTotal"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
}

func New() *Collector {
	return &Collector{started: time.Now()}
}

func (c *Collector) Begin() {
	atomic.AddInt64(&c.inFlight, 1)
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddInt64(&c.inFlight, -1)
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
		atomic.AddUint64(&c.clientErrors, 1)
	case status >= 500:
		atomic.AddUint64(&c.serverErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() Snapshot {
	total := atomic.LoadUint64(&c.totalRequests)
	avg := float64(0)
	if total > 0 {
		avg = float64(atomic.LoadUint64(&c.totalDurationMs)) / float64(total)
	}
	return Snapshot{
		UptimeSeconds:    int64(time.Since(c.started).Seconds()),
		InFlight:         atomic.LoadInt64(&c.inFlight),
		RequestsTotal:    total,
		ClientErrors:     atomic.LoadUint64(&c.clientErrors),
		ServerErrors:     atomic.LoadUint64(&c.serverErrors),
		RateLimitedTotal: atomic.LoadUint64(&c.rateLimited),
		AvgDurationMs:    avg,
	}
}
