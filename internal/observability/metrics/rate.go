package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Rate publishes a per-second rate derived from a counter: callers increment
// it as events happen and Push publishes count/elapsed for the interval since
// the previous push, then resets the count.
type Rate struct {
	mu    sync.Mutex
	gauge prometheus.Gauge
	now   func() time.Time
	value int64
	prev  float64
	ts    time.Time
}

func newRate(gauge prometheus.Gauge, now func() time.Time) *Rate {
	if now == nil {
		now = time.Now
	}
	return &Rate{gauge: gauge, now: now, ts: now()}
}

// Inc adds n events to the current interval.
func (r *Rate) Inc(n int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.value += int64(n)
	r.mu.Unlock()
}

// Push closes the current interval and publishes its rate.
func (r *Rate) Push() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	secs := int64(now.Sub(r.ts) / time.Second)
	if secs <= 0 {
		secs = 1
	}
	r.prev = float64(r.value) / float64(secs)
	r.value = 0
	r.ts = now
	if r.gauge != nil {
		r.gauge.Set(r.prev)
	}
}

// Previous returns the rate published by the last Push.
func (r *Rate) Previous() float64 {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.prev
}

// RunRates pushes every rate each interval until ctx is done.
func RunRates(ctx context.Context, interval time.Duration, rates ...*Rate) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, r := range rates {
				r.Push()
			}
		}
	}
}
