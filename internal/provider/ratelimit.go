package provider

import (
	"context"
	"sync"
	"time"

	"github.com/lihao-quant/equidata/internal/model"
)

// Throttled wraps an Adapter and enforces a minimum time between Fetch calls,
// respecting the source's own throughput limits. Concurrent callers wait
// until the interval has elapsed since the last call, or return early when
// the context is canceled. Probes are not throttled.
type Throttled struct {
	Adapter
	Interval time.Duration

	mu   sync.Mutex
	last time.Time
}

// Throttle wraps a with a minimum call interval. A zero interval returns a
// passthrough.
func Throttle(a Adapter, interval time.Duration) *Throttled {
	return &Throttled{Adapter: a, Interval: interval}
}

func (t *Throttled) Fetch(ctx context.Context, inst model.Instrument, r model.DateRange, fields []string) ([]model.RawRecord, error) {
	if t.Interval > 0 {
		t.mu.Lock()
		wait := time.Until(t.last.Add(t.Interval))
		t.mu.Unlock()
		if wait > 0 {
			timer := time.NewTimer(wait)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
	recs, err := t.Adapter.Fetch(ctx, inst, r, fields)
	if t.Interval > 0 {
		t.mu.Lock()
		t.last = time.Now()
		t.mu.Unlock()
	}
	return recs, err
}
