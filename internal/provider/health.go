package provider

import (
	"sync"
)

// providerHealth keeps the outcomes of a provider's most recent calls in a
// fixed ring, so old history ages out and a fresh outage is visible no
// matter how long the provider has been running.
type providerHealth struct {
	mu       sync.Mutex
	outcomes []bool // recent call outcomes, true = success
	next     int
	count    int // filled slots, caps at len(outcomes)
}

func (s *providerHealth) record(ok bool) {
	s.mu.Lock()
	s.outcomes[s.next] = ok
	s.next = (s.next + 1) % len(s.outcomes)
	if s.count < len(s.outcomes) {
		s.count++
	}
	s.mu.Unlock()
}

// window returns the success count and the number of recorded outcomes.
func (s *providerHealth) window() (successes, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < s.count; i++ {
		if s.outcomes[i] {
			successes++
		}
	}
	return successes, s.count
}

func (s *providerHealth) reset() {
	s.mu.Lock()
	s.next = 0
	s.count = 0
	s.mu.Unlock()
}

// HealthTracker is process-wide provider health state. The provider set is
// fixed at construction; the map is read-only afterwards.
type HealthTracker struct {
	window    int     // outcomes kept per provider, minimum before judging
	threshold float64 // success rate at or above which a provider is healthy
	stats     map[string]*providerHealth
}

// NewHealthTracker builds a tracker for the given provider IDs.
func NewHealthTracker(providerIDs []string, window int, threshold float64) *HealthTracker {
	if window <= 0 {
		window = 20
	}
	if threshold <= 0 || threshold > 1 {
		threshold = 0.7
	}
	stats := make(map[string]*providerHealth, len(providerIDs))
	for _, id := range providerIDs {
		stats[id] = &providerHealth{outcomes: make([]bool, window)}
	}
	return &HealthTracker{window: window, threshold: threshold, stats: stats}
}

// RecordSuccess counts a completed call.
func (h *HealthTracker) RecordSuccess(providerID string) {
	if s, ok := h.stats[providerID]; ok {
		s.record(true)
	}
}

// RecordFailure counts a failed call.
func (h *HealthTracker) RecordFailure(providerID string) {
	if s, ok := h.stats[providerID]; ok {
		s.record(false)
	}
}

// Healthy reports whether the provider should be routed to, judged on the
// success rate of its last-window calls only. Providers with fewer recorded
// calls than the window are assumed healthy.
func (h *HealthTracker) Healthy(providerID string) bool {
	s, ok := h.stats[providerID]
	if !ok {
		return false
	}
	successes, total := s.window()
	if total < h.window {
		return true
	}
	rate := float64(successes) / float64(total)
	return rate >= h.threshold
}

// Reset clears the window after a passed health probe, returning the
// provider to the healthy pool.
func (h *HealthTracker) Reset(providerID string) {
	if s, ok := h.stats[providerID]; ok {
		s.reset()
	}
}

// Providers returns the tracked provider IDs.
func (h *HealthTracker) Providers() []string {
	out := make([]string, 0, len(h.stats))
	for id := range h.stats {
		out = append(out, id)
	}
	return out
}
