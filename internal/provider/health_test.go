package provider

import "testing"

func TestHealthTracker_HealthyUntilWindowFilled(t *testing.T) {
	h := NewHealthTracker([]string{"p1"}, 10, 0.7)

	for i := 0; i < 9; i++ {
		h.RecordFailure("p1")
	}
	if !h.Healthy("p1") {
		t.Error("provider should stay healthy before the window fills")
	}

	h.RecordFailure("p1")
	if h.Healthy("p1") {
		t.Error("provider with 10/10 failures should be unhealthy")
	}
}

func TestHealthTracker_ThresholdBoundary(t *testing.T) {
	h := NewHealthTracker([]string{"p1"}, 10, 0.7)

	// 7 successes, 3 failures: rate exactly at threshold.
	for i := 0; i < 7; i++ {
		h.RecordSuccess("p1")
	}
	for i := 0; i < 3; i++ {
		h.RecordFailure("p1")
	}
	if !h.Healthy("p1") {
		t.Error("success rate at threshold should count as healthy")
	}

	h.RecordFailure("p1")
	if h.Healthy("p1") {
		t.Error("success rate below threshold should be unhealthy")
	}
}

func TestHealthTracker_OutageAfterLongSuccessHistory(t *testing.T) {
	h := NewHealthTracker([]string{"p1"}, 20, 0.7)

	// A long healthy run must not buy the provider slack once it goes down:
	// only the most recent window counts.
	for i := 0; i < 1000; i++ {
		h.RecordSuccess("p1")
	}

	for i := 0; i < 5; i++ {
		h.RecordFailure("p1")
	}
	if !h.Healthy("p1") {
		t.Error("5 failures in a window of 20 is still above threshold")
	}

	for i := 0; i < 15; i++ {
		h.RecordFailure("p1")
	}
	if h.Healthy("p1") {
		t.Error("20 consecutive failures must mark the provider unhealthy regardless of prior history")
	}
}

func TestHealthTracker_ResetRecovers(t *testing.T) {
	h := NewHealthTracker([]string{"p1"}, 5, 0.7)

	for i := 0; i < 5; i++ {
		h.RecordFailure("p1")
	}
	if h.Healthy("p1") {
		t.Fatal("provider should be unhealthy")
	}

	h.Reset("p1")
	if !h.Healthy("p1") {
		t.Error("provider should be healthy after a passed probe reset")
	}
}

func TestHealthTracker_UnknownProvider(t *testing.T) {
	h := NewHealthTracker([]string{"p1"}, 5, 0.7)
	if h.Healthy("nope") {
		t.Error("unknown provider must never be considered healthy")
	}
}
