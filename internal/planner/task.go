package planner

import (
	"github.com/google/uuid"

	"github.com/lihao-quant/equidata/internal/model"
)

// TaskState tracks a fetch task through its lifecycle.
type TaskState int

const (
	Pending TaskState = iota
	InFlight
	Succeeded
	Failed
)

func (s TaskState) String() string {
	switch s {
	case Pending:
		return "pending"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FetchTask is one unit of provider work: fetch a field subset for an
// instrument over a sub-range. The identifying fields are immutable once
// issued; only State and Attempts change, and only on the executor goroutine
// that owns the task.
type FetchTask struct {
	ID         uuid.UUID
	Provider   string
	Instrument model.Instrument
	Range      model.DateRange
	Fields     []string

	// Seq orders tasks against the same provider for the same instrument
	// chronologically. Tasks with different providers are unordered.
	Seq int

	State    TaskState
	Attempts int
}

// PermanentGap is a sub-range of a field no provider could be scheduled for
// in this run. Surfaced in the report; retryable on the next invocation.
type PermanentGap struct {
	Instrument model.Instrument
	Field      string
	Range      model.DateRange
	Reason     string
}

// Plan is the ordered task list for one instrument.
type Plan struct {
	Instrument    model.Instrument
	Frequency     model.Frequency
	Requested     model.DateRange
	Fields        []string
	Tasks         []*FetchTask
	PermanentGaps []PermanentGap
}
