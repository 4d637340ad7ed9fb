package syncer

import (
	"time"

	"github.com/google/uuid"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/planner"
)

// CommittedRange is a contiguous run of dates committed for one instrument
// during this run.
type CommittedRange struct {
	Instrument model.Instrument
	Range      model.DateRange
}

// Report summarizes one sync run.
type Report struct {
	RunID    uuid.UUID
	Started  time.Time
	Finished time.Time

	Instruments   int
	CommittedDays int
	Committed     []CommittedRange
	PermanentGaps []planner.PermanentGap
	Conflicts     int

	// TaskFailures counts tasks that exhausted their retries. The dates they
	// would have served are not committed and reappear as gaps next run.
	TaskFailures int
}
