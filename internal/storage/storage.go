// Package storage defines the persistence contract the sync engine consumes.
// Backends guarantee that a day's record and its coverage extension commit in
// one transaction: a date is either fully reconciled or absent, never half
// written.
package storage

import (
	"context"
	"fmt"

	"github.com/lihao-quant/equidata/internal/model"
)

// Error is a storage fault surfaced to the caller. The affected
// (instrument, date) is not marked committed and is safe to retry later.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Persister is the repository the engine writes through.
type Persister interface {
	// ReadCoverage returns the committed ranges for an instrument/frequency.
	// Unknown instruments return an empty coverage, not an error.
	ReadCoverage(ctx context.Context, inst model.Instrument, freq model.Frequency) (model.Coverage, error)

	// UpsertDay atomically writes one reconciled record and extends coverage.
	UpsertDay(ctx context.Context, rec model.CanonicalRecord) error

	// SaveConflicts persists conflict records for audit. Saving the same
	// logical conflict twice is a no-op.
	SaveConflicts(ctx context.Context, conflicts []model.ConflictRecord) error

	Close()
}
