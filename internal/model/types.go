package model

import (
	"time"

	"github.com/google/uuid"
)

// Frequency identifies the bar frequency of a record stream.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Instrument identifies a listed security. Immutable once created; listing
// and delisting events are owned by the upstream reference-data feed.
type Instrument struct {
	Symbol string // e.g. "sh.600000"
	Market string // exchange code, e.g. "sh", "sz"
	Class  string // instrument class: "stock", "etf", "index"
}

// FieldType is the semantic type of a canonical field.
type FieldType int

const (
	Numeric FieldType = iota
	Enum
	DateField
)

// MergePolicy decides how a field is resolved when several providers supply it.
type MergePolicy int

const (
	// PriorityFirst takes the value from the highest-priority provider that
	// returned a non-null result.
	PriorityFirst MergePolicy = iota
	// LatestNonNull prefers the most recently fetched non-null value over
	// provider priority.
	LatestNonNull
	// Computed fields are never accepted from a provider; they are recomputed
	// from their components at merge time.
	Computed
)

// FieldSpec declares one canonical field: its type, merge policy and the
// relative tolerance used for cross-provider conflict detection.
type FieldSpec struct {
	Name        string
	Type        FieldType
	Policy      MergePolicy
	Tolerance   float64  // relative difference above which a conflict is raised; 0 disables
	ComputeFrom []string // component fields, only for Policy == Computed
}

// Value is one field value. Null values are represented by absence from a
// record's field map, never by a zero Value.
type Value struct {
	Kind FieldType
	Num  float64 // Numeric
	Str  string  // Enum and DateField
}

// Num returns a numeric Value.
func Num(v float64) Value { return Value{Kind: Numeric, Num: v} }

// Str returns an enum Value.
func Str(s string) Value { return Value{Kind: Enum, Str: s} }

// Equal compares two values of the same kind.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == Numeric {
		return v.Num == o.Num
	}
	return v.Str == o.Str
}

// RawRecord is one provider's normalized output for a single (instrument,
// date). Field names are already canonical; the adapter owns the mapping from
// provider-native names.
type RawRecord struct {
	Instrument Instrument
	Date       Date
	Fields     map[string]Value
}

// Cell is one merged field inside a CanonicalRecord, carrying provenance.
type Cell struct {
	Value      Value
	Provider   string // source provider ID, or "computed"
	FetchedAt  time.Time
	Confidence float64 // 1.0 unless the field was involved in a conflict
}

// CanonicalRecord is the merged, provenance-tagged representation of one
// (instrument, date, frequency) cell. Owned by the reconciliation engine
// until committed, by the persister afterwards.
type CanonicalRecord struct {
	Instrument  Instrument
	Date        Date
	Frequency   Frequency
	Fields      map[string]Cell
	HasConflict bool
	Quality     []string // data-quality flags, empty when the record is clean
}

// ConflictRecord captures a material disagreement between two providers for
// one field. Retained for audit, never silently dropped.
type ConflictRecord struct {
	ID         uuid.UUID
	Instrument Instrument
	Date       Date
	Frequency  Frequency
	Field      string
	Chosen     string  // provider whose value was selected
	ChosenVal  float64
	Other      string // disagreeing provider
	OtherVal   float64
	RelDiff    float64
	Tolerance  float64
	DetectedAt time.Time
}

// Key returns a stable dedup key so re-running a sync over unchanged data
// does not duplicate conflicts.
func (c ConflictRecord) Key() string {
	return c.Instrument.Symbol + "|" + c.Date.String() + "|" + c.Field + "|" + c.Chosen + "|" + c.Other
}
