package reconcile

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/registry"
)

// ProviderResult is one adapter's completed fetch, keyed by date for merge.
type ProviderResult struct {
	Provider  string
	FetchedAt time.Time
	Records   map[model.Date]model.RawRecord
}

// IndexRecords keys raw records by date.
func IndexRecords(recs []model.RawRecord) map[model.Date]model.RawRecord {
	out := make(map[model.Date]model.RawRecord, len(recs))
	for _, r := range recs {
		out[r.Date] = r
	}
	return out
}

// Engine resolves field-level conflicts by registry priority and validates
// cross-field consistency.
type Engine struct {
	reg        *registry.Registry
	computed   map[string]ComputeFunc
	thresholds Thresholds
	logger     *slog.Logger
}

// New creates an Engine with the builtin computed-field table and default
// quality thresholds.
func New(reg *registry.Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		reg:        reg,
		computed:   builtinComputed(),
		thresholds: DefaultThresholds(),
		logger:     logger,
	}
}

// candidate is one provider's non-null value for a field/date.
type candidate struct {
	provider  string
	priority  int
	fetchedAt time.Time
	value     model.Value
}

// Merge builds the canonical record for one (instrument, date) from every
// provider result that covers it. It never abstains: when providers disagree
// beyond tolerance the priority winner is still selected, the record is
// flagged, and a ConflictRecord is emitted for audit.
func (e *Engine) Merge(inst model.Instrument, date model.Date, freq model.Frequency, results []ProviderResult, fields []string) (model.CanonicalRecord, []model.ConflictRecord) {
	rec := model.CanonicalRecord{
		Instrument: inst,
		Date:       date,
		Frequency:  freq,
		Fields:     make(map[string]model.Cell, len(fields)),
	}
	var conflicts []model.ConflictRecord

	for _, field := range fields {
		spec, ok := e.reg.Spec(field)
		if !ok || spec.Policy == model.Computed {
			continue
		}

		cands := e.candidatesFor(field, inst.Class, date, results)
		if len(cands) == 0 {
			continue
		}

		chosen := pick(spec.Policy, cands)
		cell := model.Cell{
			Value:      chosen.value,
			Provider:   chosen.provider,
			FetchedAt:  chosen.fetchedAt,
			Confidence: 1,
		}

		if spec.Type == model.Numeric && spec.Tolerance > 0 {
			for _, other := range cands {
				if other.provider == chosen.provider {
					continue
				}
				diff := relDiff(chosen.value.Num, other.value.Num)
				if diff <= spec.Tolerance {
					continue
				}
				conflicts = append(conflicts, model.ConflictRecord{
					ID:         uuid.New(),
					Instrument: inst,
					Date:       date,
					Frequency:  freq,
					Field:      field,
					Chosen:     chosen.provider,
					ChosenVal:  chosen.value.Num,
					Other:      other.provider,
					OtherVal:   other.value.Num,
					RelDiff:    diff,
					Tolerance:  spec.Tolerance,
					DetectedAt: time.Now().UTC(),
				})
				rec.HasConflict = true
				cell.Confidence = 0.5
			}
		}

		rec.Fields[field] = cell
	}

	e.applyComputed(&rec, fields)
	rec.Quality = e.thresholds.Check(&rec)

	if len(rec.Quality) > 0 {
		e.logger.Warn("quality flags on merged record",
			"symbol", inst.Symbol,
			"date", date.String(),
			"flags", rec.Quality,
		)
	}
	return rec, conflicts
}

// candidatesFor collects every provider's non-null value for field at date,
// annotated with its registry priority rank.
func (e *Engine) candidatesFor(field, class string, date model.Date, results []ProviderResult) []candidate {
	prio := e.reg.PriorityFor(field, class)
	rank := make(map[string]int, len(prio))
	for i, id := range prio {
		rank[id] = i
	}

	var cands []candidate
	for _, res := range results {
		r, ok := rank[res.Provider]
		if !ok {
			continue
		}
		raw, ok := res.Records[date]
		if !ok {
			continue
		}
		v, ok := raw.Fields[field]
		if !ok {
			continue
		}
		cands = append(cands, candidate{
			provider:  res.Provider,
			priority:  r,
			fetchedAt: res.FetchedAt,
			value:     v,
		})
	}
	return cands
}

// pick selects the winning candidate under the field's merge policy.
func pick(policy model.MergePolicy, cands []candidate) candidate {
	best := cands[0]
	for _, c := range cands[1:] {
		switch policy {
		case model.LatestNonNull:
			if c.fetchedAt.After(best.fetchedAt) {
				best = c
			}
		default: // PriorityFirst
			if c.priority < best.priority {
				best = c
			}
		}
	}
	return best
}

// relDiff is the symmetric relative difference of two values.
func relDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	denom := math.Max(math.Abs(a), math.Abs(b))
	if denom == 0 {
		return 0
	}
	return math.Abs(a-b) / denom
}
