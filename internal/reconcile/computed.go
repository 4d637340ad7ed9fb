package reconcile

import (
	"time"

	"github.com/lihao-quant/equidata/internal/model"
)

// ComputedProvider is the provenance tag for derived fields.
const ComputedProvider = "computed"

// ComputeFunc derives a field from its merged numeric components. It returns
// false when the value cannot be produced (missing or zero denominator).
type ComputeFunc func(deps map[string]float64) (float64, bool)

// builtinComputed covers the derived fields the canonical schema ships with.
// Ratios are recomputed from merged components rather than accepted from a
// provider so that a ratio and its inputs never disagree inside one record.
func builtinComputed() map[string]ComputeFunc {
	return map[string]ComputeFunc{
		// Turnover amount when the provider omits it.
		"money": func(deps map[string]float64) (float64, bool) {
			close, ok1 := deps["close"]
			volume, ok2 := deps["volume"]
			if !ok1 || !ok2 {
				return 0, false
			}
			return close * volume, true
		},
		"pe_ttm": func(deps map[string]float64) (float64, bool) {
			return safeRatio(deps, "close", "eps_ttm")
		},
		"pb": func(deps map[string]float64) (float64, bool) {
			return safeRatio(deps, "close", "bps")
		},
	}
}

func safeRatio(deps map[string]float64, num, den string) (float64, bool) {
	n, ok1 := deps[num]
	d, ok2 := deps[den]
	if !ok1 || !ok2 || d == 0 {
		return 0, false
	}
	return n / d, true
}

// RegisterComputed adds or replaces a derived-field function.
func (e *Engine) RegisterComputed(field string, fn ComputeFunc) {
	e.computed[field] = fn
}

// applyComputed fills in computed fields from the record's merged numeric
// cells. Missing components leave the field absent rather than guessing.
func (e *Engine) applyComputed(rec *model.CanonicalRecord, fields []string) {
	var deps map[string]float64

	for _, field := range fields {
		spec, ok := e.reg.Spec(field)
		if !ok || spec.Policy != model.Computed {
			continue
		}
		fn, ok := e.computed[field]
		if !ok {
			e.logger.Warn("computed field has no compute function", "field", field)
			continue
		}
		if deps == nil {
			deps = make(map[string]float64, len(rec.Fields))
			for name, cell := range rec.Fields {
				if cell.Value.Kind == model.Numeric {
					deps[name] = cell.Value.Num
				}
			}
		}
		v, ok := fn(deps)
		if !ok {
			continue
		}
		rec.Fields[field] = model.Cell{
			Value:      model.Num(v),
			Provider:   ComputedProvider,
			FetchedAt:  time.Now().UTC(),
			Confidence: 1,
		}
	}
}
