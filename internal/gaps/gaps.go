// Package gaps computes the minimal set of missing sub-ranges between an
// instrument's committed coverage and a requested range.
package gaps

import (
	"github.com/lihao-quant/equidata/internal/calendar"
	"github.com/lihao-quant/equidata/internal/model"
)

// Missing subtracts cov from req and filters the result through the trading
// calendar: only days the calendar marks as trading days count toward
// "missing". Returned ranges are ordered, disjoint, trimmed so both endpoints
// are trading days, and contain at least one trading day each. Two committed
// ranges separated only by non-trading days therefore produce no gap.
//
// A fully covered request yields nil, which keeps repeated syncs idempotent.
func Missing(cov *model.Coverage, req model.DateRange, market string, cal calendar.Calendar) []model.DateRange {
	if !req.Valid() {
		return nil
	}
	var out []model.DateRange
	for _, raw := range cov.Missing(req) {
		r, ok := trimToTradingDays(raw, market, cal)
		if ok {
			out = append(out, r)
		}
	}
	return out
}

// trimToTradingDays shrinks r so Start and End land on trading days. Returns
// false when r contains no trading day at all.
func trimToTradingDays(r model.DateRange, market string, cal calendar.Calendar) (model.DateRange, bool) {
	for r.Start <= r.End && !cal.IsTradingDay(market, r.Start) {
		r.Start++
	}
	for r.End >= r.Start && !cal.IsTradingDay(market, r.End) {
		r.End--
	}
	if !r.Valid() {
		return model.DateRange{}, false
	}
	return r, true
}
