package reconcile

import "github.com/lihao-quant/equidata/internal/model"

// Thresholds bound plausible values for merged records. Violations flag the
// record; they never drop it.
type Thresholds struct {
	MinPrice  float64
	MaxPrice  float64
	MaxVolume float64
	MinPE     float64
	MaxPE     float64
	MinPB     float64
	MaxPB     float64
}

// DefaultThresholds returns the sanity bounds used in production.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinPrice:  0.01,
		MaxPrice:  10000,
		MaxVolume: 1e12,
		MinPE:     -1000,
		MaxPE:     1000,
		MinPB:     0,
		MaxPB:     100,
	}
}

// Check returns data-quality flags for a merged record: price bounds, OHLC
// ordering, volume sanity and valuation-ratio ranges.
func (t Thresholds) Check(rec *model.CanonicalRecord) []string {
	var flags []string

	num := func(field string) (float64, bool) {
		cell, ok := rec.Fields[field]
		if !ok || cell.Value.Kind != model.Numeric {
			return 0, false
		}
		return cell.Value.Num, true
	}

	for _, field := range []string{"open", "high", "low", "close"} {
		if v, ok := num(field); ok && (v < t.MinPrice || v > t.MaxPrice) {
			flags = append(flags, field+"_out_of_range")
		}
	}

	high, hasHigh := num("high")
	low, hasLow := num("low")
	open, hasOpen := num("open")
	close, hasClose := num("close")
	if hasHigh && hasLow && high < low {
		flags = append(flags, "high_below_low")
	}
	if hasHigh && ((hasOpen && high < open) || (hasClose && high < close)) {
		flags = append(flags, "high_below_body")
	}
	if hasLow && ((hasOpen && low > open) || (hasClose && low > close)) {
		flags = append(flags, "low_above_body")
	}

	if v, ok := num("volume"); ok && (v < 0 || v > t.MaxVolume) {
		flags = append(flags, "volume_out_of_range")
	}

	if v, ok := num("pe_ttm"); ok && (v < t.MinPE || v > t.MaxPE) {
		flags = append(flags, "pe_out_of_range")
	}
	if v, ok := num("pb"); ok && (v < t.MinPB || v > t.MaxPB) {
		flags = append(flags, "pb_out_of_range")
	}

	return flags
}
