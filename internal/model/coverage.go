package model

import "sort"

// Coverage is the set of date ranges already reconciled and committed for an
// instrument at one frequency.
//
// Invariant: Ranges are sorted by Start, non-overlapping, and non-adjacent
// (two contiguous ranges are merged into one). A date is either fully
// reconciled across all requested fields or absent.
type Coverage struct {
	Instrument Instrument
	Frequency  Frequency
	Ranges     []DateRange
}

// Add extends the coverage with r, merging overlapping or contiguous ranges.
// Ranges separated by one or more calendar days stay separate; whether the
// days between them are real gaps is a trading-calendar question, not a
// coverage question.
func (c *Coverage) Add(r DateRange) {
	if !r.Valid() {
		return
	}
	merged := make([]DateRange, 0, len(c.Ranges)+1)
	for _, cur := range c.Ranges {
		switch {
		case cur.End+1 < r.Start: // strictly before, not touching
			merged = append(merged, cur)
		case r.End+1 < cur.Start: // strictly after, not touching
			// insertion point passed; r is final
			continue
		default: // overlap or contiguous: absorb into r
			if cur.Start < r.Start {
				r.Start = cur.Start
			}
			if cur.End > r.End {
				r.End = cur.End
			}
		}
	}
	merged = append(merged, r)
	// Re-add any ranges strictly after r that were skipped above.
	for _, cur := range c.Ranges {
		if r.End+1 < cur.Start {
			merged = append(merged, cur)
		}
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Start < merged[j].Start })
	c.Ranges = merged
}

// Covers reports whether d is inside any committed range.
func (c *Coverage) Covers(d Date) bool {
	for _, r := range c.Ranges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

// Missing returns the ordered disjoint sub-ranges of req not covered by any
// committed range (plain interval subtraction; trading-day filtering is the
// gap detector's job).
func (c *Coverage) Missing(req DateRange) []DateRange {
	if !req.Valid() {
		return nil
	}
	var out []DateRange
	cursor := req.Start
	for _, r := range c.Ranges {
		if r.End < cursor {
			continue
		}
		if r.Start > req.End {
			break
		}
		if r.Start > cursor {
			out = append(out, DateRange{Start: cursor, End: r.Start - 1})
		}
		if r.End+1 > cursor {
			cursor = r.End + 1
		}
		if cursor > req.End {
			return out
		}
	}
	if cursor <= req.End {
		out = append(out, DateRange{Start: cursor, End: req.End})
	}
	return out
}

// Equal reports whether two coverages describe the same committed ranges.
func (c *Coverage) Equal(o *Coverage) bool {
	if len(c.Ranges) != len(o.Ranges) {
		return false
	}
	for i := range c.Ranges {
		if c.Ranges[i] != o.Ranges[i] {
			return false
		}
	}
	return true
}
