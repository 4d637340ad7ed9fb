// Package calendar answers the trading-day question for a market. The gap
// detector consults it so that weekends and exchange holidays are never
// reported as missing data.
package calendar

import (
	"time"

	"github.com/lihao-quant/equidata/internal/model"
)

// Calendar reports whether a market trades on a given date.
type Calendar interface {
	IsTradingDay(market string, d model.Date) bool
}

// Exchange is a weekday calendar with a per-market holiday table.
type Exchange struct {
	holidays map[string]map[model.Date]struct{}
}

// NewExchange builds a calendar from per-market holiday lists.
func NewExchange(holidays map[string][]model.Date) *Exchange {
	c := &Exchange{holidays: make(map[string]map[model.Date]struct{}, len(holidays))}
	for market, days := range holidays {
		set := make(map[model.Date]struct{}, len(days))
		for _, d := range days {
			set[d] = struct{}{}
		}
		c.holidays[market] = set
	}
	return c
}

// IsTradingDay returns false on weekends and listed exchange holidays.
// Markets with no holiday table fall back to weekdays only.
func (c *Exchange) IsTradingDay(market string, d model.Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	if set, ok := c.holidays[market]; ok {
		if _, holiday := set[d]; holiday {
			return false
		}
	}
	return true
}

// TradingDays counts trading days of market inside r.
func TradingDays(cal Calendar, market string, r model.DateRange) int {
	n := 0
	for d := r.Start; d <= r.End; d++ {
		if cal.IsTradingDay(market, d) {
			n++
		}
	}
	return n
}
