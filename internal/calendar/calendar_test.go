package calendar

import (
	"testing"
	"time"

	"github.com/lihao-quant/equidata/internal/model"
)

func TestExchange_Weekends(t *testing.T) {
	cal := NewExchange(nil)

	sat := model.NewDate(2024, time.January, 6)
	sun := model.NewDate(2024, time.January, 7)
	mon := model.NewDate(2024, time.January, 8)

	if cal.IsTradingDay("sh", sat) {
		t.Error("Saturday should not be a trading day")
	}
	if cal.IsTradingDay("sh", sun) {
		t.Error("Sunday should not be a trading day")
	}
	if !cal.IsTradingDay("sh", mon) {
		t.Error("Monday should be a trading day")
	}
}

func TestExchange_Holidays(t *testing.T) {
	newYear := model.NewDate(2024, time.January, 1)
	cal := NewExchange(map[string][]model.Date{
		"sh": {newYear},
	})

	if cal.IsTradingDay("sh", newYear) {
		t.Error("listed holiday should not be a trading day")
	}
	// Holiday table is per market.
	if !cal.IsTradingDay("sz", newYear) {
		t.Error("holiday for SH should not apply to SZ")
	}
}

func TestTradingDays(t *testing.T) {
	cal := NewExchange(nil)
	// 2024-01-01 (Mon) .. 2024-01-14 (Sun): two full weeks, 10 weekdays.
	r := model.DateRange{
		Start: model.NewDate(2024, time.January, 1),
		End:   model.NewDate(2024, time.January, 14),
	}
	if got := TradingDays(cal, "sh", r); got != 10 {
		t.Errorf("TradingDays = %d, want 10", got)
	}
}
