package quotron

import (
	"context"
	"strconv"
	"time"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
)

// Name is the stable provider ID.
const Name = "quotron"

// fieldMap translates Quotron's wire names to canonical field names.
var fieldMap = map[string]string{
	"open":        "open",
	"high":        "high",
	"low":         "low",
	"close":       "close",
	"volume":      "volume",
	"amount":      "money",
	"peTTM":       "pe_ttm",
	"pbMRQ":       "pb",
	"psTTM":       "ps_ttm",
	"turn":        "turnover_rate",
	"isST":        "is_st",
	"tradestatus": "trade_status",
}

// enumFields keeps status flags as strings rather than numbers.
var enumFields = map[string]bool{
	"is_st":        true,
	"trade_status": true,
}

// Adapter implements provider.Adapter on the Quotron API.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Name() string { return Name }

// DeclaredCoverage: full daily market and valuation data for stocks and ETFs
// back to the start of the exchange's electronic record.
func (a *Adapter) DeclaredCoverage() provider.Capability {
	fields := make([]string, 0, len(fieldMap))
	for _, canonical := range fieldMap {
		fields = append(fields, canonical)
	}
	return provider.Capability{
		Fields:   fields,
		Classes:  []string{"stock", "etf"},
		Earliest: model.NewDate(1990, time.December, 19),
	}
}

// Fetch downloads and normalizes daily rows. One call returns market,
// valuation and status fields together, so a task's field subset is always
// a cheap superset read.
func (a *Adapter) Fetch(ctx context.Context, inst model.Instrument, r model.DateRange, fields []string) ([]model.RawRecord, error) {
	rows, err := a.client.DailyBars(ctx, inst.Symbol, r.Start.String(), r.End.String())
	if err != nil {
		return nil, err
	}

	out := make([]model.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := normalizeRow(inst, row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalizeRow maps one wire row to a RawRecord. A missing or unparseable
// date is schema drift; individual field cells are allowed to be empty.
func normalizeRow(inst model.Instrument, row map[string]string) (model.RawRecord, error) {
	dateStr, ok := row["date"]
	if !ok {
		return model.RawRecord{}, provider.NewError(Name, provider.SchemaMismatch,
			errMissingField("date"))
	}
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return model.RawRecord{}, provider.NewError(Name, provider.SchemaMismatch, err)
	}

	rec := model.RawRecord{
		Instrument: inst,
		Date:       date,
		Fields:     make(map[string]model.Value, len(row)),
	}
	for wire, canonical := range fieldMap {
		raw, ok := row[wire]
		if !ok || raw == "" {
			continue
		}
		if enumFields[canonical] {
			rec.Fields[canonical] = model.Str(raw)
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// A non-numeric value in a numeric column is schema drift.
			return model.RawRecord{}, provider.NewError(Name, provider.SchemaMismatch, err)
		}
		rec.Fields[canonical] = model.Num(v)
	}
	return rec, nil
}

// HealthProbe performs a cheap liveness check.
func (a *Adapter) HealthProbe(ctx context.Context) bool {
	return a.client.Ping(ctx) == nil
}

type errMissingField string

func (e errMissingField) Error() string { return "missing field " + string(e) }
