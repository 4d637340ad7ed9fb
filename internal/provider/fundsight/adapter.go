package fundsight

import (
	"context"
	"time"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
)

// Name is the stable provider ID.
const Name = "fundsight"

// metricMap translates Fundsight's wire names to canonical field names.
var metricMap = map[string]string{
	"close":    "close",
	"volume":   "volume",
	"epsTTM":   "eps_ttm",
	"bps":      "bps",
	"peTTM":    "pe_ttm",
	"pbMRQ":    "pb",
	"psTTM":    "ps_ttm",
	"roeAvg":   "roe",
	"roa":      "roa",
	"npMargin": "net_profit_ratio",
	"gpMargin": "gross_profit_ratio",
}

// Adapter implements provider.Adapter on the Fundsight API.
type Adapter struct {
	client *Client
}

// NewAdapter wraps a client.
func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

func (a *Adapter) Name() string { return Name }

// DeclaredCoverage: fundamentals for stocks only, and only after consolidated
// electronic filings became available.
func (a *Adapter) DeclaredCoverage() provider.Capability {
	fields := make([]string, 0, len(metricMap))
	for _, canonical := range metricMap {
		fields = append(fields, canonical)
	}
	return provider.Capability{
		Fields:   fields,
		Classes:  []string{"stock"},
		Earliest: model.NewDate(2007, time.January, 4),
	}
}

// Fetch downloads and normalizes daily metric rows.
func (a *Adapter) Fetch(ctx context.Context, inst model.Instrument, r model.DateRange, fields []string) ([]model.RawRecord, error) {
	rows, err := a.client.DailyMetrics(ctx, inst.Symbol, r.Start.String(), r.End.String())
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

// normalizeRow maps one wire row to a RawRecord. Null metric values are
// omitted rather than reported as zero.
func normalizeRow(inst model.Instrument, r row) (model.RawRecord, error) {
	date, err := model.ParseDate(r.Date)
	if err != nil {
		return model.RawRecord{}, provider.NewError(Name, provider.SchemaMismatch, err)
	}

	rec := model.RawRecord{
		Instrument: inst,
		Date:       date,
		Fields:     make(map[string]model.Value, len(r.Values)),
	}
	for wire, canonical := range metricMap {
		v, ok := r.Values[wire]
		if !ok || v == nil {
			continue
		}
		rec.Fields[canonical] = model.Num(*v)
	}
	return rec, nil
}

// HealthProbe performs a cheap liveness check.
func (a *Adapter) HealthProbe(ctx context.Context) bool {
	return a.client.Ping(ctx) == nil
}
