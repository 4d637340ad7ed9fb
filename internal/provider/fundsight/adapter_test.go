package fundsight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
)

func f(v float64) *float64 { return &v }

func TestNormalizeRow(t *testing.T) {
	inst := model.Instrument{Symbol: "sh.600000", Market: "sh", Class: "stock"}
	rec, err := normalizeRow(inst, row{
		Date: "2024-01-02",
		Values: map[string]*float64{
			"close":    f(10.5),
			"epsTTM":   f(1.92),
			"bps":      f(21.4),
			"roeAvg":   f(0.093),
			"npMargin": f(0.31),
			"peTTM":    nil, // published late, arrives as null
		},
	})
	require.NoError(t, err)
	require.Equal(t, model.NewDate(2024, time.January, 2), rec.Date)

	require.Equal(t, model.Num(10.5), rec.Fields["close"])
	require.Equal(t, model.Num(1.92), rec.Fields["eps_ttm"])
	require.Equal(t, model.Num(21.4), rec.Fields["bps"])
	require.Equal(t, model.Num(0.093), rec.Fields["roe"])
	require.Equal(t, model.Num(0.31), rec.Fields["net_profit_ratio"])

	// Nulls are omitted, not zeroed.
	_, ok := rec.Fields["pe_ttm"]
	require.False(t, ok)
}

func TestNormalizeRowBadDate(t *testing.T) {
	inst := model.Instrument{Symbol: "sh.600000", Market: "sh", Class: "stock"}
	_, err := normalizeRow(inst, row{Date: "02/01/2024"})
	require.Error(t, err)

	code, ok := provider.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, provider.SchemaMismatch, code)
}

func TestDeclaredCoverageStocksOnly(t *testing.T) {
	a := NewAdapter(NewClient(""))
	cap := a.DeclaredCoverage()

	require.Equal(t, []string{"stock"}, cap.Classes)
	require.Contains(t, cap.Fields, "eps_ttm")
	require.Contains(t, cap.Fields, "roe")
	require.NotContains(t, cap.Fields, "open")
}
