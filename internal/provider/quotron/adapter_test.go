package quotron_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
	"github.com/lihao-quant/equidata/internal/provider/quotron"
)

var testInst = model.Instrument{Symbol: "sh.600000", Market: "sh", Class: "stock"}

func adapterWithBody(t *testing.T, body string) *quotron.Adapter {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockHTTP := NewMockHTTPClient(ctrl)
	mockHTTP.EXPECT().Do(gomock.Any()).Return(httpResponse(http.StatusOK, body), nil)
	return quotron.NewAdapter(quotron.NewClient("k", quotron.WithHTTPClient(mockHTTP)))
}

func TestFetchNormalizesRows(t *testing.T) {
	a := adapterWithBody(t, `{
		"code": 0,
		"data": [{
			"date": "2024-01-02",
			"open": "10.10", "high": "10.60", "low": "10.00", "close": "10.50",
			"volume": "1200000", "amount": "12600000",
			"peTTM": "15.2", "pbMRQ": "1.8", "turn": "0.52",
			"isST": "0", "tradestatus": "1",
			"psTTM": ""
		}]
	}`)

	recs, err := a.Fetch(context.Background(), testInst,
		model.DateRange{Start: model.NewDate(2024, time.January, 2), End: model.NewDate(2024, time.January, 2)},
		nil)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	rec := recs[0]
	require.Equal(t, model.NewDate(2024, time.January, 2), rec.Date)

	// Wire names map to canonical names.
	require.Equal(t, model.Num(12600000), rec.Fields["money"])
	require.Equal(t, model.Num(15.2), rec.Fields["pe_ttm"])
	require.Equal(t, model.Num(1.8), rec.Fields["pb"])
	require.Equal(t, model.Num(0.52), rec.Fields["turnover_rate"])

	// Status flags stay enum-valued.
	require.Equal(t, model.Str("0"), rec.Fields["is_st"])
	require.Equal(t, model.Str("1"), rec.Fields["trade_status"])

	// An empty cell is a null, not a zero.
	_, ok := rec.Fields["ps_ttm"]
	require.False(t, ok)
}

func TestFetchMissingDateIsSchemaMismatch(t *testing.T) {
	a := adapterWithBody(t, `{"code": 0, "data": [{"close": "10.5"}]}`)

	_, err := a.Fetch(context.Background(), testInst,
		model.DateRange{Start: model.NewDate(2024, time.January, 2), End: model.NewDate(2024, time.January, 2)},
		nil)
	require.Error(t, err)

	code, ok := provider.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, provider.SchemaMismatch, code)
}

func TestFetchNonNumericCellIsSchemaMismatch(t *testing.T) {
	a := adapterWithBody(t, `{"code": 0, "data": [{"date": "2024-01-02", "close": "n/a"}]}`)

	_, err := a.Fetch(context.Background(), testInst,
		model.DateRange{Start: model.NewDate(2024, time.January, 2), End: model.NewDate(2024, time.January, 2)},
		nil)
	require.Error(t, err)

	code, ok := provider.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, provider.SchemaMismatch, code)
}

func TestDeclaredCoverage(t *testing.T) {
	a := quotron.NewAdapter(quotron.NewClient("k"))
	cap := a.DeclaredCoverage()

	require.ElementsMatch(t, []string{"stock", "etf"}, cap.Classes)
	require.Contains(t, cap.Fields, "close")
	require.Contains(t, cap.Fields, "money")
	require.Contains(t, cap.Fields, "trade_status")
	require.Equal(t, model.NewDate(1990, time.December, 19), cap.Earliest)
}
