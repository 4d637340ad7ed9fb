package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lihao-quant/equidata/internal/model"
)

var stock = model.Instrument{Symbol: "sh.600000", Market: "sh", Class: "stock"}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func record(date model.Date, fields map[string]float64) model.CanonicalRecord {
	rec := model.CanonicalRecord{
		Instrument: stock,
		Date:       date,
		Frequency:  model.Daily,
		Fields:     make(map[string]model.Cell, len(fields)),
	}
	for name, v := range fields {
		rec.Fields[name] = model.Cell{
			Value:      model.Num(v),
			Provider:   "quotron",
			FetchedAt:  time.Now().UTC(),
			Confidence: 1,
		}
	}
	return rec
}

func TestReadCoverage_EmptyForUnknownInstrument(t *testing.T) {
	s := openTestStore(t)

	cov, err := s.ReadCoverage(context.Background(), stock, model.Daily)
	require.NoError(t, err)
	require.Empty(t, cov.Ranges)
}

func TestUpsertDay_ExtendsCoverage(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d1 := model.NewDate(2024, time.January, 2)

	require.NoError(t, s.UpsertDay(ctx, record(d1, map[string]float64{"close": 10.5})))
	require.NoError(t, s.UpsertDay(ctx, record(d1.Add(1), map[string]float64{"close": 10.6})))

	cov, err := s.ReadCoverage(ctx, stock, model.Daily)
	require.NoError(t, err)
	require.Len(t, cov.Ranges, 1, "consecutive days should merge into one range")
	require.Equal(t, model.DateRange{Start: d1, End: d1.Add(1)}, cov.Ranges[0])
}

func TestUpsertDay_SeparateRangesAcrossGap(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d1 := model.NewDate(2024, time.January, 2)

	require.NoError(t, s.UpsertDay(ctx, record(d1, map[string]float64{"close": 10.5})))
	require.NoError(t, s.UpsertDay(ctx, record(d1.Add(5), map[string]float64{"close": 11.0})))

	cov, err := s.ReadCoverage(ctx, stock, model.Daily)
	require.NoError(t, err)
	require.Len(t, cov.Ranges, 2)
}

func TestUpsertDay_Idempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	d1 := model.NewDate(2024, time.January, 2)

	rec := record(d1, map[string]float64{"close": 10.5, "volume": 1e6})
	require.NoError(t, s.UpsertDay(ctx, rec))
	first, err := s.ReadCoverage(ctx, stock, model.Daily)
	require.NoError(t, err)

	require.NoError(t, s.UpsertDay(ctx, rec))
	second, err := s.ReadCoverage(ctx, stock, model.Daily)
	require.NoError(t, err)

	require.True(t, first.Equal(&second), "re-upserting the same day must not change coverage")
}

func TestSaveConflicts_DeduplicatesOnLogicalKey(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c := model.ConflictRecord{
		ID:         uuid.New(),
		Instrument: stock,
		Date:       model.NewDate(2024, time.January, 2),
		Frequency:  model.Daily,
		Field:      "volume",
		Chosen:     "quotron",
		ChosenVal:  100,
		Other:      "fundsight",
		OtherVal:   130,
		RelDiff:    0.23,
		Tolerance:  0.10,
		DetectedAt: time.Now().UTC(),
	}
	require.NoError(t, s.SaveConflicts(ctx, []model.ConflictRecord{c}))

	// Same logical conflict, fresh ID: must be ignored.
	c2 := c
	c2.ID = uuid.New()
	require.NoError(t, s.SaveConflicts(ctx, []model.ConflictRecord{c2}))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM conflicts`).Scan(&count))
	require.Equal(t, 1, count)
}
