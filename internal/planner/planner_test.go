package planner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
	"github.com/lihao-quant/equidata/internal/registry"
)

// fakeCoverage serves a canned Coverage per symbol.
type fakeCoverage struct {
	bySymbol map[string]model.Coverage
}

func (f *fakeCoverage) ReadCoverage(_ context.Context, inst model.Instrument, freq model.Frequency) (model.Coverage, error) {
	cov := f.bySymbol[inst.Symbol]
	cov.Instrument = inst
	cov.Frequency = freq
	return cov, nil
}

// alwaysOpen avoids calendar noise in planning tests.
type alwaysOpen struct{}

func (alwaysOpen) IsTradingDay(string, model.Date) bool { return true }

func d(day int) model.Date { return model.NewDate(2024, time.January, day) }

var stock = model.Instrument{Symbol: "sh.600000", Market: "sh", Class: "stock"}

func newTestRegistry(t *testing.T, caps map[string]provider.Capability, fields []registry.Field) *registry.Registry {
	t.Helper()
	ctrl := gomock.NewController(t)
	adapters := make([]provider.Adapter, 0, len(caps))
	for name, cap := range caps {
		a := provider.NewMockAdapter(ctrl)
		a.EXPECT().Name().Return(name).AnyTimes()
		a.EXPECT().DeclaredCoverage().Return(cap).AnyTimes()
		adapters = append(adapters, a)
	}
	reg, err := registry.New(fields, adapters, []string{"stock"})
	require.NoError(t, err)
	return reg
}

func twoProviderRegistry(t *testing.T) *registry.Registry {
	return newTestRegistry(t,
		map[string]provider.Capability{
			"p1": {Fields: []string{"close", "volume"}, Classes: []string{"stock"}},
			"p2": {Fields: []string{"close", "volume"}, Classes: []string{"stock"}},
		},
		[]registry.Field{
			{Spec: model.FieldSpec{Name: "close", Type: model.Numeric}, Priority: []string{"p1", "p2"}},
			{Spec: model.FieldSpec{Name: "volume", Type: model.Numeric}, Priority: []string{"p1", "p2"}},
		},
	)
}

func TestPlan_FullyCoveredIsNoOp(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{
		"sh.600000": {Ranges: []model.DateRange{{Start: d(1), End: d(31)}}},
	}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(5), End: d(20)}, []string{"close"}, model.Daily)
	require.NoError(t, err)
	require.Empty(t, plan.Tasks)
	require.Empty(t, plan.PermanentGaps)
}

func TestPlan_RoutesToHighestPriorityHealthyProvider(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(10)}, []string{"close", "volume"}, model.Daily)
	require.NoError(t, err)

	// Both fields served by p1 over the same sub-range collapse to one task.
	require.Len(t, plan.Tasks, 1)
	task := plan.Tasks[0]
	require.Equal(t, "p1", task.Provider)
	require.Equal(t, []string{"close", "volume"}, task.Fields)
	require.Equal(t, model.DateRange{Start: d(1), End: d(10)}, task.Range)
	require.Equal(t, Pending, task.State)
}

func TestPlan_FailsOverWhenProviderUnhealthy(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 5, 0.7)
	for i := 0; i < 5; i++ {
		health.RecordFailure("p1")
	}
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(10)}, []string{"close"}, model.Daily)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "p2", plan.Tasks[0].Provider)
	require.Empty(t, plan.PermanentGaps)
}

func TestPlan_RecoversAfterProbeReset(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 5, 0.7)
	for i := 0; i < 5; i++ {
		health.RecordFailure("p1")
	}
	health.Reset("p1")
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(10)}, []string{"close"}, model.Daily)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "p1", plan.Tasks[0].Provider)
}

func TestPlan_CapabilityRangeSplitsAcrossProviders(t *testing.T) {
	reg := newTestRegistry(t,
		map[string]provider.Capability{
			"p1": {Fields: []string{"close"}, Classes: []string{"stock"}, Earliest: d(10)},
			"p2": {Fields: []string{"close"}, Classes: []string{"stock"}},
		},
		[]registry.Field{
			{Spec: model.FieldSpec{Name: "close", Type: model.Numeric}, Priority: []string{"p1", "p2"}},
		},
	)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(20)}, []string{"close"}, model.Daily)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 2)
	byProvider := map[string]model.DateRange{}
	for _, task := range plan.Tasks {
		byProvider[task.Provider] = task.Range
	}
	// p1 serves from its earliest date; p2 backfills the older part.
	require.Equal(t, model.DateRange{Start: d(10), End: d(20)}, byProvider["p1"])
	require.Equal(t, model.DateRange{Start: d(1), End: d(9)}, byProvider["p2"])
	require.Empty(t, plan.PermanentGaps)
}

func TestPlan_PermanentGapWhenNoProviderCan(t *testing.T) {
	reg := newTestRegistry(t,
		map[string]provider.Capability{
			"p1": {Fields: []string{"close"}, Classes: []string{"stock"}, Earliest: d(10)},
		},
		[]registry.Field{
			{Spec: model.FieldSpec{Name: "close", Type: model.Numeric}, Priority: []string{"p1"}},
		},
	)
	health := provider.NewHealthTracker([]string{"p1"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(20)}, []string{"close"}, model.Daily)
	require.NoError(t, err)

	require.Len(t, plan.PermanentGaps, 1)
	gap := plan.PermanentGaps[0]
	require.Equal(t, "close", gap.Field)
	require.Equal(t, model.DateRange{Start: d(1), End: d(9)}, gap.Range)
}

func TestPlan_TasksChronologicalPerProvider(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{
		"sh.600000": {Ranges: []model.DateRange{{Start: d(10), End: d(15)}}},
	}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.Plan(context.Background(), stock, model.DateRange{Start: d(1), End: d(25)}, []string{"close"}, model.Daily)
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 2)
	require.True(t, plan.Tasks[0].Range.Start < plan.Tasks[1].Range.Start,
		"same-provider tasks must be in chronological order")
	require.Equal(t, 0, plan.Tasks[0].Seq)
	require.Equal(t, 1, plan.Tasks[1].Seq)
}

func TestPlanExcluding_RoutesAroundExcludedProvider(t *testing.T) {
	reg := twoProviderRegistry(t)
	health := provider.NewHealthTracker([]string{"p1", "p2"}, 10, 0.7)
	store := &fakeCoverage{bySymbol: map[string]model.Coverage{}}

	p := New(reg, health, alwaysOpen{}, store, nil)
	plan, err := p.PlanExcluding(context.Background(), stock,
		model.DateRange{Start: d(1), End: d(10)}, []string{"close"}, model.Daily,
		map[string]bool{"p1": true})
	require.NoError(t, err)

	require.Len(t, plan.Tasks, 1)
	require.Equal(t, "p2", plan.Tasks[0].Provider)
	require.Empty(t, plan.PermanentGaps)
}
