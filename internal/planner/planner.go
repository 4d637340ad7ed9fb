package planner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"github.com/lihao-quant/equidata/internal/calendar"
	"github.com/lihao-quant/equidata/internal/gaps"
	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/provider"
	"github.com/lihao-quant/equidata/internal/registry"
)

// CoverageReader is the slice of the persister the planner needs.
type CoverageReader interface {
	ReadCoverage(ctx context.Context, inst model.Instrument, freq model.Frequency) (model.Coverage, error)
}

// Planner builds fetch plans from registry priority, provider health and
// committed coverage.
type Planner struct {
	reg    *registry.Registry
	health *provider.HealthTracker
	cal    calendar.Calendar
	store  CoverageReader
	logger *slog.Logger
}

// New creates a Planner. A nil logger falls back to slog.Default.
func New(reg *registry.Registry, health *provider.HealthTracker, cal calendar.Calendar, store CoverageReader, logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Planner{reg: reg, health: health, cal: cal, store: store, logger: logger}
}

// taskKey groups field assignments so one provider call covers every field it
// can serve over the same sub-range (unified fetch).
type taskKey struct {
	provider string
	r        model.DateRange
}

// Plan computes the ordered fetch tasks for one instrument over req.
func (p *Planner) Plan(ctx context.Context, inst model.Instrument, req model.DateRange, fields []string, freq model.Frequency) (*Plan, error) {
	return p.PlanExcluding(ctx, inst, req, fields, freq, nil)
}

// PlanExcluding is Plan with a per-run provider exclusion set. The executor
// uses it to fail a field over to the next-priority provider after a
// provider has exhausted its retries within the same run.
func (p *Planner) PlanExcluding(ctx context.Context, inst model.Instrument, req model.DateRange, fields []string, freq model.Frequency, exclude map[string]bool) (*Plan, error) {
	cov, err := p.store.ReadCoverage(ctx, inst, freq)
	if err != nil {
		return nil, fmt.Errorf("read coverage for %s: %w", inst.Symbol, err)
	}

	missing := gaps.Missing(&cov, req, inst.Market, p.cal)

	plan := &Plan{
		Instrument: inst,
		Frequency:  freq,
		Requested:  req,
		Fields:     fields,
	}
	if len(missing) == 0 {
		return plan, nil
	}

	assigned := make(map[taskKey][]string)

	for _, field := range fields {
		spec, ok := p.reg.Spec(field)
		if !ok {
			return nil, fmt.Errorf("unknown field %q", field)
		}
		// Computed fields are derived at merge time from their components;
		// nothing to fetch.
		if spec.Policy == model.Computed {
			continue
		}

		remaining := missing
		for _, id := range p.reg.PriorityFor(field, inst.Class) {
			if len(remaining) == 0 {
				break
			}
			if exclude[id] {
				continue
			}
			if !p.health.Healthy(id) {
				p.logger.Debug("skipping unhealthy provider",
					"provider", id,
					"field", field,
					"symbol", inst.Symbol,
				)
				continue
			}
			remaining = p.assign(assigned, id, field, remaining)
		}
		for _, r := range remaining {
			plan.PermanentGaps = append(plan.PermanentGaps, PermanentGap{
				Instrument: inst,
				Field:      field,
				Range:      r,
				Reason:     "no capable healthy provider",
			})
		}
	}

	plan.Tasks = buildTasks(inst, assigned)

	p.logger.Debug("plan built",
		"symbol", inst.Symbol,
		"missing_ranges", len(missing),
		"tasks", len(plan.Tasks),
		"permanent_gaps", len(plan.PermanentGaps),
	)
	return plan, nil
}

// assign gives provider id every part of the remaining ranges its declared
// capability can serve and returns what is left over.
func (p *Planner) assign(assigned map[taskKey][]string, id, field string, remaining []model.DateRange) []model.DateRange {
	cap, ok := p.reg.Capability(id)
	if !ok {
		return remaining
	}
	var leftover []model.DateRange
	for _, r := range remaining {
		serveable := r
		if cap.Earliest != 0 && serveable.Start < cap.Earliest {
			if serveable.End < cap.Earliest {
				leftover = append(leftover, r)
				continue
			}
			leftover = append(leftover, model.DateRange{Start: r.Start, End: cap.Earliest - 1})
			serveable.Start = cap.Earliest
		}
		k := taskKey{provider: id, r: serveable}
		assigned[k] = append(assigned[k], field)
	}
	return leftover
}

// buildTasks flattens the assignment map into tasks ordered chronologically
// per provider.
func buildTasks(inst model.Instrument, assigned map[taskKey][]string) []*FetchTask {
	tasks := make([]*FetchTask, 0, len(assigned))
	for k, fieldSet := range assigned {
		sort.Strings(fieldSet)
		tasks = append(tasks, &FetchTask{
			ID:         uuid.New(),
			Provider:   k.provider,
			Instrument: inst,
			Range:      k.r,
			Fields:     fieldSet,
			State:      Pending,
		})
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Provider != tasks[j].Provider {
			return tasks[i].Provider < tasks[j].Provider
		}
		return tasks[i].Range.Start < tasks[j].Range.Start
	})
	seq := 0
	for i, t := range tasks {
		if i > 0 && tasks[i-1].Provider != t.Provider {
			seq = 0
		}
		t.Seq = seq
		seq++
	}
	return tasks
}
