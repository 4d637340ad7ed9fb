package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/planner"
	"github.com/lihao-quant/equidata/internal/provider"
	"github.com/lihao-quant/equidata/internal/reconcile"
	"github.com/lihao-quant/equidata/internal/storage"
)

// Options tunes a sync run.
type Options struct {
	// Workers bounds how many instruments are in flight at once.
	Workers int

	// Deadline bounds the whole run. Zero means no deadline. Records merged
	// from completed fetches still commit within a short grace period after
	// the deadline passes.
	Deadline time.Duration

	// Retry applies to every provider fetch.
	Retry planner.RetryPolicy

	// MaxConcurrent bounds in-flight calls per provider across the run.
	// Providers not listed get a bound of 1.
	MaxConcurrent map[string]int
}

// Engine drives sync runs.
type Engine struct {
	planner  *planner.Planner
	merger   *reconcile.Engine
	store    storage.Persister
	health   *provider.HealthTracker
	adapters map[string]provider.Adapter
	sems     map[string]*semaphore.Weighted
	opts     Options
	logger   *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(pl *planner.Planner, merger *reconcile.Engine, store storage.Persister, health *provider.HealthTracker, adapters []provider.Adapter, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}

	byName := make(map[string]provider.Adapter, len(adapters))
	sems := make(map[string]*semaphore.Weighted, len(adapters))
	for _, a := range adapters {
		n := int64(opts.MaxConcurrent[a.Name()])
		if n <= 0 {
			n = 1
		}
		byName[a.Name()] = a
		sems[a.Name()] = semaphore.NewWeighted(n)
	}

	return &Engine{
		planner:  pl,
		merger:   merger,
		store:    store,
		health:   health,
		adapters: byName,
		sems:     sems,
		opts:     opts,
		logger:   logger,
	}
}

// Synchronize brings the given instruments up to date over req for the given
// fields, and reports what was committed and what could not be served.
// Instruments that fail to plan or persist are logged and skipped; only a
// cancelled context aborts the run.
func (e *Engine) Synchronize(ctx context.Context, insts []model.Instrument, req model.DateRange, fields []string, freq model.Frequency) (*Report, error) {
	if !req.Valid() {
		return nil, fmt.Errorf("invalid range %s..%s", req.Start, req.End)
	}

	rep := &Report{
		RunID:       uuid.New(),
		Started:     time.Now().UTC(),
		Instruments: len(insts),
	}

	runCtx := ctx
	if e.opts.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.opts.Deadline)
		defer cancel()
	}

	e.logger.Info("sync run starting",
		"run_id", rep.RunID,
		"instruments", len(insts),
		"range", req.String(),
		"fields", len(fields),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(e.opts.Workers)

	for _, inst := range insts {
		g.Go(func() error {
			return e.syncInstrument(gctx, inst, req, fields, freq, rep, &mu)
		})
	}
	err := g.Wait()

	rep.Finished = time.Now().UTC()
	e.logger.Info("sync run finished",
		"run_id", rep.RunID,
		"committed_days", rep.CommittedDays,
		"conflicts", rep.Conflicts,
		"permanent_gaps", len(rep.PermanentGaps),
		"task_failures", rep.TaskFailures,
		"elapsed", rep.Finished.Sub(rep.Started),
	)

	// A deadline hit mid-run is a partial result, not a failure: everything
	// committed so far stays committed and the report says what is missing.
	if err != nil && ctx.Err() == nil {
		err = nil
	}
	return rep, err
}

// syncInstrument plans, fetches and commits one instrument. Merging starts
// only after every task of a round has finished, so a record is never built
// from a partial provider set. When a provider exhausts its retries, it is
// excluded and the still-uncommitted ranges are replanned so the affected
// fields fall through to the next-priority provider within the same run.
func (e *Engine) syncInstrument(ctx context.Context, inst model.Instrument, req model.DateRange, fields []string, freq model.Frequency, rep *Report, mu *sync.Mutex) error {
	exclude := make(map[string]bool)
	var (
		committed model.Coverage
		gaps      []planner.PermanentGap
		conflicts int
		failures  int
	)

	for {
		plan, err := e.planner.PlanExcluding(ctx, inst, req, fields, freq, exclude)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Error("planning failed, skipping instrument",
				"symbol", inst.Symbol, "error", err)
			return nil
		}
		// Gaps reflect the current exclusion state; only the final round's
		// view is reported.
		gaps = plan.PermanentGaps
		if len(plan.Tasks) == 0 {
			break
		}

		results, failedRanges, failedTasks := e.executeTasks(ctx, plan)
		failures += len(failedTasks)

		cov, n := e.mergeAndCommit(ctx, inst, freq, plan, results, failedRanges)
		conflicts += n
		for _, r := range cov.Ranges {
			committed.Add(r)
		}

		if len(failedTasks) == 0 || ctx.Err() != nil {
			break
		}
		for _, t := range failedTasks {
			e.logger.Warn("provider excluded for this run, failing over",
				"provider", t.Provider, "symbol", inst.Symbol)
			exclude[t.Provider] = true
		}
	}

	mu.Lock()
	rep.TaskFailures += failures
	rep.Conflicts += conflicts
	rep.PermanentGaps = append(rep.PermanentGaps, gaps...)
	for _, r := range committed.Ranges {
		rep.CommittedDays += r.Days()
		rep.Committed = append(rep.Committed, CommittedRange{Instrument: inst, Range: r})
	}
	mu.Unlock()
	return nil
}

// executeTasks runs one plan round. One goroutine per provider: same-provider
// tasks execute strictly in plan order, different providers overlap.
func (e *Engine) executeTasks(ctx context.Context, plan *planner.Plan) ([]reconcile.ProviderResult, []model.DateRange, []*planner.FetchTask) {
	byProvider := make(map[string][]*planner.FetchTask)
	for _, t := range plan.Tasks {
		byProvider[t.Provider] = append(byProvider[t.Provider], t)
	}

	var (
		resMu        sync.Mutex
		results      []reconcile.ProviderResult
		failedRanges []model.DateRange
		failedTasks  []*planner.FetchTask
	)

	var wg sync.WaitGroup
	for id, tasks := range byProvider {
		wg.Add(1)
		go func(id string, tasks []*planner.FetchTask) {
			defer wg.Done()
			for _, t := range tasks {
				recs, err := e.runTask(ctx, t)
				resMu.Lock()
				if err != nil {
					t.State = planner.Failed
					failedRanges = append(failedRanges, t.Range)
					failedTasks = append(failedTasks, t)
				} else {
					t.State = planner.Succeeded
					results = append(results, reconcile.ProviderResult{
						Provider:  id,
						FetchedAt: time.Now().UTC(),
						Records:   reconcile.IndexRecords(recs),
					})
				}
				resMu.Unlock()
			}
		}(id, tasks)
	}
	wg.Wait()
	return results, failedRanges, failedTasks
}

// runTask executes one fetch with retries, gated by the provider's in-flight
// semaphore, and feeds the outcome into health tracking.
func (e *Engine) runTask(ctx context.Context, t *planner.FetchTask) ([]model.RawRecord, error) {
	adapter, ok := e.adapters[t.Provider]
	if !ok {
		return nil, fmt.Errorf("no adapter for provider %q", t.Provider)
	}
	sem := e.sems[t.Provider]

	t.State = planner.InFlight
	var recs []model.RawRecord
	err := e.opts.Retry.Do(ctx, func(ctx context.Context) error {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer sem.Release(1)

		t.Attempts++
		out, err := adapter.Fetch(ctx, t.Instrument, t.Range, t.Fields)
		if err != nil {
			e.health.RecordFailure(t.Provider)
			return err
		}
		e.health.RecordSuccess(t.Provider)
		recs = out
		return nil
	})
	if err != nil {
		e.logger.Warn("fetch task failed",
			"task_id", t.ID,
			"provider", t.Provider,
			"symbol", t.Instrument.Symbol,
			"range", t.Range.String(),
			"attempts", t.Attempts,
			"error", err,
		)
		return nil, err
	}
	e.logger.Debug("fetch task succeeded",
		"task_id", t.ID,
		"provider", t.Provider,
		"symbol", t.Instrument.Symbol,
		"range", t.Range.String(),
		"records", len(recs),
	)
	return recs, nil
}

// mergeAndCommit builds and persists canonical records for every date fully
// served by succeeded tasks. Dates touched by any failed task are withheld so
// a record never commits with a partial field set; they reappear as gaps on
// the next run.
func (e *Engine) mergeAndCommit(ctx context.Context, inst model.Instrument, freq model.Frequency, plan *planner.Plan, results []reconcile.ProviderResult, failed []model.DateRange) (model.Coverage, int) {
	var committed model.Coverage
	if len(results) == 0 {
		return committed, 0
	}

	// Fetches may have outlived the run deadline; completed work still gets
	// a bounded window to commit.
	commitCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		commitCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), e.grace())
		defer cancel()
	}

	var fetched model.Coverage
	for _, t := range plan.Tasks {
		if t.State == planner.Succeeded {
			fetched.Add(t.Range)
		}
	}

	var pendingConflicts []model.ConflictRecord

	for _, r := range fetched.Ranges {
		for d := r.Start; d <= r.End; d++ {
			if inAny(d, failed) {
				continue
			}
			if !anyRecord(d, results) {
				continue
			}

			rec, conflicts := e.merger.Merge(inst, d, freq, results, plan.Fields)
			if err := e.store.UpsertDay(commitCtx, rec); err != nil {
				e.logger.Error("commit failed, date withheld",
					"symbol", inst.Symbol,
					"date", d.String(),
					"error", err,
				)
				continue
			}
			committed.Add(model.DateRange{Start: d, End: d})
			pendingConflicts = append(pendingConflicts, conflicts...)
		}
	}

	// Only conflicts that actually reached the audit store are reported.
	if len(pendingConflicts) > 0 {
		if err := e.store.SaveConflicts(commitCtx, pendingConflicts); err != nil {
			e.logger.Error("saving conflict records failed",
				"symbol", inst.Symbol,
				"count", len(pendingConflicts),
				"error", err,
			)
			return committed, 0
		}
	}
	return committed, len(pendingConflicts)
}

// RunProbes periodically re-probes unhealthy providers and returns them to
// the routing pool when they answer. Blocks until ctx is done.
func (e *Engine) RunProbes(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.ProbeOnce(ctx)
		}
	}
}

// ProbeOnce probes every currently-unhealthy provider once.
func (e *Engine) ProbeOnce(ctx context.Context) {
	for id, a := range e.adapters {
		if e.health.Healthy(id) {
			continue
		}
		if a.HealthProbe(ctx) {
			e.health.Reset(id)
			e.logger.Info("provider recovered", "provider", id)
		}
	}
}

// grace is the post-deadline commit window: a tenth of the run deadline,
// clamped to [2s, 30s].
func (e *Engine) grace() time.Duration {
	g := e.opts.Deadline / 10
	if g < 2*time.Second {
		g = 2 * time.Second
	}
	if g > 30*time.Second {
		g = 30 * time.Second
	}
	return g
}

func inAny(d model.Date, ranges []model.DateRange) bool {
	for _, r := range ranges {
		if r.Contains(d) {
			return true
		}
	}
	return false
}

func anyRecord(d model.Date, results []reconcile.ProviderResult) bool {
	for _, res := range results {
		if _, ok := res.Records[d]; ok {
			return true
		}
	}
	return false
}
