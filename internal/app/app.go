// Package app wires configuration into a runnable sync engine. Both the
// daemon and the one-shot backfill command build their world through it.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lihao-quant/equidata/internal/calendar"
	"github.com/lihao-quant/equidata/internal/config"
	"github.com/lihao-quant/equidata/internal/model"
	"github.com/lihao-quant/equidata/internal/planner"
	"github.com/lihao-quant/equidata/internal/provider"
	"github.com/lihao-quant/equidata/internal/provider/fundsight"
	"github.com/lihao-quant/equidata/internal/provider/quotron"
	"github.com/lihao-quant/equidata/internal/reconcile"
	"github.com/lihao-quant/equidata/internal/registry"
	"github.com/lihao-quant/equidata/internal/storage"
	"github.com/lihao-quant/equidata/internal/storage/postgres"
	"github.com/lihao-quant/equidata/internal/storage/sqlite"
	"github.com/lihao-quant/equidata/internal/syncer"
)

// instrument classes the registry validates priorities against.
var classes = []string{"stock", "etf"}

// App is a fully wired sync engine plus the resources it owns.
type App struct {
	Engine   *syncer.Engine
	Store    storage.Persister
	Registry *registry.Registry
	Health   *provider.HealthTracker
	Config   *config.SyncdConfig
}

// Build constructs every component from cfg. The caller owns Close.
func Build(ctx context.Context, cfg *config.SyncdConfig, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	cal, err := BuildCalendar(cfg.Calendar)
	if err != nil {
		return nil, fmt.Errorf("calendar: %w", err)
	}

	adapters := BuildAdapters(cfg.Providers)
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no providers enabled")
	}

	fields, err := BuildFields(cfg.Fields)
	if err != nil {
		return nil, fmt.Errorf("fields: %w", err)
	}

	reg, err := registry.New(fields, adapters, classes)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}

	store, err := OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	ids := make([]string, 0, len(adapters))
	for _, a := range adapters {
		ids = append(ids, a.Name())
	}
	health := provider.NewHealthTracker(ids, cfg.Sync.HealthWindow, cfg.Sync.HealthThreshold)

	pl := planner.New(reg, health, cal, store, logger)
	merger := reconcile.New(reg, logger)

	retry := planner.DefaultRetryPolicy(provider.Retryable)
	if cfg.Sync.RetryMaxAttempts > 0 {
		retry.MaxAttempts = cfg.Sync.RetryMaxAttempts
	}
	if cfg.Sync.RetryBackoff > 0 {
		retry.BaseBackoff = cfg.Sync.RetryBackoff
	}

	engine := syncer.New(pl, merger, store, health, adapters, syncer.Options{
		Workers:  cfg.Sync.Workers,
		Deadline: cfg.Sync.Deadline,
		Retry:    retry,
		MaxConcurrent: map[string]int{
			quotron.Name:   cfg.Providers.Quotron.MaxConcurrent,
			fundsight.Name: cfg.Providers.Fundsight.MaxConcurrent,
		},
	}, logger)

	return &App{
		Engine:   engine,
		Store:    store,
		Registry: reg,
		Health:   health,
		Config:   cfg,
	}, nil
}

// Close releases owned resources.
func (a *App) Close() {
	a.Store.Close()
}

// BuildCalendar parses the configured holiday lists into an exchange
// calendar.
func BuildCalendar(cfg config.CalendarConfig) (*calendar.Exchange, error) {
	holidays := make(map[string][]model.Date, len(cfg.Holidays))
	for market, days := range cfg.Holidays {
		for _, s := range days {
			d, err := model.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("holiday %q for market %q: %w", s, market, err)
			}
			holidays[market] = append(holidays[market], d)
		}
	}
	return calendar.NewExchange(holidays), nil
}

// BuildAdapters constructs the enabled provider adapters, each wrapped with
// its configured rate limit.
func BuildAdapters(cfg config.ProvidersConfig) []provider.Adapter {
	var adapters []provider.Adapter

	if !cfg.Quotron.Disabled {
		opts := []quotron.ClientOption{
			quotron.WithHTTPClient(httpClientFor(cfg.Quotron)),
		}
		if cfg.Quotron.BaseURL != "" {
			opts = append(opts, quotron.WithBaseURL(cfg.Quotron.BaseURL))
		}
		a := provider.Adapter(quotron.NewAdapter(quotron.NewClient(cfg.Quotron.APIKey, opts...)))
		if cfg.Quotron.MinInterval > 0 {
			a = provider.Throttle(a, cfg.Quotron.MinInterval)
		}
		adapters = append(adapters, a)
	}

	if !cfg.Fundsight.Disabled {
		opts := []fundsight.ClientOption{
			fundsight.WithHTTPClient(httpClientFor(cfg.Fundsight)),
		}
		if cfg.Fundsight.BaseURL != "" {
			opts = append(opts, fundsight.WithBaseURL(cfg.Fundsight.BaseURL))
		}
		a := provider.Adapter(fundsight.NewAdapter(fundsight.NewClient(cfg.Fundsight.APIKey, opts...)))
		if cfg.Fundsight.MinInterval > 0 {
			a = provider.Throttle(a, cfg.Fundsight.MinInterval)
		}
		adapters = append(adapters, a)
	}

	return adapters
}

// httpClientFor builds the transport for one provider. The per-request
// timeout bounds a hung connection so a stuck provider cannot hold its task
// queue until the run deadline.
func httpClientFor(cfg config.ProviderConfig) *http.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultProviderTimeout
	}
	return &http.Client{Timeout: timeout}
}

// BuildFields converts field configuration into registry declarations.
func BuildFields(cfgs []config.FieldConfig) ([]registry.Field, error) {
	fields := make([]registry.Field, 0, len(cfgs))
	for _, fc := range cfgs {
		ft, err := parseFieldType(fc.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Name, err)
		}
		policy, err := parsePolicy(fc.Policy)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", fc.Name, err)
		}
		fields = append(fields, registry.Field{
			Spec: model.FieldSpec{
				Name:        fc.Name,
				Type:        ft,
				Policy:      policy,
				Tolerance:   fc.Tolerance,
				ComputeFrom: fc.ComputeFrom,
			},
			Priority:      fc.Priority,
			ClassPriority: fc.ClassPriority,
		})
	}
	return fields, nil
}

// OpenStorage opens the configured backend.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (storage.Persister, error) {
	switch cfg.Backend {
	case "postgres":
		return postgres.Open(ctx, cfg.Postgres, logger)
	case "sqlite":
		return sqlite.Open(cfg.SQLite.Path, logger)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// ParseInstrument parses a configured symbol like "sh.600000" or "sz.159915"
// into an instrument. The exchange prefix is the market; ETF code ranges are
// classified by their leading digits.
func ParseInstrument(s string) (model.Instrument, error) {
	market, code, ok := strings.Cut(s, ".")
	if !ok || market == "" || code == "" {
		return model.Instrument{}, fmt.Errorf("symbol %q: want market.code", s)
	}
	class := "stock"
	if strings.HasPrefix(code, "51") || strings.HasPrefix(code, "159") {
		class = "etf"
	}
	return model.Instrument{Symbol: s, Market: market, Class: class}, nil
}

// ParseInstruments parses a symbol list, failing on the first bad entry.
func ParseInstruments(symbols []string) ([]model.Instrument, error) {
	insts := make([]model.Instrument, 0, len(symbols))
	for _, s := range symbols {
		inst, err := ParseInstrument(s)
		if err != nil {
			return nil, err
		}
		insts = append(insts, inst)
	}
	return insts, nil
}

func parseFieldType(s string) (model.FieldType, error) {
	switch s {
	case "", "numeric":
		return model.Numeric, nil
	case "enum":
		return model.Enum, nil
	case "date":
		return model.DateField, nil
	}
	return 0, fmt.Errorf("unknown field type %q", s)
}

func parsePolicy(s string) (model.MergePolicy, error) {
	switch s {
	case "", "priority_first":
		return model.PriorityFirst, nil
	case "latest_non_null":
		return model.LatestNonNull, nil
	case "computed":
		return model.Computed, nil
	}
	return 0, fmt.Errorf("unknown merge policy %q", s)
}
