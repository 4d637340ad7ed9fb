package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultStorageBackend   = "sqlite"
	DefaultSQLitePath       = "data/equidata.db"
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 10
	DefaultMinConns         = 2
	DefaultProviderTimeout  = 30 * time.Second
	DefaultMinInterval      = 200 * time.Millisecond
	DefaultMaxConcurrent    = 4
	DefaultWorkers          = 8
	DefaultRunDeadline      = 30 * time.Minute
	DefaultHealthWindow     = 20
	DefaultHealthThreshold  = 0.7
	DefaultProbeInterval    = time.Minute
	DefaultRetryMaxAttempts = 3
	DefaultRetryBackoff     = time.Second
	DefaultCron             = "0 30 17 * * 1-5" // weekdays after market close
	DefaultLookbackDays     = 30
)

func (c *SyncdConfig) applyDefaults() {
	applyProviderDefaults(&c.Providers.Quotron)
	applyProviderDefaults(&c.Providers.Fundsight)

	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultStorageBackend
	}
	if c.Storage.SQLite.Path == "" {
		c.Storage.SQLite.Path = DefaultSQLitePath
	}
	applyDBDefaults(&c.Storage.Postgres)

	if c.Sync.Workers == 0 {
		c.Sync.Workers = DefaultWorkers
	}
	if c.Sync.Deadline == 0 {
		c.Sync.Deadline = DefaultRunDeadline
	}
	if c.Sync.HealthWindow == 0 {
		c.Sync.HealthWindow = DefaultHealthWindow
	}
	if c.Sync.HealthThreshold == 0 {
		c.Sync.HealthThreshold = DefaultHealthThreshold
	}
	if c.Sync.ProbeInterval == 0 {
		c.Sync.ProbeInterval = DefaultProbeInterval
	}
	if c.Sync.RetryMaxAttempts == 0 {
		c.Sync.RetryMaxAttempts = DefaultRetryMaxAttempts
	}
	if c.Sync.RetryBackoff == 0 {
		c.Sync.RetryBackoff = DefaultRetryBackoff
	}

	if len(c.Fields) == 0 {
		c.Fields = DefaultFields()
	}

	if c.Schedule.Cron == "" {
		c.Schedule.Cron = DefaultCron
	}
	if c.Schedule.LookbackDays == 0 {
		c.Schedule.LookbackDays = DefaultLookbackDays
	}
}

func applyProviderDefaults(p *ProviderConfig) {
	if p.Timeout == 0 {
		p.Timeout = DefaultProviderTimeout
	}
	if p.MinInterval == 0 {
		p.MinInterval = DefaultMinInterval
	}
	if p.MaxConcurrent == 0 {
		p.MaxConcurrent = DefaultMaxConcurrent
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}

// DefaultFields is the canonical daily schema used when the config declares
// none: OHLCV plus valuation ratios, trading status and fundamentals.
// Tolerances are tight for prices and loose for volume, which settles late on
// some sources.
func DefaultFields() []FieldConfig {
	priority := []string{"quotron", "fundsight"}
	fields := []FieldConfig{
		{Name: "open", Type: "numeric", Tolerance: 0.005},
		{Name: "high", Type: "numeric", Tolerance: 0.005},
		{Name: "low", Type: "numeric", Tolerance: 0.005},
		{Name: "close", Type: "numeric", Tolerance: 0.005},
		{Name: "volume", Type: "numeric", Tolerance: 0.10},
		{Name: "money", Type: "numeric", Policy: "computed", ComputeFrom: []string{"close", "volume"}},
		{Name: "pe_ttm", Type: "numeric", Tolerance: 0.05},
		{Name: "pb", Type: "numeric", Tolerance: 0.05},
		{Name: "ps_ttm", Type: "numeric", Tolerance: 0.05},
		{Name: "turnover_rate", Type: "numeric", Tolerance: 0.10},
		{Name: "is_st", Type: "enum", Policy: "latest_non_null"},
		{Name: "trade_status", Type: "enum", Policy: "latest_non_null"},
		// Fundamentals are stock-only: an empty class override tells the
		// registry the field is deliberately absent for ETFs.
		{Name: "eps_ttm", Type: "numeric", Tolerance: 0.05, Priority: []string{"fundsight"},
			ClassPriority: map[string][]string{"etf": {}}},
		{Name: "roe", Type: "numeric", Tolerance: 0.05, Priority: []string{"fundsight"},
			ClassPriority: map[string][]string{"etf": {}}},
		{Name: "roa", Type: "numeric", Tolerance: 0.05, Priority: []string{"fundsight"},
			ClassPriority: map[string][]string{"etf": {}}},
	}
	for i := range fields {
		if len(fields[i].Priority) == 0 && fields[i].Policy != "computed" {
			fields[i].Priority = priority
		}
	}
	return fields
}
