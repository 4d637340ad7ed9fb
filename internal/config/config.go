package config

import "time"

// SyncdConfig is the root configuration for a sync daemon instance.
type SyncdConfig struct {
	Instance  InstanceConfig  `yaml:"instance"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
	Sync      SyncConfig      `yaml:"sync"`
	Fields    []FieldConfig   `yaml:"fields"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
}

// InstanceConfig identifies this daemon.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ProvidersConfig holds per-source settings.
type ProvidersConfig struct {
	Quotron   ProviderConfig `yaml:"quotron"`
	Fundsight ProviderConfig `yaml:"fundsight"`
}

// ProviderConfig holds one external source's transport settings.
type ProviderConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Timeout       time.Duration `yaml:"timeout"`
	MinInterval   time.Duration `yaml:"min_interval"`   // minimum time between calls
	MaxConcurrent int           `yaml:"max_concurrent"` // per-provider in-flight bound
	Disabled      bool          `yaml:"disabled"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Backend  string       `yaml:"backend"` // "postgres" or "sqlite"
	Postgres DBConfig     `yaml:"postgres"`
	SQLite   SQLiteConfig `yaml:"sqlite"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// SQLiteConfig holds the embedded database settings.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig holds engine-wide settings for a sync run.
type SyncConfig struct {
	Workers          int           `yaml:"workers"`  // instrument-level worker pool size
	Deadline         time.Duration `yaml:"deadline"` // per-run deadline
	HealthWindow     int           `yaml:"health_window"`
	HealthThreshold  float64       `yaml:"health_threshold"`
	ProbeInterval    time.Duration `yaml:"probe_interval"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
}

// FieldConfig declares one canonical field and its provider priority.
type FieldConfig struct {
	Name          string              `yaml:"name"`
	Type          string              `yaml:"type"`   // numeric, enum, date
	Policy        string              `yaml:"policy"` // priority_first, latest_non_null, computed
	Tolerance     float64             `yaml:"tolerance"`
	ComputeFrom   []string            `yaml:"compute_from"`
	Priority      []string            `yaml:"priority"`
	ClassPriority map[string][]string `yaml:"class_priority"`
}

// CalendarConfig lists exchange holidays per market, YYYY-MM-DD.
type CalendarConfig struct {
	Holidays map[string][]string `yaml:"holidays"`
}

// ScheduleConfig drives the daemon's periodic sync runs.
type ScheduleConfig struct {
	Cron         string   `yaml:"cron"`
	Symbols      []string `yaml:"symbols"`
	LookbackDays int      `yaml:"lookback_days"`
	Fields       []string `yaml:"fields"` // empty = all configured fields
}
