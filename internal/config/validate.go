package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *SyncdConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Storage.SQLite.Path == "" {
			return errors.New("storage.sqlite.path is required")
		}
	case "postgres":
		if err := c.Storage.Postgres.validate("storage.postgres"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("storage.backend must be sqlite or postgres, got %q", c.Storage.Backend)
	}

	if c.Sync.Workers < 1 {
		return errors.New("sync.workers must be >= 1")
	}
	if c.Sync.HealthThreshold <= 0 || c.Sync.HealthThreshold > 1 {
		return errors.New("sync.health_threshold must be in (0, 1]")
	}
	if c.Sync.RetryMaxAttempts < 1 {
		return errors.New("sync.retry_max_attempts must be >= 1")
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return errors.New("fields[].name is required")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true

		switch f.Policy {
		case "", "priority_first", "latest_non_null":
			if len(f.Priority) == 0 && len(f.ClassPriority) == 0 {
				return fmt.Errorf("field %q has no provider priority list", f.Name)
			}
		case "computed":
			if len(f.ComputeFrom) == 0 {
				return fmt.Errorf("computed field %q has no compute_from components", f.Name)
			}
		default:
			return fmt.Errorf("field %q has unknown policy %q", f.Name, f.Policy)
		}
		if f.Tolerance < 0 {
			return fmt.Errorf("field %q has negative tolerance", f.Name)
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Port < 1 || db.Port > 65535 {
		return fmt.Errorf("%s.port must be 1-65535", prefix)
	}
	return nil
}
