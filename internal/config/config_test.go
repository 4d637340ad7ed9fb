package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "syncd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
instance:
  id: test-1
storage:
  backend: sqlite
  sqlite:
    path: /tmp/test.db
`

func TestLoadAndValidate_Minimal(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadAndValidate failed: %v", err)
	}

	if cfg.Instance.ID != "test-1" {
		t.Errorf("Instance.ID = %q, want test-1", cfg.Instance.ID)
	}
	if cfg.Sync.Workers != DefaultWorkers {
		t.Errorf("Sync.Workers = %d, want default %d", cfg.Sync.Workers, DefaultWorkers)
	}
	if cfg.Sync.Deadline != DefaultRunDeadline {
		t.Errorf("Sync.Deadline = %v, want %v", cfg.Sync.Deadline, DefaultRunDeadline)
	}
	if len(cfg.Fields) == 0 {
		t.Error("default field table should be applied")
	}
	if cfg.Providers.Quotron.Timeout != 30*time.Second {
		t.Errorf("Quotron.Timeout = %v, want 30s", cfg.Providers.Quotron.Timeout)
	}
}

func TestLoadAndValidate_MissingInstanceID(t *testing.T) {
	_, err := LoadAndValidate(writeConfig(t, `
storage:
  backend: sqlite
  sqlite:
    path: /tmp/test.db
`))
	if err == nil {
		t.Fatal("expected error for missing instance.id")
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	_, err := LoadAndValidate(writeConfig(t, `
instance:
  id: test-1
storage:
  backend: dynamo
`))
	if err == nil {
		t.Fatal("expected error for unknown storage backend")
	}
}

func TestValidate_PostgresRequiresConnection(t *testing.T) {
	_, err := LoadAndValidate(writeConfig(t, `
instance:
  id: test-1
storage:
  backend: postgres
`))
	if err == nil {
		t.Fatal("expected error for missing postgres connection settings")
	}
}

func TestValidate_ComputedFieldNeedsComponents(t *testing.T) {
	_, err := LoadAndValidate(writeConfig(t, `
instance:
  id: test-1
storage:
  backend: sqlite
  sqlite:
    path: /tmp/test.db
fields:
  - name: money
    type: numeric
    policy: computed
`))
	if err == nil {
		t.Fatal("expected error for computed field without components")
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	t.Setenv("EQUIDATA_TEST_KEY", "sekrit")

	cfg, err := LoadWithDefaults(writeConfig(t, `
instance:
  id: test-1
providers:
  quotron:
    api_key: ${EQUIDATA_TEST_KEY}
storage:
  backend: sqlite
  sqlite:
    path: /tmp/test.db
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Providers.Quotron.APIKey != "sekrit" {
		t.Errorf("APIKey = %q, want expanded env value", cfg.Providers.Quotron.APIKey)
	}
}

func TestDefaultFields_TolerancesByFieldClass(t *testing.T) {
	fields := DefaultFields()
	byName := make(map[string]FieldConfig, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	if byName["close"].Tolerance >= byName["volume"].Tolerance {
		t.Error("price tolerance should be tighter than volume tolerance")
	}
	if byName["money"].Policy != "computed" {
		t.Error("money should be a computed field")
	}
}
