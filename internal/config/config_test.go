package config_test

import (
	"testing"

	"github.com/ntsseq/sequentializer/internal/config"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	cfg, err := config.LoadFromReader("yaml", []byte(``))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected default retry.max_attempts=3, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log.level=info, got %q", cfg.Log.Level)
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	yaml := []byte(`
threads: 4
no_por: true
store_dsn: "file:runs.db"
retry:
  max_attempts: 5
  base_delay_ms: 50
  max_delay_ms: 500
`)
	cfg, err := config.LoadFromReader("yaml", yaml)
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.Threads != 4 || !cfg.NoPOR || cfg.StoreDSN != "file:runs.db" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.Retry.MaxAttempts != 5 || cfg.Retry.BaseDelayMs != 50 || cfg.Retry.MaxDelayMs != 500 {
		t.Fatalf("unexpected retry cfg: %+v", cfg.Retry)
	}
}

func TestValidate_RejectsInvertedDelays(t *testing.T) {
	yaml := []byte(`
retry:
  max_attempts: 3
  base_delay_ms: 500
  max_delay_ms: 100
`)
	if _, err := config.LoadFromReader("yaml", yaml); err == nil {
		t.Fatalf("expected an error when max_delay_ms < base_delay_ms")
	}
}
