package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "data/stocwatch.db" {
		t.Fatalf("unexpected default db path %q", cfg.DBPath)
	}
	if !cfg.Retention.Enabled || cfg.Retention.Window != 72*time.Hour || cfg.Retention.Interval != 24*time.Hour {
		t.Fatalf("unexpected retention defaults: %+v", cfg.Retention)
	}
	if !cfg.Notify.Enabled {
		t.Fatalf("notify should default to enabled")
	}
}

func TestLoadReadsYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	data := []byte("db_path: /tmp/custom.db\nlisten_addr: 127.0.0.1:9000\nretention:\n  enabled: false\n  window: 24h\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" || cfg.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Retention.Enabled || cfg.Retention.Window != 24*time.Hour {
		t.Fatalf("retention overrides not applied: %+v", cfg.Retention)
	}
}

func TestEffectiveRetentionFallbacks(t *testing.T) {
	cfg := &AppConfig{}
	if w := cfg.EffectiveRetentionWindow(); w != 72*time.Hour {
		t.Fatalf("zero window must fall back to 72h, got %s", w)
	}
	if i := cfg.EffectiveSweepInterval(); i != 24*time.Hour {
		t.Fatalf("zero interval must fall back to 24h, got %s", i)
	}
	cfg.Retention.Window = 30 * time.Minute
	if w := cfg.EffectiveRetentionWindow(); w != 72*time.Hour {
		t.Fatalf("sub-hour window must fall back to 72h, got %s", w)
	}
	cfg.Retention.Window = 7 * 24 * time.Hour
	if w := cfg.EffectiveRetentionWindow(); w != 7*24*time.Hour {
		t.Fatalf("configured window ignored, got %s", w)
	}
}
