package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFromYAML(t *testing.T) {
	raw := `
database:
  url: postgres://localhost:5432/taskdeck
worker:
  poll_every: 45s
  max_per_tenant: 200
  tenant_concurrency: 8
  items_per_second: 25
  tenant_timeout: 2m
  item_timeout: 10s
cron:
  spec: "*/5 * * * *"
  timezone: UTC
logging:
  level: debug
`
	cfg, err := FromYAML([]byte(raw))
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}

	opts, err := cfg.WorkerOptions()
	if err != nil {
		t.Fatalf("WorkerOptions: %v", err)
	}
	if opts.PollEvery != 45*time.Second {
		t.Fatalf("poll_every = %v", opts.PollEvery)
	}
	if opts.MaxPerTenant != 200 || opts.TenantConcurrency != 8 {
		t.Fatalf("worker opts = %+v", opts)
	}
	if opts.MaxItemsPerSecond != 25 {
		t.Fatalf("items_per_second = %v", opts.MaxItemsPerSecond)
	}
	if opts.TenantTimeout != 2*time.Minute || opts.ItemTimeout != 10*time.Second {
		t.Fatalf("timeouts = %v / %v", opts.TenantTimeout, opts.ItemTimeout)
	}
	if cfg.Cron.Spec != "*/5 * * * *" || cfg.Cron.Timezone != "UTC" {
		t.Fatalf("cron = %+v", cfg.Cron)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Fatalf("level = %v", cfg.Level())
	}
}

func TestFromYAMLRequiresDatabaseURL(t *testing.T) {
	_, err := FromYAML([]byte("worker:\n  max_per_tenant: 10\n"))
	if err == nil || !strings.Contains(err.Error(), "database.url") {
		t.Fatalf("err = %v, want database.url error", err)
	}
}

func TestFromYAMLBadDuration(t *testing.T) {
	raw := "database:\n  url: postgres://x\nworker:\n  poll_every: soon\n"
	_, err := FromYAML([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "worker.poll_every") {
		t.Fatalf("err = %v, want poll_every error", err)
	}
}

func TestFromYAMLNegativeValues(t *testing.T) {
	raw := "database:\n  url: postgres://x\nworker:\n  items_per_second: -1\n"
	if _, err := FromYAML([]byte(raw)); err == nil {
		t.Fatalf("expected error for negative items_per_second")
	}
}

func TestLevelDefaults(t *testing.T) {
	var cfg Config
	if cfg.Level() != slog.LevelInfo {
		t.Fatalf("default level = %v", cfg.Level())
	}
	cfg.Logging.Level = "WARNING"
	if cfg.Level() != slog.LevelWarn {
		t.Fatalf("warning level = %v", cfg.Level())
	}
	cfg.Logging.Level = "nonsense"
	if cfg.Level() != slog.LevelInfo {
		t.Fatalf("unknown level = %v", cfg.Level())
	}
}

func TestParseDurationField(t *testing.T) {
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty = %v, %v", d, err)
	}
	if d, err := ParseDurationField("x", " 1m30s "); err != nil || d != 90*time.Second {
		t.Fatalf("1m30s = %v, %v", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatalf("expected error for negative duration")
	}
}
