package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const validYAML = `
logging:
  level: debug
  console: true
  file:
    enabled: false
    path: ""
slack:
  webhook_url: https://hooks.slack.com/services/T000/B000/XXX
  signing_secret: shhh
ctftime:
  days_ahead: 14
  timeout: 10s
storage:
  driver: file
  path: ./data
server:
  enabled: true
  addr: "127.0.0.1:8787"
scheduler:
  enabled: true
  reminder_spec: "*/10 * * * *"
  poll_spec: "@hourly"
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeConfig(t, "config.yaml", validYAML))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.CTFTime.DaysAhead != 14 {
		t.Fatalf("CTFTime.DaysAhead = %d, want 14", cfg.CTFTime.DaysAhead)
	}
	if cfg.Scheduler.PollSpec != "@hourly" {
		t.Fatalf("Scheduler.PollSpec = %q", cfg.Scheduler.PollSpec)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get() should return the committed config")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	body := strings.Replace(validYAML, "scheduler:", "schedulr_typo: {}\nscheduler:", 1)
	m := NewManager(writeConfig(t, "config.yaml", body))
	if _, err := m.Parse(); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "missing webhook", mutate: func(c *Config) { c.Slack.WebhookURL = "" }, wantErr: "webhook_url"},
		{name: "non-slack webhook", mutate: func(c *Config) { c.Slack.WebhookURL = "https://example.com/x" }, wantErr: "hooks.slack.com"},
		{name: "missing driver", mutate: func(c *Config) { c.Storage.Driver = "" }, wantErr: "storage.driver"},
		{name: "bad duration", mutate: func(c *Config) { c.CTFTime.Timeout = "never" }, wantErr: "ctftime.timeout"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Slack:   SlackConfig{WebhookURL: "https://hooks.slack.com/services/T/B/X"},
				Storage: StorageConfig{Driver: "file", Path: "./data"},
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("x", "", 5)
	if err != nil || d != 5 {
		t.Fatalf("got (%v, %v), want (5, nil)", d, err)
	}
	if _, err := ParseDurationField("x", "-1s"); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestDurationAccessors(t *testing.T) {
	t.Parallel()

	if d, err := (CTFTimeConfig{}).RequestTimeout(); err != nil || d != defaultCatalogTimeout {
		t.Fatalf("RequestTimeout = (%v, %v), want default", d, err)
	}
	if d, err := (CTFTimeConfig{Timeout: "30s"}).RequestTimeout(); err != nil || d != 30*time.Second {
		t.Fatalf("RequestTimeout = (%v, %v), want 30s", d, err)
	}

	// Unset busy_timeout means driver default, not our own.
	if d, err := (StorageConfig{}).BusyDuration(); err != nil || d != 0 {
		t.Fatalf("BusyDuration = (%v, %v), want zero", d, err)
	}

	if d, err := (SchedulerConfig{DefaultTimeout: "90s"}).JobTimeout(); err != nil || d != 90*time.Second {
		t.Fatalf("JobTimeout = (%v, %v), want 90s", d, err)
	}

	read, write, idle, err := (ServerConfig{ReadTimeout: "5s"}).Timeouts()
	if err != nil {
		t.Fatalf("Timeouts: %v", err)
	}
	if read != 5*time.Second || write != defaultWriteTimeout || idle != defaultIdleTimeout {
		t.Fatalf("Timeouts = (%v, %v, %v)", read, write, idle)
	}
	if _, _, _, err := (ServerConfig{IdleTimeout: "nope"}).Timeouts(); err == nil {
		t.Fatal("expected error for malformed idle_timeout")
	}
}
