package config

import (
	"errors"
	"fmt"
	"strings"
)

type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Slack     SlackConfig     `json:"slack"`
	CTFTime   CTFTimeConfig   `json:"ctftime"`
	Storage   StorageConfig   `json:"storage"`
	Server    ServerConfig    `json:"server,omitempty"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// SlackConfig controls the outbound webhook and inbound slash commands.
type SlackConfig struct {
	// WebhookURL is the Slack incoming-webhook endpoint for notifications.
	WebhookURL string `json:"webhook_url"`
	// SigningSecret verifies inbound slash-command requests.
	// Leave empty to disable verification (local testing only).
	SigningSecret string `json:"signing_secret,omitempty"`
	// RatePerSec caps outbound webhook posts. Default 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// CTFTimeConfig controls the event catalog client.
//
// All durations are Go duration strings (e.g. "10s", "1m").
type CTFTimeConfig struct {
	BaseURL   string `json:"base_url,omitempty"`   // default: https://ctftime.org/api/v1
	UserAgent string `json:"user_agent,omitempty"` // the API rejects requests without one
	DaysAhead int    `json:"days_ahead,omitempty"` // look-ahead window for new-event polls, default 30
	// Timeout bounds every catalog request. Default "15s".
	Timeout string `json:"timeout,omitempty"`
	// RatePerSec caps catalog requests. Default 1.
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// StorageConfig controls the persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./data" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// ServerConfig controls the slash-command HTTP server.
type ServerConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr,omitempty"` // default: ":8787"
	// DebugPprof mounts the pprof handlers under /debug/pprof/.
	// Keep this off unless the listener is private.
	DebugPprof bool `json:"debug_pprof,omitempty"`

	// Server timeouts (Go duration strings).
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// SchedulerConfig controls the trigger service.
//
// ReminderSpec and PollSpec accept a cron expression ("*/10 * * * *"),
// a descriptor ("@hourly"), or an interval ("10m", "interval:10m",
// or HH:MM like "02:30").
type SchedulerConfig struct {
	Enabled      bool   `json:"enabled"`
	Timezone     string `json:"timezone,omitempty"`
	ReminderSpec string `json:"reminder_spec,omitempty"` // default: "*/10 * * * *"
	PollSpec     string `json:"poll_spec,omitempty"`     // default: "@hourly"
	Workers      int    `json:"workers,omitempty"`
	// DefaultTimeout bounds one scheduled run. Default "2m".
	DefaultTimeout string `json:"default_timeout,omitempty"`
	HistorySize    int    `json:"history_size,omitempty"`
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	hook := strings.TrimSpace(c.Slack.WebhookURL)
	if hook == "" {
		return errors.New("slack.webhook_url is required")
	}
	if !strings.HasPrefix(hook, "https://hooks.slack.com/") {
		return fmt.Errorf("slack.webhook_url must start with https://hooks.slack.com/, got %q", hook)
	}
	if c.CTFTime.DaysAhead < 0 {
		return errors.New("ctftime.days_ahead must be >= 0")
	}
	if d := strings.TrimSpace(c.Storage.Driver); d == "" {
		return errors.New("storage.driver is required (file or sqlite)")
	}
	for path, raw := range map[string]string{
		"ctftime.timeout":           c.CTFTime.Timeout,
		"storage.busy_timeout":      c.Storage.BusyTimeout,
		"server.read_timeout":       c.Server.ReadTimeout,
		"server.write_timeout":      c.Server.WriteTimeout,
		"server.idle_timeout":       c.Server.IdleTimeout,
		"scheduler.default_timeout": c.Scheduler.DefaultTimeout,
	} {
		if _, err := ParseDurationField(path, raw); err != nil {
			return err
		}
	}
	return nil
}
