package config

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the duration-typed settings. Kept here, next to the
// accessors, so a config with every duration left blank still gets sane
// bounds everywhere.
const (
	defaultCatalogTimeout = 15 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = time.Minute
	defaultJobTimeout     = 2 * time.Minute
)

// ParseDurationField parses a duration-string setting. Empty means unset
// and yields zero; negative durations are rejected. path names the setting
// in errors ("server.read_timeout").
func ParseDurationField(path, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", path, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", path)
	}
	return d, nil
}

// ParseDurationOrDefault is ParseDurationField with unset falling back to def.
func ParseDurationOrDefault(path, raw string, def time.Duration) (time.Duration, error) {
	d, err := ParseDurationField(path, raw)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}

// RequestTimeout resolves the catalog client timeout.
func (c CTFTimeConfig) RequestTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("ctftime.timeout", c.Timeout, defaultCatalogTimeout)
}

// BusyDuration resolves the sqlite busy_timeout; zero means the driver default.
func (c StorageConfig) BusyDuration() (time.Duration, error) {
	return ParseDurationField("storage.busy_timeout", c.BusyTimeout)
}

// JobTimeout resolves the per-run bound for scheduled jobs.
func (c SchedulerConfig) JobTimeout() (time.Duration, error) {
	return ParseDurationOrDefault("scheduler.default_timeout", c.DefaultTimeout, defaultJobTimeout)
}

// Timeouts resolves the HTTP server read/write/idle timeouts.
func (c ServerConfig) Timeouts() (read, write, idle time.Duration, err error) {
	if read, err = ParseDurationOrDefault("server.read_timeout", c.ReadTimeout, defaultReadTimeout); err != nil {
		return 0, 0, 0, err
	}
	if write, err = ParseDurationOrDefault("server.write_timeout", c.WriteTimeout, defaultWriteTimeout); err != nil {
		return 0, 0, 0, err
	}
	if idle, err = ParseDurationOrDefault("server.idle_timeout", c.IdleTimeout, defaultIdleTimeout); err != nil {
		return 0, 0, 0, err
	}
	return read, write, idle, nil
}
