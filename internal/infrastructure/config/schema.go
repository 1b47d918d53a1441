// Package config loads themesync configuration from TOML, environment
// variables and defaults.
package config

import (
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
)

// File permission constants
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Config represents the complete configuration for themesync.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" toml:"storage" json:"storage"`
	Detection DetectionConfig `mapstructure:"detection" toml:"detection" json:"detection"`
	Sync      SyncConfig      `mapstructure:"sync" toml:"sync" json:"sync"`
	Analytics AnalyticsConfig `mapstructure:"analytics" toml:"analytics" json:"analytics"`
	Mirror    MirrorConfig    `mapstructure:"mirror" toml:"mirror" json:"mirror"`
	Logging   LoggingConfig   `mapstructure:"logging" toml:"logging" json:"logging"`
}

// BackendKind selects the durable medium.
type BackendKind string

const (
	BackendFile   BackendKind = "file"
	BackendSQLite BackendKind = "sqlite"
	BackendRedis  BackendKind = "redis"
	BackendMemory BackendKind = "memory"
)

// StorageConfig selects and configures the preference backend.
type StorageConfig struct {
	Backend BackendKind `mapstructure:"backend" toml:"backend" json:"backend" jsonschema:"enum=file,enum=sqlite,enum=redis,enum=memory"`
	// Path is the record file (file backend) or database (sqlite backend).
	// Empty means the XDG default for the backend.
	Path string `mapstructure:"path" toml:"path" json:"path"`
	// Key names the record inside sqlite and redis.
	Key         string      `mapstructure:"key" toml:"key" json:"key"`
	ReadTimeout Duration    `mapstructure:"read_timeout" toml:"read_timeout" json:"read_timeout"`
	Redis       RedisConfig `mapstructure:"redis" toml:"redis" json:"redis"`
}

// RedisConfig configures the redis backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" toml:"addr" json:"addr"`
	Password string `mapstructure:"password" toml:"password" json:"password"`
	DB       int    `mapstructure:"db" toml:"db" json:"db"`
	Prefix   string `mapstructure:"prefix" toml:"prefix" json:"prefix"`
	Channel  string `mapstructure:"channel" toml:"channel" json:"channel"`
}

// DetectionConfig controls the OS appearance signal.
type DetectionConfig struct {
	Enabled      bool     `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	PollInterval Duration `mapstructure:"poll_interval" toml:"poll_interval" json:"poll_interval"`
	// Monitor runs push-style watchers such as `gsettings monitor`.
	Monitor bool `mapstructure:"monitor" toml:"monitor" json:"monitor"`
}

// SyncConfig controls cross-instance synchronization.
type SyncConfig struct {
	Enabled bool `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	// Debounce coalesces bursts of file events.
	Debounce Duration `mapstructure:"debounce" toml:"debounce" json:"debounce"`
	// PollInterval is how often the sqlite backend checks for foreign commits.
	PollInterval Duration `mapstructure:"poll_interval" toml:"poll_interval" json:"poll_interval"`
}

// AnalyticsConfig controls best-effort event reporting.
type AnalyticsConfig struct {
	Enabled       bool     `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	Log           bool     `mapstructure:"log" toml:"log" json:"log"`
	Prometheus    bool     `mapstructure:"prometheus" toml:"prometheus" json:"prometheus"`
	Endpoint      string   `mapstructure:"endpoint" toml:"endpoint" json:"endpoint"`
	QueueSize     int      `mapstructure:"queue_size" toml:"queue_size" json:"queue_size"`
	RatePerSecond float64  `mapstructure:"rate_per_second" toml:"rate_per_second" json:"rate_per_second"`
	Timeout       Duration `mapstructure:"timeout" toml:"timeout" json:"timeout"`
	// MetricsAddr serves /metrics during `themesync watch` when set.
	MetricsAddr string `mapstructure:"metrics_addr" toml:"metrics_addr" json:"metrics_addr"`
}

// MirrorConfig controls the one-way remote copy of the record.
type MirrorConfig struct {
	Enabled  bool     `mapstructure:"enabled" toml:"enabled" json:"enabled"`
	Endpoint string   `mapstructure:"endpoint" toml:"endpoint" json:"endpoint"`
	Token    string   `mapstructure:"token" toml:"token" json:"token"`
	Timeout  Duration `mapstructure:"timeout" toml:"timeout" json:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" toml:"level" json:"level" jsonschema:"enum=trace,enum=debug,enum=info,enum=warn,enum=error,enum=disabled"`
	Format string `mapstructure:"format" toml:"format" json:"format" jsonschema:"enum=console,enum=json"`
	// File additionally writes JSON logs to this path when set.
	File string `mapstructure:"file" toml:"file" json:"file"`
}

// Duration is a time.Duration written as "500ms" in TOML and JSON.
type Duration time.Duration

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// JSONSchema describes Duration as a Go duration string.
func (Duration) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
		Description: "Go duration, e.g. 500ms or 5s",
	}
}
