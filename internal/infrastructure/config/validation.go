package config

import (
	"fmt"
	"net/url"
	"strings"
)

// validateConfig performs validation of configuration values.
func validateConfig(config *Config) error {
	var validationErrors []string

	validationErrors = append(validationErrors, validateStorage(config)...)
	validationErrors = append(validationErrors, validateDetection(config)...)
	validationErrors = append(validationErrors, validateSync(config)...)
	validationErrors = append(validationErrors, validateAnalytics(config)...)
	validationErrors = append(validationErrors, validateMirror(config)...)
	validationErrors = append(validationErrors, validateLogging(config)...)

	if len(validationErrors) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(validationErrors, "\n  - "))
	}
	return nil
}

func validateStorage(config *Config) []string {
	var validationErrors []string
	switch config.Storage.Backend {
	case BackendFile, BackendSQLite, BackendRedis, BackendMemory:
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("storage.backend must be one of file, sqlite, redis, memory (got %q)", config.Storage.Backend))
	}
	if config.Storage.ReadTimeout.Std() <= 0 {
		validationErrors = append(validationErrors, "storage.read_timeout must be positive")
	}
	if config.Storage.Backend == BackendRedis && config.Storage.Redis.Addr == "" {
		validationErrors = append(validationErrors, "storage.redis.addr is required for the redis backend")
	}
	if config.Storage.Redis.DB < 0 {
		validationErrors = append(validationErrors, "storage.redis.db must be non-negative")
	}
	return validationErrors
}

func validateDetection(config *Config) []string {
	if config.Detection.PollInterval.Std() < 0 {
		return []string{"detection.poll_interval must be non-negative"}
	}
	return nil
}

func validateSync(config *Config) []string {
	var validationErrors []string
	if config.Sync.Debounce.Std() < 0 {
		validationErrors = append(validationErrors, "sync.debounce must be non-negative")
	}
	if config.Sync.PollInterval.Std() < 0 {
		validationErrors = append(validationErrors, "sync.poll_interval must be non-negative")
	}
	return validationErrors
}

func validateAnalytics(config *Config) []string {
	var validationErrors []string
	a := config.Analytics
	if a.QueueSize < 0 {
		validationErrors = append(validationErrors, "analytics.queue_size must be non-negative")
	}
	if a.RatePerSecond < 0 {
		validationErrors = append(validationErrors, "analytics.rate_per_second must be non-negative")
	}
	if a.Endpoint != "" && !isHTTPURL(a.Endpoint) {
		validationErrors = append(validationErrors, "analytics.endpoint must be an http(s) URL")
	}
	return validationErrors
}

func validateMirror(config *Config) []string {
	m := config.Mirror
	if !m.Enabled {
		return nil
	}
	if !isHTTPURL(m.Endpoint) {
		return []string{"mirror.endpoint must be an http(s) URL when mirror.enabled is true"}
	}
	return nil
}

func validateLogging(config *Config) []string {
	var validationErrors []string
	switch config.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled", "off":
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("logging.level must be one of trace, debug, info, warn, error, disabled (got %q)", config.Logging.Level))
	}
	switch config.Logging.Format {
	case "console", "json":
	default:
		validationErrors = append(validationErrors,
			fmt.Sprintf("logging.format must be one of console, json (got %q)", config.Logging.Format))
	}
	return validationErrors
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
