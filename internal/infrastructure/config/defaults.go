package config

import "time"

// Default configuration constants
const (
	defaultBackend     = BackendFile
	defaultKey         = "appearance"
	defaultReadTimeout = 2 * time.Second

	defaultRedisAddr    = "127.0.0.1:6379"
	defaultRedisPrefix  = "themesync"
	defaultRedisChannel = "themesync:preference"

	defaultDetectionPoll = 5 * time.Second
	defaultSyncDebounce  = 50 * time.Millisecond
	defaultSyncPoll      = 500 * time.Millisecond

	defaultQueueSize     = 64
	defaultRatePerSecond = 5.0
	defaultSinkTimeout   = 5 * time.Second
	defaultMirrorTimeout = 5 * time.Second
	defaultLoggingLevel  = "info"
	defaultLoggingFormat = "console"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:     defaultBackend,
			Key:         defaultKey,
			ReadTimeout: Duration(defaultReadTimeout),
			Redis: RedisConfig{
				Addr:    defaultRedisAddr,
				Prefix:  defaultRedisPrefix,
				Channel: defaultRedisChannel,
			},
		},
		Detection: DetectionConfig{
			Enabled:      true,
			PollInterval: Duration(defaultDetectionPoll),
			Monitor:      true,
		},
		Sync: SyncConfig{
			Enabled:      true,
			Debounce:     Duration(defaultSyncDebounce),
			PollInterval: Duration(defaultSyncPoll),
		},
		Analytics: AnalyticsConfig{
			Enabled:       false,
			Log:           true,
			QueueSize:     defaultQueueSize,
			RatePerSecond: defaultRatePerSecond,
			Timeout:       Duration(defaultSinkTimeout),
		},
		Mirror: MirrorConfig{
			Timeout: Duration(defaultMirrorTimeout),
		},
		Logging: LoggingConfig{
			Level:  defaultLoggingLevel,
			Format: defaultLoggingFormat,
		},
	}
}
