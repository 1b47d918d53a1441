package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. THEMESYNC_STORAGE_BACKEND.
const EnvPrefix = "THEMESYNC"

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	file      string
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a configuration manager reading configFile.
// An empty configFile selects the XDG default.
func NewManager(configFile string) (*Manager, error) {
	if configFile == "" {
		var err error
		configFile, err = GetConfigFile()
		if err != nil {
			return nil, fmt.Errorf("failed to get config file: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(configFile)
	v.SetConfigType("toml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Short aliases shared with the bootstrap logger.
	bindings := map[string]string{
		"logging.level":  EnvPrefix + "_LOG_LEVEL",
		"logging.format": EnvPrefix + "_LOG_FORMAT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	m := &Manager{
		viper:     v,
		file:      configFile,
		callbacks: make([]func(*Config), 0),
	}
	m.setDefaults()
	return m, nil
}

// BindFlag lets a command line flag override key when the flag is set.
func (m *Manager) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %s is nil", key)
	}
	return m.viper.BindPFlag(key, flag)
}

// Load reads the config file if present, applies environment overrides and
// validates the result. A missing file leaves the defaults in place.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, err := m.read()
	if err != nil {
		return err
	}
	m.config = config
	return nil
}

// read must be called with the lock held.
func (m *Manager) read() (*Config, error) {
	if err := m.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{}
	if err := m.viper.Unmarshal(config, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := normalizeConfig(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// normalizeConfig canonicalizes enum strings and fills backend paths.
func normalizeConfig(config *Config) error {
	config.Storage.Backend = BackendKind(strings.ToLower(strings.TrimSpace(string(config.Storage.Backend))))
	config.Logging.Level = strings.ToLower(strings.TrimSpace(config.Logging.Level))
	config.Logging.Format = strings.ToLower(strings.TrimSpace(config.Logging.Format))

	if config.Storage.Path != "" {
		return nil
	}
	switch config.Storage.Backend {
	case BackendFile:
		path, err := GetRecordFile()
		if err != nil {
			return fmt.Errorf("failed to get record path: %w", err)
		}
		config.Storage.Path = path
	case BackendSQLite:
		path, err := GetDatabaseFile()
		if err != nil {
			return fmt.Errorf("failed to get database path: %w", err)
		}
		config.Storage.Path = path
	}
	return nil
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.config == nil {
		return DefaultConfig()
	}
	configCopy := *m.config
	return &configCopy
}

// ConfigFile returns the path of the configuration file, whether or not it exists.
func (m *Manager) ConfigFile() string {
	return m.file
}

// Exists reports whether the configuration file is present on disk.
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.file)
	return err == nil
}

// setDefaults sets default configuration values in Viper.
// Durations are registered as strings so files, env and defaults decode alike.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	// Storage defaults
	m.viper.SetDefault("storage.backend", string(defaults.Storage.Backend))
	m.viper.SetDefault("storage.path", defaults.Storage.Path)
	m.viper.SetDefault("storage.key", defaults.Storage.Key)
	m.viper.SetDefault("storage.read_timeout", defaults.Storage.ReadTimeout.String())
	m.viper.SetDefault("storage.redis.addr", defaults.Storage.Redis.Addr)
	m.viper.SetDefault("storage.redis.password", defaults.Storage.Redis.Password)
	m.viper.SetDefault("storage.redis.db", defaults.Storage.Redis.DB)
	m.viper.SetDefault("storage.redis.prefix", defaults.Storage.Redis.Prefix)
	m.viper.SetDefault("storage.redis.channel", defaults.Storage.Redis.Channel)

	// Detection defaults
	m.viper.SetDefault("detection.enabled", defaults.Detection.Enabled)
	m.viper.SetDefault("detection.poll_interval", defaults.Detection.PollInterval.String())
	m.viper.SetDefault("detection.monitor", defaults.Detection.Monitor)

	// Sync defaults
	m.viper.SetDefault("sync.enabled", defaults.Sync.Enabled)
	m.viper.SetDefault("sync.debounce", defaults.Sync.Debounce.String())
	m.viper.SetDefault("sync.poll_interval", defaults.Sync.PollInterval.String())

	// Analytics defaults
	m.viper.SetDefault("analytics.enabled", defaults.Analytics.Enabled)
	m.viper.SetDefault("analytics.log", defaults.Analytics.Log)
	m.viper.SetDefault("analytics.prometheus", defaults.Analytics.Prometheus)
	m.viper.SetDefault("analytics.endpoint", defaults.Analytics.Endpoint)
	m.viper.SetDefault("analytics.queue_size", defaults.Analytics.QueueSize)
	m.viper.SetDefault("analytics.rate_per_second", defaults.Analytics.RatePerSecond)
	m.viper.SetDefault("analytics.timeout", defaults.Analytics.Timeout.String())
	m.viper.SetDefault("analytics.metrics_addr", defaults.Analytics.MetricsAddr)

	// Mirror defaults
	m.viper.SetDefault("mirror.enabled", defaults.Mirror.Enabled)
	m.viper.SetDefault("mirror.endpoint", defaults.Mirror.Endpoint)
	m.viper.SetDefault("mirror.token", defaults.Mirror.Token)
	m.viper.SetDefault("mirror.timeout", defaults.Mirror.Timeout.String())

	// Logging defaults
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.file", defaults.Logging.File)
}
