package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch starts watching the config file for changes and reloads automatically.
// Invalid edits are logged and the previous configuration stays active.
func (m *Manager) Watch(logger zerolog.Logger) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil
	}

	m.viper.OnConfigChange(func(event fsnotify.Event) {
		m.mu.Lock()
		config, err := m.read()
		if err != nil {
			m.mu.Unlock()
			logger.Warn().Err(err).Str("file", event.Name).Msg("config reload failed, keeping previous configuration")
			return
		}
		m.config = config
		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		logger.Info().Str("file", event.Name).Msg("config reloaded")
		for _, callback := range callbacks {
			configCopy := *config
			callback(&configCopy)
		}
	})
	m.viper.WatchConfig()

	m.watching = true
	return nil
}

// OnConfigChange registers a callback function to be called when config changes.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}
