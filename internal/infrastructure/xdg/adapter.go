package xdg

import (
	"os"
	"path/filepath"

	"github.com/bnema/themesync/internal/application/port"
	"github.com/bnema/themesync/internal/infrastructure/config"
)

// Adapter implements port.XDGPaths using config.GetXDGDirs().
type Adapter struct{}

// New creates a new XDG paths adapter.
func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) ConfigDir() (string, error) {
	return config.GetConfigDir()
}

func (a *Adapter) DataDir() (string, error) {
	return config.GetDataDir()
}

func (a *Adapter) StateDir() (string, error) {
	return config.GetStateDir()
}

func (a *Adapter) ConfigFile() (string, error) {
	return config.GetConfigFile()
}

func (a *Adapter) RecordFile() (string, error) {
	return config.GetRecordFile()
}

func (a *Adapter) DatabaseFile() (string, error) {
	return config.GetDatabaseFile()
}

// ManDir is $XDG_DATA_HOME/man/man1, which man searches without MANPATH changes.
func (a *Adapter) ManDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "man", "man1"), nil
}

var _ port.XDGPaths = (*Adapter)(nil)
