package port

// XDGPaths provides XDG Base Directory paths.
type XDGPaths interface {
	ConfigDir() (string, error)
	DataDir() (string, error)
	StateDir() (string, error)

	// ConfigFile is the TOML configuration file.
	ConfigFile() (string, error)
	// RecordFile is the default record of the file backend.
	RecordFile() (string, error)
	// DatabaseFile is the default database of the sqlite backend.
	DatabaseFile() (string, error)
	// ManDir is where generated man pages are installed.
	ManDir() (string, error)
}
