package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/pelletier/go-toml/v2"
)

const schemaFileName = "config.schema.json"

// WriteConfig writes cfg as TOML to path, creating parent directories.
func WriteConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), filePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// InitConfigFile writes the default configuration and its JSON schema next
// to path. An existing file is left untouched unless force is set.
func InitConfigFile(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		}
	}
	if err := WriteConfig(DefaultConfig(), path); err != nil {
		return false, err
	}
	if err := WriteSchemaFile(filepath.Join(filepath.Dir(path), schemaFileName)); err != nil {
		return true, err
	}
	return true, nil
}

// Schema returns the JSON schema of the configuration file.
func Schema() *jsonschema.Schema {
	r := new(jsonschema.Reflector)
	r.FieldNameTag = "toml"
	schema := r.Reflect(&Config{})
	schema.ID = "https://github.com/bnema/themesync/config.schema.json"
	schema.Title = "themesync configuration"
	schema.Description = "Configuration schema for themesync, a theme preference sync engine"
	return schema
}

// WriteSchemaFile writes the configuration JSON schema to path.
func WriteSchemaFile(path string) error {
	data, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return nil
}
