package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(root, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(root, "state"))
	t.Setenv("THEMESYNC_STORAGE_BACKEND", "file")
	t.Setenv("THEMESYNC_DETECTION_ENABLED", "false")
	t.Setenv("THEMESYNC_LOG_LEVEL", "disabled")
	return root
}

// run executes the root command the way main does and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFileFlag, jsonOutput = "", false
	schemaKind, configForce = schemaKindRecord, false
	app = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestPreferenceCommands(t *testing.T) {
	isolate(t)

	out, err := run(t, "get")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "set", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = run(t, "get")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out, "choice survives the previous process")

	out, err = run(t, "toggle")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = run(t, "get", "--json")
	require.NoError(t, err)
	var snap snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "light", string(snap.Theme))
	assert.True(t, snap.UserSet)
	assert.Equal(t, "resolved", snap.State)
	assert.NotNil(t, snap.LastUpdated)

	out, err = run(t, "reset", "--json")
	require.NoError(t, err)
	snap = snapshotJSON{}
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.False(t, snap.UserSet)
	assert.Equal(t, "light", string(snap.Theme))
}

func TestSetSystemWithoutSignal(t *testing.T) {
	isolate(t)

	out, err := run(t, "set", "system", "--json")
	require.NoError(t, err)

	var snap snapshotJSON
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Equal(t, "system", string(snap.Mode))
	assert.Equal(t, "light", string(snap.Theme))
	assert.False(t, snap.SignalSupported)
	assert.True(t, snap.UserSet)
}

func TestSetRejectsUnknownMode(t *testing.T) {
	isolate(t)

	_, err := run(t, "set", "sepia")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sepia")
}

func TestStatusJSON(t *testing.T) {
	isolate(t)

	out, err := run(t, "status", "--json")
	require.NoError(t, err)

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "file", status["backend"])
	assert.Equal(t, "light", status["theme"])
	assert.NotEmpty(t, status["instance_id"])
}

func TestSchemaCommand(t *testing.T) {
	isolate(t)

	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "schema_version")

	out, err = run(t, "schema", "--kind", "config")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, "read_timeout")

	_, err = run(t, "schema", "--kind", "yaml")
	assert.Error(t, err)
}

func TestConfigInit(t *testing.T) {
	root := isolate(t)
	path := filepath.Join(root, "config", "themesync", "config.toml")

	_, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.FileExists(t, filepath.Join(filepath.Dir(path), "config.schema.json"))

	require.NoError(t, os.WriteFile(path, []byte("[storage]\nbackend = 'memory'\n"), 0o600))
	out, err := run(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "memory", "existing file left untouched")

	out, err = run(t, "config", "path")
	require.NoError(t, err)
	assert.Contains(t, out, path)
}

func TestGenerateMarkdownDocs(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	require.NoError(t, generateDocs(rootCmd, docsFormatMarkdown, dir, &out))

	assert.FileExists(t, filepath.Join(dir, "themesync.md"))
	assert.FileExists(t, filepath.Join(dir, "themesync_set.md"))
	assert.True(t, strings.Contains(out.String(), "themesync_watch.md"))
}

func TestDocsOutputDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dir, err := docsOutputDir(docsFormatMan, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "man", "man1"), dir)

	dir, err = docsOutputDir(docsFormatMarkdown, "./out")
	require.NoError(t, err)
	assert.Equal(t, "./out", dir)

	_, err = docsOutputDir("html", "")
	assert.Error(t, err)
}
