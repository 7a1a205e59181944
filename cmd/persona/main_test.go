package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/persona/internal/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigInitWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default().Terminal, cfg.Terminal)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = execute(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[terminal]\ntheme = \"gruvbox\"\n"), 0o644))

	out, err := execute(t, "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "# "+path)
	assert.Contains(t, out, "theme = 'gruvbox'")
}

func TestConfigShowFallsBackOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("not = [toml"), 0o644))

	out, err := execute(t, "config", "show", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning:")
	assert.Contains(t, out, "tokyo-night")
}

func TestPersonasList(t *testing.T) {
	dir := t.TempDir()
	writePersona(t, dir, "sage.md", "---\npersona_id: sage\n---\n# Sage\n")
	writePersona(t, dir, "code-scout.md", "---\npersona_id: scout\n---\nNo heading.\n")

	out, err := execute(t, "personas", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "sage")
	assert.Contains(t, out, "Code Scout")
	assert.Contains(t, out, filepath.Join(dir, "sage.md"))
}

func TestPersonasEmpty(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "personas", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "no personas in "+dir)
}

func TestVersion(t *testing.T) {
	version = "1.2.3"
	t.Cleanup(func() { version = "" })

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "persona 1.2.3\n", out)
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, rootOptions{agent: "/usr/bin/agent", logLevel: "DEBUG"})
	assert.Equal(t, "/usr/bin/agent", cfg.Agent.Command)
	assert.Equal(t, "debug", cfg.Logging.Level)

	applyFlags(cfg, rootOptions{})
	assert.Equal(t, "/usr/bin/agent", cfg.Agent.Command)
}

func TestMemoryClientDisabledWithoutURL(t *testing.T) {
	cfg := config.Default()
	cfg.Berry.ServerURL = ""
	assert.Nil(t, newMemoryClient(cfg, nil, nil))

	cfg.Berry.ServerURL = "http://localhost:4114"
	assert.NotNil(t, newMemoryClient(cfg, nil, nil))
}

func writePersona(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}
