package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.StaggerDelay)
	assert.Equal(t, time.Hour, cfg.Storage.SessionTTL)
	assert.Equal(t, "gemini-3-pro-preview", cfg.Pipeline.Models["deep"]["pro"])
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Pipeline.Models["fast"]["lite"])
}

func TestLoad_FileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
server:
  port: 9191
storage:
  driver: sqlite
  sqlite_path: /tmp/sessions.db
pipeline:
  stagger_delay: 500ms
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/sessions.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.StaggerDelay)
	// Untouched sections keep their defaults.
	assert.Equal(t, "gemini-3-flash-preview", cfg.Pipeline.Models["standard"]["flash"])
}

func TestLoad_InvalidDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: etcd\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "etcd")
}

func TestLoad_MissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
pipeline:
  models:
    standard:
      flash: ""
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flash")
}
