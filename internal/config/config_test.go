package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "data/snapshot.db", cfg.Snapshot.Path)
	assert.Equal(t, 25, cfg.Answers.PageSize)
	assert.False(t, cfg.Planner.Enabled)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
snapshot:
  path: /srv/farm/snapshot.db
  watch: false
answers:
  page_size: 40
logging:
  level: debug
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/farm/snapshot.db", cfg.Snapshot.Path)
	assert.False(t, cfg.Snapshot.Watch)
	assert.Equal(t, 40, cfg.Answers.PageSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched sections keep their defaults.
	assert.Equal(t, "gemini-2.0-flash", cfg.Planner.Model)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot: ["), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("COPILOT_SNAPSHOT", "/tmp/alt.db")
	t.Setenv("COPILOT_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.Planner.APIKey)
	assert.True(t, cfg.Planner.Enabled)
	assert.Equal(t, "/tmp/alt.db", cfg.Snapshot.Path)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Answers.PageSize = 60
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, loaded.Answers.PageSize)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	cfg.Snapshot.Path = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Planner.Enabled = true
	assert.Error(t, cfg.Validate())
	cfg.Planner.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}
