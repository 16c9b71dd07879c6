package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Conversation.HistoryWindow)
	assert.Equal(t, 2, cfg.Conversation.ConfirmTTLTurns)
	assert.Equal(t, "gemini-2.0-flash", cfg.LLM.Model)
	assert.False(t, cfg.LLM.Enabled)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
conversation:
  history_window: 5
store:
  database_path: /tmp/x.db
logging:
  debug_mode: true
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Conversation.HistoryWindow)
	assert.Equal(t, "/tmp/x.db", cfg.Store.DatabasePath)
	assert.True(t, cfg.Logging.DebugMode)
	// untouched values keep defaults
	assert.Equal(t, 2, cfg.Conversation.ConfirmTTLTurns)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("SALAATFLOW_DB_PATH", "/tmp/env.db")
	t.Setenv("SALAATFLOW_DEBUG", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "/tmp/env.db", cfg.Store.DatabasePath)
	assert.True(t, cfg.Logging.DebugMode)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := Default()
	cfg.Conversation.HistoryWindow = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Conversation.HistoryWindow)
}

func TestInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}
