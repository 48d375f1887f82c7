package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, 5*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 12, cfg.Thresholds.MinPasswordLength)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "workers: 2\nprobe_timeout: 10s\nthresholds:\n  min_password_length: 14\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 10*time.Second, cfg.ProbeTimeout)
	assert.Equal(t, 14, cfg.Thresholds.MinPasswordLength)
	assert.Equal(t, 90, cfg.Thresholds.MaxPasswordAgeDays)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.NotNil(t, cfg.Providers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"workers":    "workers: 0\n",
		"timeout":    "probe_timeout: -1s\n",
		"format":     "log_format: xml\n",
		"thresholds": "thresholds:\n  min_security_log_mb: 0\n",
		"yaml":       "workers: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.SetAPIKey("gemini", "secret")
	cfg.SelectedModel = "gemini-1.5-pro"
	cfg.ProbeTimeout = 3 * time.Second
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if os.PathSeparator == '/' {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.Equal(t, "secret", loaded.GetAPIKey("gemini"))
}

func TestGetAPIKeyFallsBackToEnvironment(t *testing.T) {
	t.Setenv("GOOGLE_API_KEY", "from-env")
	cfg := Default()
	assert.Equal(t, "from-env", cfg.GetAPIKey("gemini"))
	assert.Empty(t, cfg.GetAPIKey("other"))

	cfg.SetAPIKey("gemini", "stored")
	assert.Equal(t, "stored", cfg.GetAPIKey("gemini"))
}
