package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "v20.0", cfg.API.Version)
	assert.Equal(t, 60*time.Second, cfg.API.Timeout)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "exports", cfg.Output.BaseDirectory)
	assert.Equal(t, 1, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, 120*time.Second, cfg.Download.DownloadTimeout)
	assert.Equal(t, 3, cfg.Download.MaxRetries)
	assert.Equal(t, 5*time.Second, cfg.Download.RetryBackoff)
	assert.Equal(t, "completed", cfg.Download.StatusFilter)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORKPLACE_TENANT_ID", "tenant-env")
	t.Setenv("WORKPLACE_ACCESS_TOKEN", "token-env")
	t.Setenv("WORKPLACE_GRAPH_API_VERSION", "v19.0")
	t.Setenv("WORKPLACE_EXPORT_DIR", "/tmp/exports")
	t.Setenv("WORKPLACE_MAX_RETRIES", "7")
	t.Setenv("WORKPLACE_CONCURRENT_DOWNLOADS", "4")
	t.Setenv("WORKPLACE_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "tenant-env", cfg.API.TenantID)
	assert.Equal(t, "token-env", cfg.API.AccessToken)
	assert.Equal(t, "v19.0", cfg.API.Version)
	assert.Equal(t, "/tmp/exports", cfg.Output.BaseDirectory)
	assert.Equal(t, 7, cfg.Download.MaxRetries)
	assert.Equal(t, 4, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvLegacyTokenName(t *testing.T) {
	t.Setenv("WORKPLACE_ACCESS_TOKEN", "")
	t.Setenv("WORKPLACE_TOKEN", "legacy-token")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "legacy-token", cfg.API.AccessToken)
}

func TestLoadFromEnvPrefersNewTokenName(t *testing.T) {
	t.Setenv("WORKPLACE_ACCESS_TOKEN", "new-token")
	t.Setenv("WORKPLACE_TOKEN", "legacy-token")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "new-token", cfg.API.AccessToken)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `api:
  tenant_id: "tenant-file"
  version: "v18.0"
download:
  max_retries: 9
  status_filter: "in_progress"
logging:
  level: "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "tenant-file", cfg.API.TenantID)
	assert.Equal(t, "v18.0", cfg.API.Version)
	assert.Equal(t, 9, cfg.Download.MaxRetries)
	assert.Equal(t, "in_progress", cfg.Download.StatusFilter)
	assert.Equal(t, "warn", cfg.Logging.Level)
	// Unset options keep their defaults
	assert.Equal(t, 1, cfg.Download.ConcurrentDownloads)
}

func TestLoadFromFileMissingPathIsError(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: ["), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"tenant-id":   "tenant-flag",
		"token":       "token-flag",
		"api-version": "v21.0",
		"output":      "/data/exports",
		"status":      "FAILED",
		"max-retries": 5,
		"concurrent":  2,
		"log-level":   "error",
	})

	assert.Equal(t, "tenant-flag", cfg.API.TenantID)
	assert.Equal(t, "token-flag", cfg.API.AccessToken)
	assert.Equal(t, "v21.0", cfg.API.Version)
	assert.Equal(t, "/data/exports", cfg.Output.BaseDirectory)
	assert.Equal(t, "failed", cfg.Download.StatusFilter)
	assert.Equal(t, 5, cfg.Download.MaxRetries)
	assert.Equal(t, 2, cfg.Download.ConcurrentDownloads)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresEmptyValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"token":      "",
		"concurrent": 0,
	})

	assert.Empty(t, cfg.API.AccessToken)
	assert.Equal(t, 1, cfg.Download.ConcurrentDownloads)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := DefaultConfig()
		cfg.API.AccessToken = "token"
		return cfg
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing token", func(t *testing.T) {
		cfg := valid()
		cfg.API.AccessToken = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing output directory", func(t *testing.T) {
		cfg := valid()
		cfg.Output.BaseDirectory = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("excessive concurrency", func(t *testing.T) {
		cfg := valid()
		cfg.Download.ConcurrentDownloads = 11
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.Download.MaxRetries = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid status filter", func(t *testing.T) {
		cfg := valid()
		cfg.Download.StatusFilter = "finished"
		assert.Error(t, cfg.Validate())
	})

	t.Run("empty status filter is allowed", func(t *testing.T) {
		cfg := valid()
		cfg.Download.StatusFilter = ""
		assert.NoError(t, cfg.Validate())
	})

	t.Run("invalid log level", func(t *testing.T) {
		cfg := valid()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.API.TenantID = "tenant-save"
	cfg.Download.MaxRetries = 6
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "tenant-save", reloaded.API.TenantID)
	assert.Equal(t, 6, reloaded.Download.MaxRetries)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  tenant_id: \"from-file\"\n"), 0644))

	t.Setenv("WORKPLACE_TENANT_ID", "from-env")

	cfg, err := Load(path, map[string]interface{}{"tenant-id": "from-flag"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.API.TenantID, "flags beat environment and file")

	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.API.TenantID, "environment beats file")
}
