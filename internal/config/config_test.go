package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("FETCH_CONCURRENCY", "")
	t.Setenv("DOWNLOAD_CONCURRENCY", "")
	t.Setenv("RECORDS_FILE", "")
	t.Setenv("MEDIA_DIR", "")
	t.Setenv("BROWSER_HEADLESS", "")

	cfg := Load()
	assert.Equal(t, 5, cfg.FetchConcurrency)
	assert.Equal(t, 10, cfg.DownloadConcurrency)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, filepath.Join("./data", "records.ndjson"), cfg.RecordsFile)
	assert.Equal(t, filepath.Join("./data", "media"), cfg.MediaDir)
	assert.True(t, cfg.BrowserHeadless)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/var/extractor")
	t.Setenv("FETCH_CONCURRENCY", "3")
	t.Setenv("RECORDS_FILE", "")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg := Load()
	assert.Equal(t, 3, cfg.FetchConcurrency)
	assert.Equal(t, filepath.Join("/var/extractor", "records.ndjson"), cfg.RecordsFile)
	assert.False(t, cfg.BrowserHeadless)
}

func TestLoadIgnoresUnparseableValues(t *testing.T) {
	t.Setenv("FETCH_CONCURRENCY", "lots")
	t.Setenv("BROWSER_HEADLESS", "maybe")

	cfg := Load()
	assert.Equal(t, 5, cfg.FetchConcurrency)
	assert.True(t, cfg.BrowserHeadless)
}

func TestValidateFetchRequiresProxySettings(t *testing.T) {
	cfg := Config{
		APIBaseURL:       "https://api.example.com",
		SystemID:         "tenant",
		FetchConcurrency: 5,
	}
	err := cfg.ValidateFetch()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PROXY_BASE_URL")

	cfg.ProxyBaseURL = "https://proxy.example.com"
	cfg.ProxyAPIKey = "key"
	assert.NoError(t, cfg.ValidateFetch())
}

func TestValidateDownload(t *testing.T) {
	cfg := Config{DownloadConcurrency: 10}
	err := cfg.ValidateDownload()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")

	cfg.APIBaseURL = "https://api.example.com"
	assert.NoError(t, cfg.ValidateDownload())

	cfg.DownloadConcurrency = 0
	assert.Error(t, cfg.ValidateDownload())
}
