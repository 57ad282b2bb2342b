package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all settings recognized by the fetch and download pipelines.
// Values come from the environment; .env files are loaded by main before
// Load is called.
type Config struct {
	// Remote API.
	APIBaseURL string
	SystemID   string

	// Anti-bot proxy service (fetch pipeline only).
	ProxyBaseURL string
	ProxyAPIKey  string

	// Concurrency windows.
	FetchConcurrency    int
	DownloadConcurrency int

	// Local paths.
	DataDir         string
	RecordsFile     string
	MediaDir        string
	CookieCacheFile string

	// Session acquisition.
	BrowserHeadless bool
	BrowserHelper   string
}

// Load reads configuration from the environment, applying defaults for
// everything optional. Required fields are checked per pipeline by
// ValidateFetch / ValidateDownload.
func Load() Config {
	dataDir := getenv("DATA_DIR", "./data")

	return Config{
		APIBaseURL: os.Getenv("API_BASE_URL"),
		SystemID:   os.Getenv("SYSTEM_ID"),

		ProxyBaseURL: os.Getenv("PROXY_BASE_URL"),
		ProxyAPIKey:  os.Getenv("PROXY_API_KEY"),

		FetchConcurrency:    getenvInt("FETCH_CONCURRENCY", 5),
		DownloadConcurrency: getenvInt("DOWNLOAD_CONCURRENCY", 10),

		DataDir:         dataDir,
		RecordsFile:     getenv("RECORDS_FILE", filepath.Join(dataDir, "records.ndjson")),
		MediaDir:        getenv("MEDIA_DIR", filepath.Join(dataDir, "media")),
		CookieCacheFile: getenv("COOKIE_CACHE_FILE", filepath.Join(dataDir, "cookies.json")),

		BrowserHeadless: getenvBool("BROWSER_HEADLESS", true),
		BrowserHelper:   getenv("BROWSER_HELPER", "session-helper"),
	}
}

// ValidateFetch checks the fields the fetch pipeline cannot run without.
func (c Config) ValidateFetch() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.SystemID == "" {
		return fmt.Errorf("SYSTEM_ID is required")
	}
	if c.ProxyBaseURL == "" {
		return fmt.Errorf("PROXY_BASE_URL is required")
	}
	if c.ProxyAPIKey == "" {
		return fmt.Errorf("PROXY_API_KEY is required")
	}
	if c.FetchConcurrency < 1 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	return nil
}

// ValidateDownload checks the fields the download pipeline cannot run without.
func (c Config) ValidateDownload() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.DownloadConcurrency < 1 {
		return fmt.Errorf("DOWNLOAD_CONCURRENCY must be positive, got %d", c.DownloadConcurrency)
	}
	return nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
