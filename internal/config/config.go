package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Sync     SyncConfig     `yaml:"sync"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// FetcherConfig contains settings for the two-step registry fetch.
// The header profiles mimic a regular browser session; the source rejects
// requests without them. They are configuration, not logic: the values are
// opaque and may need adjustment when the source changes its checks.
type FetcherConfig struct {
	CookiesURL     string            `yaml:"cookies_url"`
	TableURL       string            `yaml:"table_url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	TokenField     string            `yaml:"token_field"`
	CookieHeaders  map[string]string `yaml:"cookie_headers"`
	TableHeaders   map[string]string `yaml:"table_headers"`
	// Empty-filter search payload, sent so the full table is returned.
	Payload map[string]string `yaml:"payload"`
}

// SyncConfig contains scheduled synchronization settings
type SyncConfig struct {
	Enabled         bool `yaml:"enabled"`
	IntervalSeconds int  `yaml:"interval_seconds"`
	RunOnStart      bool `yaml:"run_on_start"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Host:     "db",
			Port:     5432,
			User:     "monopoly_user",
			Password: "monopoly_pass",
			Database: "monopoly_db",
			SSLMode:  "disable",
		},
		Fetcher: FetcherConfig{
			CookiesURL:     "http://apps.eias.fas.gov.ru/FindCem/",
			TableURL:       "http://apps.eias.fas.gov.ru/FindCem/Home/Search",
			TimeoutSeconds: 60,
			TokenField:     "__RequestVerificationToken",
			CookieHeaders: map[string]string{
				"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.9",
				"Accept-Encoding": "gzip, deflate",
				"Accept-Language": "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
				"Cache-Control":   "no-cache",
				"Connection":      "keep-alive",
				"Pragma":          "no-cache",
				"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
			},
			TableHeaders: map[string]string{
				"Accept":           "*/*",
				"Accept-Encoding":  "gzip, deflate",
				"Accept-Language":  "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
				"Referer":          "http://apps.eias.fas.gov.ru/FindCem/",
				"Cache-Control":    "no-cache",
				"Connection":       "keep-alive",
				"Content-Type":     "application/x-www-form-urlencoded; charset=UTF-8",
				"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
				"X-Requested-With": "XMLHttpRequest",
			},
			Payload: map[string]string{
				"RegTypeID": "0",
				"RegPartID": "0",
				"RegionID":  "0",
				"OrgName":   "",
				"INN":       "",
				"OKPO":      "",
				"OGRN":      "",
			},
		},
		Sync: SyncConfig{
			Enabled:         true,
			IntervalSeconds: 86400,
			RunOnStart:      true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	// Read file
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// GetTimeout returns the fetch timeout as a duration
func (c *FetcherConfig) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GetInterval returns the synchronization interval as a duration
func (c *SyncConfig) GetInterval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
