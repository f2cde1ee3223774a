package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	d := defaultConfig()
	return &Config{
		Tracker: TrackerConfig{
			BaseURL:    "https://youtrack.example.com",
			Projects:   []string{"AGV"},
			CopyFormat: CopyFormatURL,
		},
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Search: d.Search,
		Sync: SyncConfig{
			HTTPTimeout:     5 * time.Second,
			RefreshInterval: 1 * time.Minute,
			PageSize:        100,
			MaxConcurrent:   2,
			UserAgent:       "ytspot-test/1.0",
		},
		UI:   d.UI,
		Keys: d.Keys,
		Log:  LogConfig{Level: "off"},
	}
}
