package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/ytspot/internal/search"
	"github.com/pders01/ytspot/internal/validation"
)

// Copy formats for the primary action payload.
const (
	CopyFormatURL      = "url"
	CopyFormatMarkdown = "markdown"
)

const envPrefix = "YTSPOT"

type Config struct {
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Database DatabaseConfig `mapstructure:"database"`
	Search   SearchConfig   `mapstructure:"search"`
	Sync     SyncConfig     `mapstructure:"sync"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
	Log      LogConfig      `mapstructure:"log"`
}

type TrackerConfig struct {
	BaseURL  string   `mapstructure:"base_url"`
	Projects []string `mapstructure:"projects"`
	// Token is normally kept in the OS keyring or YTSPOT_TRACKER_TOKEN.
	Token      string `mapstructure:"token"`
	CopyFormat string `mapstructure:"copy_format"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	MaxResults   int    `mapstructure:"max_results"`
	DefaultOrder string `mapstructure:"default_order"`
}

type SyncConfig struct {
	HTTPTimeout     time.Duration `mapstructure:"http_timeout"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	PageSize        int           `mapstructure:"page_size"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	UserAgent       string        `mapstructure:"user_agent"`
}

type UIConfig struct {
	Colors    UIColors `mapstructure:"colors"`
	WindowPos string   `mapstructure:"window_pos"`
	// Opener overrides the platform URL opener (open, xdg-open, rundll32).
	Opener string `mapstructure:"opener"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
	Warning    string `mapstructure:"warning"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit   string `mapstructure:"quit"`
	Sync   string `mapstructure:"sync"`
	Open   string `mapstructure:"open"`
	Detail string `mapstructure:"detail"`
	Help   string `mapstructure:"help"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".ytspot")

	return &Config{
		Tracker: TrackerConfig{
			Projects:   []string{},
			CopyFormat: CopyFormatURL,
		},
		Database: DatabaseConfig{
			Path:    filepath.Join(dataDir, "cache.db"),
			Timeout: 1 * time.Second,
		},
		Search: SearchConfig{
			MaxResults:   50,
			DefaultOrder: search.OrderIDDesc.String(),
		},
		Sync: SyncConfig{
			HTTPTimeout:     30 * time.Second,
			RefreshInterval: 5 * time.Minute,
			PageSize:        5000,
			MaxConcurrent:   4,
			UserAgent:       "ytspot/1.0 (https://github.com/pders01/ytspot)",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#7C9CFF",
				Secondary:  "#5EEAD4",
				Accent:     "#C4B5FD",
				Background: "#0F172A",
				Surface:    "#1E293B",
				Text:       "#E2E8F0",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
				Warning:    "#FBBF24",
			},
			WindowPos: "center",
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:   "c",
				Sync:   "r",
				Open:   "o",
				Detail: "d",
				Help:   "k",
			},
		},
		Log: LogConfig{
			Level:      "off",
			File:       filepath.Join(dataDir, "ytspot.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the config file location used when none is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "ytspot", "config.toml")
}

// Load reads configuration from configPath, or from the default locations
// when it is empty. A missing file is not an error; YTSPOT_* environment
// variables override file values.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v, defaultConfig())

	v.SetConfigType("toml")
	if configPath == "" {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config %s: %w", v.ConfigFileUsed(), err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	expandPaths(cfg)
	return cfg, nil
}

// setDefaults registers every leaf key so env overrides and partial files
// merge with the defaults instead of replacing whole sections.
func setDefaults(v *viper.Viper, cfg *Config) {
	for key, value := range flatten("", toMap(cfg)) {
		v.SetDefault(key, value)
	}
}

func flatten(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any)
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			for sk, sv := range flatten(key, sub) {
				out[sk] = sv
			}
			continue
		}
		out[key] = val
	}
	return out
}

// toMap mirrors the mapstructure layout of cfg with durations as strings.
func toMap(cfg *Config) map[string]any {
	projects := cfg.Tracker.Projects
	if projects == nil {
		projects = []string{}
	}
	c := cfg.UI.Colors
	return map[string]any{
		"tracker": map[string]any{
			"base_url":    cfg.Tracker.BaseURL,
			"projects":    projects,
			"token":       cfg.Tracker.Token,
			"copy_format": cfg.Tracker.CopyFormat,
		},
		"database": map[string]any{
			"path":    cfg.Database.Path,
			"timeout": cfg.Database.Timeout.String(),
		},
		"search": map[string]any{
			"max_results":   cfg.Search.MaxResults,
			"default_order": cfg.Search.DefaultOrder,
		},
		"sync": map[string]any{
			"http_timeout":     cfg.Sync.HTTPTimeout.String(),
			"refresh_interval": cfg.Sync.RefreshInterval.String(),
			"page_size":        cfg.Sync.PageSize,
			"max_concurrent":   cfg.Sync.MaxConcurrent,
			"user_agent":       cfg.Sync.UserAgent,
		},
		"ui": map[string]any{
			"colors": map[string]any{
				"primary":    c.Primary,
				"secondary":  c.Secondary,
				"accent":     c.Accent,
				"background": c.Background,
				"surface":    c.Surface,
				"text":       c.Text,
				"muted":      c.Muted,
				"error":      c.Error,
				"success":    c.Success,
				"warning":    c.Warning,
			},
			"window_pos": cfg.UI.WindowPos,
			"opener":     cfg.UI.Opener,
		},
		"keys": map[string]any{
			"modifier": cfg.Keys.Modifier,
			"bindings": map[string]any{
				"quit":   cfg.Keys.Bindings.Quit,
				"sync":   cfg.Keys.Bindings.Sync,
				"open":   cfg.Keys.Bindings.Open,
				"detail": cfg.Keys.Bindings.Detail,
				"help":   cfg.Keys.Bindings.Help,
			},
		},
		"log": map[string]any{
			"level":       cfg.Log.Level,
			"file":        cfg.Log.File,
			"max_size_mb": cfg.Log.MaxSizeMB,
			"max_backups": cfg.Log.MaxBackups,
		},
	}
}

// expandPath resolves a leading ~/ and makes the result absolute.
func expandPath(path string) string {
	if path == "" {
		return ""
	}
	if rest, ok := strings.CutPrefix(path, "~/"); ok {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, rest)
		}
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// Encode renders cfg as TOML. The token is redacted unless withSecrets is set.
func Encode(cfg *Config, withSecrets bool) ([]byte, error) {
	m := toMap(cfg)
	if !withSecrets && cfg.Tracker.Token != "" {
		m["tracker"].(map[string]any)["token"] = "********"
	}
	out, err := toml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding config: %w", err)
	}
	return out, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := Encode(cfg, true)
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("staging config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}

// Validate reports the first setting that cannot work. An empty base URL is
// allowed so the launcher can run from an existing cache.
func (c *Config) Validate() error {
	if c.Tracker.BaseURL != "" {
		normalized, err := validation.NewBaseURLValidator().ValidateAndNormalize(c.Tracker.BaseURL)
		if err != nil {
			return fmt.Errorf("tracker.base_url: %w", err)
		}
		c.Tracker.BaseURL = normalized
	}
	for _, p := range c.Tracker.Projects {
		if err := validation.ValidateProjectKey(p); err != nil {
			return fmt.Errorf("tracker.projects: %w", err)
		}
	}
	switch c.Tracker.CopyFormat {
	case "", CopyFormatURL, CopyFormatMarkdown:
	default:
		return fmt.Errorf("tracker.copy_format: unknown format %q (want %s or %s)",
			c.Tracker.CopyFormat, CopyFormatURL, CopyFormatMarkdown)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results: must not be negative")
	}
	if _, err := search.ParseOrder(c.Search.DefaultOrder); err != nil {
		return fmt.Errorf("search.default_order: %w", err)
	}
	if c.Sync.MaxConcurrent < 0 {
		return fmt.Errorf("sync.max_concurrent: must not be negative")
	}
	if c.Sync.PageSize < 0 {
		return fmt.Errorf("sync.page_size: must not be negative")
	}
	return nil
}

// SearchOptions converts the search section into ranker options.
func (c *Config) SearchOptions() search.Options {
	order, err := search.ParseOrder(c.Search.DefaultOrder)
	if err != nil {
		order = search.OrderIDDesc
	}
	return search.Options{
		DefaultOrder: order,
		Limit:        c.Search.MaxResults,
	}
}
