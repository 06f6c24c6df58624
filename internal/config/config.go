// Package config loads the threadpulse configuration: YAML file over
// built-in defaults, with credentials and secrets taken from the
// environment so they never land in a config file on disk.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all threadpulse configuration.
type Config struct {
	// Communities to rotate through, without the r/ prefix.
	Communities []string `yaml:"communities"`

	// Action ledger database path.
	DatabasePath string `yaml:"database_path"`

	// Platform root. Only overridden in tests.
	BaseURL string `yaml:"base_url"`

	Browser   BrowserConfig   `yaml:"browser"`
	Reddit    RedditConfig    `yaml:"reddit"`
	Generator GeneratorConfig `yaml:"generator"`
	Schedule  ScheduleConfig  `yaml:"schedule"`
	API       APIConfig       `yaml:"api"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// BrowserConfig configures the browser session.
type BrowserConfig struct {
	Headless          bool   `yaml:"headless"`
	ViewportWidth     int    `yaml:"viewport_width"`
	ViewportHeight    int    `yaml:"viewport_height"`
	NavigationTimeout string `yaml:"navigation_timeout"`
}

// RedditConfig configures the platform session. Credentials come from
// the environment only.
type RedditConfig struct {
	Username      string `yaml:"-"`
	Password      string `yaml:"-"`
	MaxCandidates int    `yaml:"max_candidates"`
}

// GeneratorConfig configures the comment generator backend.
type GeneratorConfig struct {
	Provider string `yaml:"provider"` // openai, gemini
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`
}

// ScheduleConfig configures the loop cadence. Durations are Go duration
// strings.
type ScheduleConfig struct {
	MinRotation      string `yaml:"min_rotation"`
	MaxRotation      string `yaml:"max_rotation"`
	BreakAfterRounds int    `yaml:"break_after_rounds"`
	BreakDuration    string `yaml:"break_duration"`
	MinRunPause      string `yaml:"min_run_pause"`
	MaxRunPause      string `yaml:"max_run_pause"`
}

// APIConfig configures the dashboard query service.
type APIConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Communities: []string{
			"buildinpublic", "Entrepreneur", "SaaS",
			"GolfSwing", "golf", "SideProject", "IndieHackers",
		},
		DatabasePath: "bot_metrics.db",

		Browser: BrowserConfig{
			Headless:          false,
			ViewportWidth:     1920,
			ViewportHeight:    1080,
			NavigationTimeout: "30s",
		},

		Reddit: RedditConfig{
			MaxCandidates: 5,
		},

		Generator: GeneratorConfig{
			Provider: "openai",
		},

		Schedule: ScheduleConfig{
			MinRotation:      "2m",
			MaxRotation:      "30m",
			BreakAfterRounds: 10,
			BreakDuration:    "3h",
			MinRunPause:      "60s",
			MaxRunPause:      "120s",
		},

		API: APIConfig{
			ListenAddr: ":8000",
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; the environment always wins last.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file. Secrets are excluded by their
// yaml tags.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if user := os.Getenv("REDDIT_USERNAME"); user != "" {
		c.Reddit.Username = user
	}
	if pass := os.Getenv("REDDIT_PASSWORD"); pass != "" {
		c.Reddit.Password = pass
	}

	// Generator API key in priority order: the last match wins.
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Generator.APIKey = key
		if c.Generator.Provider == "" {
			c.Generator.Provider = "openai"
		}
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Generator.Provider == "gemini" {
		c.Generator.APIKey = key
	}

	if path := os.Getenv("THREADPULSE_DB"); path != "" {
		c.DatabasePath = path
	}
}

// GetNavigationTimeout returns the browser navigation timeout as a
// duration.
func (c *Config) GetNavigationTimeout() time.Duration {
	d, err := time.ParseDuration(c.Browser.NavigationTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ScheduleDurations resolves the schedule's duration strings, falling
// back per-field to the defaults on parse errors.
func (c *Config) ScheduleDurations() (minRotation, maxRotation, breakDuration, minRunPause, maxRunPause time.Duration) {
	return parseDuration(c.Schedule.MinRotation, 2*time.Minute),
		parseDuration(c.Schedule.MaxRotation, 30*time.Minute),
		parseDuration(c.Schedule.BreakDuration, 3*time.Hour),
		parseDuration(c.Schedule.MinRunPause, 60*time.Second),
		parseDuration(c.Schedule.MaxRunPause, 120*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
