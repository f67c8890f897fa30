package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "FORMDAY_"

// Config holds the application configuration
type Config struct {
	App           AppConfig           `koanf:"app"`
	Service       ServiceConfig       `koanf:"service"`
	Prayer        PrayerConfig        `koanf:"prayer"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// AppConfig holds general application settings
type AppConfig struct {
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`
}

// ServiceConfig holds storage and logging settings
type ServiceConfig struct {
	StateFile string `koanf:"state_file"`
	LogLevel  string `koanf:"log_level"`
}

// PrayerConfig holds the prayer timings API settings
type PrayerConfig struct {
	City       string `koanf:"city"`
	Country    string `koanf:"country"`
	Method     int    `koanf:"method"`
	APIBaseURL string `koanf:"api_base_url"`
}

// NotificationsConfig holds the prayer notification scheduler settings
type NotificationsConfig struct {
	PollInterval  string `koanf:"poll_interval"`
	Debounce      string `koanf:"debounce"`
	WindowMinutes int    `koanf:"window_minutes"`
	WebhookURL    string `koanf:"webhook_url"`
	WebhookToken  string `koanf:"webhook_token"`
}

// Defaults returns the configuration used when a key is absent from
// both the config file and the environment.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Port: 8080,
			Env:  "development",
		},
		Service: ServiceConfig{
			StateFile: "data/formday.db",
			LogLevel:  "info",
		},
		Prayer: PrayerConfig{
			City:       "London",
			Country:    "UK",
			Method:     2,
			APIBaseURL: "https://api.aladhan.com",
		},
		Notifications: NotificationsConfig{
			PollInterval:  "30s",
			Debounce:      "20s",
			WindowMinutes: 10,
		},
	}
}

// Load reads the configuration file, applies FORMDAY_* environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}

	// Environment overrides: FORMDAY_SERVICE_STATE_FILE -> service.state_file.
	// Only the first underscore separates the section; the rest stays part
	// of the key name, so multi-word keys map correctly.
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
		section, rest, ok := strings.Cut(key, "_")
		if !ok {
			return key
		}
		return section + "." + rest
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	cfg := Defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Keep the state file location stable regardless of the working directory
	if !filepath.IsAbs(cfg.Service.StateFile) {
		configDir := filepath.Dir(path)
		cfg.Service.StateFile = filepath.Join(configDir, "..", cfg.Service.StateFile)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.App.Port < 1 || cfg.App.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.App.Port)
	}

	if cfg.Service.StateFile == "" {
		return fmt.Errorf("state file path is required")
	}

	if cfg.Prayer.City == "" || cfg.Prayer.Country == "" {
		return fmt.Errorf("prayer city and country are required")
	}

	if cfg.Prayer.APIBaseURL == "" {
		return fmt.Errorf("prayer API base URL is required")
	}

	if _, err := cfg.NotifyPollInterval(); err != nil {
		return fmt.Errorf("invalid notification poll interval: %w", err)
	}
	if _, err := cfg.NotifyDebounce(); err != nil {
		return fmt.Errorf("invalid notification debounce: %w", err)
	}

	if cfg.Notifications.WindowMinutes < 1 {
		return fmt.Errorf("notification window must be at least one minute")
	}

	return nil
}

// NotifyPollInterval returns the scheduler poll interval as a duration
func (c *Config) NotifyPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Notifications.PollInterval)
}

// NotifyDebounce returns the scheduler debounce as a duration
func (c *Config) NotifyDebounce() (time.Duration, error) {
	return time.ParseDuration(c.Notifications.Debounce)
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env != "production"
}
