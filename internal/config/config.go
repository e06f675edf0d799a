package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/meur/primedex/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds all primedex configuration.
type Config struct {
	Server   ServerConfig          `yaml:"server"`
	Storage  StorageConfig         `yaml:"storage"`
	Logging  LoggingConfig         `yaml:"logging"`
	Starters []models.StarterPrime `yaml:"starters"` // Seeded for players with no primes
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port            string   `yaml:"port"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	StaticDir       string   `yaml:"static_dir"` // Optional web build served at /
	SessionTTL      string   `yaml:"session_ttl"`
}

// StorageConfig configures the SQLite store.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	JSON  bool   `yaml:"json"`
}

// DefaultConfig returns a configuration that works out of the box.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigins:  []string{"http://localhost:*"},
			ShutdownTimeout: "10s",
			SessionTTL:      "30m",
		},
		Storage: StorageConfig{
			DatabasePath: "./primedex.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Starters: models.DefaultStarters(),
	}
}

// Load reads the config file at path. A missing file yields the defaults.
// Environment overrides are applied and the result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// GetShutdownTimeout returns the graceful shutdown window.
func (c *Config) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetSessionTTL returns how long an idle API browser session is kept.
func (c *Config) GetSessionTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

// Validate checks the configuration and normalizes starter enumerations.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if strings.TrimSpace(c.Storage.DatabasePath) == "" {
		errs = append(errs, errors.New("storage.database_path is required"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout %q is not a positive duration", c.Server.ShutdownTimeout))
	}
	if d, err := time.ParseDuration(c.Server.SessionTTL); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl %q is not a positive duration", c.Server.SessionTTL))
	}

	for i := range c.Starters {
		st := &c.Starters[i]
		if strings.TrimSpace(st.Name) == "" {
			errs = append(errs, fmt.Errorf("starters[%d]: name is required", i))
		}
		e, err := models.ParseElement(string(st.Element))
		if err != nil {
			errs = append(errs, fmt.Errorf("starters[%d]: %w", i, err))
		}
		r, err := models.ParseRarity(string(st.Rarity))
		if err != nil {
			errs = append(errs, fmt.Errorf("starters[%d]: %w", i, err))
		}
		st.Element, st.Rarity = e, r
	}

	return errors.Join(errs...)
}
