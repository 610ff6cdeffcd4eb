package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Database settings
	Database DatabaseConfig `yaml:"database"`

	// Invoice defaults
	Invoice InvoiceConfig `yaml:"invoice"`

	// HTTP API settings
	Server ServerConfig `yaml:"server"`

	// Background overdue sweep
	Sweeper SweeperConfig `yaml:"sweeper"`

	Stock StockConfig `yaml:"stock"`

	// Staff user recorded as actor for CLI and TUI actions
	Operator OperatorConfig `yaml:"operator"`

	Log LogConfig `yaml:"log"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"` // Path to SQLite database
}

type InvoiceConfig struct {
	DefaultDueDays int    `yaml:"default_due_days"` // Days until invoice due
	NumberPrefix   string `yaml:"number_prefix"`    // Invoice number prefix (e.g., "INV")
	DefaultTerms   string `yaml:"default_terms"`    // Terms text when none is given
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type SweeperConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type StockConfig struct {
	LowThreshold int `yaml:"low_threshold"` // Quantity at or below which stock is reported low
}

type OperatorConfig struct {
	UserID int64 `yaml:"user_id"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console or json
}

// DefaultConfigPath returns ~/.config/apothecary/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home dir unavailable
		return filepath.Join(".", ".config", "apothecary", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "apothecary", "config.yaml")
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return &Config{
		Database: DatabaseConfig{
			Path: filepath.Join(homeDir, ".config", "apothecary", "apothecary.db"),
		},
		Invoice: InvoiceConfig{
			DefaultDueDays: 30,
			NumberPrefix:   "INV",
			DefaultTerms:   "Payment due within 30 days of invoice date.",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Sweeper: SweeperConfig{
			Interval: time.Hour,
		},
		Stock: StockConfig{
			LowThreshold: 10,
		},
		Operator: OperatorConfig{
			UserID: 1,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Load loads config from the given path, or returns defaults if file doesn't exist
func Load(path string) (*Config, error) {
	// If file doesn't exist, return defaults
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Unset keys keep their defaults
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// LoadDefault loads from the default config path
func LoadDefault() (*Config, error) {
	return Load(DefaultConfigPath())
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Invoice.DefaultDueDays < 0 {
		return fmt.Errorf("invoice.default_due_days cannot be negative")
	}
	if c.Invoice.NumberPrefix == "" {
		return fmt.Errorf("invoice.number_prefix is required")
	}
	if c.Sweeper.Interval <= 0 {
		return fmt.Errorf("sweeper.interval must be positive")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// Save writes the config to the given path
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// EnsureDirectories creates the database directory
func (c *Config) EnsureDirectories() error {
	dbDir := filepath.Dir(c.Database.Path)
	return os.MkdirAll(dbDir, 0755)
}
