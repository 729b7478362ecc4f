// Package config handles loading and managing application configuration
// from YAML files, .env files and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/openclaw/qrcodemaker/qr"
	"github.com/openclaw/qrcodemaker/records"
)

// Config holds all application configuration values.
type Config struct {
	Format           string   `yaml:"format"`
	Size             int      `yaml:"size"`
	RecoveryLevel    string   `yaml:"recovery_level"`
	Header           string   `yaml:"header"`
	LeadingSeparator string   `yaml:"leading_separator"`
	Language         string   `yaml:"language"`
	OutputDir        string   `yaml:"output_dir"`
	DataDir          string   `yaml:"data_dir"`
	History          bool     `yaml:"history"`
	WebhookURL       string   `yaml:"webhook_url"`
	WebhookTimeout   Duration `yaml:"webhook_timeout"`
	Port             int      `yaml:"port"`
	LogLevel         string   `yaml:"log_level"`
	Debug            bool     `yaml:"debug"`
	DryRun           bool     `yaml:"dry_run"`
}

// Duration is a wrapper around time.Duration that supports YAML unmarshalling
// from human-readable strings like "30s", "5m", "1h".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// defaults returns a Config populated with sensible default values.
func defaults() *Config {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	dataDir := filepath.Join(homeDir, ".qrcodemaker")
	return &Config{
		Format:           "jpg",
		Size:             300,
		RecoveryLevel:    "low",
		LeadingSeparator: "drop",
		Language:         "en",
		OutputDir:        filepath.Join(dataDir, "output"),
		DataDir:          dataDir,
		History:          true,
		WebhookTimeout:   Duration{10 * time.Second},
		Port:             8556,
		LogLevel:         "info",
	}
}

// Load reads configuration from the YAML file at path, falling back to
// defaults if the file does not exist. Variables from .env files in the
// working directory are loaded without replacing the real environment, then
// QRM_* environment variables override file and default values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(".env", ".env.local"); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// loadDotEnv loads the named files that exist.
func loadDotEnv(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// applyEnvOverrides applies QRM_* environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("QRM_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("QRM_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Size = n
		}
	}
	if v := os.Getenv("QRM_RECOVERY_LEVEL"); v != "" {
		cfg.RecoveryLevel = v
	}
	if v := os.Getenv("QRM_HEADER"); v != "" {
		cfg.Header = v
	}
	if v := os.Getenv("QRM_LEADING_SEPARATOR"); v != "" {
		cfg.LeadingSeparator = v
	}
	if v := os.Getenv("QRM_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("QRM_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("QRM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("QRM_WEBHOOK_URL"); v != "" {
		cfg.WebhookURL = v
	}
	if v := os.Getenv("QRM_WEBHOOK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.WebhookTimeout = Duration{d}
		}
	}
	if v := os.Getenv("QRM_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("QRM_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := envBool("QRM_HISTORY"); ok {
		cfg.History = v
	}
	if v, ok := envBool("QRM_DEBUG"); ok {
		cfg.Debug = v
	}
	if v, ok := envBool("QRM_DRY_RUN"); ok {
		cfg.DryRun = v
	}
}

func envBool(key string) (value, ok bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	}
	return false, false
}

// Validate checks that every enumerated value and bound is usable.
func (c *Config) Validate() error {
	var errs []error
	if _, err := qr.ParseFormat(c.Format); err != nil {
		errs = append(errs, err)
	}
	if err := qr.ValidateSize(c.Size); err != nil {
		errs = append(errs, err)
	}
	if _, err := qr.ParseRecoveryLevel(c.RecoveryLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := records.ParsePolicy(c.LeadingSeparator); err != nil {
		errs = append(errs, err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// HistoryPath is the location of the job history database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// EnsureDataDir creates the DataDir and OutputDir if they do not already exist.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir %s: %w", c.DataDir, err)
	}
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", c.OutputDir, err)
	}
	return nil
}
