package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/tailscale/hujson"
)

// Loader handles configuration loading
type Loader struct {
	configPath string
}

// NewLoader creates a new config loader
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
	}
}

// Load loads the configuration from file. The file may carry comments and
// trailing commas; bytes are standardized to plain JSON and checked against
// the embedded schema before they reach viper. A missing file is not an
// error: defaults plus FLITIFY_* environment overrides apply.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	// Setup viper
	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v)

	// Read environment variables
	v.SetEnvPrefix("FLITIFY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// No config file, run on defaults and environment
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		standardized, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}

		validator := NewValidator()
		if err := validator.ValidateSchema(standardized); err != nil {
			return nil, fmt.Errorf("config file %s: %w", configPath, err)
		}

		if err := v.ReadConfig(bytes.NewReader(standardized)); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Set data directory if not specified
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".flitify")
	}

	// Set logging file path if not specified
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "client.log")
	}

	return cfg, nil
}

// Save saves the configuration to file
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Setup viper
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	// Set all config values (use canonical fields only)
	v.Set("server", cfg.Server)
	v.Set("shell", cfg.Shell)
	v.Set("transfer", cfg.Transfer)
	v.Set("limits", cfg.Limits)
	v.Set("metrics", cfg.Metrics)
	v.Set("housekeeping", cfg.Housekeeping)
	v.Set("logging", cfg.Logging)
	v.Set("data_dir", cfg.DataDir)

	// Write config file
	if err := v.WriteConfig(); err != nil {
		// If file doesn't exist, create it
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
		} else {
			return fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".flitify", "client.json")
}

// setDefaults registers every config key with viper so environment
// overrides resolve even when the key is absent from the file.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()

	v.SetDefault("server.address", def.Server.Address)
	v.SetDefault("server.transport", def.Server.Transport)
	v.SetDefault("server.dial_timeout_seconds", def.Server.DialTimeoutSeconds)
	v.SetDefault("server.insecure_skip_verify", def.Server.InsecureSkipVerify)
	v.SetDefault("shell.timeout_seconds", def.Shell.TimeoutSeconds)
	v.SetDefault("shell.path", def.Shell.Path)
	v.SetDefault("transfer.max_file_bytes", def.Transfer.MaxFileBytes)
	v.SetDefault("limits.actions_per_second", def.Limits.ActionsPerSecond)
	v.SetDefault("limits.burst", def.Limits.Burst)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("metrics.listen_addr", def.Metrics.ListenAddr)
	v.SetDefault("housekeeping.log_sweep_schedule", def.Housekeeping.LogSweepSchedule)
	v.SetDefault("housekeeping.stats_interval", def.Housekeeping.StatsInterval)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.file", def.Logging.File)
	v.SetDefault("logging.console", def.Logging.Console)
	v.SetDefault("logging.pretty", def.Logging.Pretty)
	v.SetDefault("logging.max_size", def.Logging.MaxSize)
	v.SetDefault("logging.max_age", def.Logging.MaxAge)
	v.SetDefault("logging.compress", def.Logging.Compress)
	v.SetDefault("logging.redaction", def.Logging.Redaction)
	v.SetDefault("data_dir", def.DataDir)
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
