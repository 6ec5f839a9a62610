package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main flitify client configuration
type Config struct {
	// Server connection
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Shell command execution
	Shell ShellConfig `json:"shell" mapstructure:"shell"`

	// File transfer
	Transfer TransferConfig `json:"transfer" mapstructure:"transfer"`

	// Inbound action limits
	Limits LimitsConfig `json:"limits" mapstructure:"limits"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Housekeeping schedules
	Housekeeping HousekeepingConfig `json:"housekeeping" mapstructure:"housekeeping"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds controller connection settings
type ServerConfig struct {
	Address            string `json:"address" mapstructure:"address"`
	Transport          string `json:"transport" mapstructure:"transport"` // tcp, websocket
	DialTimeoutSeconds int    `json:"dial_timeout_seconds" mapstructure:"dial_timeout_seconds"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify" mapstructure:"insecure_skip_verify"`
}

// ShellConfig holds shell command execution settings
type ShellConfig struct {
	TimeoutSeconds int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`
	Path           string `json:"path" mapstructure:"path"` // shell binary override
}

// TransferConfig holds file transfer settings
type TransferConfig struct {
	MaxFileBytes int64 `json:"max_file_bytes" mapstructure:"max_file_bytes"` // 0 = unlimited
}

// LimitsConfig bounds the inbound action rate
type LimitsConfig struct {
	ActionsPerSecond float64 `json:"actions_per_second" mapstructure:"actions_per_second"`
	Burst            int     `json:"burst" mapstructure:"burst"`
}

// MetricsConfig holds the local metrics listener settings
type MetricsConfig struct {
	Enabled    bool   `json:"enabled" mapstructure:"enabled"`
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`
}

// HousekeepingConfig holds maintenance schedules in cron syntax
type HousekeepingConfig struct {
	LogSweepSchedule string `json:"log_sweep_schedule" mapstructure:"log_sweep_schedule"`
	StatsInterval    string `json:"stats_interval" mapstructure:"stats_interval"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Transport:          "tcp",
			DialTimeoutSeconds: 10,
		},
		Shell: ShellConfig{
			TimeoutSeconds: 5,
		},
		Transfer: TransferConfig{
			MaxFileBytes: 64 * 1024 * 1024,
		},
		Limits: LimitsConfig{
			ActionsPerSecond: 10,
			Burst:            20,
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:9090",
		},
		Housekeeping: HousekeepingConfig{
			LogSweepSchedule: "@daily",
			StatsInterval:    "@every 1m",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// The client is useless without a controller to dial
	if c.Server.Address == "" {
		return fmt.Errorf("no server configured: server.address is required")
	}

	if c.Server.Transport != "" && c.Server.Transport != "tcp" && c.Server.Transport != "websocket" {
		return fmt.Errorf("invalid server transport: %s (must be: tcp, websocket)", c.Server.Transport)
	}

	if c.Server.DialTimeoutSeconds < 0 {
		return fmt.Errorf("server.dial_timeout_seconds must be >= 0")
	}

	if c.Shell.TimeoutSeconds < 0 {
		return fmt.Errorf("shell.timeout_seconds must be >= 0")
	}

	if c.Transfer.MaxFileBytes < 0 {
		return fmt.Errorf("transfer.max_file_bytes must be >= 0")
	}

	if c.Limits.ActionsPerSecond < 0 {
		return fmt.Errorf("limits.actions_per_second must be >= 0")
	}
	if c.Limits.Burst < 0 {
		return fmt.Errorf("limits.burst must be >= 0")
	}

	if c.Metrics.Enabled && c.Metrics.ListenAddr == "" {
		return fmt.Errorf("metrics.listen_addr is required when metrics are enabled")
	}

	return nil
}
