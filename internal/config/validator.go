package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/xeipuuv/gojsonschema"
)

// Validator validates configuration values
type Validator struct {
	schemaLoader gojsonschema.JSONLoader
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{
		schemaLoader: gojsonschema.NewStringLoader(ConfigSchema),
	}
}

// ValidateSchema validates raw config JSON against the embedded schema
func (v *Validator) ValidateSchema(data []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(data)
	result, err := gojsonschema.Validate(v.schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		// Collect all validation errors
		var errMsg string
		for i, err := range result.Errors() {
			if i > 0 {
				errMsg += "; "
			}
			errMsg += err.String()
		}
		return fmt.Errorf("schema validation errors: %s", errMsg)
	}

	return nil
}

// ValidateAddress validates a host:port server address
func (v *Validator) ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid server address %s: %w", address, err)
	}
	if host == "" {
		return fmt.Errorf("invalid server address %s: missing host", address)
	}
	if port == "" {
		return fmt.Errorf("invalid server address %s: missing port", address)
	}

	return nil
}

// ValidateServerAddress validates the controller address for the given
// transport: a host:port pair, or additionally a ws:// / wss:// URL when the
// transport is websocket.
func (v *Validator) ValidateServerAddress(address, transport string) error {
	if transport != "websocket" || !strings.Contains(address, "://") {
		return v.ValidateAddress(address)
	}

	u, err := url.Parse(address)
	if err != nil {
		return fmt.Errorf("invalid server URL %s: %w", address, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("invalid server URL %s: scheme must be ws or wss", address)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid server URL %s: missing host", address)
	}

	return nil
}

// ValidateTransport validates a transport kind
func (v *Validator) ValidateTransport(transport string) error {
	if transport == "" {
		return nil // Use default
	}

	validTransports := []string{"tcp", "websocket"}
	for _, valid := range validTransports {
		if transport == valid {
			return nil
		}
	}

	return fmt.Errorf("invalid transport: %s (must be one of: %s)", transport, strings.Join(validTransports, ", "))
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateSchedule validates a cron schedule expression, including the
// @daily and @every descriptors.
func (v *Validator) ValidateSchedule(schedule string) error {
	if schedule == "" {
		return nil // Use default
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	return nil
}

// ValidateConfig performs comprehensive validation
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	// Validate server connection
	if err := v.ValidateServerAddress(cfg.Server.Address, cfg.Server.Transport); err != nil {
		errors = append(errors, err)
	}
	if err := v.ValidateTransport(cfg.Server.Transport); err != nil {
		errors = append(errors, err)
	}
	if cfg.Server.DialTimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("server.dial_timeout_seconds must be >= 0"))
	}

	// Validate shell execution
	if cfg.Shell.TimeoutSeconds < 0 {
		errors = append(errors, fmt.Errorf("shell.timeout_seconds must be >= 0"))
	}

	// Validate transfer limits
	if cfg.Transfer.MaxFileBytes < 0 {
		errors = append(errors, fmt.Errorf("transfer.max_file_bytes must be >= 0"))
	}

	// Validate action limits
	if cfg.Limits.ActionsPerSecond < 0 {
		errors = append(errors, fmt.Errorf("limits.actions_per_second must be >= 0"))
	}
	if cfg.Limits.Burst < 0 {
		errors = append(errors, fmt.Errorf("limits.burst must be >= 0"))
	}

	// Validate metrics listener
	if cfg.Metrics.Enabled {
		if err := v.ValidateAddress(cfg.Metrics.ListenAddr); err != nil {
			errors = append(errors, fmt.Errorf("metrics listener: %w", err))
		}
	}

	// Validate housekeeping schedules
	if err := v.ValidateSchedule(cfg.Housekeeping.LogSweepSchedule); err != nil {
		errors = append(errors, fmt.Errorf("housekeeping log sweep: %w", err))
	}
	if err := v.ValidateSchedule(cfg.Housekeeping.StatsInterval); err != nil {
		errors = append(errors, fmt.Errorf("housekeeping stats: %w", err))
	}

	// Validate logging
	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}

	return errors
}
