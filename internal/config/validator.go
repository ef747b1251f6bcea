package config

import (
	"fmt"
	"slices"
	"strings"

	apperrors "github.com/Iron-Ham/linebridge/internal/errors"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "bridge.capacity_hint")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// Unwrap lets callers match any validation failure with
// errors.Is(err, apperrors.ErrInvalidInput).
func (e ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Unwrap exposes the individual failures to errors.Is and errors.As.
func (e ValidationErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, err := range e {
		errs[i] = err
	}
	return errs
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateBridge()...)
	errors = append(errors, c.validateHeartbeat()...)
	errors = append(errors, c.validateUI()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

// validateBridge validates the BridgeConfig
func (c *Config) validateBridge() []ValidationError {
	var errors []ValidationError

	if !IsValidCompletionPolicy(c.Bridge.CompletionPolicy) {
		errors = append(errors, ValidationError{
			Field:   "bridge.completion_policy",
			Value:   c.Bridge.CompletionPolicy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidCompletionPolicies(), ", ")),
		})
	}

	if c.Bridge.CapacityHint <= 0 {
		errors = append(errors, ValidationError{
			Field:   "bridge.capacity_hint",
			Value:   c.Bridge.CapacityHint,
			Message: "must be positive",
		})
	}

	// The hint only pre-sizes the accumulator; lines may grow past it.
	const maxCapacityHint = 1 << 20
	if c.Bridge.CapacityHint > maxCapacityHint {
		errors = append(errors, ValidationError{
			Field:   "bridge.capacity_hint",
			Value:   c.Bridge.CapacityHint,
			Message: fmt.Sprintf("exceeds maximum of %d", maxCapacityHint),
		})
	}

	const minPollIntervalMs = 1
	const maxPollIntervalMs = 10000
	if c.Bridge.PollIntervalMs < minPollIntervalMs || c.Bridge.PollIntervalMs > maxPollIntervalMs {
		errors = append(errors, ValidationError{
			Field:   "bridge.poll_interval_ms",
			Value:   c.Bridge.PollIntervalMs,
			Message: fmt.Sprintf("must be between %d and %d", minPollIntervalMs, maxPollIntervalMs),
		})
	}

	return errors
}

// validateHeartbeat validates the HeartbeatConfig
func (c *Config) validateHeartbeat() []ValidationError {
	var errors []ValidationError

	if c.Heartbeat.IntervalMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "heartbeat.interval_ms",
			Value:   c.Heartbeat.IntervalMs,
			Message: "must be non-negative (0 disables heartbeats)",
		})
	}

	// Timeout and prefix only matter while heartbeats are enabled.
	if c.Heartbeat.IntervalMs <= 0 {
		return errors
	}

	if c.Heartbeat.TimeoutMs <= c.Heartbeat.IntervalMs {
		errors = append(errors, ValidationError{
			Field:   "heartbeat.timeout_ms",
			Value:   c.Heartbeat.TimeoutMs,
			Message: fmt.Sprintf("must be greater than heartbeat.interval_ms (%d)", c.Heartbeat.IntervalMs),
		})
	}

	prefix := strings.TrimSpace(c.Heartbeat.Prefix)
	if prefix == "" {
		errors = append(errors, ValidationError{
			Field:   "heartbeat.prefix",
			Value:   c.Heartbeat.Prefix,
			Message: "must not be empty when heartbeats are enabled",
		})
	} else if strings.ContainsAny(c.Heartbeat.Prefix, "\r\n") {
		errors = append(errors, ValidationError{
			Field:   "heartbeat.prefix",
			Value:   c.Heartbeat.Prefix,
			Message: "must not contain line terminators",
		})
	}

	return errors
}

// validateUI validates the UIConfig
func (c *Config) validateUI() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidUIModes(), c.UI.Mode) {
		errors = append(errors, ValidationError{
			Field:   "ui.mode",
			Value:   c.UI.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidUIModes(), ", ")),
		})
	}

	if c.UI.MaxLogLines < 0 {
		errors = append(errors, ValidationError{
			Field:   "ui.max_log_lines",
			Value:   c.UI.MaxLogLines,
			Message: "must be non-negative",
		})
	}

	// Reasonable upper bound to prevent memory issues
	const maxLogLinesLimit = 100000
	if c.UI.MaxLogLines > maxLogLinesLimit {
		errors = append(errors, ValidationError{
			Field:   "ui.max_log_lines",
			Value:   c.UI.MaxLogLines,
			Message: fmt.Sprintf("exceeds maximum of %d", maxLogLinesLimit),
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	// Max size must be positive
	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	// Reasonable upper bound for log file size
	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	// Max backups must be non-negative
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}
