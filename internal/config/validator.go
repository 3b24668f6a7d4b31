package config

import (
	"fmt"
	"net"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "server.event_buffer")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
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

// stateKeyRegex limits storage keys to names that are safe as file names
var stateKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._-]*$`)

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateViews()...)
	errors = append(errors, c.validateState()...)
	errors = append(errors, c.validatePRD()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTracing()...)

	return errors
}

// validateServer validates the ServerConfig
func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if _, port, err := net.SplitHostPort(c.Server.Addr); err != nil {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "must be host:port",
		})
	} else if n, err := strconv.Atoi(port); err != nil || n < 0 || n > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "port must be between 0 and 65535",
		})
	}

	const maxEventBuffer = 10000
	if c.Server.EventBuffer < 1 || c.Server.EventBuffer > maxEventBuffer {
		errors = append(errors, ValidationError{
			Field:   "server.event_buffer",
			Value:   c.Server.EventBuffer,
			Message: fmt.Sprintf("must be between 1 and %d", maxEventBuffer),
		})
	}

	return errors
}

// validateViews validates the ViewsConfig
func (c *Config) validateViews() []ValidationError {
	var errors []ValidationError

	const maxLogLimit = 10000
	if c.Views.LogLimit < 1 || c.Views.LogLimit > maxLogLimit {
		errors = append(errors, ValidationError{
			Field:   "views.log_limit",
			Value:   c.Views.LogLimit,
			Message: fmt.Sprintf("must be between 1 and %d", maxLogLimit),
		})
	}

	return errors
}

// validateState validates the StateConfig
func (c *Config) validateState() []ValidationError {
	var errors []ValidationError

	if !stateKeyRegex.MatchString(c.State.Key) {
		errors = append(errors, ValidationError{
			Field:   "state.key",
			Value:   c.State.Key,
			Message: "must start with a letter and contain only letters, digits, '.', '_' or '-'",
		})
	}

	if c.State.CacheSizeKB < 0 {
		errors = append(errors, ValidationError{
			Field:   "state.cache_size_kb",
			Value:   c.State.CacheSizeKB,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validatePRD validates the PRDConfig
func (c *Config) validatePRD() []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(c.PRD.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "prd.path",
			Value:   c.PRD.Path,
			Message: "must not be empty",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if c.Logging.MaxSizeMB <= 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be positive",
		})
	}

	const maxLogSizeMB = 1000 // 1GB
	if c.Logging.MaxSizeMB > maxLogSizeMB {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: fmt.Sprintf("exceeds maximum of %dMB", maxLogSizeMB),
		})
	}

	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateTracing validates the TracingConfig
func (c *Config) validateTracing() []ValidationError {
	var errors []ValidationError

	if c.Tracing.Enabled && strings.TrimSpace(c.Tracing.ServiceName) == "" {
		errors = append(errors, ValidationError{
			Field:   "tracing.service_name",
			Value:   c.Tracing.ServiceName,
			Message: "must not be empty when tracing is enabled",
		})
	}

	return errors
}
