// config_validation.go - Startup configuration validation.
//
// Validates environment variables at process start to fail fast with
// clear messages instead of surfacing misconfiguration as runtime faults.
// JWT_SECRET is the one deliberate exception: its absence degrades login
// to a per-request 500 rather than preventing startup.
package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigValidationError represents a single configuration problem.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator accumulates configuration problems.
type ConfigValidator struct {
	errors []ConfigValidationError
}

func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

func (v *ConfigValidator) HasErrors() bool { return len(v.errors) > 0 }

func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidateRequired records an error when a required variable is unset.
func (v *ConfigValidator) ValidateRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		v.AddError(key, "required environment variable not set")
	}
	return value
}

// ValidatePort accepts "8080", ":8080", or "host:port" style listen
// addresses.
func (v *ConfigValidator) ValidatePort(key, value string) {
	if value == "" {
		return
	}
	portStr := value
	if strings.Contains(value, ":") {
		_, p, err := net.SplitHostPort(value)
		if err != nil {
			v.AddError(key, "must be a valid host:port listen address")
			return
		}
		portStr = p
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// ValidatePositiveInt records an error unless value parses as a positive integer.
func (v *ConfigValidator) ValidatePositiveInt(key, value string) {
	if value == "" {
		return
	}
	num, err := strconv.Atoi(value)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}
	if num <= 0 {
		v.AddError(key, "must be a positive integer")
	}
}

// ValidateDuration records an error unless value parses as a Go duration.
func (v *ConfigValidator) ValidateDuration(key, value string) {
	if value == "" {
		return
	}
	if _, err := time.ParseDuration(value); err != nil {
		v.AddError(key, "must be a valid duration (e.g. 12h, 30m)")
	}
}

// ValidateEnum records an error unless value is one of the allowed options.
func (v *ConfigValidator) ValidateEnum(key, value string, allowed []string) {
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// ValidateAllConfiguration checks everything the process cannot run without.
func ValidateAllConfiguration() error {
	v := NewConfigValidator()

	dbURL := v.ValidateRequired("DATABASE_URL")
	if dbURL != "" && !strings.HasPrefix(dbURL, "postgres://") && !strings.HasPrefix(dbURL, "postgresql://") {
		v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
	}

	if addr := os.Getenv("APP_ADDR"); addr != "" {
		v.ValidatePort("APP_ADDR", addr)
	}

	v.ValidatePositiveInt("MAX_UPLOAD_BYTES", os.Getenv("MAX_UPLOAD_BYTES"))
	v.ValidateDuration("AUTH_TOKEN_TTL", os.Getenv("AUTH_TOKEN_TTL"))

	v.ValidateEnum("APP_LOG_FORMAT", os.Getenv("APP_LOG_FORMAT"), []string{"", "json", "text"})
	v.ValidateEnum("APP_LOG_LEVEL", os.Getenv("APP_LOG_LEVEL"), []string{"", "debug", "info", "warn", "error"})

	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorString())
	}
	return nil
}

// WarnOnOptionalMissingConfig logs warnings for settings whose absence
// degrades a route instead of stopping the process.
func WarnOnOptionalMissingConfig() {
	var warnings []string

	if os.Getenv("JWT_SECRET") == "" {
		warnings = append(warnings, "JWT_SECRET not set - login requests will fail with a configuration error")
	}
	if os.Getenv("S3_ENDPOINT") == "" {
		warnings = append(warnings, "S3_ENDPOINT not set - file uploads disabled")
	}
	if os.Getenv("AUTH_TOKEN_TTL") == "" {
		warnings = append(warnings, "AUTH_TOKEN_TTL not set - issued tokens never expire")
	}

	if len(warnings) > 0 {
		Info("configuration warnings", map[string]any{
			"count":    len(warnings),
			"warnings": warnings,
		})
	}
}
