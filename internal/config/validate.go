package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "server.listen_address".
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:", len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate checks cfg and returns a ValidationError listing every problem.
func Validate(cfg *Config) error {
	var errs []FieldError
	add := func(field, format string, args ...any) {
		errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := cfg.ParserOptions(); err != nil {
		add("parser", "%v", err)
	}

	if cfg.Reader.ChunkSize < 1 {
		add("reader.chunk_size", "must be positive, got %d", cfg.Reader.ChunkSize)
	}

	if cfg.Server.ListenAddress == "" {
		add("server.listen_address", "must not be empty")
	}
	if cfg.Server.MaxBodyBytes < 1 {
		add("server.max_body_bytes", "must be positive, got %d", cfg.Server.MaxBodyBytes)
	}
	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.WriteTimeout},
		{"server.idle_timeout", cfg.Server.IdleTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
	}
	for _, tt := range timeouts {
		if tt.value < 0 {
			add(tt.field, "must not be negative")
		}
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("log.level", "unknown level %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		add("log.format", "unknown format %q", cfg.Log.Format)
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		add("metrics.path", "must start with /, got %q", cfg.Metrics.Path)
	}

	switch cfg.Store.Driver {
	case "none":
	case "sqlite", "postgres":
		if cfg.Store.DSN == "" {
			add("store.dsn", "required for driver %q", cfg.Store.Driver)
		}
	default:
		add("store.driver", "must be none, sqlite or postgres, got %q", cfg.Store.Driver)
	}
	if cfg.Store.RetentionDays < 0 {
		add("store.retention_days", "must not be negative")
	}
	if _, err := cron.ParseStandard(cfg.Store.PruneSchedule); err != nil {
		add("store.prune_schedule", "invalid cron expression: %v", err)
	}

	if cfg.Watch.Debounce < 0 {
		add("watch.debounce", "must not be negative")
	}
	for _, ext := range cfg.Watch.Extensions {
		if !strings.HasPrefix(ext, ".") {
			add("watch.extensions", "extension %q must start with a dot", ext)
		}
	}

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
