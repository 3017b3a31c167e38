// Package config loads the service configuration from YAML with environment
// variable overrides.
package config

import (
	"time"

	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

// Config is the root configuration.
type Config struct {
	// Parser holds the parser options in their loose form (see
	// csv.ParseOptions), e.g. fieldSeparators: [";"].
	Parser map[string]any `yaml:"parser"`

	Reader  ReaderConfig  `yaml:"reader"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	Store   StoreConfig   `yaml:"store"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ReaderConfig controls how input streams are read.
type ReaderConfig struct {
	// ChunkSize is the number of bytes read at a time.
	ChunkSize int `yaml:"chunk_size"`
	// HasHeaders treats the first record of every document as headers.
	HasHeaders bool `yaml:"has_headers"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddress   string        `yaml:"listen_address"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxBodyBytes caps the size of an uploaded document.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// LogConfig configures log/slog output.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// StoreConfig selects where parsed documents are kept.
type StoreConfig struct {
	// Driver is none, sqlite or postgres.
	Driver string `yaml:"driver"`
	// DSN is a file path for sqlite or a connection string for postgres.
	DSN string `yaml:"dsn"`
	// RetentionDays removes documents older than this. 0 keeps them forever.
	RetentionDays int `yaml:"retention_days"`
	// PruneSchedule is the cron expression for the retention job.
	PruneSchedule string `yaml:"prune_schedule"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	Dir        string        `yaml:"dir"`
	Extensions []string      `yaml:"extensions"`
	Debounce   time.Duration `yaml:"debounce"`
}

// ParserOptions converts the parser section to validated options.
func (c *Config) ParserOptions() (csv.Options, error) {
	opts, err := csv.ParseOptions(c.Parser)
	if err != nil {
		return csv.Options{}, err
	}
	if _, err := csv.NewConfig(opts); err != nil {
		return csv.Options{}, err
	}
	return opts, nil
}
