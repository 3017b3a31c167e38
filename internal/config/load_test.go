package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shapestone/shape-csvchunk/pkg/csv"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("listen address = %q, want %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if !cfg.Metrics.Enabled {
		t.Error("metrics disabled by default")
	}
	if cfg.Store.Driver != "none" {
		t.Errorf("store driver = %q, want none", cfg.Store.Driver)
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		t.Fatalf("ParserOptions() error = %v", err)
	}
	if !reflect.DeepEqual(opts, csv.DefaultOptions()) {
		t.Errorf("ParserOptions() = %+v, want defaults", opts)
	}
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `
parser:
  fieldDelimiter: "'"
  fieldSeparators: [";", "\t"]
  lineSeparators: ["\r\n", "\n"]
  skipEmptyLinesWhen: blank
  skipLinesWithWarnings: true
reader:
  chunk_size: 1024
  has_headers: true
server:
  listen_address: "0.0.0.0:9090"
  read_timeout: "60s"
metrics:
  enabled: false
store:
  driver: sqlite
  retention_days: 30
watch:
  dir: /tmp/in
  debounce: 2s
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 60*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("write timeout = %v, want default", cfg.Server.WriteTimeout)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics.enabled: false ignored")
	}
	if cfg.Store.DSN != DefaultSQLiteDSN {
		t.Errorf("sqlite dsn = %q, want default", cfg.Store.DSN)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("debounce = %v", cfg.Watch.Debounce)
	}
	if !cfg.Reader.HasHeaders || cfg.Reader.ChunkSize != 1024 {
		t.Errorf("reader = %+v", cfg.Reader)
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		t.Fatalf("ParserOptions() error = %v", err)
	}
	want := csv.Options{
		FieldDelimiter:        "'",
		FieldSeparators:       []string{";", "\t"},
		LineSeparators:        []string{"\r\n", "\n"},
		SmartRegex:            true,
		SkipEmptyLinesWhen:    csv.SkipBlank,
		SkipLinesWithWarnings: true,
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("ParserOptions() = %+v, want %+v", opts, want)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("Load() error = %v, want parse error", err)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
parser:
  fieldSeparators: ["\n"]
log:
  level: loud
store:
  driver: mongo
  prune_schedule: "every day"
watch:
  extensions: [csv]
`)
	_, err := Load(path)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Load() error = %v, want ValidationError", err)
	}

	fields := map[string]bool{}
	for _, fe := range verr.Errors {
		fields[fe.Field] = true
	}
	for _, want := range []string{"parser", "log.level", "store.driver", "store.prune_schedule", "watch.extensions"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s in %v", want, verr)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:1"
`)
	t.Setenv("SHAPECSV_SERVER_LISTEN_ADDRESS", "0.0.0.0:8081")
	t.Setenv("SHAPECSV_SERVER_READ_TIMEOUT", "45s")
	t.Setenv("SHAPECSV_SERVER_MAX_BODY_BYTES", "1024")
	t.Setenv("SHAPECSV_METRICS_ENABLED", "false")
	t.Setenv("SHAPECSV_LOG_FORMAT", "json")
	t.Setenv("SHAPECSV_WATCH_EXTENSIONS", ".csv, .dat")
	t.Setenv("SHAPECSV_PARSER_FIELD_SEPARATORS", `;,\t`)
	t.Setenv("SHAPECSV_PARSER_SMART_REGEX", "false")
	t.Setenv("SHAPECSV_READER_CHUNK_SIZE", "not-a-number")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides() error = %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:8081" {
		t.Errorf("listen address = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("read timeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Server.MaxBodyBytes != 1024 {
		t.Errorf("max body bytes = %d", cfg.Server.MaxBodyBytes)
	}
	if cfg.Metrics.Enabled {
		t.Error("metrics still enabled")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("log format = %q", cfg.Log.Format)
	}
	if !reflect.DeepEqual(cfg.Watch.Extensions, []string{".csv", ".dat"}) {
		t.Errorf("extensions = %q", cfg.Watch.Extensions)
	}
	if cfg.Reader.ChunkSize != DefaultChunkSize {
		t.Errorf("invalid env value applied: chunk size = %d", cfg.Reader.ChunkSize)
	}

	opts, err := cfg.ParserOptions()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(opts.FieldSeparators, []string{";", "\t"}) || opts.SmartRegex {
		t.Errorf("parser options = %+v", opts)
	}
}

func TestLoadWithEnvOverrides_InvalidResult(t *testing.T) {
	t.Setenv("SHAPECSV_PARSER_FIELD_DELIMITER", ",")
	if _, err := LoadWithEnvOverrides(""); err == nil {
		t.Error("delimiter equal to separator accepted")
	}
}

func TestLoadWithEnvOverrides_ListEscapes(t *testing.T) {
	tests := []struct {
		value string
		want  []string
	}{
		{`\,`, []string{","}},
		{`\,,;`, []string{",", ";"}},
		{`;,\t,\,\,`, []string{";", "\t", ",,"}},
		{`\\,|`, []string{`\`, "|"}},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("SHAPECSV_PARSER_FIELD_SEPARATORS", tt.value)
			cfg, err := LoadWithEnvOverrides("")
			if err != nil {
				t.Fatalf("LoadWithEnvOverrides() error = %v", err)
			}
			opts, err := cfg.ParserOptions()
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(opts.FieldSeparators, tt.want) {
				t.Errorf("field separators = %q, want %q", opts.FieldSeparators, tt.want)
			}
		})
	}
}

func TestUnescape(t *testing.T) {
	tests := map[string]string{
		`\n`:    "\n",
		`a\tb`:  "a\tb",
		`\r\n`:  "\r\n",
		`\\n`:   `\n`,
		`\,`:    ",",
		"plain": "plain",
	}
	for in, want := range tests {
		if got := Unescape(in); got != want {
			t.Errorf("Unescape(%q) = %q, want %q", in, got, want)
		}
	}
}
