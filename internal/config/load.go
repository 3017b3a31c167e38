package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. SHAPECSV_SERVER_LISTEN_ADDRESS.
const EnvPrefix = "SHAPECSV_"

// Load reads the YAML file at path on top of the defaults and validates the
// result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
		ApplyDefaults(cfg)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads path and then applies SHAPECSV_* environment
// variables, which always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	envString("READER_CHUNK_SIZE", func(v string) {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Reader.ChunkSize = i
		}
	})
	envBool("READER_HAS_HEADERS", &cfg.Reader.HasHeaders)

	envString("SERVER_LISTEN_ADDRESS", func(v string) { cfg.Server.ListenAddress = v })
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envString("SERVER_MAX_BODY_BYTES", func(v string) {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	})

	envString("LOG_LEVEL", func(v string) { cfg.Log.Level = v })
	envString("LOG_FORMAT", func(v string) { cfg.Log.Format = v })

	envBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	envString("METRICS_NAMESPACE", func(v string) { cfg.Metrics.Namespace = v })

	envString("STORE_DRIVER", func(v string) { cfg.Store.Driver = v })
	envString("STORE_DSN", func(v string) { cfg.Store.DSN = v })
	envString("STORE_RETENTION_DAYS", func(v string) {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Store.RetentionDays = i
		}
	})
	envString("STORE_PRUNE_SCHEDULE", func(v string) { cfg.Store.PruneSchedule = v })

	envString("WATCH_DIR", func(v string) { cfg.Watch.Dir = v })
	envString("WATCH_EXTENSIONS", func(v string) {
		var exts []string
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				exts = append(exts, e)
			}
		}
		cfg.Watch.Extensions = exts
	})
	envDuration("WATCH_DEBOUNCE", &cfg.Watch.Debounce)

	// Parser options keep their loose form; list values are comma separated
	// with \, for a literal comma and the \n, \r and \t escapes.
	parserKeys := map[string]string{
		"PARSER_FIELD_DELIMITER":          "fieldDelimiter",
		"PARSER_FIELD_SEPARATORS":         "fieldSeparators",
		"PARSER_LINE_SEPARATORS":          "lineSeparators",
		"PARSER_SMART_REGEX":              "smartRegex",
		"PARSER_SKIP_EMPTY_LINES_WHEN":    "skipEmptyLinesWhen",
		"PARSER_SKIP_LINES_WITH_WARNINGS": "skipLinesWithWarnings",
	}
	for env, key := range parserKeys {
		envString(env, func(v string) {
			if cfg.Parser == nil {
				cfg.Parser = map[string]any{}
			}
			cfg.Parser[key] = parserEnvValue(key, v)
		})
	}
}

func parserEnvValue(key, v string) any {
	switch key {
	case "fieldSeparators", "lineSeparators":
		var list []any
		for _, s := range splitList(v) {
			list = append(list, Unescape(s))
		}
		return list
	case "smartRegex", "skipLinesWithWarnings":
		b, err := strconv.ParseBool(v)
		return err == nil && b
	default:
		return Unescape(v)
	}
}

// Unescape replaces the escapes \n, \r, \t, \, and \\ in s.
func Unescape(s string) string {
	return strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\r`, "\r", `\t`, "\t", `\,`, ",").Replace(s)
}

// splitList splits v on commas not escaped as \,. Other escapes are kept for
// Unescape.
func splitList(v string) []string {
	var (
		parts []string
		cur   strings.Builder
	)
	for i := 0; i < len(v); i++ {
		switch {
		case v[i] == '\\' && i+1 < len(v):
			cur.WriteByte(v[i])
			cur.WriteByte(v[i+1])
			i++
		case v[i] == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(v[i])
		}
	}
	return append(parts, cur.String())
}

func envString(name string, set func(string)) {
	if val := os.Getenv(EnvPrefix + name); val != "" {
		set(val)
	}
}

func envBool(name string, dst *bool) {
	envString(name, func(v string) {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	})
}

func envDuration(name string, dst *time.Duration) {
	envString(name, func(v string) {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	})
}
