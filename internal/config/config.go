package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "STREAMS_"

// reservedTables are owned by the run log and the migration tool.
var reservedTables = []string{"scrape_runs", "goose_db_version"}

// Config holds all settings for the pipeline, the CLI and the HTTP server.
type Config struct {
	SourceURL    string        `koanf:"source_url"`
	UserAgent    string        `koanf:"user_agent"`
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	DatabaseDriver string `koanf:"database_driver"`
	DatabasePath   string `koanf:"database_path"` // file path for sqlite, DSN for postgres
	Table          string `koanf:"table"`
	PreviewRows    int    `koanf:"preview_rows"`

	OutputDir string `koanf:"output_dir"`

	DropUnparsedStreams    bool `koanf:"drop_unparsed_streams"`
	RejectHeaderCollisions bool `koanf:"reject_header_collisions"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	HTTPAddr        string        `koanf:"http_addr"`
	Interval        time.Duration `koanf:"interval"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Optional publishing; disabled when KafkaBrokers is empty.
	KafkaBrokers []string `koanf:"kafka_brokers"`
	KafkaTopic   string   `koanf:"kafka_topic"`

	// Optional archiving; the bucket wins when both are set.
	SnapshotBucket string `koanf:"snapshot_bucket"`
	SnapshotDir    string `koanf:"snapshot_dir"`
}

func defaults() map[string]any {
	return map[string]any{
		"source_url":               "https://en.wikipedia.org/wiki/List_of_most-streamed_songs_on_Spotify",
		"user_agent":               "",
		"fetch_timeout":            "30s",
		"database_driver":          "sqlite",
		"database_path":            "spotify_streams.db",
		"table":                    "most_streamed_spotify",
		"preview_rows":             5,
		"output_dir":               ".",
		"drop_unparsed_streams":    false,
		"reject_header_collisions": false,
		"log_level":                "info",
		"log_format":               "json",
		"http_addr":                ":8080",
		"interval":                 "24h",
		"shutdown_timeout":         "10s",
		"kafka_brokers":            []string{},
		"kafka_topic":              "spotify-most-streamed",
		"snapshot_bucket":          "",
		"snapshot_dir":             "",
	}
}

// Load builds the configuration. Precedence, highest first: flags that
// were set explicitly, STREAMS_* environment variables, the YAML file at
// cfgFile (optional), built-in defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	// STREAMS_DATABASE_PATH -> database_path
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		if key == "kafka_brokers" {
			return key, strings.Split(value, ",")
		}
		return key, value
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.SourceURL == "" {
		return errors.New("source_url is required")
	}
	switch c.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database_driver must be sqlite or postgres, got %q", c.DatabaseDriver)
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.Table == "" {
		return errors.New("table is required")
	}
	for _, name := range reservedTables {
		if strings.EqualFold(c.Table, name) {
			return fmt.Errorf("table %q is reserved", c.Table)
		}
	}
	if c.PreviewRows <= 0 {
		return errors.New("preview_rows must be positive")
	}
	if c.FetchTimeout < 0 {
		return errors.New("fetch_timeout must not be negative")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown_timeout must be positive")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("kafka_topic is required when kafka_brokers is set")
	}
	return nil
}

// KafkaEnabled reports whether snapshots should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
