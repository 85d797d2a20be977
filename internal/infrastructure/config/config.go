// Package config loads GraphFlow settings from the environment and an
// optional .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Journal backends. SQLite is the default so run history outlives a
// single CLI invocation; memory suits tests and embedders.
const (
	JournalMemory   = "memory"
	JournalSQLite   = "sqlite"
	JournalPostgres = "postgres"
)

// Defaults applied when a key is unset or unparsable.
const (
	DefaultAPIURL       = "http://localhost:8000"
	DefaultTimeout      = 30 * time.Second
	DefaultUserID       = 1
	DefaultJournal      = JournalSQLite
	DefaultJournalCodec = "msgpack"
	DefaultCompression  = "zstd"
	DefaultSQLiteDSN    = "file:graphflow-runs.db"
	DefaultStubAddr     = ":8000"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the client, CLI and stub server
type Config struct {
	API     APIConfig
	Journal JournalConfig
	App     AppConfig
}

// APIConfig addresses the remote graph service.
type APIConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	UserID  int
}

// JournalConfig selects where run records are kept.
type JournalConfig struct {
	Backend string
	DSN     string
	Codec   string
	// Compression is zstd, gzip or none.
	Compression string
	// Key encrypts payloads with AES-GCM when set (16, 24 or 32 bytes).
	Key []byte
}

// AppConfig holds process-level settings.
type AppConfig struct {
	Environment string
	StubAddr    string
}

// Load reads the named .env files (or ./.env when none are given) into the
// process environment and builds a validated Config. Missing files are not
// an error; variables already set take precedence over file values.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)
	return FromLookup(os.Getenv)
}

// FromLookup builds a validated Config from an environment lookup function.
func FromLookup(getenv func(string) string) (*Config, error) {
	env := envReader(getenv)

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(env.str("GRAPHFLOW_API_URL", DefaultAPIURL), "/"),
			Token:   env.str("GRAPHFLOW_API_TOKEN", ""),
			Timeout: env.duration("GRAPHFLOW_TIMEOUT", DefaultTimeout),
			UserID:  env.int("GRAPHFLOW_USER_ID", DefaultUserID),
		},
		Journal: JournalConfig{
			Backend:     strings.ToLower(env.str("GRAPHFLOW_JOURNAL", DefaultJournal)),
			DSN:         env.str("GRAPHFLOW_JOURNAL_DSN", ""),
			Codec:       strings.ToLower(env.str("GRAPHFLOW_JOURNAL_CODEC", DefaultJournalCodec)),
			Compression: strings.ToLower(env.str("GRAPHFLOW_JOURNAL_COMPRESSION", DefaultCompression)),
		},
		App: AppConfig{
			Environment: env.first("GRAPHFLOW_ENV", "NODE_ENV", "ENVIRONMENT"),
			StubAddr:    env.str("GRAPHFLOW_STUB_ADDR", DefaultStubAddr),
		},
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if raw := env.str("GRAPHFLOW_JOURNAL_KEY", ""); raw != "" {
		key, err := hex.DecodeString(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: GRAPHFLOW_JOURNAL_KEY must be hex encoded", ErrInvalidConfig)
		}
		cfg.Journal.Key = key
	}
	if cfg.Journal.Backend == JournalSQLite && cfg.Journal.DSN == "" {
		cfg.Journal.DSN = DefaultSQLiteDSN
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: GRAPHFLOW_API_URL must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("%w: GRAPHFLOW_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.API.UserID <= 0 {
		return fmt.Errorf("%w: GRAPHFLOW_USER_ID must be positive", ErrInvalidConfig)
	}

	switch c.Journal.Backend {
	case JournalMemory, JournalSQLite:
	case JournalPostgres:
		if c.Journal.DSN == "" {
			return fmt.Errorf("%w: GRAPHFLOW_JOURNAL_DSN is required for the postgres journal", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: GRAPHFLOW_JOURNAL must be memory, sqlite or postgres, got %q", ErrInvalidConfig, c.Journal.Backend)
	}

	switch len(c.Journal.Key) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("%w: GRAPHFLOW_JOURNAL_KEY must decode to 16, 24 or 32 bytes", ErrInvalidConfig)
	}

	switch c.Journal.Codec {
	case "msgpack", "json", "cbor":
	default:
		return fmt.Errorf("%w: GRAPHFLOW_JOURNAL_CODEC must be msgpack, json or cbor, got %q", ErrInvalidConfig, c.Journal.Codec)
	}

	switch c.Journal.Compression {
	case "zstd", "gzip", "none":
	default:
		return fmt.Errorf("%w: GRAPHFLOW_JOURNAL_COMPRESSION must be zstd, gzip or none, got %q", ErrInvalidConfig, c.Journal.Compression)
	}
	return nil
}

// Production reports whether the process runs in the production environment.
func (c *Config) Production() bool {
	return strings.EqualFold(c.App.Environment, "production")
}

// Helper functions for environment variable parsing

type envReader func(string) string

func (e envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(e(key)); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) first(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(e(key)); value != "" {
			return value
		}
	}
	return ""
}

func (e envReader) int(key string, defaultValue int) int {
	if valueStr := e(key); valueStr != "" {
		if value, err := strconv.Atoi(strings.TrimSpace(valueStr)); err == nil {
			return value
		}
	}
	return defaultValue
}

// duration accepts Go durations ("15s") or a bare number of seconds.
func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	valueStr := strings.TrimSpace(e(key))
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
