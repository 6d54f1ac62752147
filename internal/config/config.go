// Package config loads the server configuration from a YAML or JSON file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file read when none is given.
const DefaultPath = "callflow.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Config is the content of callflow.yaml.
type Config struct {
	Server ServerConfig `yaml:"server" json:"server"`
	Log    LogConfig    `yaml:"log" json:"log"`
	Store  StoreConfig  `yaml:"store" json:"store"`
	Lock   LockConfig   `yaml:"lock" json:"lock"`
	Flow   FlowConfig   `yaml:"flow" json:"flow"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string          `yaml:"addr" json:"addr"`
	MaxBodyBytes    int64           `yaml:"max_body_bytes" json:"max_body_bytes"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig limits webhook requests per second. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" json:"rps"`
	Burst int     `yaml:"burst" json:"burst"`
}

// LogConfig selects the slog level and handler (text or json).
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// StoreConfig selects the session store driver and its middlewares.
type StoreConfig struct {
	Driver string       `yaml:"driver" json:"driver"`
	Redis  RedisConfig  `yaml:"redis" json:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite" json:"sqlite"`
	File   FileConfig   `yaml:"file" json:"file"`

	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	Redact     RedactConfig     `yaml:"redact" json:"redact"`
}

// RedisConfig configures the redis driver. TTL 0 keeps sessions until destroyed.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// SQLiteConfig configures the sqlite driver.
type SQLiteConfig struct {
	Path string `yaml:"path" json:"path"`
}

// FileConfig configures the file driver: one JSON file per call in Dir.
type FileConfig struct {
	Dir string `yaml:"dir" json:"dir"`
}

// EncryptionConfig seals stored sessions with AES-256-GCM. Keys are base64 encoded.
// An empty Key disables encryption.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

// RedactConfig masks session fields whose keys match Patterns before they are stored.
type RedactConfig struct {
	Patterns []string `yaml:"patterns" json:"patterns"`
	Caller   bool     `yaml:"caller" json:"caller"`
}

// LockConfig controls per-call locking. Distributed locking requires the redis driver.
type LockConfig struct {
	Distributed bool          `yaml:"distributed" json:"distributed"`
	TTL         time.Duration `yaml:"ttl" json:"ttl"`
}

// FlowConfig customizes the built-in demo flow.
type FlowConfig struct {
	Greeting       string `yaml:"greeting" json:"greeting"`
	Hours          string `yaml:"hours" json:"hours"`
	OperatorNumber string `yaml:"operator_number" json:"operator_number"`
	HoldMusic      string `yaml:"hold_music" json:"hold_music"`
	AssetsBaseURL  string `yaml:"assets_base_url" json:"assets_base_url"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis:  RedisConfig{Addr: "localhost:6379", TTL: 24 * time.Hour},
			SQLite: SQLiteConfig{Path: filepath.Join(".callflow", "sessions.db")},
			File:   FileConfig{Dir: filepath.Join(".callflow", "sessions")},
		},
		Lock: LockConfig{TTL: 30 * time.Second},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if data, err = jsonToYAML(data); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// jsonToYAML re-encodes a JSON document so both formats go through the same yaml
// decoder, which parses durations such as "45s".
func jsonToYAML(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// Validate reports inconsistent settings.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverSQLite, DriverFile:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Lock.Distributed && c.Store.Driver != DriverRedis {
		return errors.New("lock.distributed requires the redis store driver")
	}
	if c.Server.RateLimit.RPS < 0 {
		return errors.New("server.rate_limit.rps must not be negative")
	}
	if c.Store.Encryption.Key == "" && len(c.Store.Encryption.FallbackKeys) > 0 {
		return errors.New("store.encryption.fallback_keys requires store.encryption.key")
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
