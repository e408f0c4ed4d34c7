// Package config loads the YAML configuration of the mash-pubsub runtime.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/mash-pubsub/pkg/dispatch"
	"github.com/mash-protocol/mash-pubsub/pkg/publication"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

// Store backends.
const (
	StoreNone   = "none"
	StoreFile   = "file"
	StoreBadger = "badger"
)

// Config holds all configuration for the runtime.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Trace       TraceConfig       `yaml:"trace"`
	Limits      LimitsConfig      `yaml:"limits"`
	Publication PublicationConfig `yaml:"publication"`
	Store       StoreConfig       `yaml:"store"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn" or "error"
	Format string `yaml:"format"` // "text" or "json"
}

// TraceConfig configures the CBOR trace log.
type TraceConfig struct {
	File string `yaml:"file"` // empty disables tracing
}

// LimitsConfig holds the QoS floors.
type LimitsConfig struct {
	MinPeriod         time.Duration `yaml:"min_period"`
	MinInterval       time.Duration `yaml:"min_interval"`
	MinMaxInterval    time.Duration `yaml:"min_max_interval"`
	MinPublicationTTL time.Duration `yaml:"min_publication_ttl"`
	MaxPublicationTTL time.Duration `yaml:"max_publication_ttl"`
}

// PublicationConfig configures the publication engine.
type PublicationConfig struct {
	ExpiredRequests string `yaml:"expired_requests"` // "drop" or "reject"
}

// StoreConfig selects the subscription store.
type StoreConfig struct {
	Type string `yaml:"type"` // "none", "file" or "badger"
	Path string `yaml:"path"`
}

// DispatchConfig configures the publication dispatcher.
type DispatchConfig struct {
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
	DropPolicy       string        `yaml:"drop_policy"` // "newest" or "oldest"
	SendTimeout      time.Duration `yaml:"send_timeout"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	RateLimit        float64       `yaml:"rate_limit"` // sends per second, 0 = unlimited
	RateBurst        int           `yaml:"rate_burst"`
}

// Default returns the default configuration.
func Default() *Config {
	limits := qos.DefaultLimits()
	breaker := dispatch.DefaultBreakerConfig()

	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Limits: LimitsConfig{
			MinPeriod:         limits.MinPeriod,
			MinInterval:       limits.MinInterval,
			MinMaxInterval:    limits.MinMaxInterval,
			MinPublicationTTL: limits.MinPublicationTTL,
			MaxPublicationTTL: limits.MaxPublicationTTL,
		},
		Publication: PublicationConfig{
			ExpiredRequests: publication.DropExpired.String(),
		},
		Store: StoreConfig{
			Type: StoreNone,
		},
		Dispatch: DispatchConfig{
			Workers:          breaker.Workers,
			QueueSize:        breaker.QueueSize,
			DropPolicy:       string(breaker.DropPolicy),
			SendTimeout:      breaker.SendTimeout,
			FailureThreshold: breaker.FailureThreshold,
			ResetTimeout:     breaker.ResetTimeout,
			ShutdownTimeout:  breaker.ShutdownTimeout,
		},
	}
}

// Load reads configuration from a YAML file. An empty or missing file
// yields the defaults.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be one of: text, json")
	}

	if c.Limits.MinPeriod <= 0 {
		return fmt.Errorf("limits.min_period must be positive")
	}
	if c.Limits.MinInterval < 0 {
		return fmt.Errorf("limits.min_interval cannot be negative")
	}
	if c.Limits.MinMaxInterval <= 0 {
		return fmt.Errorf("limits.min_max_interval must be positive")
	}
	if c.Limits.MinPublicationTTL <= 0 || c.Limits.MaxPublicationTTL < c.Limits.MinPublicationTTL {
		return fmt.Errorf("limits.min_publication_ttl must be positive and not above limits.max_publication_ttl")
	}

	if _, err := parseExpiredPolicy(c.Publication.ExpiredRequests); err != nil {
		return err
	}

	switch c.Store.Type {
	case "", StoreNone:
	case StoreFile, StoreBadger:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for store type %q", c.Store.Type)
		}
	default:
		return fmt.Errorf("store.type must be one of: none, file, badger")
	}

	if c.Dispatch.Workers < 1 {
		return fmt.Errorf("dispatch.workers must be at least 1")
	}
	if c.Dispatch.QueueSize < 1 {
		return fmt.Errorf("dispatch.queue_size must be at least 1")
	}
	if c.Dispatch.DropPolicy != string(dispatch.DropNewest) && c.Dispatch.DropPolicy != string(dispatch.DropOldest) {
		return fmt.Errorf("dispatch.drop_policy must be one of: newest, oldest")
	}
	if c.Dispatch.FailureThreshold < 1 {
		return fmt.Errorf("dispatch.failure_threshold must be at least 1")
	}
	if c.Dispatch.RateLimit < 0 || c.Dispatch.RateBurst < 0 {
		return fmt.Errorf("dispatch.rate_limit and dispatch.rate_burst cannot be negative")
	}

	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// QosLimits returns the configured QoS floors.
func (c *Config) QosLimits() qos.Limits {
	return qos.Limits{
		MinPeriod:         c.Limits.MinPeriod,
		MinInterval:       c.Limits.MinInterval,
		MinMaxInterval:    c.Limits.MinMaxInterval,
		MinPublicationTTL: c.Limits.MinPublicationTTL,
		MaxPublicationTTL: c.Limits.MaxPublicationTTL,
	}
}

// PublicationManagerConfig returns the engine configuration. Clock, loggers,
// store and meter provider are left for the caller to set.
func (c *Config) PublicationManagerConfig() publication.Config {
	cfg := publication.DefaultConfig()
	cfg.Limits = c.QosLimits()
	cfg.ExpiredRequests, _ = parseExpiredPolicy(c.Publication.ExpiredRequests)
	return cfg
}

// BreakerConfig returns the dispatcher configuration.
func (c *Config) BreakerConfig(logger *slog.Logger) dispatch.BreakerConfig {
	return dispatch.BreakerConfig{
		Workers:          c.Dispatch.Workers,
		QueueSize:        c.Dispatch.QueueSize,
		DropPolicy:       dispatch.DropPolicy(c.Dispatch.DropPolicy),
		SendTimeout:      c.Dispatch.SendTimeout,
		FailureThreshold: c.Dispatch.FailureThreshold,
		ResetTimeout:     c.Dispatch.ResetTimeout,
		ShutdownTimeout:  c.Dispatch.ShutdownTimeout,
		RateLimit:        c.Dispatch.RateLimit,
		RateBurst:        c.Dispatch.RateBurst,
		Logger:           logger,
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
}

func parseExpiredPolicy(s string) (publication.ExpiredPolicy, error) {
	switch s {
	case "", publication.DropExpired.String():
		return publication.DropExpired, nil
	case publication.RejectExpired.String():
		return publication.RejectExpired, nil
	default:
		return publication.DropExpired, fmt.Errorf("publication.expired_requests must be one of: drop, reject")
	}
}
