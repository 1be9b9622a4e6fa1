// Package server exposes the capture pipeline over HTTP: a synchronous
// PDF endpoint, an async job API, and a health endpoint.
package server

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigRead  = errors.New("failed to read server config")
	ErrConfigParse = errors.New("failed to parse server config")
)

// Config holds the server daemon configuration, loaded from YAML with
// environment overrides.
type Config struct {
	Addr                  string  `yaml:"addr"`
	Workers               int     `yaml:"workers"`
	RequestTimeoutSeconds int     `yaml:"requestTimeoutSeconds"`
	RateLimitRPS          float64 `yaml:"rateLimitRps"`
	RateLimitBurst        int     `yaml:"rateLimitBurst"`
	MaxLinksCap           int     `yaml:"maxLinksCap"`
	JobRetentionMinutes   int     `yaml:"jobRetentionMinutes"`
	ResultGraceSeconds    int     `yaml:"resultGraceSeconds"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Addr:                  ":8080",
		Workers:               0, // auto from GOMAXPROCS
		RequestTimeoutSeconds: 180,
		RateLimitRPS:          1,
		RateLimitBurst:        5,
		MaxLinksCap:           10,
		JobRetentionMinutes:   30,
		ResultGraceSeconds:    15,
	}
}

// RequestTimeout returns the per-request capture budget.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// JobRetention returns how long finished jobs stay queryable.
func (c Config) JobRetention() time.Duration {
	return time.Duration(c.JobRetentionMinutes) * time.Minute
}

// ResultGrace returns the delay before a streamed job artifact is deleted,
// giving concurrent readers time to finish.
func (c Config) ResultGrace() time.Duration {
	return time.Duration(c.ResultGraceSeconds) * time.Second
}

// LoadConfig reads the YAML file (when path is non-empty), then applies
// environment overrides. Unknown YAML fields are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- config path is operator-provided
		if err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfigRead, err)
		}
		if err := yaml.UnmarshalWithOptions(data, &cfg, yaml.Strict()); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnvOverrides lets deployment environments override file settings.
func applyEnvOverrides(cfg *Config) error {
	if v, ok := os.LookupEnv("WEB2PDF_ADDR"); ok {
		cfg.Addr = v
	}

	intVars := []struct {
		env  string
		dest *int
	}{
		{"WEB2PDF_WORKERS", &cfg.Workers},
		{"WEB2PDF_REQUEST_TIMEOUT_SECONDS", &cfg.RequestTimeoutSeconds},
		{"WEB2PDF_RATE_LIMIT_BURST", &cfg.RateLimitBurst},
		{"WEB2PDF_MAX_LINKS_CAP", &cfg.MaxLinksCap},
		{"WEB2PDF_JOB_RETENTION_MINUTES", &cfg.JobRetentionMinutes},
		{"WEB2PDF_RESULT_GRACE_SECONDS", &cfg.ResultGraceSeconds},
	}
	for _, v := range intVars {
		raw, ok := os.LookupEnv(v.env)
		if !ok {
			continue
		}
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", v.env, err)
		}
		*v.dest = parsed
	}

	if raw, ok := os.LookupEnv("WEB2PDF_RATE_LIMIT_RPS"); ok {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid WEB2PDF_RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = parsed
	}

	return nil
}
