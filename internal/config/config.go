package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ReadSourceComposed    = "composed"
	ReadSourcePassthrough = "passthrough"
)

// Config holds all application configuration. Values come from an optional YAML
// file, overridden by environment variables.
type Config struct {
	HTTPPort               string        `yaml:"http_port"`
	LogLevel               string        `yaml:"log_level"`
	ServiceName            string        `yaml:"service_name"`
	ContractVersion        string        `yaml:"contract_version"`
	PolicyVersion          string        `yaml:"policy_version"`
	CoreBaseURL            string        `yaml:"core_base_url"`
	PerformanceBaseURL     string        `yaml:"performance_base_url"`
	RiskBaseURL            string        `yaml:"risk_base_url"`
	UpstreamTimeout        time.Duration `yaml:"upstream_timeout"`
	UpstreamRetryMax       int           `yaml:"upstream_max_retries"`
	UpstreamRetryBaseDelay time.Duration `yaml:"upstream_retry_backoff"`
	ReadSource             string        `yaml:"read_source"`
	ReportDownloadBaseURL  string        `yaml:"report_download_base_url"`
	ShutdownTimeout        time.Duration `yaml:"shutdown_timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		HTTPPort:               "8080",
		LogLevel:               "INFO",
		ServiceName:            "lotus-report",
		ContractVersion:        "v1",
		PolicyVersion:          "ras-default-v1",
		CoreBaseURL:            "http://localhost:8201",
		PerformanceBaseURL:     "http://localhost:8002",
		RiskBaseURL:            "http://localhost:8130",
		UpstreamTimeout:        10 * time.Second,
		UpstreamRetryMax:       2,
		UpstreamRetryBaseDelay: 200 * time.Millisecond,
		ReadSource:             ReadSourceComposed,
		ReportDownloadBaseURL:  "/reports",
		ShutdownTimeout:        30 * time.Second,
	}
}

// LoadFile reads a YAML file over the defaults, then applies environment overrides.
// An empty path skips the file.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg = applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that have no safe fallback.
func (c Config) Validate() error {
	switch c.ReadSource {
	case ReadSourceComposed, ReadSourcePassthrough:
	default:
		return fmt.Errorf("read_source must be %q or %q, got %q", ReadSourceComposed, ReadSourcePassthrough, c.ReadSource)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream_timeout must be positive, got %v", c.UpstreamTimeout)
	}
	return nil
}

// SlogLevel maps LogLevel onto a slog level, defaulting to Info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func applyEnv(c Config) Config {
	c.HTTPPort = envOrDefault("HTTP_PORT", c.HTTPPort)
	c.LogLevel = envOrDefault("LOG_LEVEL", c.LogLevel)
	c.ServiceName = envOrDefault("SERVICE_NAME", c.ServiceName)
	c.ContractVersion = envOrDefault("CONTRACT_VERSION", c.ContractVersion)
	c.PolicyVersion = envOrDefault("POLICY_VERSION", c.PolicyVersion)
	c.CoreBaseURL = envOrDefaultWarn("CORE_BASE_URL", c.CoreBaseURL)
	c.PerformanceBaseURL = envOrDefaultWarn("PERFORMANCE_BASE_URL", c.PerformanceBaseURL)
	c.RiskBaseURL = envOrDefaultWarn("RISK_BASE_URL", c.RiskBaseURL)
	c.UpstreamTimeout = envOrDefaultDuration("UPSTREAM_TIMEOUT", c.UpstreamTimeout)
	c.UpstreamRetryMax = envOrDefaultInt("UPSTREAM_MAX_RETRIES", c.UpstreamRetryMax)
	c.UpstreamRetryBaseDelay = envOrDefaultDuration("UPSTREAM_RETRY_BACKOFF", c.UpstreamRetryBaseDelay)
	c.ReadSource = strings.ToLower(envOrDefault("READ_SOURCE", c.ReadSource))
	c.ReportDownloadBaseURL = envOrDefault("REPORT_DOWNLOAD_BASE_URL", c.ReportDownloadBaseURL)
	c.ShutdownTimeout = envOrDefaultDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	return c
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envOrDefaultWarn(key, defaultVal string) string {
	v := envOrDefault(key, defaultVal)
	if v == "" {
		slog.Warn("required env var not set", "key", key)
	}
	return v
}

func envOrDefaultInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return n
	}
	return defaultVal
}

func envOrDefaultDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Warn("invalid duration env var, using default", "key", key, "value", v, "default", defaultVal)
			return defaultVal
		}
		return d
	}
	return defaultVal
}
