package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// Config holds the complete service configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logger      LoggerConfig      `yaml:"logger"`
	CORS        CORSConfig        `yaml:"cors"`
	Dispatch    DispatchConfig    `yaml:"dispatch"`
	Tools       []ToolConfig      `yaml:"tools"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
	Chrome      ChromeConfig      `yaml:"chrome"`
}

type ServerConfig struct {
	Host        string `yaml:"host" env:"PDFD_HOST"`
	Port        string `yaml:"port" env:"PDFD_PORT"`
	Prefork     bool   `yaml:"prefork" env:"PDFD_PREFORK"`
	BodyLimitMB int    `yaml:"body_limit_mb" env:"PDFD_BODY_LIMIT_MB"`
}

type LoggerConfig struct {
	File       string `yaml:"file" env:"PDFD_LOG_FILE"`
	Level      string `yaml:"level" env:"PDFD_LOG_LEVEL"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// CORSConfig controls cross-origin access. The two historical deployments
// disagreed on it, so it is a switch rather than a hard-coded policy.
type CORSConfig struct {
	Enabled      bool     `yaml:"enabled" env:"PDFD_CORS_ENABLED"`
	AllowOrigins []string `yaml:"allow_origins" env:"PDFD_CORS_ORIGINS" envSeparator:","`
}

type DispatchConfig struct {
	WorkDir     string        `yaml:"work_dir" env:"PDFD_WORK_DIR"`
	Timeout     time.Duration `yaml:"timeout" env:"PDFD_TIMEOUT"`
	KeepFiles   bool          `yaml:"keep_files" env:"PDFD_KEEP_FILES"`
	MaxPDFBytes int           `yaml:"max_pdf_bytes" env:"PDFD_MAX_PDF_BYTES"`
}

// ToolConfig describes one conversion tool. Command is a shell-like template
// containing {input} and {output}. Probe, when set, makes the tool available
// only while that path exists.
type ToolConfig struct {
	ID                 string `yaml:"id"`
	Command            string `yaml:"command"`
	Probe              string `yaml:"probe"`
	Engine             string `yaml:"engine"`
	IgnoreStdoutErrors bool   `yaml:"ignore_stdout_errors"`
}

type RateLimiterConfig struct {
	Enabled   bool          `yaml:"enabled" env:"PDFD_RATE_LIMIT_ENABLED"`
	Max       int           `yaml:"max" env:"PDFD_RATE_LIMIT_MAX"`
	Interval  time.Duration `yaml:"interval" env:"PDFD_RATE_LIMIT_INTERVAL"`
	RedisAddr string        `yaml:"redis_addr" env:"PDFD_REDIS_ADDR"`
	RedisDB   int           `yaml:"redis_db" env:"PDFD_REDIS_DB"`
}

type ChromeConfig struct {
	Path      string `yaml:"path" env:"CHROME_BIN"`
	NoSandbox bool   `yaml:"no_sandbox" env:"PDFD_CHROME_NO_SANDBOX"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

// Load reads the configuration from CONFIG_PATH, falling back to config.yaml.
// A missing default file yields Default(); a missing explicit file panics.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			mustApplyEnv(&cfg)
			mustValidate(cfg)
			return cfg
		}
		path = defaultConfigPath
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the YAML file at path. Invalid values panic.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	applyDefaults(&cfg)
	mustApplyEnv(&cfg)
	mustValidate(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":5000"
	}
	if cfg.Server.BodyLimitMB == 0 {
		cfg.Server.BodyLimitMB = 32
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Dispatch.WorkDir == "" {
		cfg.Dispatch.WorkDir = "/data"
	}
	if cfg.Dispatch.Timeout == 0 {
		cfg.Dispatch.Timeout = 2 * time.Minute
	}
	if cfg.Dispatch.MaxPDFBytes == 0 {
		cfg.Dispatch.MaxPDFBytes = 100 * 1024 * 1024
	}
	if cfg.RateLimiter.Interval == 0 {
		cfg.RateLimiter.Interval = time.Minute
	}
}

// mustApplyEnv overlays environment variables. Tools are only configurable from the file.
func mustApplyEnv(cfg *Config) {
	targets := []any{&cfg.Server, &cfg.Logger, &cfg.CORS, &cfg.Dispatch, &cfg.RateLimiter, &cfg.Chrome}
	for _, t := range targets {
		if err := env.Parse(t); err != nil {
			panic(fmt.Sprintf("config: environment: %v", err))
		}
	}
}

func mustValidate(cfg Config) {
	if err := Validate(cfg); err != nil {
		panic("config: " + err.Error())
	}
}

// Validate reports the first invalid setting in cfg.
func Validate(cfg Config) error {
	if !strings.HasPrefix(cfg.Server.Port, ":") {
		return fmt.Errorf("server.port must look like \":5000\", got %q", cfg.Server.Port)
	}
	if cfg.Server.BodyLimitMB < 0 {
		return fmt.Errorf("server.body_limit_mb must not be negative")
	}
	if cfg.Dispatch.Timeout < 0 {
		return fmt.Errorf("dispatch.timeout must be positive")
	}
	if cfg.Dispatch.MaxPDFBytes < 0 {
		return fmt.Errorf("dispatch.max_pdf_bytes must not be negative")
	}
	if cfg.RateLimiter.Enabled && cfg.RateLimiter.Max <= 0 {
		return fmt.Errorf("rate_limiter.max must be positive when enabled")
	}
	if cfg.RateLimiter.Interval < 0 {
		return fmt.Errorf("rate_limiter.interval must be positive")
	}

	seen := make(map[string]bool, len(cfg.Tools))
	for i, t := range cfg.Tools {
		if t.ID == "" {
			return fmt.Errorf("tools[%d].id is empty", i)
		}
		if seen[t.ID] {
			return fmt.Errorf("tools[%d].id %q is duplicated", i, t.ID)
		}
		seen[t.ID] = true
		switch t.Engine {
		case "", "exec", "chromedp":
		default:
			return fmt.Errorf("tools[%d] (%s) has unknown engine %q", i, t.ID, t.Engine)
		}
		if t.Engine == "" || t.Engine == "exec" {
			if t.Command == "" {
				return fmt.Errorf("tools[%d] (%s) has no command", i, t.ID)
			}
			if !strings.Contains(t.Command, "{input}") || !strings.Contains(t.Command, "{output}") {
				return fmt.Errorf("tools[%d] (%s) command must reference {input} and {output}", i, t.ID)
			}
		}
	}
	return nil
}
