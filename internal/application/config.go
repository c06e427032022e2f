// Package application wires the examiner together: configuration
// loading, grading prompt assembly, and the submission-grading service
// that composes the dispatcher with the interpreter.
package application

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gradeband/examiner/internal/domain"
)

// CredentialsEnvVar names the environment variable holding a
// comma-separated credential list. Environment credentials take
// precedence over the config file so secrets can stay out of it.
const CredentialsEnvVar = "EXAMINER_API_KEYS"

// Defaults applied when the config file omits a setting.
const (
	DefaultRequestTimeout = 3 * time.Minute
	DefaultRateLimit      = 1.0
	DefaultRateBurst      = 2
	DefaultMaxConcurrency = 4
	DefaultListenAddr     = ":8080"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// Config holds the process-wide settings for the examiner. The
// credential collection is loaded once here and treated as read-only
// for the rest of the process lifetime.
type Config struct {
	// Credentials are the API secrets to fail over across.
	Credentials []domain.Credential `yaml:"credentials" validate:"required,min=1,dive,required"`

	// ModelPriority overrides the ranked model list; empty keeps the
	// built-in ranking.
	ModelPriority []string `yaml:"model_priority"`

	// FallbackModel overrides the minimal-capability fallback; empty
	// keeps the built-in one.
	FallbackModel string `yaml:"fallback_model"`

	// RequestTimeout bounds each individual generation call.
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"min=0"`

	// RateLimit is the sustained outbound requests per second; RateBurst
	// allows short spikes above it.
	RateLimit float64 `yaml:"rate_limit" validate:"min=0"`
	RateBurst int     `yaml:"rate_burst" validate:"min=0"`

	// MaxConcurrency caps concurrent gradings in batch mode.
	MaxConcurrency int `yaml:"max_concurrency" validate:"min=1,max=32"`

	// PromptTemplate overrides the built-in grading prompt. It must
	// contain {{.Topic}} and {{.Essay}} placeholders.
	PromptTemplate string `yaml:"prompt_template"`

	// ListenAddr is the HTTP server bind address.
	ListenAddr string `yaml:"listen_addr"`
}

// UnmarshalYAML decodes the config, accepting request_timeout as a Go
// duration string such as "90s" or "3m".
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Credentials    []domain.Credential `yaml:"credentials"`
		ModelPriority  []string            `yaml:"model_priority"`
		FallbackModel  string              `yaml:"fallback_model"`
		RequestTimeout string              `yaml:"request_timeout"`
		RateLimit      float64             `yaml:"rate_limit"`
		RateBurst      int                 `yaml:"rate_burst"`
		MaxConcurrency int                 `yaml:"max_concurrency"`
		PromptTemplate string              `yaml:"prompt_template"`
		ListenAddr     string              `yaml:"listen_addr"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	c.Credentials = raw.Credentials
	c.ModelPriority = raw.ModelPriority
	c.FallbackModel = raw.FallbackModel
	c.RateLimit = raw.RateLimit
	c.RateBurst = raw.RateBurst
	c.MaxConcurrency = raw.MaxConcurrency
	c.PromptTemplate = raw.PromptTemplate
	c.ListenAddr = raw.ListenAddr

	c.RequestTimeout = 0
	if raw.RequestTimeout != "" {
		d, err := time.ParseDuration(raw.RequestTimeout)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}

// DefaultConfig returns a Config with every optional setting at its
// default. Credentials still have to come from a file or the
// environment.
func DefaultConfig() Config {
	return Config{
		RequestTimeout: DefaultRequestTimeout,
		RateLimit:      DefaultRateLimit,
		RateBurst:      DefaultRateBurst,
		MaxConcurrency: DefaultMaxConcurrency,
		ListenAddr:     DefaultListenAddr,
	}
}

// LoadConfig reads the YAML file at path (skipped when path is empty),
// merges credentials from the environment, applies defaults, and
// validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	if env := os.Getenv(CredentialsEnvVar); env != "" {
		cfg.Credentials = splitCredentials(env)
	}

	cfg.applyDefaults()

	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst == 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.MaxConcurrency == 0 {
		c.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
}

func splitCredentials(env string) []domain.Credential {
	var out []domain.Credential
	for _, part := range strings.Split(env, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, domain.Credential(trimmed))
		}
	}
	return out
}
