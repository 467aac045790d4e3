// Package config provides configuration loading for campaignmesh.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the complete service configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Model      ModelConfig      `yaml:"model"`
	RAG        RAGConfig        `yaml:"rag"`
	Insight    InsightConfig    `yaml:"insight"`
	Onboarding OnboardingConfig `yaml:"onboarding"`
	Workflow   WorkflowConfig   `yaml:"workflow"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig configures the HTTP trigger.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"min=0"`
	// CORSOrigins lists allowed origins. "*" allows any.
	CORSOrigins []string `yaml:"cors_origins"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level     string `yaml:"level" validate:"oneof=debug info warn error"`
	Format    string `yaml:"format" validate:"oneof=json text"`
	AddSource bool   `yaml:"add_source"`
}

// ModelConfig configures the text generation backend.
type ModelConfig struct {
	// Provider selects the adapter: openai, anthropic or mock.
	Provider    string        `yaml:"provider" validate:"oneof=openai anthropic mock"`
	Name        string        `yaml:"name"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url" validate:"omitempty,url"`
	Temperature float64       `yaml:"temperature" validate:"min=0,max=2"`
	MaxTokens   int64         `yaml:"max_tokens" validate:"min=0"`
	Timeout     time.Duration `yaml:"timeout" validate:"min=0"`
}

// RAGConfig configures the research endpoint.
type RAGConfig struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	Collection string        `yaml:"collection" validate:"required"`
	Model      string        `yaml:"model" validate:"required"`
	Timeout    time.Duration `yaml:"timeout" validate:"min=0"`
}

// InsightConfig configures the cultural insight service.
type InsightConfig struct {
	APIKey            string        `yaml:"api_key"`
	BaseURL           string        `yaml:"base_url" validate:"required,url"`
	RequestsPerSecond float64       `yaml:"requests_per_second" validate:"min=0"`
	Burst             int           `yaml:"burst" validate:"min=0"`
	Timeout           time.Duration `yaml:"timeout" validate:"min=0"`
}

// OnboardingConfig selects the profile store.
type OnboardingConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite"`
	Path   string `yaml:"path" validate:"required_if=Driver sqlite"`
}

// WorkflowConfig bounds workflow runs.
type WorkflowConfig struct {
	MaxDeliveries int           `yaml:"max_deliveries" validate:"min=0"`
	CallTimeout   time.Duration `yaml:"call_timeout" validate:"min=0"`
	// MaxRuns caps the run registry. Zero keeps every run.
	MaxRuns int `yaml:"max_runs" validate:"min=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    5 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Model: ModelConfig{
			Provider:    "openai",
			Name:        "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   4096,
			Timeout:     2 * time.Minute,
		},
		RAG: RAGConfig{
			BaseURL:    "https://api.vultrinference.com/v1/",
			Collection: "alboostcollect",
			Model:      "llama-3.3-70b-instruct-fp8",
			Timeout:    200 * time.Second,
		},
		Insight: InsightConfig{
			BaseURL:           "https://hackathon.api.qloo.com",
			RequestsPerSecond: 5,
			Burst:             5,
			Timeout:           30 * time.Second,
		},
		Onboarding: OnboardingConfig{
			Driver: "memory",
		},
		Workflow: WorkflowConfig{
			MaxDeliveries: 100,
			CallTimeout:   200 * time.Second,
			MaxRuns:       1000,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvOpenAIKey     = "OPENAI_API_KEY"
	EnvAnthropicKey  = "ANTHROPIC_API_KEY"
	EnvRAGKey        = "VULTR_API_KEY"
	EnvRAGCollection = "VULTR_COLLECTION_NAME"
	EnvInsightKey    = "QLOO_API_KEY"
	EnvAddr          = "CAMPAIGNMESH_ADDR"
	EnvDBPath        = "CAMPAIGNMESH_DB_PATH"
	EnvLogLevel      = "CAMPAIGNMESH_LOG_LEVEL"
)

// ApplyEnv overrides fields from the environment. lookup is usually
// os.LookupEnv. A provider key only applies to the selected provider, and a
// database path switches onboarding to sqlite.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return "", false
		}
		return v, true
	}

	switch c.Model.Provider {
	case "openai":
		if v, ok := get(EnvOpenAIKey); ok {
			c.Model.APIKey = v
		}
	case "anthropic":
		if v, ok := get(EnvAnthropicKey); ok {
			c.Model.APIKey = v
		}
	}
	if v, ok := get(EnvRAGKey); ok {
		c.RAG.APIKey = v
	}
	if v, ok := get(EnvRAGCollection); ok {
		c.RAG.Collection = v
	}
	if v, ok := get(EnvInsightKey); ok {
		c.Insight.APIKey = v
	}
	if v, ok := get(EnvAddr); ok {
		c.Server.Addr = v
	}
	if v, ok := get(EnvDBPath); ok {
		c.Onboarding.Driver = "sqlite"
		c.Onboarding.Path = v
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks struct tags and returns every violation in one error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation error: %w", err)
	}

	msgs := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		msgs = append(msgs, formatValidationError(e))
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

func formatValidationError(e validator.FieldError) string {
	field := fieldPath(e.Namespace())

	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s (got: %v)", field, e.Param(), e.Value())
	case "max":
		return fmt.Sprintf("%s must be at most %s (got: %v)", field, e.Param(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got: %v)", field, e.Param(), e.Value())
	case "url":
		return fmt.Sprintf("%s must be a valid URL (got: %v)", field, e.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}

// fieldPath turns "Config.Server.Addr" into "server.addr".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}
	return strings.Join(parts, ".")
}

// LoadFromFile parses a YAML file over DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load reads path (defaults only when empty), applies the process
// environment and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
