// Package config loads orchestrator settings from YAML files. All fields
// are optional; unset values fall back to the defaults used by the
// orchestrator and memory packages.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/convoloop/convoloop/orchestrator"
)

// Duration wraps time.Duration so YAML values like "30s" or "1m" parse
// directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// RetryConfig mirrors orchestrator.RetryPolicy in YAML form.
type RetryConfig struct {
	MaxAttempts  int      `yaml:"max_attempts"`
	InitialDelay Duration `yaml:"initial_delay"`
	MaxDelay     Duration `yaml:"max_delay"`
	Multiplier   float64  `yaml:"multiplier"`
	Jitter       bool     `yaml:"jitter"`
}

// ProviderConfig selects and parameterizes the model backend.
type ProviderConfig struct {
	// Vendor is "anthropic" or "openai".
	Vendor      string  `yaml:"vendor"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// MemoryConfig selects the conversation store.
type MemoryConfig struct {
	// Backend is "memory" or "file".
	Backend string `yaml:"backend"`
	// Dir is the storage directory for the file backend.
	Dir string `yaml:"dir"`
	// TTL evicts idle threads from the in-memory backend when positive.
	TTL           Duration `yaml:"ttl"`
	SweepInterval Duration `yaml:"sweep_interval"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the root document.
type Config struct {
	Instructions     string         `yaml:"instructions"`
	MaxIterations    int            `yaml:"max_iterations"`
	StageTimeout     Duration       `yaml:"stage_timeout"`
	MaxParallelTools int            `yaml:"max_parallel_tools"`
	Retry            RetryConfig    `yaml:"retry"`
	Provider         ProviderConfig `yaml:"provider"`
	Memory           MemoryConfig   `yaml:"memory"`
	Logging          LoggingConfig  `yaml:"logging"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	retry := orchestrator.DefaultRetryPolicy()
	return Config{
		MaxIterations:    10,
		StageTimeout:     Duration(60 * time.Second),
		MaxParallelTools: 4,
		Retry: RetryConfig{
			MaxAttempts:  retry.MaxAttempts,
			InitialDelay: Duration(retry.InitialDelay),
			MaxDelay:     Duration(retry.MaxDelay),
			Multiplier:   retry.Multiplier,
			Jitter:       retry.Jitter,
		},
		Provider: ProviderConfig{Vendor: "anthropic"},
		Memory:   MemoryConfig{Backend: "memory"},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load reads and validates a YAML config file, overlaying it on Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the orchestrator cannot work with.
func (c Config) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.MaxParallelTools < 1 {
		return fmt.Errorf("max_parallel_tools must be >= 1, got %d", c.MaxParallelTools)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be >= 1, got %g", c.Retry.Multiplier)
	}
	switch c.Provider.Vendor {
	case "anthropic", "openai":
	default:
		return fmt.Errorf("provider.vendor must be anthropic or openai, got %q", c.Provider.Vendor)
	}
	switch c.Memory.Backend {
	case "memory", "file":
	default:
		return fmt.Errorf("memory.backend must be memory or file, got %q", c.Memory.Backend)
	}
	if c.Memory.Backend == "file" && c.Memory.Dir == "" {
		return fmt.Errorf("memory.dir is required for the file backend")
	}
	return nil
}

// RetryPolicy converts the retry section into the orchestrator's policy.
func (c Config) RetryPolicy() orchestrator.RetryPolicy {
	return orchestrator.RetryPolicy{
		MaxAttempts:  c.Retry.MaxAttempts,
		InitialDelay: c.Retry.InitialDelay.Std(),
		MaxDelay:     c.Retry.MaxDelay.Std(),
		Multiplier:   c.Retry.Multiplier,
		Jitter:       c.Retry.Jitter,
	}
}

// OrchestratorOptions returns an option function applying this config to
// an orchestrator.
func (c Config) OrchestratorOptions() func(o *orchestrator.Options) {
	return func(o *orchestrator.Options) {
		o.Instructions = c.Instructions
		o.MaxIterations = c.MaxIterations
		o.StageTimeout = c.StageTimeout.Std()
		o.MaxParallelTools = c.MaxParallelTools
		o.Retry = c.RetryPolicy()
	}
}
