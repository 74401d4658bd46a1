package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"djangify/internal/llm"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all djangify configuration.
type Config struct {
	// LLM provider selection and credentials
	LLM LLMConfig `yaml:"llm"`

	// Chunking, batching and per-call generation parameters
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Run history
	Store StoreConfig `yaml:"store"`
}

// LLMConfig configures the model provider.
type LLMConfig struct {
	Provider   string `yaml:"provider"` // openai, gemini
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"` // default model when a profile names none
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"` // empty means no timeout
	MaxRetries int    `yaml:"max_retries"`
}

// LoggingConfig configures process logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// StoreConfig configures the run ledger. An empty path disables it.
type StoreConfig struct {
	LedgerPath string `yaml:"ledger_path"`
}

// ValidProviders lists the supported LLM providers.
var ValidProviders = []string{string(llm.ProviderOpenAI), string(llm.ProviderGemini)}

// providerKeyEnv maps a provider to its API key variable.
var providerKeyEnv = map[string]string{
	string(llm.ProviderOpenAI): "OPENAI_API_KEY",
	string(llm.ProviderGemini): "GEMINI_API_KEY",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:   string(llm.ProviderOpenAI),
			Model:      "gpt-4o",
			MaxRetries: 3,
		},
		Pipeline: DefaultPipelineConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// LoadDotEnv loads variables from .env files that exist. Variables already
// set in the environment win.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	// LLM API key from environment; later entries win
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = string(llm.ProviderGemini)
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.APIKey = key
		c.LLM.Provider = string(llm.ProviderOpenAI)
	}

	// Explicit provider selection picks that provider's key
	if p := os.Getenv("DJANGIFY_PROVIDER"); p != "" {
		c.LLM.Provider = p
		if env, ok := providerKeyEnv[p]; ok {
			if key := os.Getenv(env); key != "" {
				c.LLM.APIKey = key
			}
		}
	}

	if url := os.Getenv("OPENAI_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}

	// Discovery calls follow the operator's model choice
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		c.LLM.Model = model
		c.Pipeline.Profiles.Summarize.Model = model
		c.Pipeline.Profiles.Analyze.Model = model
	}
	if model := os.Getenv("MODEL_NAME"); model != "" {
		c.Pipeline.Profiles.Report.Model = model
	}

	if path := os.Getenv("DJANGIFY_LEDGER"); path != "" {
		c.Store.LedgerPath = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetLLMTimeout returns the per-request timeout, zero when none is set.
func (c *Config) GetLLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ClientSettings converts the LLM section for the client factory.
func (c *Config) ClientSettings() llm.Settings {
	return llm.Settings{
		Provider:   llm.Provider(c.LLM.Provider),
		APIKey:     c.LLM.APIKey,
		BaseURL:    c.LLM.BaseURL,
		Model:      c.LLM.Model,
		Timeout:    c.GetLLMTimeout(),
		MaxRetries: c.LLM.MaxRetries,
	}
}

// Validate checks the configuration. A missing API key wraps
// llm.ErrMissingCredential.
func (c *Config) Validate() error {
	validProvider := false
	for _, p := range ValidProviders {
		if c.LLM.Provider == p {
			validProvider = true
			break
		}
	}
	if !validProvider {
		return fmt.Errorf("invalid LLM provider: %s (valid: %v)", c.LLM.Provider, ValidProviders)
	}

	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key not configured (set %s): %w", providerKeyEnv[c.LLM.Provider], llm.ErrMissingCredential)
	}

	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("invalid llm.timeout %q: %w", c.LLM.Timeout, err)
		}
	}

	return c.Pipeline.Validate()
}
