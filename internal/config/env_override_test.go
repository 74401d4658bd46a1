package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_LLM(t *testing.T) {
	t.Run("OPENAI_API_KEY sets provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{LLM: LLMConfig{Provider: "gemini"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("GEMINI_API_KEY sets provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "g-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("Precedence: OPENAI overrides GEMINI", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.LLM.APIKey)
		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("DJANGIFY_PROVIDER selects the matching key", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("GEMINI_API_KEY", "g-key")
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("DJANGIFY_PROVIDER", "gemini")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "g-key", cfg.LLM.APIKey)
		assert.Equal(t, "gemini", cfg.LLM.Provider)
	})

	t.Run("no env keeps file values", func(t *testing.T) {
		clearEnv(t)
		cfg := &Config{LLM: LLMConfig{Provider: "openai", APIKey: "from-file"}}
		cfg.applyEnvOverrides()
		assert.Equal(t, "from-file", cfg.LLM.APIKey)
	})
}

func TestEnvOverrides_Other(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("OPENAI_BASE_URL", "http://proxy/v1")
	t.Setenv("DJANGIFY_LEDGER", "/var/lib/djangify/runs.db")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("MODEL_NAME", "gpt-4.1-mini")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "gpt-4.1", cfg.LLM.Model)
	assert.Equal(t, "gpt-4.1", cfg.Pipeline.Profiles.Summarize.Model)
	assert.Equal(t, "gpt-4.1", cfg.Pipeline.Profiles.Analyze.Model)
	assert.Equal(t, "gpt-4o", cfg.Pipeline.Profiles.Synthesize.Model, "synthesis keeps its own model")
	assert.Equal(t, "gpt-4.1-mini", cfg.Pipeline.Profiles.Report.Model)
	assert.Equal(t, "http://proxy/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "/var/lib/djangify/runs.db", cfg.Store.LedgerPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
