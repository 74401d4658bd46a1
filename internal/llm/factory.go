package llm

import (
	"context"
	"fmt"
	"time"
)

// Settings selects and configures a provider.
type Settings struct {
	Provider   Provider
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// NewClient builds the client for the configured provider.
func NewClient(ctx context.Context, s Settings) (Client, error) {
	switch s.Provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(OpenAIConfig{
			APIKey:     s.APIKey,
			BaseURL:    s.BaseURL,
			Model:      s.Model,
			Timeout:    s.Timeout,
			MaxRetries: s.MaxRetries,
		})
	case ProviderGemini:
		return NewGeminiClient(ctx, GeminiConfig{APIKey: s.APIKey, Model: s.Model})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", s.Provider)
	}
}
