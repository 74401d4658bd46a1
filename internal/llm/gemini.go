package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"djangify/internal/logging"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey string
	Model  string // used when a request carries no model, or an OpenAI model name
}

// GeminiClient implements Client on top of the official genai SDK.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client. An empty API key yields ErrMissingCredential.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingCredential)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiClient{client: client, model: model}, nil
}

// Complete generates content for a single user prompt.
func (g *GeminiClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	model := g.resolveModel(req.Model)

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	if strings.TrimSpace(req.SystemInstruction) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.UserPrompt), cfg)
	if err != nil {
		logging.Get(logging.CategoryAPI).Error("gemini request failed",
			zap.String("node", req.Node), zap.String("model", model), zap.Error(err))
		return Response{}, &TransportError{Provider: ProviderGemini, Err: err}
	}

	text := resp.Text()
	logging.Get(logging.CategoryAPI).Debug("gemini response",
		zap.String("node", req.Node),
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(text)))
	return Response{Text: text, Model: model}, nil
}

// resolveModel keeps pipeline profiles portable: profiles name OpenAI models
// by default, which Gemini cannot serve.
func (g *GeminiClient) resolveModel(requested string) string {
	if requested == "" || !strings.HasPrefix(requested, "gemini") {
		return g.model
	}
	return requested
}
