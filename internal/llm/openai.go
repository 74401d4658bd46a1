package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"djangify/internal/logging"

	"go.uber.org/zap"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAI-compatible chat completions client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string        // used when a request carries no model
	Timeout    time.Duration // zero means no client-side timeout
	MaxRetries int
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
}

type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAIClient implements Client over the chat completions endpoint.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client
	backoff    func(attempt int) time.Duration

	mu          sync.Mutex
	lastRequest time.Time
}

// NewOpenAIClient creates a client. An empty API key yields ErrMissingCredential.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		backoff: func(attempt int) time.Duration {
			return time.Duration(1<<uint(attempt-1)) * time.Second
		},
	}, nil
}

// Complete sends one chat completion request. Rate limits (429), 5xx answers
// and network failures are retried with exponential backoff.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (Response, error) {
	log := logging.Get(logging.CategoryAPI)
	start := time.Now()

	model := req.Model
	if model == "" {
		model = c.model
	}

	var messages []openAIMessage
	if strings.TrimSpace(req.SystemInstruction) != "" {
		messages = append(messages, openAIMessage{Role: "system", Content: req.SystemInstruction})
	}
	messages = append(messages, openAIMessage{Role: "user", Content: req.UserPrompt})

	body, err := json.Marshal(openAIRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxOutputTokens,
	})
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	log.Debug("openai request",
		zap.String("node", req.Node),
		zap.String("model", model),
		zap.Int("system_len", len(req.SystemInstruction)),
		zap.Int("user_len", len(req.UserPrompt)))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, &TransportError{Provider: ProviderOpenAI, Err: ctx.Err()}
			case <-time.After(c.backoff(attempt)):
			}
		}
		c.throttle()

		resp, retry, err := c.do(ctx, body)
		if err == nil {
			log.Debug("openai response",
				zap.String("node", req.Node),
				zap.Duration("elapsed", time.Since(start)),
				zap.Int("response_len", len(resp.Text)))
			return resp, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
		log.Warn("openai request failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}

	log.Error("openai request failed", zap.String("node", req.Node), zap.Duration("elapsed", time.Since(start)), zap.Error(lastErr))
	return Response{}, lastErr
}

func (c *OpenAIClient) throttle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
}

// do performs a single HTTP round trip. The bool reports whether the failure is retryable.
func (c *OpenAIClient) do(ctx context.Context, body []byte) (Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, false, &TransportError{Provider: ProviderOpenAI, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, true, &TransportError{Provider: ProviderOpenAI, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, true, &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return Response{}, retry, &TransportError{
			Provider:   ProviderOpenAI,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", strings.TrimSpace(string(data))),
		}
	}

	var parsed openAIResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Response{}, false, &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	if parsed.Error != nil {
		return Response{}, false, &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Err: fmt.Errorf("API error: %s", parsed.Error.Message)}
	}
	if len(parsed.Choices) == 0 {
		return Response{}, false, &TransportError{Provider: ProviderOpenAI, StatusCode: resp.StatusCode, Err: fmt.Errorf("no completion returned")}
	}

	return Response{Text: parsed.Choices[0].Message.Content, Model: parsed.Model}, false, nil
}
