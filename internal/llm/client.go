// Package llm defines the language model service used by every pipeline
// stage and its provider implementations.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Provider identifies a model backend.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// Request is one text generation call.
type Request struct {
	// Node names the caller in the audit trail (e.g. "discovery/summarize").
	Node              string
	SystemInstruction string
	UserPrompt        string
	Model             string
	Temperature       float64
	MaxOutputTokens   int
}

// Profile holds the generation parameters for one kind of call.
type Profile struct {
	Model           string  `yaml:"model" json:"model"`
	Temperature     float64 `yaml:"temperature" json:"temperature"`
	MaxOutputTokens int     `yaml:"max_output_tokens" json:"max_output_tokens"`
}

// Request builds a request using the profile's parameters.
func (p Profile) Request(node, system, user string) Request {
	return Request{
		Node:              node,
		SystemInstruction: system,
		UserPrompt:        user,
		Model:             p.Model,
		Temperature:       p.Temperature,
		MaxOutputTokens:   p.MaxOutputTokens,
	}
}

// Response carries the generated text.
type Response struct {
	Text  string
	Model string
}

// Client is the language model service. Implementations block until the
// provider answers or ctx is done.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, req Request) (Response, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// ErrMissingCredential is returned when no API key is configured for the
// selected provider. It is fatal at startup.
var ErrMissingCredential = errors.New("missing API credential")

// TransportError wraps any failure to obtain a response from the provider.
type TransportError struct {
	Provider   Provider
	StatusCode int // zero when the request never got an HTTP answer
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransportError reports whether err is, or wraps, a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
