package llm

import (
	"context"
	"strings"

	"djangify/internal/logging"

	"go.uber.org/zap"
)

// CallRecorder receives every model interaction.
// *logging.AuditTrail satisfies it.
type CallRecorder interface {
	RecordLLMCall(node, prompt, response string) error
}

// TracingClient wraps a Client and records each call with its node tag.
type TracingClient struct {
	underlying Client
	recorder   CallRecorder
}

// NewTracingClient wraps underlying. A nil recorder disables recording.
func NewTracingClient(underlying Client, recorder CallRecorder) *TracingClient {
	return &TracingClient{underlying: underlying, recorder: recorder}
}

// Complete forwards to the underlying client and records the exchange.
// Recording failures are logged and never surface to the caller.
func (t *TracingClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := t.underlying.Complete(ctx, req)
	if t.recorder == nil {
		return resp, err
	}

	response := resp.Text
	if err != nil {
		response = "error: " + err.Error()
	}
	if recErr := t.recorder.RecordLLMCall(nodeOrDefault(req.Node), joinPrompt(req), response); recErr != nil {
		logging.Get(logging.CategoryAPI).Warn("failed to record llm call", zap.String("node", req.Node), zap.Error(recErr))
	}
	return resp, err
}

func joinPrompt(req Request) string {
	if strings.TrimSpace(req.SystemInstruction) == "" {
		return req.UserPrompt
	}
	return "[system]\n" + req.SystemInstruction + "\n\n[user]\n" + req.UserPrompt
}

func nodeOrDefault(node string) string {
	if node == "" {
		return "llm"
	}
	return node
}
