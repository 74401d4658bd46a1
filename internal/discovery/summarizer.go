package discovery

import (
	"context"
	"fmt"

	"djangify/internal/llm"
	"djangify/internal/llmjson"
	"djangify/internal/logging"

	"go.uber.org/zap"
)

// DefaultChunkSize is the number of paths classified per model call.
const DefaultChunkSize = 150

// SummarizerConfig tunes the Summarizer.
type SummarizerConfig struct {
	ChunkSize   int
	Parallelism int
	Profile     llm.Profile
}

// Summarizer classifies a file list chunk by chunk.
type Summarizer struct {
	client llm.Client
	cfg    SummarizerConfig
}

// NewSummarizer creates a Summarizer. Non-positive sizes fall back to defaults.
func NewSummarizer(client llm.Client, cfg SummarizerConfig) *Summarizer {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Summarizer{client: client, cfg: cfg}
}

// Summarize classifies files and returns the merged summary together with
// the per-chunk partials in chunk order. A chunk whose request fails or
// whose answer is not a JSON object contributes an error record and the run
// continues. Only ctx cancellation is returned as an error.
func (s *Summarizer) Summarize(ctx context.Context, files []string) (StructureSummary, []Partial, error) {
	summary := NewStructureSummary()
	if len(files) == 0 {
		return summary, []Partial{}, nil
	}

	log := logging.Get(logging.CategoryDiscovery)
	total := chunkCount(len(files), s.cfg.ChunkSize)
	log.Info("summarizing structure", zap.Int("files", len(files)), zap.Int("chunks", total))

	partials, err := fanOut(ctx, total, s.cfg.Parallelism, func(ctx context.Context, i int) Partial {
		start := i * s.cfg.ChunkSize
		end := min(start+s.cfg.ChunkSize, len(files))
		return s.classifyChunk(ctx, files[start:end], i, total)
	})
	if err != nil {
		return summary, nil, fmt.Errorf("summarize canceled: %w", err)
	}

	for _, p := range partials {
		for _, key := range summaryKeys {
			if list, ok := llmjson.ListField(p, key); ok {
				dst := summary.list(key)
				*dst = append(*dst, list...)
			}
		}
	}
	summary.CandidatesToRead = CandidatesToRead(files)
	return summary, partials, nil
}

func (s *Summarizer) classifyChunk(ctx context.Context, chunk []string, i, total int) Partial {
	log := logging.Get(logging.CategoryDiscovery)
	req := s.cfg.Profile.Request("discovery/summarize", jsonOnlySystem, summarizePrompt(chunk, i, total))

	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		log.Warn("chunk request failed", zap.Int("chunk", i+1), zap.Error(err))
		return Partial{"error": ErrRequestFailed, "raw": err.Error()}
	}

	obj, ok := llmjson.DecodeObject(resp.Text)
	if !ok {
		log.Warn("chunk returned invalid json", zap.Int("chunk", i+1), zap.Int("len", len(resp.Text)))
		return Partial{"error": ErrInvalidJSON, "raw": resp.Text}
	}
	return Partial(obj)
}
