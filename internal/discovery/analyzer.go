package discovery

import (
	"context"
	"fmt"

	"djangify/internal/llm"
	"djangify/internal/llmjson"
	"djangify/internal/logging"
	"djangify/internal/source"

	"go.uber.org/zap"
)

const (
	DefaultBatchSize       = 20
	DefaultFileByteBudget  = 8_000
	DefaultBatchByteBudget = 12_000
)

// AnalyzerConfig tunes the Analyzer.
type AnalyzerConfig struct {
	BatchSize       int
	FileByteBudget  int
	BatchByteBudget int
	Parallelism     int
	Profile         llm.Profile
}

// Analyzer extracts structural units from file contents batch by batch.
type Analyzer struct {
	client llm.Client
	cfg    AnalyzerConfig
}

// NewAnalyzer creates an Analyzer. Non-positive sizes fall back to defaults.
func NewAnalyzer(client llm.Client, cfg AnalyzerConfig) *Analyzer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FileByteBudget <= 0 {
		cfg.FileByteBudget = DefaultFileByteBudget
	}
	if cfg.BatchByteBudget <= 0 {
		cfg.BatchByteBudget = DefaultBatchByteBudget
	}
	return &Analyzer{client: client, cfg: cfg}
}

// Analyze runs one extraction request per batch of files and merges the
// five unit lists in batch order. Failing batches contribute an error
// record to the returned partials only.
func (a *Analyzer) Analyze(ctx context.Context, files []source.File) (UnitAnalysis, []Partial, error) {
	analysis := NewUnitAnalysis()
	if len(files) == 0 {
		return analysis, []Partial{}, nil
	}

	log := logging.Get(logging.CategoryDiscovery)
	total := chunkCount(len(files), a.cfg.BatchSize)
	log.Info("analyzing units", zap.Int("files", len(files)), zap.Int("batches", total))

	partials, err := fanOut(ctx, total, a.cfg.Parallelism, func(ctx context.Context, i int) Partial {
		start := i * a.cfg.BatchSize
		end := min(start+a.cfg.BatchSize, len(files))
		return a.analyzeBatch(ctx, files[start:end], i, total)
	})
	if err != nil {
		return analysis, nil, fmt.Errorf("analyze canceled: %w", err)
	}

	for _, p := range partials {
		for _, key := range analysisKeys {
			if list, ok := llmjson.ListField(p, key); ok {
				dst := analysis.list(key)
				*dst = append(*dst, list...)
			}
		}
	}
	return analysis, partials, nil
}

func (a *Analyzer) analyzeBatch(ctx context.Context, batch []source.File, i, total int) Partial {
	log := logging.Get(logging.CategoryDiscovery)
	payload := encodeBatch(batch, a.cfg.FileByteBudget, a.cfg.BatchByteBudget)
	req := a.cfg.Profile.Request("discovery/analyze", jsonOnlySystem, analyzePrompt(payload, i, total))

	resp, err := a.client.Complete(ctx, req)
	if err != nil {
		log.Warn("batch request failed", zap.Int("batch", i+1), zap.Error(err))
		return Partial{"error": ErrRequestFailed, "raw_text": err.Error()}
	}

	obj, ok := llmjson.DecodeObject(resp.Text)
	if !ok {
		log.Warn("batch returned invalid json", zap.Int("batch", i+1), zap.Int("len", len(resp.Text)))
		return Partial{"error": ErrInvalidJSON, "raw_text": resp.Text}
	}
	return Partial(obj)
}
