package config

import (
	"fmt"

	"djangify/internal/llm"
)

// PipelineConfig configures discovery sizes and the generation profile of
// every model call.
type PipelineConfig struct {
	ChunkSize       int      `yaml:"chunk_size"`             // paths per classification call
	BatchSize       int      `yaml:"batch_size"`             // files per extraction call
	FileByteBudget  int      `yaml:"file_byte_budget"`       // per-file cut inside a batch
	BatchByteBudget int      `yaml:"batch_byte_budget"`      // cut of the serialized batch
	ReadMaxBytes    int      `yaml:"read_max_bytes"`         // per-file read cap
	Parallelism     int      `yaml:"parallelism"`            // concurrent chunk/batch calls; 1 is sequential
	SelectGlobs     []string `yaml:"select_globs,omitempty"` // discovery file selection; empty uses the plan's

	Profiles ProfilesConfig `yaml:"profiles"`
}

// ProfilesConfig holds the generation parameters per call kind.
type ProfilesConfig struct {
	Summarize  llm.Profile `yaml:"summarize"`
	Analyze    llm.Profile `yaml:"analyze"`
	Synthesize llm.Profile `yaml:"synthesize"`
	Repair     llm.Profile `yaml:"repair"`
	Refine     llm.Profile `yaml:"refine"`
	Report     llm.Profile `yaml:"report"`
}

// DefaultPipelineConfig returns the stock sizes and profiles.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkSize:       150,
		BatchSize:       20,
		FileByteBudget:  8_000,
		BatchByteBudget: 12_000,
		ReadMaxBytes:    80_000,
		Parallelism:     1,
		Profiles: ProfilesConfig{
			Summarize:  llm.Profile{Model: "gpt-4o", Temperature: 0, MaxOutputTokens: 1500},
			Analyze:    llm.Profile{Model: "gpt-4o", Temperature: 0, MaxOutputTokens: 4000},
			Synthesize: llm.Profile{Model: "gpt-4o", Temperature: 0.3, MaxOutputTokens: 8000},
			Repair:     llm.Profile{Model: "gpt-4o-mini", Temperature: 0, MaxOutputTokens: 8000},
			Refine:     llm.Profile{Model: "gpt-4o", Temperature: 0.4, MaxOutputTokens: 8000},
			Report:     llm.Profile{Model: "gpt-4o-mini", Temperature: 0.25, MaxOutputTokens: 1500},
		},
	}
}

// Validate rejects non-positive sizes.
func (p PipelineConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value int
	}{
		{"chunk_size", p.ChunkSize},
		{"batch_size", p.BatchSize},
		{"file_byte_budget", p.FileByteBudget},
		{"batch_byte_budget", p.BatchByteBudget},
		{"read_max_bytes", p.ReadMaxBytes},
		{"parallelism", p.Parallelism},
	} {
		if f.value <= 0 {
			return fmt.Errorf("pipeline.%s must be positive, got %d", f.name, f.value)
		}
	}
	return nil
}
