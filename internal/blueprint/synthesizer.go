package blueprint

import (
	"context"
	"fmt"

	"djangify/internal/discovery"
	"djangify/internal/llm"
	"djangify/internal/llmjson"
	"djangify/internal/logging"

	"go.uber.org/zap"
)

// Origin records where the pre-refinement blueprint came from.
type Origin string

const (
	OriginPrimary  Origin = "primary"
	OriginRepaired Origin = "repaired"
	OriginFallback Origin = "fallback"
)

// Audit documents written during synthesis.
const (
	NodeRaw     = "converter_raw"
	NodeParsed  = "converter_parsed"
	NodeRefined = "converter_refined"
)

// StateRecorder persists audit documents. *logging.AuditTrail satisfies it.
type StateRecorder interface {
	RecordState(node string, state any) error
}

// SynthesizerConfig holds the generation profile of each phase.
type SynthesizerConfig struct {
	Synthesize llm.Profile
	Repair     llm.Profile
	Refine     llm.Profile
}

// Input is the discovery output the blueprint is synthesized from.
type Input struct {
	Summary  discovery.StructureSummary
	Analysis discovery.UnitAnalysis
}

// Result is the outcome of one synthesis run.
type Result struct {
	Blueprint       Blueprint `json:"blueprint"`
	Origin          Origin    `json:"origin"`
	RawText         string    `json:"raw_text"`
	SourceTemplates int       `json:"source_templates"`
	InitialGaps     []string  `json:"initial_gaps"`
	RefineAttempted bool      `json:"refine_attempted"`
	Refined         bool      `json:"refined"`
	Gaps            []string  `json:"gaps"`
}

// Complete reports whether the final blueprint passed the predicate.
func (r *Result) Complete() bool { return len(r.Gaps) == 0 }

// Synthesizer turns discovery output into a Blueprint.
type Synthesizer struct {
	client   llm.Client
	cfg      SynthesizerConfig
	recorder StateRecorder
}

// NewSynthesizer creates a Synthesizer. recorder may be nil.
func NewSynthesizer(client llm.Client, cfg SynthesizerConfig, recorder StateRecorder) *Synthesizer {
	return &Synthesizer{client: client, cfg: cfg, recorder: recorder}
}

// Synthesize runs primary synthesis, at most one repair, the fallback when
// nothing decodes, and at most one refinement when the predicate finds gaps.
// Only a failed primary request is returned as an error.
func (s *Synthesizer) Synthesize(ctx context.Context, in Input) (*Result, error) {
	log := logging.Get(logging.CategoryConvert)
	timer := logging.StartTimer(logging.CategoryConvert, "synthesize")
	defer timer.Stop()

	res := &Result{SourceTemplates: SourceTemplateCount(in.Summary.CandidatesToRead)}

	req := s.cfg.Synthesize.Request("convert/synthesize", synthesizeSystem, synthesizePrompt(in.Summary, in.Analysis))
	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("primary synthesis failed: %w", err)
	}
	res.RawText = resp.Text
	s.record(NodeRaw, map[string]any{"raw": resp.Text})

	bp, ok := decodeBlueprint(resp.Text)
	res.Origin = OriginPrimary
	if !ok && resp.Text != "" {
		log.Warn("blueprint is not valid json, attempting repair", zap.Int("len", len(resp.Text)))
		bp, ok = s.repair(ctx, resp.Text)
		res.Origin = OriginRepaired
	}
	if !ok {
		log.Warn("all blueprint parsing attempts failed, using fallback blueprint")
		bp = Fallback()
		res.Origin = OriginFallback
	}

	res.InitialGaps = Check(bp, res.SourceTemplates)
	if len(res.InitialGaps) > 0 {
		res.RefineAttempted = true
		log.Info("refining blueprint",
			zap.Int("gaps", len(res.InitialGaps)),
			zap.Int("source_templates", res.SourceTemplates),
			zap.Int("templates", bp.TemplateCount()))

		if refined, ok := s.refine(ctx, bp, in, res.InitialGaps); ok {
			bp = refined
			res.Refined = true
			s.record(NodeRefined, refined)
		}
	}

	res.Blueprint = bp
	res.Gaps = Check(bp, res.SourceTemplates)
	s.record(NodeParsed, bp)

	log.Info("blueprint synthesized",
		zap.String("project", bp.ProjectName),
		zap.String("origin", string(res.Origin)),
		zap.Int("apps", len(bp.Apps)),
		zap.Bool("refined", res.Refined),
		zap.Int("remaining_gaps", len(res.Gaps)))
	return res, nil
}

func (s *Synthesizer) repair(ctx context.Context, raw string) (Blueprint, bool) {
	req := s.cfg.Repair.Request("convert/repair", repairSystem, repairPrompt(raw))
	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		logging.Get(logging.CategoryConvert).Warn("json repair failed", zap.Error(err))
		return Blueprint{}, false
	}
	return decodeBlueprint(resp.Text)
}

// refine is non-fatal: any failure keeps the current blueprint.
func (s *Synthesizer) refine(ctx context.Context, current Blueprint, in Input, gaps []string) (Blueprint, bool) {
	log := logging.Get(logging.CategoryConvert)
	req := s.cfg.Refine.Request("convert/refine", refineSystem, refinePrompt(current, in.Summary, in.Analysis, gaps))
	resp, err := s.client.Complete(ctx, req)
	if err != nil {
		log.Warn("refinement failed, keeping blueprint", zap.Error(err))
		return Blueprint{}, false
	}
	// An empty object carries nothing to replace the blueprint with.
	obj, ok := llmjson.DecodeObject(resp.Text)
	if !ok || len(obj) == 0 {
		log.Warn("refinement returned no usable json, keeping blueprint", zap.Int("len", len(resp.Text)))
		return Blueprint{}, false
	}
	return fromObject(obj), true
}

func (s *Synthesizer) record(node string, v any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.RecordState(node, v); err != nil {
		logging.Get(logging.CategoryConvert).Warn("failed to write audit record", zap.String("node", node), zap.Error(err))
	}
}
