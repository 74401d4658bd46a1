package pipeline

import (
	"context"
	"fmt"
	"strings"

	"djangify/internal/blueprint"
	"djangify/internal/builder"
	"djangify/internal/config"
	"djangify/internal/discovery"
	"djangify/internal/llm"
	"djangify/internal/logging"
	"djangify/internal/report"
	"djangify/internal/rubyscan"
	"djangify/internal/source"

	"go.uber.org/zap"
)

// DefaultSelectGlobs picks the main Rails MVC files.
var DefaultSelectGlobs = []string{
	"app/models/**/*.rb",
	"app/controllers/**/*.rb",
	"config/routes.rb",
	"app/views/**/*",
}

// New builds the standard five-stage controller.
func New(client llm.Client, cfg config.PipelineConfig, recorder Recorder) *Controller {
	return NewController(recorder,
		&PlanStep{Config: cfg},
		&DiscoverStep{Client: client, Config: cfg, Recorder: recorder},
		&ConvertStep{Client: client, Config: cfg, Recorder: recorder},
		&BuildStep{},
		&IntegrateStep{Client: client, Config: cfg},
	)
}

// PlanStep lists the project, scans its Ruby sources and emits the plan.
type PlanStep struct {
	Config config.PipelineConfig
}

func (s *PlanStep) Stage() Stage { return StagePlan }

func (s *PlanStep) Run(ctx context.Context, st *State) (StageOutput, error) {
	log := logging.Get(logging.CategoryPlanner)

	tree, err := source.ListTree(st.InputDir, nil)
	if err != nil {
		return nil, err
	}

	var ruby []string
	for _, f := range tree.Files {
		if strings.HasSuffix(f, ".rb") {
			ruby = append(ruby, f)
		}
	}
	contents := make(map[string][]byte, len(ruby))
	for _, f := range source.ReadFiles(st.InputDir, ruby, s.Config.ReadMaxBytes) {
		contents[f.Path] = []byte(f.Content)
	}

	scanner := rubyscan.NewScanner()
	defer scanner.Close()
	inv := scanner.ScanFiles(ctx, contents, ruby)

	globs := s.Config.SelectGlobs
	if len(globs) == 0 {
		globs = DefaultSelectGlobs
	}
	plan := Plan{
		Phases:      []string{"discovery", "conversion", "build", "integration"},
		SelectGlobs: globs,
		Strategy:    "Select main Rails MVC files",
		Assumptions: []string{"standard Rails 5+ layout"},
		Risks:       append([]string{"possible meta-programming issues"}, inv.Risks()...),
	}

	log.Info("plan ready",
		zap.Int("files", len(tree.Files)),
		zap.Int("ruby_files", len(ruby)),
		zap.Int("classes", len(inv.Classes)),
		zap.Int("risks", len(plan.Risks)))
	return &PlanOutput{Plan: plan, Tree: tree, Inventory: inv}, nil
}

// DiscoverStep summarizes the selected files, reads the candidates and
// extracts their units.
type DiscoverStep struct {
	Client   llm.Client
	Config   config.PipelineConfig
	Recorder Recorder
}

func (s *DiscoverStep) Stage() Stage { return StageDiscover }

func (s *DiscoverStep) Run(ctx context.Context, st *State) (StageOutput, error) {
	log := logging.Get(logging.CategoryDiscovery)

	globs := DefaultSelectGlobs
	if st.Plan != nil && len(st.Plan.Plan.SelectGlobs) > 0 {
		globs = st.Plan.Plan.SelectGlobs
	}
	tree, err := source.ListTree(st.InputDir, globs)
	if err != nil {
		return nil, err
	}

	summarizer := discovery.NewSummarizer(s.Client, discovery.SummarizerConfig{
		ChunkSize:   s.Config.ChunkSize,
		Parallelism: s.Config.Parallelism,
		Profile:     s.Config.Profiles.Summarize,
	})
	summary, chunks, err := summarizer.Summarize(ctx, tree.Files)
	if err != nil {
		return nil, err
	}
	if s.Recorder != nil {
		if err := s.Recorder.RecordState("discovery_node_llm", map[string]any{
			"summary": summary,
			"chunks":  chunks,
		}); err != nil {
			log.Warn("failed to write audit record", zap.Error(err))
		}
	}

	candidates := summary.CandidatesToRead
	files := source.ReadFiles(st.InputDir, candidates, s.Config.ReadMaxBytes)
	log.Info("candidates read", zap.Int("candidates", len(candidates)), zap.Int("read", len(files)))

	analyzer := discovery.NewAnalyzer(s.Client, discovery.AnalyzerConfig{
		BatchSize:       s.Config.BatchSize,
		FileByteBudget:  s.Config.FileByteBudget,
		BatchByteBudget: s.Config.BatchByteBudget,
		Parallelism:     s.Config.Parallelism,
		Profile:         s.Config.Profiles.Analyze,
	})
	analysis, batches, err := analyzer.Analyze(ctx, files)
	if err != nil {
		return nil, err
	}

	return &DiscoveryOutput{
		Tree:         tree,
		Summary:      summary,
		FilesToRead:  candidates,
		Analysis:     analysis,
		ChunkResults: chunks,
		BatchResults: batches,
	}, nil
}

// ConvertStep synthesizes the blueprint.
type ConvertStep struct {
	Client   llm.Client
	Config   config.PipelineConfig
	Recorder Recorder
}

func (s *ConvertStep) Stage() Stage { return StageConvert }

func (s *ConvertStep) Run(ctx context.Context, st *State) (StageOutput, error) {
	if st.Discovery == nil {
		return nil, fmt.Errorf("discovery output missing")
	}
	syn := blueprint.NewSynthesizer(s.Client, blueprint.SynthesizerConfig{
		Synthesize: s.Config.Profiles.Synthesize,
		Repair:     s.Config.Profiles.Repair,
		Refine:     s.Config.Profiles.Refine,
	}, s.Recorder)

	res, err := syn.Synthesize(ctx, blueprint.Input{
		Summary:  st.Discovery.Summary,
		Analysis: st.Discovery.Analysis,
	})
	if err != nil {
		return nil, err
	}
	return &ConversionOutput{Synthesis: *res}, nil
}

// BuildStep writes the Django project under the output directory.
type BuildStep struct{}

func (s *BuildStep) Stage() Stage { return StageBuild }

func (s *BuildStep) Run(_ context.Context, st *State) (StageOutput, error) {
	bp, ok := st.Blueprint()
	if !ok {
		return nil, fmt.Errorf("blueprint missing")
	}
	res, err := builder.New(st.OutputDir).Build(bp)
	if err != nil {
		return nil, err
	}
	return &BuildOutput{Build: *res}, nil
}

// IntegrateStep writes the summary, README and requirements.
type IntegrateStep struct {
	Client llm.Client
	Config config.PipelineConfig
}

func (s *IntegrateStep) Stage() Stage { return StageIntegrate }

func (s *IntegrateStep) Run(ctx context.Context, st *State) (StageOutput, error) {
	if st.Discovery == nil || st.Conversion == nil || st.Build == nil {
		return nil, fmt.Errorf("earlier stage output missing")
	}
	res, err := report.New(s.Client, s.Config.Profiles.Report).Report(ctx, report.Input{
		InputDir:       st.InputDir,
		OutputDir:      st.OutputDir,
		ProjectRoot:    st.Build.Build.ProjectRoot,
		Summary:        st.Discovery.Summary,
		Analysis:       st.Discovery.Analysis,
		Blueprint:      st.Conversion.Synthesis.Blueprint,
		FilesToRead:    st.Discovery.FilesToRead,
		GeneratedFiles: st.Build.Build.Generated,
		Gaps:           st.Conversion.Synthesis.Gaps,
	})
	if err != nil {
		return nil, err
	}
	return &IntegrationOutput{Report: *res}, nil
}
