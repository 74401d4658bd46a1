// Package pipeline runs the conversion stages in order over a shared,
// versioned state.
package pipeline

import (
	"fmt"
	"time"

	"djangify/internal/blueprint"
	"djangify/internal/builder"
	"djangify/internal/discovery"
	"djangify/internal/report"
	"djangify/internal/rubyscan"
	"djangify/internal/source"

	"github.com/google/uuid"
)

// StateVersion is bumped whenever State changes shape.
const StateVersion = 1

// Stage identifies a pipeline stage.
type Stage string

const (
	StageNone      Stage = ""
	StagePlan      Stage = "plan"
	StageDiscover  Stage = "discover"
	StageConvert   Stage = "convert"
	StageBuild     Stage = "build"
	StageIntegrate Stage = "integrate"
	StageDone      Stage = "done"
)

// Stages lists the executable stages in run order.
var Stages = []Stage{StagePlan, StageDiscover, StageConvert, StageBuild, StageIntegrate}

// StageOutput is the tagged union of per-stage results.
type StageOutput interface {
	Stage() Stage
}

// Plan is the static plan produced before discovery.
type Plan struct {
	Phases      []string `json:"phases"`
	SelectGlobs []string `json:"select_globs"`
	Strategy    string   `json:"strategy"`
	Assumptions []string `json:"assumptions"`
	Risks       []string `json:"risks"`
}

// PlanOutput is the plan stage result.
type PlanOutput struct {
	Plan      Plan                `json:"plan"`
	Tree      source.Tree         `json:"tree"`
	Inventory *rubyscan.Inventory `json:"ruby_inventory,omitempty"`
}

// DiscoveryOutput is the discover stage result.
type DiscoveryOutput struct {
	Tree         source.Tree                `json:"tree"`
	Summary      discovery.StructureSummary `json:"rails_summary"`
	FilesToRead  []string                   `json:"files_to_read"`
	Analysis     discovery.UnitAnalysis     `json:"rails_units"`
	ChunkResults []discovery.Partial        `json:"chunk_results"`
	BatchResults []discovery.Partial        `json:"batch_results"`
}

// ConversionOutput is the convert stage result.
type ConversionOutput struct {
	Synthesis blueprint.Result `json:"synthesis"`
}

// BuildOutput is the build stage result.
type BuildOutput struct {
	Build builder.Result `json:"build"`
}

// IntegrationOutput is the integrate stage result.
type IntegrationOutput struct {
	Report report.Result `json:"report"`
}

func (*PlanOutput) Stage() Stage        { return StagePlan }
func (*DiscoveryOutput) Stage() Stage   { return StageDiscover }
func (*ConversionOutput) Stage() Stage  { return StageConvert }
func (*BuildOutput) Stage() Stage       { return StageBuild }
func (*IntegrationOutput) Stage() Stage { return StageIntegrate }

// StageRecord is one completed stage.
type StageRecord struct {
	Stage    Stage     `json:"stage"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// State is the record passed from stage to stage. Each output slot is nil
// until its stage completes.
type State struct {
	Version   int    `json:"version"`
	RunID     string `json:"run_id"`
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`
	Stage     Stage  `json:"stage"`

	Plan        *PlanOutput        `json:"plan,omitempty"`
	Discovery   *DiscoveryOutput   `json:"discovery,omitempty"`
	Conversion  *ConversionOutput  `json:"conversion,omitempty"`
	Build       *BuildOutput       `json:"build,omitempty"`
	Integration *IntegrationOutput `json:"integration,omitempty"`

	History []StageRecord `json:"history"`
}

// NewState creates the initial state for a run.
func NewState(inputDir, outputDir string) *State {
	return &State{
		Version:   StateVersion,
		RunID:     uuid.NewString(),
		InputDir:  inputDir,
		OutputDir: outputDir,
		Stage:     StageNone,
		History:   []StageRecord{},
	}
}

// Blueprint returns the synthesized blueprint, if convert has run.
func (s *State) Blueprint() (blueprint.Blueprint, bool) {
	if s.Conversion == nil {
		return blueprint.Blueprint{}, false
	}
	return s.Conversion.Synthesis.Blueprint, true
}

// apply stores out in its slot.
func (s *State) apply(out StageOutput) error {
	switch o := out.(type) {
	case *PlanOutput:
		s.Plan = o
	case *DiscoveryOutput:
		s.Discovery = o
	case *ConversionOutput:
		s.Conversion = o
	case *BuildOutput:
		s.Build = o
	case *IntegrationOutput:
		s.Integration = o
	default:
		return fmt.Errorf("unknown stage output %T", out)
	}
	return nil
}

// Summary maps each populated top-level field to a short description,
// in a stable order, for terminal display.
func (s *State) Summary() [][2]string {
	rows := [][2]string{
		{"version", fmt.Sprint(s.Version)},
		{"run_id", s.RunID},
		{"input_dir", s.InputDir},
		{"output_dir", s.OutputDir},
		{"stage", string(s.Stage)},
	}
	if s.Plan != nil {
		rows = append(rows, [2]string{"plan", fmt.Sprintf("%d globs, %d risks", len(s.Plan.Plan.SelectGlobs), len(s.Plan.Plan.Risks))})
	}
	if s.Discovery != nil {
		rows = append(rows, [2]string{"files_to_read", fmt.Sprintf("%d items", len(s.Discovery.FilesToRead))})
		rows = append(rows, [2]string{"rails_units", fmt.Sprintf("%d models, %d controllers",
			len(s.Discovery.Analysis.Models), len(s.Discovery.Analysis.Controllers))})
	}
	if s.Conversion != nil {
		syn := s.Conversion.Synthesis
		rows = append(rows, [2]string{"django_blueprint", fmt.Sprintf("%d apps, %d templates (%s)",
			len(syn.Blueprint.Apps), syn.Blueprint.TemplateCount(), syn.Origin)})
		rows = append(rows, [2]string{"completeness_gaps", fmt.Sprintf("%d items", len(syn.Gaps))})
	}
	if s.Build != nil {
		rows = append(rows, [2]string{"project_root", s.Build.Build.ProjectRoot})
		rows = append(rows, [2]string{"generated_files", fmt.Sprintf("%d items", len(s.Build.Build.Generated))})
	}
	if s.Integration != nil {
		rows = append(rows, [2]string{"readme", s.Integration.Report.Readme})
		rows = append(rows, [2]string{"summary", s.Integration.Report.Summary})
	}
	rows = append(rows, [2]string{"history", fmt.Sprintf("%d items", len(s.History))})
	return rows
}
