// Package report writes the integration artifacts of a conversion run:
// the JSON summary, the README and requirements.txt.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"djangify/internal/blueprint"
	"djangify/internal/discovery"
	"djangify/internal/llm"
	"djangify/internal/logging"

	"go.uber.org/zap"
)

// Stats are the headline counts of a run.
type Stats struct {
	RailsFilesAnalyzed   int      `json:"rails_files_analyzed"`
	DjangoFilesGenerated int      `json:"django_files_generated"`
	Apps                 []string `json:"apps"`
	ModelsCount          int      `json:"models_count"`
	ViewsCount           int      `json:"views_count"`
	TemplatesCount       int      `json:"templates_count"`
	CompletenessGaps     []string `json:"completeness_gaps"`
}

// Input is everything the reporter needs from earlier stages.
type Input struct {
	InputDir       string
	OutputDir      string
	ProjectRoot    string
	Summary        discovery.StructureSummary
	Analysis       discovery.UnitAnalysis
	Blueprint      blueprint.Blueprint
	FilesToRead    []string
	GeneratedFiles []string
	Gaps           []string
}

// Document is the persisted conversion_summary.json.
type Document struct {
	Timestamp       string                     `json:"timestamp"`
	InputDir        string                     `json:"input_dir"`
	OutputDir       string                     `json:"output_dir"`
	ProjectRoot     string                     `json:"project_root"`
	RailsSummary    discovery.StructureSummary `json:"rails_summary"`
	RailsUnits      discovery.UnitAnalysis     `json:"rails_units"`
	DjangoBlueprint blueprint.Blueprint        `json:"django_blueprint"`
	GeneratedFiles  []string                   `json:"generated_files"`
	Stats           Stats                      `json:"stats"`
}

// Result lists the written artifacts.
type Result struct {
	Summary      string `json:"summary"`
	Readme       string `json:"readme"`
	Requirements string `json:"requirements"`
	ReadmeSource string `json:"readme_source"` // "llm" or "template"
	Stats        Stats  `json:"stats"`
}

// Reporter writes integration artifacts. The model client is optional;
// without one, or when the call fails, the README is rendered locally.
type Reporter struct {
	client  llm.Client
	profile llm.Profile
	now     func() time.Time
}

// New creates a Reporter.
func New(client llm.Client, profile llm.Profile) *Reporter {
	return &Reporter{client: client, profile: profile, now: time.Now}
}

// ComputeStats derives the headline counts.
func ComputeStats(in Input) Stats {
	s := Stats{
		RailsFilesAnalyzed:   len(in.FilesToRead),
		DjangoFilesGenerated: len(in.GeneratedFiles),
		Apps:                 in.Blueprint.AppNames(),
		TemplatesCount:       in.Blueprint.TemplateCount(),
		CompletenessGaps:     in.Gaps,
	}
	for _, a := range in.Blueprint.Apps {
		if a.ModelsCode != "" {
			s.ModelsCount++
		}
		if a.ViewsCode != "" {
			s.ViewsCount++
		}
	}
	if s.CompletenessGaps == nil {
		s.CompletenessGaps = []string{}
	}
	return s
}

// Report writes conversion_summary.json and README.md under the output
// directory and requirements.txt in the project root unless one exists.
func (r *Reporter) Report(ctx context.Context, in Input) (*Result, error) {
	log := logging.Get(logging.CategoryReport)

	if in.ProjectRoot == "" {
		in.ProjectRoot = filepath.Join(in.OutputDir, blueprint.DefaultProjectName)
	}
	if err := os.MkdirAll(in.ProjectRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create project root: %w", err)
	}

	doc := Document{
		Timestamp:       r.now().UTC().Format(time.RFC3339),
		InputDir:        in.InputDir,
		OutputDir:       in.OutputDir,
		ProjectRoot:     in.ProjectRoot,
		RailsSummary:    in.Summary,
		RailsUnits:      in.Analysis,
		DjangoBlueprint: in.Blueprint,
		GeneratedFiles:  in.GeneratedFiles,
		Stats:           ComputeStats(in),
	}
	if doc.GeneratedFiles == nil {
		doc.GeneratedFiles = []string{}
	}

	res := &Result{
		Summary:      filepath.Join(in.OutputDir, "conversion_summary.json"),
		Readme:       filepath.Join(in.OutputDir, "README.md"),
		Requirements: filepath.Join(in.ProjectRoot, "requirements.txt"),
		Stats:        doc.Stats,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversion summary: %w", err)
	}
	if err := os.WriteFile(res.Summary, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write conversion summary: %w", err)
	}

	readme, source := r.readme(ctx, doc, data)
	res.ReadmeSource = source
	if err := os.WriteFile(res.Readme, []byte(readme), 0644); err != nil {
		return nil, fmt.Errorf("failed to write README: %w", err)
	}

	written, err := writeRequirements(res.Requirements, in.Blueprint.Requirements)
	if err != nil {
		return nil, err
	}

	log.Info("integration artifacts written",
		zap.String("summary", res.Summary),
		zap.String("readme_source", source),
		zap.Bool("requirements_written", written))
	return res, nil
}

func (r *Reporter) readme(ctx context.Context, doc Document, summaryJSON []byte) (string, string) {
	log := logging.Get(logging.CategoryReport)
	if r.client != nil {
		req := r.profile.Request("integration/readme", readmeSystem, readmePrompt(summaryJSON))
		resp, err := r.client.Complete(ctx, req)
		switch {
		case err != nil:
			log.Warn("README generation failed, using template", zap.Error(err))
		case strings.TrimSpace(resp.Text) == "":
			log.Warn("README generation returned nothing, using template")
		default:
			return strings.TrimSpace(resp.Text) + "\n", "llm"
		}
	}
	return RenderReadme(doc), "template"
}

// writeRequirements creates path unless it already exists.
func writeRequirements(path string, reqs []string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to stat requirements: %w", err)
	}
	if len(reqs) == 0 {
		reqs = blueprint.DefaultRequirements()
	}
	if err := os.WriteFile(path, []byte(strings.Join(reqs, "\n")+"\n"), 0644); err != nil {
		return false, fmt.Errorf("failed to write requirements: %w", err)
	}
	return true, nil
}
