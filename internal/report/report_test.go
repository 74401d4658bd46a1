package report

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"djangify/internal/blueprint"
	"djangify/internal/discovery"
	"djangify/internal/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleInput(t *testing.T) Input {
	out := t.TempDir()
	return Input{
		InputDir:    "/src/shop",
		OutputDir:   out,
		ProjectRoot: filepath.Join(out, "shop"),
		Summary:     discovery.NewStructureSummary(),
		Analysis:    discovery.NewUnitAnalysis(),
		Blueprint: blueprint.Blueprint{
			ProjectName: "shop",
			Apps: []blueprint.App{
				{Name: "catalog", ModelsCode: "m", ViewsCode: "v", Templates: []blueprint.Template{{Name: "a.html"}, {Name: "b.html"}}},
				{Name: "orders", ModelsCode: "m"},
			},
			Requirements: []string{"Django>=5,<6", "djangorestframework"},
		},
		FilesToRead:    []string{"app/models/product.rb", "app/views/products/index.html.erb", "config/routes.rb"},
		GeneratedFiles: []string{"manage.py", "shop/settings.py"},
	}
}

func fixedReporter(client llm.Client) *Reporter {
	r := New(client, llm.Profile{Model: "gpt-4o-mini", Temperature: 0.25})
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestComputeStats(t *testing.T) {
	in := sampleInput(t)
	in.Gaps = []string{"settings_code is empty"}
	s := ComputeStats(in)

	assert.Equal(t, 3, s.RailsFilesAnalyzed)
	assert.Equal(t, 2, s.DjangoFilesGenerated)
	assert.Equal(t, []string{"catalog", "orders"}, s.Apps)
	assert.Equal(t, 2, s.ModelsCount)
	assert.Equal(t, 1, s.ViewsCount)
	assert.Equal(t, 2, s.TemplatesCount)
	assert.Equal(t, []string{"settings_code is empty"}, s.CompletenessGaps)
}

func TestReportWritesArtifacts(t *testing.T) {
	var got llm.Request
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		got = req
		return llm.Response{Text: "# Shop\n\nConverted.\n\n"}, nil
	})
	in := sampleInput(t)

	res, err := fixedReporter(client).Report(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "integration/readme", got.Node)
	assert.Equal(t, readmeSystem, got.SystemInstruction)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Contains(t, got.UserPrompt, `"rails_files_analyzed": 3`)

	assert.Equal(t, "llm", res.ReadmeSource)
	readme, err := os.ReadFile(filepath.Join(in.OutputDir, "README.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Shop\n\nConverted.\n", string(readme))

	data, err := os.ReadFile(res.Summary)
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2026-03-01T12:00:00Z", doc.Timestamp)
	assert.Equal(t, "/src/shop", doc.InputDir)
	assert.Equal(t, in.ProjectRoot, doc.ProjectRoot)
	assert.Equal(t, 2, doc.Stats.TemplatesCount)
	assert.Len(t, doc.DjangoBlueprint.Apps, 2)

	reqs, err := os.ReadFile(filepath.Join(in.ProjectRoot, "requirements.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Django>=5,<6\ndjangorestframework\n", string(reqs))
}

func TestReportFallsBackToTemplateReadme(t *testing.T) {
	tests := map[string]llm.Client{
		"no client": nil,
		"request error": llm.ClientFunc(func(context.Context, llm.Request) (llm.Response, error) {
			return llm.Response{}, &llm.TransportError{Provider: "openai", Err: errors.New("boom")}
		}),
		"blank response": llm.ClientFunc(func(context.Context, llm.Request) (llm.Response, error) {
			return llm.Response{Text: "  \n"}, nil
		}),
	}
	for name, client := range tests {
		t.Run(name, func(t *testing.T) {
			in := sampleInput(t)
			res, err := fixedReporter(client).Report(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, "template", res.ReadmeSource)

			readme, err := os.ReadFile(res.Readme)
			require.NoError(t, err)
			assert.Contains(t, string(readme), "# shop")
			assert.Contains(t, string(readme), "- **catalog**: 2 templates")
			assert.Contains(t, string(readme), "| Rails files analyzed | 3 |")
			assert.Contains(t, string(readme), "python manage.py migrate")
		})
	}
}

func TestReportKeepsExistingRequirements(t *testing.T) {
	in := sampleInput(t)
	require.NoError(t, os.MkdirAll(in.ProjectRoot, 0755))
	path := filepath.Join(in.ProjectRoot, "requirements.txt")
	require.NoError(t, os.WriteFile(path, []byte("Django==5.0\n"), 0644))

	_, err := fixedReporter(nil).Report(context.Background(), in)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Django==5.0\n", string(data))
}

func TestReportDefaultRequirements(t *testing.T) {
	in := sampleInput(t)
	in.Blueprint.Requirements = nil
	in.ProjectRoot = ""

	res, err := fixedReporter(nil).Report(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(in.OutputDir, blueprint.DefaultProjectName, "requirements.txt"), res.Requirements)

	data, err := os.ReadFile(res.Requirements)
	require.NoError(t, err)
	assert.Equal(t, "Django>=5,<6\nPillow\n", string(data))
}

func TestRenderReadmeListsGaps(t *testing.T) {
	doc := Document{
		ProjectRoot: "/out/converted_project",
		Timestamp:   "2026-03-01T12:00:00Z",
		Stats:       Stats{CompletenessGaps: []string{"urls_code is empty"}},
	}
	md := RenderReadme(doc)
	assert.Contains(t, md, "# converted_project")
	assert.Contains(t, md, "No applications were generated.")
	assert.Contains(t, md, "## Known Gaps\n\n- urls_code is empty")
	assert.Contains(t, md, "Generated 2026-03-01T12:00:00Z")
}
