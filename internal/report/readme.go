package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

const readmeSystem = "You are a concise documentation assistant. " +
	"Write a clean, professional README.md for a Django project converted from Ruby on Rails. " +
	"Use only Markdown; no JSON or code fences around the whole document."

func readmePrompt(summaryJSON []byte) string {
	return `Create a clear, minimal, professional README.md for a Django project automatically
converted from Ruby on Rails using an AI pipeline.

Rules:
- Write Markdown only (no JSON or raw data).
- Include these sections, in this order:
  1. Project Overview: a short 2-3 sentence intro.
  2. Quick Start: commands to run (install requirements, migrate, runserver).
  3. Conversion Summary: short summary of the key counts.
  4. Applications: app names and number of templates.
  5. Project Structure: a simplified tree of key files.
  6. Features: what is supported.
  7. Notes: include the timestamp and note that the project is AI-generated.
- Write in English, concise and human-readable.

Conversion summary for context:
` + string(summaryJSON)
}

// RenderReadme produces the README without a model call.
func RenderReadme(doc Document) string {
	project := filepath.Base(doc.ProjectRoot)
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", project)
	b.WriteString("## Project Overview\n\n")
	fmt.Fprintf(&b, "This Django project was converted automatically from the Ruby on Rails application in `%s`. ", doc.InputDir)
	b.WriteString("Review the generated code before deploying it.\n\n")

	b.WriteString("## Quick Start\n\n")
	b.WriteString("```sh\n")
	fmt.Fprintf(&b, "cd %s\n", project)
	b.WriteString("pip install -r requirements.txt\n")
	b.WriteString("python manage.py makemigrations\n")
	b.WriteString("python manage.py migrate\n")
	b.WriteString("python manage.py runserver\n")
	b.WriteString("```\n\n")

	s := doc.Stats
	b.WriteString("## Conversion Summary\n\n")
	b.WriteString("| Metric | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Rails files analyzed | %d |\n", s.RailsFilesAnalyzed)
	fmt.Fprintf(&b, "| Django files generated | %d |\n", s.DjangoFilesGenerated)
	fmt.Fprintf(&b, "| Apps | %d |\n", len(s.Apps))
	fmt.Fprintf(&b, "| Apps with models | %d |\n", s.ModelsCount)
	fmt.Fprintf(&b, "| Apps with views | %d |\n", s.ViewsCount)
	fmt.Fprintf(&b, "| Templates | %d |\n\n", s.TemplatesCount)

	b.WriteString("## Applications\n\n")
	if len(doc.DjangoBlueprint.Apps) == 0 {
		b.WriteString("No applications were generated.\n\n")
	} else {
		for _, a := range doc.DjangoBlueprint.Apps {
			fmt.Fprintf(&b, "- **%s**: %d templates\n", a.Name, len(a.Templates))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Project Structure\n\n```\n")
	fmt.Fprintf(&b, "%s/\n", project)
	for _, f := range doc.GeneratedFiles {
		fmt.Fprintf(&b, "  %s\n", f)
	}
	b.WriteString("```\n\n")

	if len(s.CompletenessGaps) > 0 {
		b.WriteString("## Known Gaps\n\n")
		for _, g := range s.CompletenessGaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Notes\n\n")
	fmt.Fprintf(&b, "Generated %s by an AI-assisted conversion pipeline.\n", doc.Timestamp)
	return b.String()
}
