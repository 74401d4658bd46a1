package main

import (
	"fmt"

	"djangify/internal/pipeline"
	"djangify/internal/store"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}

// renderState prints the final state as a key/summary table.
func renderState(st *pipeline.State) string {
	t := newTable("KEY", "SUMMARY")
	for _, row := range st.Summary() {
		t.Row(row[0], row[1])
	}
	return t.Render()
}

func renderRuns(runs []store.Run) string {
	t := newTable("RUN", "STARTED", "STATUS", "STAGE", "TEMPLATES", "INPUT")
	for _, r := range runs {
		status := string(r.Status)
		switch r.Status {
		case store.StatusCompleted:
			if !r.Complete {
				status += " (gaps)"
			}
			status = okStyle.Render(status)
		case store.StatusFailed:
			status = failStyle.Render(status)
		}
		t.Row(
			shortID(r.ID),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			status,
			r.FailedStage,
			fmt.Sprintf("%d/%d", r.Templates, r.SourceTemplates),
			r.InputDir,
		)
	}
	return t.Render()
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
