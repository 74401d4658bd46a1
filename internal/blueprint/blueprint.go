// Package blueprint defines the Django project blueprint produced by the
// convert stage and the synthesis that builds it from discovery output.
package blueprint

import (
	"fmt"
	"strings"
)

// Template is one Django template belonging to an app.
type Template struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// App is one Django application.
type App struct {
	Name       string     `json:"name"`
	ModelsCode string     `json:"models_code"`
	ViewsCode  string     `json:"views_code"`
	URLsCode   string     `json:"urls_code"`
	AdminCode  string     `json:"admin_code"`
	Templates  []Template `json:"templates"`
}

// SettingsOverrides toggles media and static file handling.
type SettingsOverrides struct {
	Media  bool `json:"MEDIA"`
	Static bool `json:"STATIC"`
}

// Blueprint is the full description of the generated Django project.
type Blueprint struct {
	ProjectName       string            `json:"project_name"`
	SettingsCode      string            `json:"settings_code"`
	URLsCode          string            `json:"urls_code"`
	Apps              []App             `json:"apps"`
	SettingsOverrides SettingsOverrides `json:"settings_overrides"`
	Requirements      []string          `json:"requirements"`
}

// DefaultProjectName is used by the fallback blueprint.
const DefaultProjectName = "converted_project"

// DefaultRequirements is the requirement list of the fallback blueprint.
func DefaultRequirements() []string {
	return []string{"Django>=5,<6", "Pillow"}
}

// Fallback returns the fixed minimal blueprint used when no model output
// could be decoded.
func Fallback() Blueprint {
	return Blueprint{
		ProjectName:       DefaultProjectName,
		SettingsCode:      "",
		URLsCode:          "",
		Apps:              []App{},
		SettingsOverrides: SettingsOverrides{Media: true, Static: true},
		Requirements:      DefaultRequirements(),
	}
}

// normalize replaces nil slices so the blueprint always serializes with lists.
func (b *Blueprint) normalize() {
	if b.Apps == nil {
		b.Apps = []App{}
	}
	if b.Requirements == nil {
		b.Requirements = []string{}
	}
	for i := range b.Apps {
		if b.Apps[i].Templates == nil {
			b.Apps[i].Templates = []Template{}
		}
	}
}

// TemplateCount is the number of templates across all apps.
func (b Blueprint) TemplateCount() int {
	n := 0
	for _, a := range b.Apps {
		n += len(a.Templates)
	}
	return n
}

// AppNames lists app names in blueprint order.
func (b Blueprint) AppNames() []string {
	names := make([]string, 0, len(b.Apps))
	for _, a := range b.Apps {
		names = append(names, a.Name)
	}
	return names
}

// SourceTemplateCount counts source paths that are Rails view templates.
// Every file under an app/views/ directory counts, partials and layouts
// included, whatever its extension.
func SourceTemplateCount(candidates []string) int {
	n := 0
	for _, p := range candidates {
		if strings.HasPrefix(p, "app/views/") || strings.Contains(p, "/app/views/") {
			n++
		}
	}
	return n
}

// Check evaluates the completeness predicate and returns every gap found.
// Empty strings count as missing. An empty result means complete.
func Check(b Blueprint, sourceTemplates int) []string {
	var gaps []string
	if b.SettingsCode == "" {
		gaps = append(gaps, "settings_code is empty")
	}
	if b.URLsCode == "" {
		gaps = append(gaps, "urls_code is empty")
	}
	for i, a := range b.Apps {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		for _, f := range []struct {
			field, value string
		}{
			{"models_code", a.ModelsCode},
			{"views_code", a.ViewsCode},
			{"urls_code", a.URLsCode},
			{"admin_code", a.AdminCode},
		} {
			if f.value == "" {
				gaps = append(gaps, fmt.Sprintf("app %s: %s is empty", name, f.field))
			}
		}
		for j, t := range a.Templates {
			if t.Content == "" {
				tn := t.Name
				if tn == "" {
					tn = fmt.Sprintf("#%d", j)
				}
				gaps = append(gaps, fmt.Sprintf("app %s: template %s has no content", name, tn))
			}
		}
	}
	if got := b.TemplateCount(); got < sourceTemplates {
		gaps = append(gaps, fmt.Sprintf("%d templates for %d source templates", got, sourceTemplates))
	}
	return gaps
}

// IsComplete reports whether Check finds no gaps.
func IsComplete(b Blueprint, sourceTemplates int) bool {
	return len(Check(b, sourceTemplates)) == 0
}
