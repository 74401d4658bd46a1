// Package builder materializes a blueprint into a Django project tree.
package builder

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"djangify/internal/blueprint"
	"djangify/internal/logging"

	"go.uber.org/zap"
)

// Result lists what a build wrote.
type Result struct {
	ProjectName string   `json:"project_name"`
	ProjectRoot string   `json:"project_root"`
	Generated   []string `json:"generated_files"` // relative to ProjectRoot, in write order
	Skipped     []string `json:"skipped,omitempty"`
}

// Builder writes Django projects under an output root.
type Builder struct {
	outputRoot string
}

// New creates a Builder writing under outputRoot.
func New(outputRoot string) *Builder {
	return &Builder{outputRoot: outputRoot}
}

var nonIdent = regexp.MustCompile(`[^a-z0-9_]+`)

// Identifier turns a free-form name into a Python package name.
func Identifier(name, fallback string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonIdent.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return fallback
	}
	if s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// appIdentifiers names each app package. A name equal to the project
// package becomes <name>_app and repeated names get _2, _3 and so on.
func appIdentifiers(project string, apps []blueprint.App) []string {
	taken := map[string]bool{project: true}
	out := make([]string, 0, len(apps))
	for i, a := range apps {
		id := Identifier(a.Name, fmt.Sprintf("app%d", i+1))
		if id == project {
			id += "_app"
		}
		base := id
		for n := 2; taken[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		taken[id] = true
		out = append(out, id)
	}
	return out
}

// Build writes the project described by bp. Empty code fields produce no
// file, except settings.py and urls.py which fall back to a skeleton. The
// blueprint is never modified.
func (b *Builder) Build(bp blueprint.Blueprint) (*Result, error) {
	log := logging.Get(logging.CategoryBuild)
	timer := logging.StartTimer(logging.CategoryBuild, "build")
	defer timer.Stop()

	project := Identifier(bp.ProjectName, blueprint.DefaultProjectName)
	res := &Result{
		ProjectName: project,
		ProjectRoot: filepath.Join(b.outputRoot, project),
		Generated:   []string{},
	}
	w := &writer{root: res.ProjectRoot, res: res}

	apps := appIdentifiers(project, bp.Apps)
	data := skeletonData{
		Project: project,
		Apps:    apps,
		Media:   bp.SettingsOverrides.Media,
		Static:  bp.SettingsOverrides.Static,
	}

	if err := w.rendered("manage.py", "manage.py", data); err != nil {
		return nil, err
	}
	if err := w.write(filepath.Join(project, "__init__.py"), ""); err != nil {
		return nil, err
	}
	if err := w.codeOrSkeleton(filepath.Join(project, "settings.py"), bp.SettingsCode, "settings.py", data); err != nil {
		return nil, err
	}
	if err := w.codeOrSkeleton(filepath.Join(project, "urls.py"), bp.URLsCode, "urls.py", data); err != nil {
		return nil, err
	}
	if err := w.rendered(filepath.Join(project, "wsgi.py"), "wsgi.py", data); err != nil {
		return nil, err
	}
	if err := w.rendered(filepath.Join(project, "asgi.py"), "asgi.py", data); err != nil {
		return nil, err
	}

	for i, a := range bp.Apps {
		if err := w.app(apps[i], a); err != nil {
			return nil, err
		}
	}

	log.Info("django project written",
		zap.String("root", res.ProjectRoot),
		zap.Int("files", len(res.Generated)),
		zap.Int("skipped", len(res.Skipped)))
	return res, nil
}

type writer struct {
	root string
	res  *Result
}

func (w *writer) app(name string, a blueprint.App) error {
	if err := w.write(filepath.Join(name, "__init__.py"), ""); err != nil {
		return err
	}
	if err := w.rendered(filepath.Join(name, "apps.py"), "apps.py", struct{ Name, Class string }{name, className(name)}); err != nil {
		return err
	}
	if err := w.write(filepath.Join(name, "migrations", "__init__.py"), ""); err != nil {
		return err
	}
	for _, f := range []struct{ file, code string }{
		{"models.py", a.ModelsCode},
		{"views.py", a.ViewsCode},
		{"urls.py", a.URLsCode},
		{"admin.py", a.AdminCode},
	} {
		if f.code == "" {
			continue
		}
		if err := w.write(filepath.Join(name, f.file), f.code); err != nil {
			return err
		}
	}

	tplRoot := filepath.Join(name, "templates", name)
	for _, t := range a.Templates {
		if t.Content == "" {
			continue
		}
		rel, ok := safeJoin(tplRoot, t.Name)
		if !ok {
			logging.Get(logging.CategoryBuild).Warn("skipping template with unsafe name", zap.String("app", name), zap.String("template", t.Name))
			w.res.Skipped = append(w.res.Skipped, t.Name)
			continue
		}
		if err := w.write(rel, t.Content); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) codeOrSkeleton(rel, code, tmpl string, data skeletonData) error {
	if code != "" {
		return w.write(rel, code)
	}
	return w.rendered(rel, tmpl, data)
}

func (w *writer) rendered(rel, tmpl string, data any) error {
	content, err := render(tmpl, data)
	if err != nil {
		return err
	}
	return w.write(rel, content)
}

func (w *writer) write(rel, content string) error {
	full := filepath.Join(w.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", rel, err)
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	w.res.Generated = append(w.res.Generated, filepath.ToSlash(rel))
	return nil
}

// safeJoin joins a template name under dir, rejecting names that are empty,
// absolute, or escape dir.
func safeJoin(dir, name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", false
	}
	joined := filepath.Join(dir, filepath.FromSlash(name))
	if joined == dir || !strings.HasPrefix(joined, dir+string(filepath.Separator)) {
		return "", false
	}
	return joined, true
}

func className(ident string) string {
	var b strings.Builder
	for _, part := range strings.Split(ident, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}
	if b.Len() == 0 {
		return "App"
	}
	return b.String()
}
