package blueprint

import (
	"encoding/json"
	"fmt"
	"strings"
)

const synthesizeSystem = "You convert Rails apps to complete Django project blueprints."

const repairSystem = "You are a JSON repair assistant. Output valid JSON only."

const refineSystem = "You are an expert in converting Ruby on Rails projects to Django. " +
	"Given a partially filled Django blueprint, complete all missing code blocks. " +
	"Output valid JSON only, matching the original structure."

const blueprintShape = `{
  "project_name": "<django_project_name>",
  "settings_code": "<full valid Django 5.x settings.py>",
  "urls_code": "<root urls.py including admin and app includes>",
  "apps": [
    {
      "name": "<app_name>",
      "models_code": "<Django models>",
      "views_code": "<Django class-based views>",
      "urls_code": "<Django urls.py for the app>",
      "admin_code": "<Django admin registration>",
      "templates": [{"name": "template_name.html", "content": "<valid Django HTML template>"}]
    }
  ],
  "settings_overrides": {"MEDIA": true, "STATIC": true},
  "requirements": ["Django>=5,<6", "Pillow"]
}`

func synthesizePrompt(summary, analysis any) string {
	var b strings.Builder
	b.WriteString("You are a senior Django architect.\n")
	b.WriteString("Given the Rails summary and units, produce a complete JSON Django blueprint.\n\n")
	b.WriteString("Output JSON with this exact structure:\n")
	b.WriteString(blueprintShape)
	b.WriteString("\n\nRules:\n")
	b.WriteString("- Always include both 'settings_code' and 'urls_code' at the top level.\n")
	b.WriteString("- settings_code must include BASE_DIR, INSTALLED_APPS, MIDDLEWARE, STATIC_URL, MEDIA_URL.\n")
	b.WriteString("- urls_code must include the admin route and includes for all apps.\n")
	b.WriteString("- Convert every Rails view, including layouts, devise and action_text views, into a template.\n")
	b.WriteString("- Do NOT include markdown, comments or extra text. Only valid JSON.\n")
	fmt.Fprintf(&b, "\nRails summary:\n%s\n\nRails units:\n%s\n", indentJSON(summary), indentJSON(analysis))
	return b.String()
}

func repairPrompt(raw string) string {
	return "Fix this invalid JSON:\n\n" + raw
}

func refinePrompt(current Blueprint, summary, analysis any, gaps []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here is the partially filled Django blueprint:\n%s\n\n", indentJSON(current))
	if len(gaps) > 0 {
		b.WriteString("Missing pieces:\n")
		for _, g := range gaps {
			fmt.Fprintf(&b, "- %s\n", g)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Here are the Rails project details for reference:\nSUMMARY:\n%s\n\nUNITS:\n%s\n\n", indentJSON(summary), indentJSON(analysis))
	b.WriteString("Rules:\n")
	b.WriteString("- Preserve the same JSON structure and keys.\n")
	b.WriteString("- Fill only what is missing; keep everything already present.\n")
	b.WriteString("- Always include 'settings_code' (full Django 5.x settings.py) and 'urls_code' (root urls.py).\n")
	b.WriteString("- Fill all missing fields: 'models_code', 'views_code', 'urls_code', 'admin_code', and 'templates.content'.\n")
	b.WriteString("- settings_code must include BASE_DIR, INSTALLED_APPS, MIDDLEWARE, STATIC_URL, MEDIA_URL, DEBUG=True.\n")
	b.WriteString("- urls_code must include the admin route and include() for each app.\n")
	b.WriteString("- Recreate templates for every Rails view, including app/views/layouts, app/views/devise and app/views/action_text.\n")
	b.WriteString("- Each app must be valid Django code (no placeholders, no markdown).\n")
	b.WriteString("Return strictly valid JSON only.\n")
	return b.String()
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
