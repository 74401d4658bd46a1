package blueprint

import (
	"strconv"
	"strings"

	"djangify/internal/llmjson"
)

// decodeBlueprint accepts any JSON object. Fields of the wrong type are left
// empty so they surface as predicate gaps instead of failing the decode.
func decodeBlueprint(text string) (Blueprint, bool) {
	obj, ok := llmjson.DecodeObject(text)
	if !ok {
		return Blueprint{}, false
	}
	return fromObject(obj), true
}

// Decode parses a saved blueprint document. Only text that is not a JSON
// object is an error.
func Decode(text string) (Blueprint, error) {
	obj, err := llmjson.ParseObject(text)
	if err != nil {
		return Blueprint{}, err
	}
	return fromObject(obj), nil
}

func fromObject(obj map[string]any) Blueprint {
	bp := Blueprint{
		ProjectName:  stringField(obj, "project_name"),
		SettingsCode: stringField(obj, "settings_code"),
		URLsCode:     stringField(obj, "urls_code"),
		Requirements: stringList(obj["requirements"]),
	}
	if so, ok := obj["settings_overrides"].(map[string]any); ok {
		bp.SettingsOverrides = SettingsOverrides{
			Media:  boolField(so, "MEDIA"),
			Static: boolField(so, "STATIC"),
		}
	}
	if apps, ok := llmjson.ListField(obj, "apps"); ok {
		for _, v := range apps {
			if a, ok := v.(map[string]any); ok {
				bp.Apps = append(bp.Apps, appFromObject(a))
			}
		}
	}
	bp.normalize()
	return bp
}

func appFromObject(obj map[string]any) App {
	app := App{
		Name:       stringField(obj, "name"),
		ModelsCode: stringField(obj, "models_code"),
		ViewsCode:  stringField(obj, "views_code"),
		URLsCode:   stringField(obj, "urls_code"),
		AdminCode:  stringField(obj, "admin_code"),
	}
	if templates, ok := llmjson.ListField(obj, "templates"); ok {
		for _, v := range templates {
			if t, ok := v.(map[string]any); ok {
				app.Templates = append(app.Templates, Template{
					Name:    stringField(t, "name"),
					Content: stringField(t, "content"),
				})
			}
		}
	}
	return app
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

// boolField accepts a JSON bool or a string such as "true" or "False".
func boolField(obj map[string]any, key string) bool {
	switch v := obj[key].(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	}
	return false
}

// stringList keeps the string elements of a JSON array. A single string is
// read as one requirement per line.
func stringList(v any) []string {
	var out []string
	switch v := v.(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		for _, line := range strings.Split(v, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				out = append(out, line)
			}
		}
	}
	return out
}
