package llmjson

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"upper info string", "```JSON\n{}\n```", `{}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"missing closing fence", "```json\n{\"a\":1}", `{"a":1}`},
		{"prose is untouched", "Here you go: {}", "Here you go: {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	v, ok := Decode("```json\n{\"models\": [\"app/models/user.rb\"], \"n\": 3}\n```")
	require.True(t, ok)
	obj := v.(map[string]any)
	assert.Equal(t, []any{"app/models/user.rb"}, obj["models"])
	assert.Equal(t, json.Number("3"), obj["n"])

	for _, bad := range []string{"", "   ", "not json", `{"a":`, `{"a":1} trailing`, "```\n```"} {
		_, ok := Decode(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestDecodeObject(t *testing.T) {
	obj, ok := DecodeObject(`{"views": []}`)
	require.True(t, ok)
	assert.Contains(t, obj, "views")

	_, ok = DecodeObject(`["not", "an", "object"]`)
	assert.False(t, ok)
}

func TestParseObject(t *testing.T) {
	obj, err := ParseObject("```json\n{\"project_name\": 7}\n```")
	require.NoError(t, err)
	assert.Equal(t, json.Number("7"), obj["project_name"])

	_, err = ParseObject("[]")
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "[]", de.Raw)

	_, err = ParseObject("not json")
	assert.True(t, errors.As(err, &de))
}

func TestListField(t *testing.T) {
	obj := map[string]any{"models": []any{"a"}, "views": "oops"}

	list, ok := ListField(obj, "models")
	assert.True(t, ok)
	assert.Len(t, list, 1)

	_, ok = ListField(obj, "views")
	assert.False(t, ok)
	_, ok = ListField(obj, "missing")
	assert.False(t, ok)
	_, ok = ListField(nil, "models")
	assert.False(t, ok)
}
