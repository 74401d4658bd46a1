package discovery

import (
	"bytes"
	"encoding/json"
	"fmt"

	"djangify/internal/source"
)

const jsonOnlySystem = "Return only valid JSON."

func summarizePrompt(chunk []string, index, total int) string {
	payload, _ := json.Marshal(map[string][]string{"files": chunk})
	return fmt.Sprintf(
		"You are an expert in Ruby on Rails project architecture. "+
			"Analyze the following file paths and classify them into models, controllers, routes, and views. "+
			"Output ONLY valid JSON with keys: models, controllers, routes_files, views. "+
			"Each key maps to a list of file paths.\n\n"+
			"Chunk %d/%d:\n%s", index+1, total, payload)
}

func analyzePrompt(batchJSON string, index, total int) string {
	return fmt.Sprintf(
		"You are a Ruby on Rails expert. Analyze these files to extract:\n"+
			"- models (attributes, associations, validations)\n"+
			"- controllers (actions, filters)\n"+
			"- routes (resources, verbs)\n"+
			"- views (variables, partials)\n"+
			"Output ONLY JSON with keys: models, controllers, routes, views, dependencies. "+
			"Each key maps to a list.\n\n"+
			"Batch %d/%d:\n%s", index+1, total, batchJSON)
}

// encodeBatch serializes files as a JSON object keyed by path, preserving
// batch order, with each content cut to fileBudget bytes and the whole
// serialization cut to batchBudget bytes.
func encodeBatch(files []source.File, fileBudget, batchBudget int) string {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range files {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(marshalString(f.Path))
		buf.WriteByte(':')
		buf.Write(marshalString(source.TruncateUTF8(f.Content, fileBudget)))
	}
	buf.WriteByte('}')
	return source.TruncateUTF8(buf.String(), batchBudget)
}

// marshalString encodes s without HTML escaping; templates are full of <%= %>.
func marshalString(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
