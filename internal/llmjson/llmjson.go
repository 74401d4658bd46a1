// Package llmjson extracts structured JSON values from model output.
// Nothing in this package panics on malformed input; failures are
// reported as values so callers decide whether to degrade or retry.
package llmjson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding markdown code fence (``` or ```json)
// and surrounding whitespace. Text without a leading fence is only trimmed.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	body := trimmed[3:]
	if nl := strings.Index(body, "\n"); nl != -1 {
		// Drop the info string ("json", "JSON", ...) on the opening line.
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(strings.TrimPrefix(body, "json"), "JSON")
	}
	if end := strings.LastIndex(body, "```"); end != -1 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// DecodeError describes text that could not be decoded.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid json (%d bytes): %v", len(e.Raw), e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode strips fences and decodes text into a generic value.
// Numbers are kept as json.Number so re-serialization is lossless.
func Decode(text string) (any, bool) {
	v, err := decode(text)
	return v, err == nil
}

// DecodeObject is Decode restricted to JSON objects.
func DecodeObject(text string) (map[string]any, bool) {
	obj, err := ParseObject(text)
	return obj, err == nil
}

// ParseObject is DecodeObject with the failure reported as a *DecodeError.
func ParseObject(text string) (map[string]any, error) {
	v, err := decode(text)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &DecodeError{Raw: text, Err: fmt.Errorf("expected a JSON object, got %T", v)}
	}
	return obj, nil
}

func decode(text string) (any, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return nil, &DecodeError{Raw: text, Err: fmt.Errorf("empty input")}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &DecodeError{Raw: text, Err: err}
	}
	// Trailing garbage after the first value is a decode failure.
	if dec.More() {
		return nil, &DecodeError{Raw: text, Err: fmt.Errorf("unexpected data after top-level value")}
	}
	return v, nil
}

// ListField returns obj[key] when it is a JSON array.
func ListField(obj map[string]any, key string) ([]any, bool) {
	if obj == nil {
		return nil, false
	}
	list, ok := obj[key].([]any)
	return list, ok
}
