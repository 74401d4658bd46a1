package logging

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// StateRecord is the document written once per stage invocation.
type StateRecord struct {
	Timestamp string `json:"timestamp"`
	Node      string `json:"node"`
	State     any    `json:"state"`
}

// LLMCallRecord is the document written for every model call.
type LLMCallRecord struct {
	Node      string `json:"node"`
	Prompt    string `json:"prompt"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// AuditTrail writes write-only JSON audit documents under a logs directory.
// A nil *AuditTrail is valid and records nothing.
type AuditTrail struct {
	dir string
	seq int
	mu  sync.Mutex
	now func() time.Time
}

// NewAuditTrail creates the directory and returns a trail rooted there.
func NewAuditTrail(dir string) (*AuditTrail, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	return &AuditTrail{dir: dir, now: time.Now}, nil
}

// Dir returns the directory the trail writes to.
func (a *AuditTrail) Dir() string {
	if a == nil {
		return ""
	}
	return a.dir
}

// RecordState writes {timestamp, node, state} to <node>.json.
func (a *AuditTrail) RecordState(node string, state any) error {
	if a == nil {
		return nil
	}
	rec := StateRecord{
		Timestamp: a.now().UTC().Format(time.RFC3339Nano),
		Node:      node,
		State:     state,
	}
	return a.write(sanitizeNode(node)+".json", rec)
}

// RecordLLMCall writes {node, prompt, response, timestamp} to llm/<seq>_<node>.json.
func (a *AuditTrail) RecordLLMCall(node, prompt, response string) error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	rec := LLMCallRecord{
		Node:      node,
		Prompt:    prompt,
		Response:  response,
		Timestamp: a.now().UTC().Format(time.RFC3339Nano),
	}
	name := filepath.Join("llm", fmt.Sprintf("%04d_%s.json", seq, sanitizeNode(node)))
	return a.write(name, rec)
}

// WriteJSON writes an arbitrary document (final state, etc.) into the trail.
func (a *AuditTrail) WriteJSON(name string, v any) error {
	if a == nil {
		return nil
	}
	return a.write(name, v)
}

func (a *AuditTrail) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit record %s: %w", name, err)
	}
	path := filepath.Join(a.dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write audit record %s: %w", name, err)
	}
	return nil
}

var unsafeNodeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

func sanitizeNode(node string) string {
	s := unsafeNodeChars.ReplaceAllString(node, "_")
	if s == "" {
		return "node"
	}
	return s
}
