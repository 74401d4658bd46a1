// Package discovery classifies the project's files and extracts structural
// units from their contents with chunked and batched model calls.
package discovery

import "path"

// Error values placed in partial records.
const (
	ErrInvalidJSON   = "invalid_json"
	ErrRequestFailed = "request_failed"
)

// StructureSummary is the merged classification of the file list.
type StructureSummary struct {
	Models           []any    `json:"models"`
	Controllers      []any    `json:"controllers"`
	RoutesFiles      []any    `json:"routes_files"`
	Views            []any    `json:"views"`
	CandidatesToRead []string `json:"candidates_to_read"`
}

// NewStructureSummary returns a summary with every list empty and non-nil.
func NewStructureSummary() StructureSummary {
	return StructureSummary{
		Models:           []any{},
		Controllers:      []any{},
		RoutesFiles:      []any{},
		Views:            []any{},
		CandidatesToRead: []string{},
	}
}

// list returns the merge target for a classification key.
func (s *StructureSummary) list(key string) *[]any {
	switch key {
	case "models":
		return &s.Models
	case "controllers":
		return &s.Controllers
	case "routes_files":
		return &s.RoutesFiles
	case "views":
		return &s.Views
	}
	return nil
}

var summaryKeys = []string{"models", "controllers", "routes_files", "views"}

// UnitAnalysis is the merged extraction over all read files.
type UnitAnalysis struct {
	Models       []any `json:"models"`
	Controllers  []any `json:"controllers"`
	Routes       []any `json:"routes"`
	Views        []any `json:"views"`
	Dependencies []any `json:"dependencies"`
}

// NewUnitAnalysis returns an analysis with every list empty and non-nil.
func NewUnitAnalysis() UnitAnalysis {
	return UnitAnalysis{
		Models:       []any{},
		Controllers:  []any{},
		Routes:       []any{},
		Views:        []any{},
		Dependencies: []any{},
	}
}

func (a *UnitAnalysis) list(key string) *[]any {
	switch key {
	case "models":
		return &a.Models
	case "controllers":
		return &a.Controllers
	case "routes":
		return &a.Routes
	case "views":
		return &a.Views
	case "dependencies":
		return &a.Dependencies
	}
	return nil
}

var analysisKeys = []string{"models", "controllers", "routes", "views", "dependencies"}

// Partial is the outcome of one chunk or batch: either the decoded object
// or an error record ({"error": ..., "raw": ...} / {"error": ..., "raw_text": ...}).
type Partial map[string]any

// Failed reports whether the partial is an error record.
func (p Partial) Failed() bool {
	_, ok := p["error"].(string)
	return ok
}

// readableExtensions is the fixed whitelist for candidates_to_read.
var readableExtensions = map[string]bool{
	".rb":   true,
	".erb":  true,
	".haml": true,
}

// CandidatesToRead filters files by extension, preserving input order.
// It never consults model output.
func CandidatesToRead(files []string) []string {
	out := []string{}
	for _, f := range files {
		if readableExtensions[path.Ext(f)] {
			out = append(out, f)
		}
	}
	return out
}
