package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGetTagsCategory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetBase(zap.New(core))
	t.Cleanup(func() { SetBase(nil) })

	Get(CategoryDiscovery).Info("chunk classified", zap.Int("chunk", 2))
	Get(CategoryConvert).Warn("refinement failed")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "discovery", entries[0].ContextMap()["category"])
	assert.Equal(t, int64(2), entries[0].ContextMap()["chunk"])
	assert.Equal(t, "convert", entries[1].ContextMap()["category"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	SetBase(nil)
	assert.NotPanics(t, func() {
		Get(CategoryBoot).Info("nobody listens")
		Sync()
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"", zapcore.InfoLevel, false},
		{"DEBUG", zapcore.DebugLevel, false},
		{"warning", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"loud", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "djangify.log")
	logger, err := Init(Options{Level: "debug", Format: "json", File: path})
	require.NoError(t, err)
	t.Cleanup(func() { SetBase(nil) })

	Get(CategoryBuild).Debug("wrote file", zap.String("path", "manage.py"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"category":"build"`)
	assert.Contains(t, string(data), "manage.py")
}

func TestAuditTrailRecordState(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	trail, err := NewAuditTrail(dir)
	require.NoError(t, err)
	trail.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, trail.RecordState("planner", map[string]any{"phases": []string{"discovery"}}))

	data, err := os.ReadFile(filepath.Join(dir, "planner.json"))
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "planner", rec["node"])
	assert.Equal(t, "2024-05-01T12:00:00Z", rec["timestamp"])
	assert.Contains(t, rec, "state")
}

func TestAuditTrailRecordLLMCallSequences(t *testing.T) {
	dir := t.TempDir()
	trail, err := NewAuditTrail(dir)
	require.NoError(t, err)

	require.NoError(t, trail.RecordLLMCall("discovery/summarize", "prompt one", "{}"))
	require.NoError(t, trail.RecordLLMCall("discovery/summarize", "prompt two", "{}"))

	entries, err := os.ReadDir(filepath.Join(dir, "llm"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "0001_discovery_summarize"))
	assert.True(t, strings.HasPrefix(entries[1].Name(), "0002_"))

	data, err := os.ReadFile(filepath.Join(dir, "llm", entries[1].Name()))
	require.NoError(t, err)
	var rec LLMCallRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, "prompt two", rec.Prompt)
	assert.Equal(t, "{}", rec.Response)
}

func TestNilAuditTrailIsNoop(t *testing.T) {
	var trail *AuditTrail
	assert.NoError(t, trail.RecordState("x", nil))
	assert.NoError(t, trail.RecordLLMCall("x", "p", "r"))
	assert.NoError(t, trail.WriteJSON("final_state.json", struct{}{}))
	assert.Equal(t, "", trail.Dir())
}
