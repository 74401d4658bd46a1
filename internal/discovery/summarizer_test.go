package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"djangify/internal/llm"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("app/models/m%03d.rb", i)
	}
	return out
}

func TestSummarizeEmptyMakesNoCalls(t *testing.T) {
	client := &MockLLMClient{}
	s := NewSummarizer(client, SummarizerConfig{})

	summary, partials, err := s.Summarize(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, client.Requests())
	assert.Empty(t, partials)
	assert.Equal(t, NewStructureSummary(), summary)

	data, err := json.Marshal(summary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"models":[],"controllers":[],"routes_files":[],"views":[],"candidates_to_read":[]}`, string(data))
}

func TestSummarizeChunkCount(t *testing.T) {
	tests := []struct {
		files, chunk, want int
	}{
		{1, 150, 1},
		{150, 150, 1},
		{151, 150, 2},
		{301, 150, 3},
		{7, 3, 3},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_by_%d", tt.files, tt.chunk), func(t *testing.T) {
			client := &MockLLMClient{}
			s := NewSummarizer(client, SummarizerConfig{ChunkSize: tt.chunk})
			_, partials, err := s.Summarize(context.Background(), paths(tt.files))
			require.NoError(t, err)
			assert.Len(t, client.Requests(), tt.want)
			assert.Len(t, partials, tt.want)
		})
	}
}

func TestSummarizeMergesInChunkOrder(t *testing.T) {
	client := &MockLLMClient{CompleteFunc: sequence(
		`{"models": ["a", "b"], "controllers": ["c1"], "views": "not-a-list"}`,
		"```json\n{\"models\": [\"a\"], \"routes_files\": [\"config/routes.rb\"], \"views\": [\"v\"]}\n```",
	)}
	s := NewSummarizer(client, SummarizerConfig{ChunkSize: 2})

	summary, _, err := s.Summarize(context.Background(), []string{"a.rb", "b.txt", "c.erb", "d.haml"})
	require.NoError(t, err)

	want := StructureSummary{
		Models:           []any{"a", "b", "a"},
		Controllers:      []any{"c1"},
		RoutesFiles:      []any{"config/routes.rb"},
		Views:            []any{"v"},
		CandidatesToRead: []string{"a.rb", "c.erb", "d.haml"},
	}
	if diff := cmp.Diff(want, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarizeCandidatesIgnoreModelOutput(t *testing.T) {
	client := &MockLLMClient{CompleteFunc: sequence(`{"models": ["x.rb"], "candidates_to_read": ["evil.sh"]}`)}
	s := NewSummarizer(client, SummarizerConfig{})

	summary, _, err := s.Summarize(context.Background(), []string{"a.rb", "b.txt", "c.erb"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.rb", "c.erb"}, summary.CandidatesToRead)
}

func TestSummarizeInvalidChunkDegrades(t *testing.T) {
	client := &MockLLMClient{CompleteFunc: sequence(
		"I could not classify these, sorry",
		`{"models": ["ok"]}`,
	)}
	s := NewSummarizer(client, SummarizerConfig{ChunkSize: 1})

	summary, partials, err := s.Summarize(context.Background(), []string{"a.rb", "b.rb"})
	require.NoError(t, err)
	assert.Equal(t, []any{"ok"}, summary.Models)

	require.Len(t, partials, 2)
	assert.Equal(t, Partial{"error": "invalid_json", "raw": "I could not classify these, sorry"}, partials[0])
	assert.True(t, partials[0].Failed())
	assert.False(t, partials[1].Failed())
}

func TestSummarizeTransportErrorDegrades(t *testing.T) {
	calls := 0
	client := &MockLLMClient{CompleteFunc: func(ctx context.Context, req llm.Request) (string, error) {
		calls++
		if calls == 1 {
			return "", &llm.TransportError{Provider: llm.ProviderOpenAI, Err: errors.New("connection reset")}
		}
		return `{"views": ["app/views/a.erb"]}`, nil
	}}
	s := NewSummarizer(client, SummarizerConfig{ChunkSize: 1})

	summary, partials, err := s.Summarize(context.Background(), []string{"a.rb", "app/views/a.erb"})
	require.NoError(t, err)
	assert.Equal(t, []any{"app/views/a.erb"}, summary.Views)
	assert.Equal(t, ErrRequestFailed, partials[0]["error"])
}

func TestSummarizeRequestShape(t *testing.T) {
	client := &MockLLMClient{}
	profile := llm.Profile{Model: "gpt-4o", Temperature: 0, MaxOutputTokens: 1500}
	s := NewSummarizer(client, SummarizerConfig{ChunkSize: 2, Profile: profile})

	_, _, err := s.Summarize(context.Background(), []string{"a.rb", "b.rb", "c.rb"})
	require.NoError(t, err)

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "Return only valid JSON.", reqs[0].SystemInstruction)
	assert.Equal(t, "discovery/summarize", reqs[0].Node)
	assert.Equal(t, 1500, reqs[0].MaxOutputTokens)
	assert.Contains(t, reqs[0].UserPrompt, "Chunk 1/2")
	assert.Contains(t, reqs[0].UserPrompt, `"a.rb","b.rb"`)
	assert.Contains(t, reqs[1].UserPrompt, "Chunk 2/2")
	assert.NotContains(t, reqs[1].UserPrompt, "a.rb")
}

var chunkRe = regexp.MustCompile(`Chunk (\d+)/`)

func TestSummarizeParallelMatchesSequential(t *testing.T) {
	respond := func(ctx context.Context, req llm.Request) (string, error) {
		m := chunkRe.FindStringSubmatch(req.UserPrompt)
		n, _ := strconv.Atoi(m[1])
		if n%4 == 0 {
			return "garbage", nil
		}
		return fmt.Sprintf(`{"models": ["m%d-a", "m%d-b"], "views": ["v%d"]}`, n, n, n), nil
	}
	files := paths(40)

	seq := NewSummarizer(&MockLLMClient{CompleteFunc: respond}, SummarizerConfig{ChunkSize: 3, Parallelism: 1})
	par := NewSummarizer(&MockLLMClient{CompleteFunc: respond}, SummarizerConfig{ChunkSize: 3, Parallelism: 6})

	wantSummary, wantPartials, err := seq.Summarize(context.Background(), files)
	require.NoError(t, err)
	gotSummary, gotPartials, err := par.Summarize(context.Background(), files)
	require.NoError(t, err)

	if diff := cmp.Diff(wantSummary, gotSummary); diff != "" {
		t.Errorf("parallel summary differs (-seq +par):\n%s", diff)
	}
	assert.Equal(t, wantPartials, gotPartials)
}

func TestSummarizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewSummarizer(&MockLLMClient{}, SummarizerConfig{})
	_, _, err := s.Summarize(ctx, []string{"a.rb"})
	assert.ErrorIs(t, err, context.Canceled)
}
