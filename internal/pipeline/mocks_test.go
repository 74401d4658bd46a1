package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"djangify/internal/llm"

	"github.com/stretchr/testify/require"
)

// MockLLMClient answers by request node. A node without a handler fails
// the call.
type MockLLMClient struct {
	Handlers map[string]func(req llm.Request) (string, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockLLMClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req.Node)
	m.mu.Unlock()

	h, ok := m.Handlers[req.Node]
	if !ok {
		return llm.Response{}, errors.New("unexpected call to " + req.Node)
	}
	text, err := h(req)
	if err != nil {
		return llm.Response{}, err
	}
	return llm.Response{Text: text}, nil
}

func (m *MockLLMClient) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func answer(text string) func(llm.Request) (string, error) {
	return func(llm.Request) (string, error) { return text, nil }
}

// writeRailsApp lays out a small Rails project and returns its root.
func writeRailsApp(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"app/models/user.rb": "class User < ApplicationRecord\n  has_many :posts\nend\n",
		"app/controllers/users_controller.rb": "class UsersController < ApplicationController\n" +
			"  def show\n    @user = User.find(params[:id])\n    @user.send(params[:action_name])\n  end\nend\n",
		"config/routes.rb":               "Rails.application.routes.draw do\n  resources :users\nend\n",
		"app/views/users/index.html.erb": "<h1>Users</h1>\n",
		"README.md":                      "# legacy app\n",
		"node_modules/pkg/index.rb":      "puts 1\n",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

const summaryReply = `{
  "models": ["app/models/user.rb"],
  "controllers": ["app/controllers/users_controller.rb"],
  "routes_files": ["config/routes.rb"],
  "views": ["app/views/users/index.html.erb"]
}`

const unitsReply = "```json\n" + `{
  "models": [{"name": "User", "associations": ["has_many :posts"]}],
  "controllers": [{"name": "UsersController", "actions": ["show"]}],
  "routes": [{"resource": "users"}],
  "views": [{"path": "users/index"}],
  "dependencies": []
}` + "\n```"

const completeBlueprint = `{
  "project_name": "Blog",
  "settings_code": "INSTALLED_APPS = ['users']",
  "urls_code": "urlpatterns = []",
  "apps": [{
    "name": "users",
    "models_code": "class User(models.Model): pass",
    "views_code": "def show(request, pk): pass",
    "urls_code": "urlpatterns = []",
    "admin_code": "admin.site.register(User)",
    "templates": [{"name": "index.html", "content": "<h1>Users</h1>"}]
  }],
  "settings_overrides": {"MEDIA": false, "STATIC": true},
  "requirements": ["Django>=5,<6"]
}`
