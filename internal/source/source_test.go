package source

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
}

func railsFixture(t *testing.T) string {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"Gemfile":                                "source 'https://rubygems.org'",
		"app/models/user.rb":                     "class User < ApplicationRecord; end",
		"app/models/concerns/named.rb":           "module Named; end",
		"app/controllers/users_controller.rb":    "class UsersController < ApplicationController; end",
		"app/views/users/index.html.erb":         "<h1>Users</h1>",
		"app/views/layouts/application.html.erb": "<%= yield %>",
		"config/routes.rb":                       "Rails.application.routes.draw do; end",
		"config/database.yml":                    "development:",
		".git/HEAD":                              "ref: refs/heads/main",
		"node_modules/x/index.js":                "module.exports = 1",
	})
	return root
}

func TestListTreeAll(t *testing.T) {
	root := railsFixture(t)
	tree, err := ListTree(root, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Gemfile",
		"app/controllers/users_controller.rb",
		"app/models/concerns/named.rb",
		"app/models/user.rb",
		"app/views/layouts/application.html.erb",
		"app/views/users/index.html.erb",
		"config/database.yml",
		"config/routes.rb",
	}, tree.Files)
	assert.Contains(t, tree.Dirs, "app/models/concerns")
	for _, d := range tree.Dirs {
		assert.False(t, strings.HasPrefix(d, ".git"), "hidden dirs are skipped")
		assert.False(t, strings.HasPrefix(d, "node_modules"))
	}
}

func TestListTreeGlobs(t *testing.T) {
	root := railsFixture(t)
	tree, err := ListTree(root, []string{
		"app/models/**/*.rb",
		"app/controllers/**/*.rb",
		"config/routes.rb",
		"app/views/**/*",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"app/controllers/users_controller.rb",
		"app/models/concerns/named.rb",
		"app/models/user.rb",
		"app/views/layouts/application.html.erb",
		"app/views/users/index.html.erb",
		"config/routes.rb",
	}, tree.Files)
}

func TestListTreeErrors(t *testing.T) {
	_, err := ListTree(filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.rb")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = ListTree(file, nil)
	assert.Error(t, err)
}

func TestReadFiles(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"app/models/user.rb": "class User; end",
		"big.rb":             strings.Repeat("a", 100),
		"logo.png":           "\x89PNG\x00\x00",
		"bad.rb":             "ok\xffok",
	})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app/views"), 0755))

	files := ReadFiles(root, []string{"app/models/user.rb", "app/views", "missing.rb", "logo.png", "big.rb", "bad.rb"}, 50)
	require.Len(t, files, 3)

	assert.Equal(t, File{Path: "app/models/user.rb", Content: "class User; end"}, files[0])
	assert.Equal(t, "big.rb", files[1].Path)
	assert.Len(t, files[1].Content, 50)
	assert.True(t, files[1].Truncated)
	assert.Equal(t, "okok", files[2].Content)
}

func TestReadFilesDefaultLimit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.rb": "x"})
	files := ReadFiles(root, []string{"a.rb"}, 0)
	require.Len(t, files, 1)
	assert.False(t, files[0].Truncated)
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "abc", TruncateUTF8("abc", 10))
	assert.Equal(t, "ab", TruncateUTF8("abc", 2))
	assert.Equal(t, "", TruncateUTF8("abc", 0))
	// "é" is two bytes; cutting inside it backs off to the rune start.
	assert.Equal(t, "a", TruncateUTF8("aé", 2))
	assert.Equal(t, "aé", TruncateUTF8("aé", 3))
}
