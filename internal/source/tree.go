// Package source lists and reads the Rails project being converted.
// All paths handed out are slash-separated and relative to the project root.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar"
)

// Tree is the ordered listing of a project root.
type Tree struct {
	Root  string   `json:"root"`
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

// skippedDirs are never descended into.
var skippedDirs = map[string]bool{
	"node_modules": true,
}

// ListTree walks root in lexical order. When globs is non-empty only files
// matching at least one pattern (doublestar syntax, relative to root) are kept;
// directories are always listed.
func ListTree(root string, globs []string) (Tree, error) {
	for _, g := range globs {
		if _, err := doublestar.Match(g, ""); err != nil {
			return Tree{}, fmt.Errorf("invalid glob %q: %w", g, err)
		}
	}

	info, err := os.Stat(root)
	if err != nil {
		return Tree{}, fmt.Errorf("failed to stat project root: %w", err)
	}
	if !info.IsDir() {
		return Tree{}, fmt.Errorf("project root %s is not a directory", root)
	}

	tree := Tree{Root: root, Dirs: []string{}, Files: []string{}}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || skippedDirs[name] {
				return filepath.SkipDir
			}
			tree.Dirs = append(tree.Dirs, rel)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if len(globs) > 0 && !MatchAny(globs, rel) {
			return nil
		}
		tree.Files = append(tree.Files, rel)
		return nil
	})
	if err != nil {
		return Tree{}, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return tree, nil
}

// MatchAny reports whether rel matches any of the patterns.
func MatchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
