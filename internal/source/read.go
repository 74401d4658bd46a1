package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"djangify/internal/logging"

	"go.uber.org/zap"
)

// DefaultMaxBytes bounds how much of a single file is read.
const DefaultMaxBytes = 80_000

// File is the bounded content of one source file.
type File struct {
	Path      string `json:"path"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
}

// ReadFiles reads the given root-relative paths in order. Missing paths,
// directories and binary files (any NUL byte in the read prefix) are skipped.
// Content is decoded as UTF-8 with invalid sequences dropped.
func ReadFiles(root string, paths []string, maxBytes int) []File {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	log := logging.Get(logging.CategoryDiscovery)

	files := make([]File, 0, len(paths))
	for _, rel := range paths {
		full := rel
		if !filepath.IsAbs(rel) {
			full = filepath.Join(root, filepath.FromSlash(rel))
		}

		f, ok, err := readOne(full, maxBytes)
		if err != nil {
			log.Warn("failed to read file", zap.String("path", rel), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		f.Path = rel
		files = append(files, f)
	}
	return files
}

func readOne(path string, maxBytes int) (File, bool, error) {
	log := logging.Get(logging.CategoryDiscovery)

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, err
	}
	if info.IsDir() {
		log.Debug("skipping directory", zap.String("path", path))
		return File{}, false, nil
	}

	fh, err := os.Open(path)
	if err != nil {
		return File{}, false, fmt.Errorf("open: %w", err)
	}
	defer fh.Close()

	raw, err := io.ReadAll(io.LimitReader(fh, int64(maxBytes)))
	if err != nil {
		return File{}, false, fmt.Errorf("read: %w", err)
	}
	if bytes.IndexByte(raw, 0) != -1 {
		log.Debug("skipping binary file", zap.String("path", path))
		return File{}, false, nil
	}

	return File{
		Content:   strings.ToValidUTF8(string(raw), ""),
		Truncated: len(raw) >= maxBytes,
	}, true, nil
}

// TruncateUTF8 cuts s to at most max bytes without splitting a rune.
func TruncateUTF8(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	// Back off continuation bytes (10xxxxxx).
	for cut > 0 && s[cut]&0xC0 == 0x80 {
		cut--
	}
	return s[:cut]
}
