// Package walker discovers candidate files under a root directory,
// filtered by include and exclude glob patterns.
package walker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	// ErrNotFound is returned when the root directory does not exist.
	ErrNotFound = errors.New("directory not found")
	// ErrNotADirectory is returned when the root path is not a directory.
	ErrNotADirectory = errors.New("path is not a directory")
)

// DefaultIncludePatterns match the text-like file types indexed by default.
var DefaultIncludePatterns = []string{
	"*.py", "*.js", "*.ts", "*.md", "*.txt", "*.json", "*.yaml", "*.yml",
}

// Walker lists files under a root directory. A file is yielded when its
// base name or root-relative path matches an include pattern and no
// exclude pattern.
type Walker struct {
	include []string
	exclude []string
}

// New creates a Walker. Nil include patterns fall back to
// DefaultIncludePatterns; nil exclude patterns exclude nothing.
func New(include, exclude []string) *Walker {
	if include == nil {
		include = DefaultIncludePatterns
	}
	return &Walker{include: include, exclude: exclude}
}

// Walk returns the paths of all matching files under root, in directory
// walk order. It fails with ErrNotFound or ErrNotADirectory for an invalid
// root; an empty result is not an error.
func (w *Walker) Walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, root)
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if w.matches(w.include, rel) && !w.matches(w.exclude, rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// matches checks patterns against both the relative path and its base name.
func (w *Walker) matches(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		pattern = filepath.ToSlash(pattern)
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// ExpandBracePattern expands a single brace alternation into individual
// glob patterns: "*.{py,md}" becomes ["*.py", "*.md"]. Patterns without
// braces are returned unchanged.
func ExpandBracePattern(pattern string) []string {
	open := strings.Index(pattern, "{")
	closing := strings.Index(pattern, "}")
	if open < 0 || closing < open {
		return []string{pattern}
	}

	prefix := pattern[:open]
	suffix := pattern[closing+1:]
	alternatives := strings.Split(pattern[open+1:closing], ",")

	expanded := make([]string, 0, len(alternatives))
	for _, alt := range alternatives {
		expanded = append(expanded, prefix+strings.TrimSpace(alt)+suffix)
	}
	return expanded
}
