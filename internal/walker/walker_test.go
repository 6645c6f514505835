package walker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFiles creates the named files (with parent dirs) under root.
func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("content\n"), 0o644))
	}
}

// relNames maps absolute result paths back to slash-separated names
// relative to root.
func relNames(t *testing.T, root string, paths []string) []string {
	t.Helper()
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	return names
}

func TestWalk_DefaultPatterns(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "readme.md", "main.py", "photo.jpg", "sub/notes.txt")

	paths, err := New(nil, nil).Walk(root)
	require.NoError(t, err)

	names := relNames(t, root, paths)
	assert.ElementsMatch(t, []string{"readme.md", "main.py", "sub/notes.txt"}, names)
}

func TestWalk_CustomInclude(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.md", "b.py", "c.txt")

	paths, err := New([]string{"*.md"}, nil).Walk(root)
	require.NoError(t, err)

	names := relNames(t, root, paths)
	assert.Equal(t, []string{"a.md"}, names)
}

func TestWalk_Exclude(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "keep.md", "skip.md", "vendor/dep.md")

	paths, err := New([]string{"*.md"}, []string{"skip.md", "vendor/**"}).Walk(root)
	require.NoError(t, err)

	names := relNames(t, root, paths)
	assert.ElementsMatch(t, []string{"keep.md"}, names)
}

func TestWalk_MatchesBaseNameInSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "deep/nested/dir/file.py")

	// "*.py" has no path separators but still matches by base name.
	paths, err := New([]string{"*.py"}, nil).Walk(root)
	require.NoError(t, err)
	assert.Len(t, paths, 1)
}

func TestWalk_EmptyDirectory(t *testing.T) {
	paths, err := New(nil, nil).Walk(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWalk_MissingRoot(t *testing.T) {
	_, err := New(nil, nil).Walk(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWalk_RootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "file.txt")

	_, err := New(nil, nil).Walk(filepath.Join(root, "file.txt"))
	assert.ErrorIs(t, err, ErrNotADirectory)
}

func TestExpandBracePattern(t *testing.T) {
	tests := []struct {
		pattern string
		want    []string
	}{
		{"*.{py,md}", []string{"*.py", "*.md"}},
		{"*.{py, md, txt}", []string{"*.py", "*.md", "*.txt"}},
		{"*.go", []string{"*.go"}},
		{"src/*.{js,ts}", []string{"src/*.js", "src/*.ts"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandBracePattern(tt.pattern), "pattern %q", tt.pattern)
	}
}
