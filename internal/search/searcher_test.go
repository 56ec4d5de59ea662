package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestSearchLiteral(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":     "package a\nfunc Hello() {}\n",
		"sub/b.go": "package b\n// Hello again\n",
		"c.txt":    "nothing here\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "Hello", "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "a.go", matches[0].Path)
	assert.Equal(t, 2, matches[0].Line)
	assert.Contains(t, matches[0].Text, "func Hello()")
	assert.Equal(t, filepath.Join("sub", "b.go"), matches[1].Path)
}

func TestSearchRegex(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.go": "foo1\nfoo2\nbar\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), `foo\d`, "", 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearchLiteralFallbackOnBadRegex(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.txt": "a [bracket\nplain\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "[bracket", "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 1, matches[0].Line)
}

func TestSearchGlobFilter(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"a.go":  "target\n",
		"a.txt": "target\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "target", "**/*.go", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a.go", matches[0].Path)
}

func TestSearchLimit(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"x.txt": "hit\nhit\nhit\nhit\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "hit", "", 2)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestSearchSkipsVendoredDirs(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"keep.go":              "needle\n",
		".git/blob.txt":        "needle\n",
		"node_modules/m/x.js":  "needle\n",
		"vendor/dep/dep.go":    "needle\n",
	})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "needle", "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "keep.go", matches[0].Path)
}

func TestSearchSkipsBinaryFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"text.txt": "needle\n",
	})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("needle\x00needle"), 0o644))

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "needle", "", 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "text.txt", matches[0].Path)
}

func TestSearchConcurrentMatchesSequential(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files[name+".txt"] = "needle in " + name + "\n"
	}
	dir := writeTree(t, files)

	seq := NewSearcher(dir, 0, 0)
	seqMatches, err := seq.Search(context.Background(), "needle", "", 0)
	require.NoError(t, err)

	par := NewSearcher(dir, 0, 0)
	par.Concurrent = true
	parMatches, err := par.Search(context.Background(), "needle", "", 0)
	require.NoError(t, err)

	assert.Equal(t, seqMatches, parMatches)
}

func TestSearchNoResults(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.txt": "nothing\n"})

	s := NewSearcher(dir, 0, 0)
	matches, err := s.Search(context.Background(), "absent", "", 0)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
