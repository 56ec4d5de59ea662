package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodebaseSearchFindsMatches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\nfunc Needle() {}\n")
	writeFile(t, dir, "b.go", "package b\n")

	env := newFakeEnv(dir)
	err := (&CodebaseSearch{}).Handle(context.Background(), env, block("codebase_search", map[string]string{
		"query": "Needle",
	}))
	require.NoError(t, err)

	assert.Contains(t, env.lastResult(), "Found 1 result(s)")
	assert.Contains(t, env.lastResult(), "a.go:2:")
}

func TestCodebaseSearchNoResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	env := newFakeEnv(dir)
	err := (&CodebaseSearch{}).Handle(context.Background(), env, block("codebase_search", map[string]string{
		"query": "absent",
	}))
	require.NoError(t, err)
	assert.Equal(t, "No results found.", env.lastResult())
}

func TestCodebaseSearchGlobAndLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "hit\nhit\nhit\n")
	writeFile(t, dir, "a.txt", "hit\n")

	env := newFakeEnv(dir)
	err := (&CodebaseSearch{}).Handle(context.Background(), env, block("codebase_search", map[string]string{
		"query": "hit",
		"path":  "**/*.go",
		"limit": "2",
	}))
	require.NoError(t, err)

	assert.Contains(t, env.lastResult(), "Found 2 result(s)")
	assert.NotContains(t, env.lastResult(), "a.txt")
}

func TestCodebaseSearchInvalidLimit(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	err := (&CodebaseSearch{}).Handle(context.Background(), env, block("codebase_search", map[string]string{
		"query": "x",
		"limit": "lots",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, env.mistakes)
	assert.Contains(t, env.lastResult(), "Invalid limit")
}
