package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadFileNumbersLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "first\nsecond\nthird\n")

	env := newFakeEnv(dir)
	err := (&ReadFile{}).Handle(context.Background(), env, block("read_file", map[string]string{
		"path": "f.txt",
	}))
	require.NoError(t, err)

	out := env.lastResult()
	assert.Contains(t, out, "1 | first")
	assert.Contains(t, out, "2 | second")
	assert.Contains(t, out, "3 | third")
}

func TestReadFileMissing(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	err := (&ReadFile{}).Handle(context.Background(), env, block("read_file", map[string]string{
		"path": "nope.txt",
	}))
	require.NoError(t, err)
	assert.Equal(t, 1, env.mistakes)
	assert.Contains(t, env.lastResult(), "File not found")
}

func TestReadFileTruncatesLongFiles(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	for i := 0; i < maxReadLines+50; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	writeFile(t, dir, "big.txt", b.String())

	env := newFakeEnv(dir)
	err := (&ReadFile{}).Handle(context.Background(), env, block("read_file", map[string]string{
		"path": "big.txt",
	}))
	require.NoError(t, err)
	assert.Contains(t, env.lastResult(), "truncated")
}

func TestReadFileNormalizesCRLFForDisplay(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "a\r\nb\r\n")

	env := newFakeEnv(dir)
	err := (&ReadFile{}).Handle(context.Background(), env, block("read_file", map[string]string{
		"path": "f.txt",
	}))
	require.NoError(t, err)
	assert.NotContains(t, env.lastResult(), "\r")
}
