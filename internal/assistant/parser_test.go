package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTools = []string{"read_file", "apply_diff", "execute_command"}

func TestParsePlainText(t *testing.T) {
	blocks := Parse("just some prose, no tools here", testTools)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockText, blocks[0].Type)
	assert.Equal(t, "just some prose, no tools here", blocks[0].Text)
}

func TestParseCompleteToolUse(t *testing.T) {
	text := "I'll read the file.\n<read_file>\n<path>main.go</path>\n</read_file>"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 2)

	assert.Equal(t, BlockText, blocks[0].Type)
	assert.Equal(t, "I'll read the file.", blocks[0].Text)

	require.Equal(t, BlockToolUse, blocks[1].Type)
	tool := blocks[1].Tool
	assert.Equal(t, "read_file", tool.Name)
	assert.False(t, tool.Partial)

	path, ok := tool.Param("path")
	require.True(t, ok)
	assert.Equal(t, "main.go", path)
}

func TestParsePreservesParamIndentation(t *testing.T) {
	text := "<apply_diff>\n<path>f.go</path>\n<diff>\n<<<<<<< SEARCH\n\tindented\n=======\n\tstill indented\n>>>>>>> REPLACE\n</diff>\n</apply_diff>"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 1)

	diff, ok := blocks[0].Tool.RawParam("diff")
	require.True(t, ok)
	assert.Contains(t, diff, "\tindented")
	assert.Contains(t, diff, "\tstill indented")
}

func TestParsePartialToolUse(t *testing.T) {
	text := "<execute_command>\n<command>ls -"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 1)

	require.Equal(t, BlockToolUse, blocks[0].Type)
	assert.True(t, blocks[0].Partial)

	cmd, ok := blocks[0].Tool.Param("command")
	require.True(t, ok)
	assert.Equal(t, "ls -", cmd)
}

func TestParsePartialGrowsIdempotently(t *testing.T) {
	full := "<read_file>\n<path>a.txt</path>\n</read_file>"

	var last []Block
	for i := 1; i <= len(full); i++ {
		last = Parse(full[:i], testTools)
	}

	require.Len(t, last, 1)
	assert.False(t, last[0].Partial)
	path, _ := last[0].Tool.Param("path")
	assert.Equal(t, "a.txt", path)
}

func TestParseUnknownTagStaysText(t *testing.T) {
	text := "<made_up_tool>\n<x>1</x>\n</made_up_tool>"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockText, blocks[0].Type)
}

func TestParseMultipleToolUses(t *testing.T) {
	text := "<read_file>\n<path>a</path>\n</read_file>\nand then\n<read_file>\n<path>b</path>\n</read_file>"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 3)

	assert.Equal(t, BlockToolUse, blocks[0].Type)
	assert.Equal(t, BlockText, blocks[1].Type)
	assert.Equal(t, BlockToolUse, blocks[2].Type)

	a, _ := blocks[0].Tool.Param("path")
	b, _ := blocks[2].Tool.Param("path")
	assert.Equal(t, "a", a)
	assert.Equal(t, "b", b)
}

func TestParsePartialBlockSwallowsTrailingText(t *testing.T) {
	// Everything after an unterminated tool block is unparseable until
	// more chunks arrive.
	text := "<read_file>\n<path>a.txt"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 1)
	assert.True(t, blocks[0].Partial)

	path, ok := blocks[0].Tool.Param("path")
	require.True(t, ok)
	assert.Equal(t, "a.txt", path)
}

func TestParseIgnoresUnstructuredToolBody(t *testing.T) {
	text := "<read_file>\nnot a param\n</read_file>"
	blocks := Parse(text, testTools)
	require.Len(t, blocks, 1)
	assert.Equal(t, BlockToolUse, blocks[0].Type)
	assert.False(t, blocks[0].Partial)
	assert.Empty(t, blocks[0].Tool.Params)
}

func TestRemovePartialClosingTag(t *testing.T) {
	assert.Equal(t, "ls -la", RemovePartialClosingTag("ls -la</comm", "command"))
	assert.Equal(t, "ls -la", RemovePartialClosingTag("ls -la</command>", "command"))
	assert.Equal(t, "ls -la", RemovePartialClosingTag("ls -la<", "command"))
	assert.Equal(t, "untouched", RemovePartialClosingTag("untouched", "command"))
}
