package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"mend/internal/approval"
	"mend/internal/assistant"
)

// InsertCodeBlock inserts a block of lines at a position in a file
// without matching existing content.
type InsertCodeBlock struct{}

func (t *InsertCodeBlock) Name() string { return "insert_code_block" }

func (t *InsertCodeBlock) Description() string {
	return "Insert a block of lines into a file at a 1-based line number. Line 0 appends to the end of the file."
}

func (t *InsertCodeBlock) Required() []string { return []string{"path", "start_line", "content"} }

func (t *InsertCodeBlock) Kind() approval.Kind { return approval.KindDiff }

func (t *InsertCodeBlock) Summary(block *assistant.ToolUse) string {
	path, _ := block.Param("path")
	line, _ := block.Param("start_line")
	return fmt.Sprintf("Insert content into %s at line %s", path, line)
}

func (t *InsertCodeBlock) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	path, _ := block.Param("path")
	lineStr, _ := block.Param("start_line")
	content, _ := block.RawParam("content")

	startLine, err := strconv.Atoi(lineStr)
	if err != nil || startLine < 0 {
		env.RecordMistake()
		env.PushToolResult(fmt.Sprintf("Invalid start_line %q: expected a non-negative integer.", lineStr))
		return nil
	}

	abs := resolvePath(env, path)
	warning := staleWarning(env, abs)

	original, err := readWorkspaceFile(env, abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			env.RecordMistake()
			env.PushToolResult(fmt.Sprintf("File not found: %s", path))
			return nil
		}
		return err
	}

	updated, inserted := insertLines(original, content, startLine)

	approved, err := env.Gate().Ask(ctx, &approval.Request{
		Kind:    approval.KindDiff,
		Tool:    t.Name(),
		Payload: fmt.Sprintf("Insert %d line(s) into %s at line %d", inserted, path, startLine),
	})
	if err != nil {
		return err
	}
	if !approved {
		env.PushToolResult("The operation was not approved.")
		return nil
	}

	if err := commitWrite(env, abs, t.Name(), original, updated, false); err != nil {
		return err
	}

	env.PushToolResult(fmt.Sprintf("%sInserted %d line(s) into %s at line %d.", warning, inserted, path, startLine))
	return nil
}

// insertLines places content before the 1-based startLine, or at the end
// when startLine is 0 or past the last line. The file's dominant line
// ending is preserved for the inserted block.
func insertLines(original, content string, startLine int) (string, int) {
	crlf := strings.Count(original, "\r\n")*2 >= strings.Count(original, "\n") && strings.Contains(original, "\r\n")

	newLines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(newLines) > 0 && newLines[len(newLines)-1] == "" {
		newLines = newLines[:len(newLines)-1]
	}
	if crlf {
		for i, l := range newLines {
			newLines[i] = l + "\r"
		}
	}

	trailingNewline := strings.HasSuffix(original, "\n")
	body := strings.TrimSuffix(original, "\n")
	body = strings.TrimSuffix(body, "\r")

	var lines []string
	if body != "" || original == "\n" || original == "\r\n" {
		lines = strings.Split(body, "\n")
	}

	at := len(lines)
	if startLine > 0 && startLine-1 < at {
		at = startLine - 1
	}

	merged := make([]string, 0, len(lines)+len(newLines))
	merged = append(merged, lines[:at]...)
	merged = append(merged, newLines...)
	merged = append(merged, lines[at:]...)

	out := strings.Join(merged, "\n")
	if trailingNewline || original == "" {
		if crlf {
			out += "\r"
		}
		out += "\n"
	}
	return out, len(newLines)
}
