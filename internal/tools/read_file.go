package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mend/internal/approval"
	"mend/internal/assistant"
)

// maxReadLines caps how much of a file a single read returns.
const maxReadLines = 2000

// ReadFile returns numbered file content and registers the file with the
// workspace tracker so later edits can detect external drift.
type ReadFile struct{}

func (t *ReadFile) Name() string { return "read_file" }

func (t *ReadFile) Description() string {
	return "Read a workspace file. Output is line-numbered."
}

func (t *ReadFile) Required() []string { return []string{"path"} }

func (t *ReadFile) Kind() approval.Kind { return approval.KindTool }

func (t *ReadFile) Summary(block *assistant.ToolUse) string {
	path, _ := block.Param("path")
	return "Read " + path
}

func (t *ReadFile) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	path, _ := block.Param("path")
	abs := resolvePath(env, path)

	approved, err := env.Gate().Ask(ctx, &approval.Request{
		Kind:    approval.KindTool,
		Tool:    t.Name(),
		Payload: t.Summary(block),
	})
	if err != nil {
		return err
	}
	if !approved {
		env.PushToolResult("The operation was not approved.")
		return nil
	}

	content, err := readWorkspaceFile(env, abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			env.RecordMistake()
			env.PushToolResult(fmt.Sprintf("File not found: %s", path))
			return nil
		}
		return err
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	truncated := false
	if len(lines) > maxReadLines {
		lines = lines[:maxReadLines]
		truncated = true
	}

	var b strings.Builder
	width := len(fmt.Sprint(len(lines)))
	for i, line := range lines {
		fmt.Fprintf(&b, "%*d | %s\n", width, i+1, line)
	}
	if truncated {
		fmt.Fprintf(&b, "... (truncated at %d lines)\n", maxReadLines)
	}
	env.PushToolResult(strings.TrimRight(b.String(), "\n"))
	return nil
}
