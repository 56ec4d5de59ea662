package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"mend/internal/approval"
	"mend/internal/assistant"
	"mend/internal/diff"
)

// ApplyDiff applies a search/replace diff to one or more workspace files
// through the task's active diff strategy.
type ApplyDiff struct{}

func (t *ApplyDiff) Name() string { return "apply_diff" }

func (t *ApplyDiff) Description() string {
	return "Apply a search/replace diff to a file. The search block must match existing content; close matches are accepted when whitespace or minor drift is the only difference."
}

func (t *ApplyDiff) Required() []string { return []string{"path", "diff"} }

func (t *ApplyDiff) Kind() approval.Kind { return approval.KindDiff }

func (t *ApplyDiff) Summary(block *assistant.ToolUse) string {
	path, _ := block.Param("path")
	payload, _ := block.RawParam("diff")
	payload = assistant.RemovePartialClosingTag(payload, "diff")
	doc := map[string]string{"tool": t.Name(), "path": path, "diff": payload}
	b, _ := json.Marshal(doc)
	return string(b)
}

func (t *ApplyDiff) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	path, _ := block.Param("path")
	payload, _ := block.RawParam("diff")

	strategy := env.DiffStrategy()
	if !env.DiffEnabled() || strategy == nil {
		env.RecordMistake()
		env.PushToolResult(diff.ErrDiffDisabled.Error())
		return nil
	}

	var startLine int
	if v, ok := block.Param("start_line"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			env.RecordMistake()
			env.PushToolResult(fmt.Sprintf("Invalid start_line %q: expected a positive integer.", v))
			return nil
		}
		startLine = n
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

	res, err := strategy.ApplyDiff(diff.Request{
		Path:      path,
		Original:  original,
		Payload:   payload,
		StartLine: startLine,
		Read: func(p string) (string, error) {
			return readWorkspaceFile(env, resolvePath(env, p))
		},
	})
	if err != nil {
		if diff.IsInvalidPayload(err) {
			env.RecordMistake()
			env.PushToolResult(err.Error())
			return nil
		}
		return err
	}

	if res.AllFailed() {
		env.RecordMistake()
		env.PushToolResult(warning + res.Summary())
		return nil
	}

	approved, err := env.Gate().Ask(ctx, &approval.Request{
		Kind:    approval.KindDiff,
		Tool:    t.Name(),
		Payload: approvalPayload(t.Name(), env, res),
	})
	if err != nil {
		return err
	}
	if !approved {
		env.PushToolResult("The operation was not approved.")
		return nil
	}

	for _, f := range res.Files {
		if !f.Changed() {
			continue
		}
		target := resolvePath(env, f.Path)
		old := original
		if f.Path != path {
			data, readErr := os.ReadFile(target)
			if readErr != nil {
				return readErr
			}
			old = string(data)
		}
		if err := commitWrite(env, target, t.Name(), old, f.Content, false); err != nil {
			return err
		}
	}

	env.PushToolResult(warning + res.Summary())
	return nil
}

// approvalPayload renders the pending edit as JSON with per-file change
// stats so the responder can show what is about to be written.
func approvalPayload(tool string, env Env, res *diff.Result) string {
	type fileStat struct {
		Path    string `json:"path"`
		Hunks   int    `json:"hunks"`
		Added   int    `json:"lines_added"`
		Removed int    `json:"lines_removed"`
		Failed  bool   `json:"failed,omitempty"`
	}
	doc := struct {
		Tool  string     `json:"tool"`
		Files []fileStat `json:"files"`
	}{Tool: tool}

	for _, f := range res.Files {
		st := fileStat{Path: f.Path, Hunks: f.Applied, Failed: f.Err != nil}
		if f.Changed() {
			abs := resolvePath(env, f.Path)
			if data, err := os.ReadFile(abs); err == nil {
				st.Added, st.Removed = changeStats(string(data), f.Content)
			}
		}
		doc.Files = append(doc.Files, st)
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// changeStats counts inserted and deleted lines between two revisions.
func changeStats(before, after string) (added, removed int) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	for _, d := range diffs {
		n := strings.Count(d.Text, "\n")
		if n == 0 && d.Text != "" {
			n = 1
		}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += n
		case diffmatchpatch.DiffDelete:
			removed += n
		}
	}
	return added, removed
}
