package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"mend/internal/approval"
	"mend/internal/assistant"
)

// CodebaseSearch scans workspace files for a pattern.
type CodebaseSearch struct{}

func (t *CodebaseSearch) Name() string { return "codebase_search" }

func (t *CodebaseSearch) Description() string {
	return "Search workspace files for a regular expression or literal string, optionally restricted to a path glob."
}

func (t *CodebaseSearch) Required() []string { return []string{"query"} }

func (t *CodebaseSearch) Kind() approval.Kind { return approval.KindTool }

func (t *CodebaseSearch) Summary(block *assistant.ToolUse) string {
	query, _ := block.Param("query")
	return "Search for " + strconv.Quote(query)
}

func (t *CodebaseSearch) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	query, _ := block.Param("query")
	pathGlob, _ := block.Param("path")

	limit := 0
	if v, ok := block.Param("limit"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			env.RecordMistake()
			env.PushToolResult(fmt.Sprintf("Invalid limit %q: expected a positive integer.", v))
			return nil
		}
		limit = n
	}

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

	matches, err := env.Searcher().Search(ctx, query, pathGlob, limit)
	if err != nil {
		env.RecordMistake()
		env.PushToolResult(fmt.Sprintf("Search failed: %v", err))
		return nil
	}

	if len(matches) == 0 {
		env.PushToolResult("No results found.")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s):\n", len(matches))
	for _, m := range matches {
		fmt.Fprintf(&b, "%s:%d: %s\n", m.Path, m.Line, m.Text)
	}
	env.PushToolResult(strings.TrimRight(b.String(), "\n"))
	return nil
}
