// Package tools defines the tool handlers a task can dispatch and the
// registry that routes parsed tool-use blocks to them.
package tools

import (
	"context"
	"fmt"
	"time"

	"mend/internal/approval"
	"mend/internal/assistant"
	"mend/internal/diff"
	"mend/internal/experiments"
	"mend/internal/mode"
	"mend/internal/search"
	"mend/internal/shell"
	"mend/internal/undo"
	"mend/internal/workspace"
)

// Env is the set of task collaborators injected into every handler
// invocation. It is implemented by the task; handlers never reach around
// it to mutate task state directly.
type Env interface {
	// WorkDir is the workspace root all relative paths resolve against.
	WorkDir() string

	// DiffEnabled reports whether diff editing is on for this task.
	DiffEnabled() bool

	// DiffStrategy returns the active strategy snapshot, nil when diff
	// editing is disabled. Handlers capture it once per invocation.
	DiffStrategy() diff.Strategy

	// Experiments is the task's current experiment snapshot.
	Experiments() experiments.Snapshot

	// Gate is the approval gate mutating handlers must clear.
	Gate() *approval.Gate

	// PushToolResult appends the tool outcome to the conversation.
	PushToolResult(text string)

	// RecordMistake notes a recoverable validation failure.
	RecordMistake()

	// ResetMistakes clears the consecutive-mistake counter.
	ResetMistakes()

	// HandleError reports a handler fault to the conversation and log.
	HandleError(action string, err error)

	// CurrentMode is the mode the task is running in.
	CurrentMode() mode.Mode

	// Modes validates mode slugs.
	Modes() *mode.Registry

	// PerformModeSwitch switches the owning session to slug.
	PerformModeSwitch(slug string) error

	// EmitModeSwitched publishes the mode-switch event.
	EmitModeSwitched(from, to mode.Mode, reason string)

	// SettleDelay is how long to wait after a state-changing operation.
	SettleDelay() time.Duration

	Shell() *shell.Runner
	Searcher() *search.Searcher
	Journal() *undo.Journal
	Tracker() *workspace.Tracker
}

// Tool is one capability the model can invoke. Implementations validate
// their own domain preconditions; parameter presence and the partial /
// approval plumbing are handled by the registry.
type Tool interface {
	// Name is the wire tag identifying the tool.
	Name() string

	// Description is the prompt text describing the tool.
	Description() string

	// Required lists parameters that must be present and non-empty.
	Required() []string

	// Kind classifies the tool for approval rules.
	Kind() approval.Kind

	// Summary renders the pending-action description shown at approval
	// time, tolerating partially streamed parameters.
	Summary(block *assistant.ToolUse) string

	// Handle executes a fully parsed block. Returned errors are faults,
	// not tool outcomes: recoverable failures must be pushed as results
	// instead.
	Handle(ctx context.Context, env Env, block *assistant.ToolUse) error
}

// MissingParamMessage formats the standard missing-parameter result.
func MissingParamMessage(tool, param string) string {
	return fmt.Sprintf("Missing required parameter %q for tool %q. Retry with the complete parameter set.", param, tool)
}
