package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mend/internal/approval"
	"mend/internal/assistant"
	"mend/internal/shell"
)

// ExecuteCommand runs a shell command inside the workspace.
type ExecuteCommand struct{}

func (t *ExecuteCommand) Name() string { return "execute_command" }

func (t *ExecuteCommand) Description() string {
	return "Run a shell command in the workspace. Output is captured and returned with the exit code."
}

func (t *ExecuteCommand) Required() []string { return []string{"command"} }

func (t *ExecuteCommand) Kind() approval.Kind { return approval.KindCommand }

func (t *ExecuteCommand) Summary(block *assistant.ToolUse) string {
	command, _ := block.Param("command")
	command = assistant.RemovePartialClosingTag(command, "command")
	cwd, _ := block.Param("cwd")
	return shell.Describe(command, cwd)
}

func (t *ExecuteCommand) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	command, _ := block.Param("command")
	cwd, _ := block.Param("cwd")

	approved, err := env.Gate().Ask(ctx, &approval.Request{
		Kind:    approval.KindCommand,
		Tool:    t.Name(),
		Payload: shell.Describe(command, cwd),
		// Describe truncates long commands for display; session
		// decisions must distinguish the full command line.
		CacheKey: command + "\x00" + cwd,
	})
	if err != nil {
		return err
	}
	if !approved {
		env.PushToolResult("The operation was not approved.")
		return nil
	}

	outcome, err := env.Shell().Run(ctx, command, cwd)
	if err != nil {
		return err
	}

	var b strings.Builder
	switch {
	case outcome.TimedOut:
		fmt.Fprintf(&b, "Command timed out after %s.\n", outcome.Duration.Round(time.Millisecond))
	case outcome.ExitCode == 0:
		b.WriteString("Command executed successfully.\n")
	default:
		fmt.Fprintf(&b, "Command exited with code %d.\n", outcome.ExitCode)
	}
	if outcome.Output != "" {
		b.WriteString("Output:\n")
		b.WriteString(outcome.Output)
	}
	env.PushToolResult(strings.TrimRight(b.String(), "\n"))
	return nil
}
