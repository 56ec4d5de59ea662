package tools

import (
	"context"
	"fmt"
	"time"

	"mend/internal/approval"
	"mend/internal/assistant"
)

// SwitchMode changes the operating mode of the owning session.
type SwitchMode struct{}

func (t *SwitchMode) Name() string { return "switch_mode" }

func (t *SwitchMode) Description() string {
	return "Switch to a different operating mode, for example from code to architect."
}

func (t *SwitchMode) Required() []string { return []string{"mode_slug"} }

func (t *SwitchMode) Kind() approval.Kind { return approval.KindMode }

func (t *SwitchMode) Summary(block *assistant.ToolUse) string {
	slug, _ := block.Param("mode_slug")
	reason, _ := block.Param("reason")
	if reason != "" {
		return fmt.Sprintf("Switch to %s mode: %s", slug, reason)
	}
	return fmt.Sprintf("Switch to %s mode", slug)
}

func (t *SwitchMode) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	slug, _ := block.Param("mode_slug")
	reason, _ := block.Param("reason")

	target, err := env.Modes().Resolve(slug)
	if err != nil {
		env.RecordMistake()
		env.PushToolResult(err.Error())
		return nil
	}

	from := env.CurrentMode()
	if from.Slug == target.Slug {
		// Reported before approval: there is nothing to approve.
		env.RecordMistake()
		env.PushToolResult(fmt.Sprintf("Already in %s mode.", target.Name))
		return nil
	}

	approved, err := env.Gate().Ask(ctx, &approval.Request{
		Kind:    approval.KindMode,
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

	if err := env.PerformModeSwitch(target.Slug); err != nil {
		return err
	}

	// Let the mode change settle before the next turn builds its prompt.
	if delay := env.SettleDelay(); delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	env.EmitModeSwitched(from, target, reason)

	msg := fmt.Sprintf("Switched from %s mode to %s mode", from.Name, target.Name)
	if reason != "" {
		msg += " because: " + reason
	}
	env.PushToolResult(msg + ".")
	return nil
}
