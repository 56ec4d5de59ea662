package task

import (
	"context"
	"fmt"
	"strings"

	"mend/internal/assistant"
	"mend/internal/experiments"
	"mend/internal/logging"
	"mend/internal/provider"
)

// Run executes the conversation loop until the task reaches a terminal
// state. It may only be called once, on an idle task.
func (t *Task) Run(ctx context.Context, prompt string) error {
	if t.client == nil {
		return fmt.Errorf("task has no model client")
	}
	if !t.transition(StateIdle, StateRunning) {
		return fmt.Errorf("task %s already started", t.id)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	t.mu.Lock()
	t.cancel = cancel
	t.mu.Unlock()

	t.appendTurn(roleUser, prompt)
	logging.Info("task started", "task", t.id, "mode", t.CurrentMode().Slug, "model", t.client.Model())

	maxTurns := t.cfg.Task.MaxTurns
	for turn := 0; turn < maxTurns; turn++ {
		// Settings may have changed between turns; the strategy and
		// experiment snapshot are re-derived here, never mid-dispatch.
		t.RefreshSettings()

		text, err := t.streamTurn(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.finish(StateAborted, ctx.Err())
				return ctx.Err()
			}
			t.finish(StateFailed, err)
			return err
		}
		t.appendTurn(roleAssistant, text)

		used := false
		for _, b := range assistant.Parse(text, t.registry.Names()) {
			if b.Type != assistant.BlockToolUse || b.Partial {
				continue
			}
			used = true
			t.registry.Dispatch(ctx, t, b.Tool)

			if ctx.Err() != nil {
				t.finish(StateAborted, ctx.Err())
				return ctx.Err()
			}
			if n := t.MistakeCount(); n >= t.cfg.Task.MistakeCeiling {
				err := fmt.Errorf("%d consecutive invalid tool invocations", n)
				t.finish(StateFailed, err)
				return err
			}
		}

		if !used {
			// A turn with no tool use is the final answer.
			t.finish(StateCompleted, nil)
			return nil
		}
	}

	err := fmt.Errorf("turn limit of %d reached", maxTurns)
	t.finish(StateFailed, err)
	return err
}

// Abort cancels a waiting or running task from outside. Cancellation is
// observed at the next suspension point; in-flight file writes complete.
func (t *Task) Abort() {
	t.mu.RLock()
	cancel := t.cancel
	t.mu.RUnlock()
	if cancel != nil {
		cancel()
	}
	t.finish(StateAborted, context.Canceled)
}

// streamTurn requests one assistant turn and accumulates the streamed
// text. Partially streamed tool blocks are forwarded for preview as they
// grow; nothing is committed until the full turn is parsed.
func (t *Task) streamTurn(ctx context.Context) (string, error) {
	req := provider.ChatRequest{
		System:   t.systemPrompt(),
		Messages: t.providerMessages(),
	}

	var buf strings.Builder
	err := t.client.Stream(ctx, req, func(ch provider.Chunk) error {
		if ch.Text == "" {
			return nil
		}
		buf.WriteString(ch.Text)

		blocks := assistant.Parse(buf.String(), t.registry.Names())
		if n := len(blocks); n > 0 {
			if last := blocks[n-1]; last.Type == assistant.BlockToolUse && last.Partial {
				t.registry.Dispatch(ctx, t, last.Tool)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// providerMessages maps the conversation history to chat messages. Tool
// results travel as user turns so backends without a native tool role
// still see them.
func (t *Task) providerMessages() []provider.Message {
	history := t.History()
	out := make([]provider.Message, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case roleAssistant:
			out = append(out, provider.Message{Role: provider.RoleAssistant, Content: turn.Content})
		case roleTool:
			out = append(out, provider.Message{Role: provider.RoleUser, Content: "Tool result:\n" + turn.Content})
		default:
			out = append(out, provider.Message{Role: provider.RoleUser, Content: turn.Content})
		}
	}
	return out
}

// systemPrompt assembles the per-turn system instruction from the
// current mode, the registered tools, and the active diff strategy.
func (t *Task) systemPrompt() string {
	m := t.CurrentMode()
	snap := t.Experiments()
	strategy := t.DiffStrategy()

	var b strings.Builder
	fmt.Fprintf(&b, "You are a coding agent operating in %s mode: %s\n\n", m.Name, m.Description)
	b.WriteString("Invoke tools with XML-style tags, one tool per message:\n")
	b.WriteString("<tool_name>\n<param>value</param>\n</tool_name>\n\n")

	b.WriteString("Available tools:\n")
	for _, name := range t.registry.Names() {
		tool, _ := t.registry.Get(name)
		fmt.Fprintf(&b, "- %s: %s\n", name, tool.Description())
	}

	if strategy != nil {
		b.WriteString("\n")
		b.WriteString(strategy.ToolDescription())
		b.WriteString("\n")
	}

	if snap.Enabled(experiments.PowerSteering) {
		fmt.Fprintf(&b, "\nStay strictly within the responsibilities of %s mode. Re-read the mode description before every response and do not drift into work that belongs to another mode.\n", m.Name)
	}

	return strings.TrimRight(b.String(), "\n")
}
