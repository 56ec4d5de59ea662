package tools

import (
	"context"
	"fmt"
	"sort"

	"mend/internal/approval"
	"mend/internal/assistant"
	"mend/internal/logging"
)

// Registry is the dispatch table mapping wire tags to tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Default returns a registry with the built-in tool set.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&ApplyDiff{})
	r.Register(&ExecuteCommand{})
	r.Register(&SwitchMode{})
	r.Register(&CodebaseSearch{})
	r.Register(&InsertCodeBlock{})
	r.Register(&ReadFile{})
	return r
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

// Get looks up a tool by wire tag.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered wire tags, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes one parsed tool-use block through the shared handler
// contract: partial blocks only update the approval preview, missing
// required parameters produce the standard result without side effects,
// and handler panics are contained and reported as faults.
func (r *Registry) Dispatch(ctx context.Context, env Env, block *assistant.ToolUse) {
	tool, ok := r.Get(block.Name)
	if !ok {
		env.RecordMistake()
		env.PushToolResult(fmt.Sprintf("Unknown tool %q. Available tools: %v.", block.Name, r.Names()))
		return
	}

	if block.Partial {
		env.Gate().Preview(&approval.Request{
			Kind:    tool.Kind(),
			Tool:    tool.Name(),
			Payload: tool.Summary(block),
			Partial: true,
		})
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error("tool handler panic", "tool", tool.Name(), "panic", rec)
			env.HandleError("executing "+tool.Name(), fmt.Errorf("handler panic: %v", rec))
		}
	}()

	for _, param := range tool.Required() {
		if v, ok := block.Param(param); !ok || v == "" {
			env.RecordMistake()
			env.PushToolResult(MissingParamMessage(tool.Name(), param))
			return
		}
	}
	env.ResetMistakes()

	if err := tool.Handle(ctx, env, block); err != nil {
		env.HandleError("executing "+tool.Name(), err)
	}
}
