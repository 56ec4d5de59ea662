package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mend/internal/approval"
	"mend/internal/assistant"
)

func TestDefaultRegistryNames(t *testing.T) {
	r := Default()
	assert.Equal(t, []string{
		"apply_diff",
		"codebase_search",
		"execute_command",
		"insert_code_block",
		"read_file",
		"switch_mode",
	}, r.Names())
}

func TestDispatchUnknownTool(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	Default().Dispatch(context.Background(), env, block("frobnicate", nil))

	assert.Equal(t, 1, env.mistakes)
	assert.Contains(t, env.lastResult(), `Unknown tool "frobnicate"`)
}

func TestDispatchMissingRequiredParam(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	Default().Dispatch(context.Background(), env, block("read_file", nil))

	assert.Equal(t, 1, env.mistakes)
	assert.Equal(t, 0, env.resets)
	assert.Contains(t, env.lastResult(), `Missing required parameter "path"`)
	assert.Contains(t, env.lastResult(), `"read_file"`)
}

func TestDispatchEmptyParamCountsAsMissing(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	Default().Dispatch(context.Background(), env, block("read_file", map[string]string{"path": "   "}))

	assert.Equal(t, 1, env.mistakes)
	assert.Contains(t, env.lastResult(), "Missing required parameter")
}

func TestDispatchValidCallResetsMistakes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "f.txt", "content\n")

	env := newFakeEnv(dir)
	env.mistakes = 2

	Default().Dispatch(context.Background(), env, block("read_file", map[string]string{"path": "f.txt"}))

	assert.Equal(t, 0, env.mistakes)
	assert.Equal(t, 1, env.resets)
}

type previewRecorder struct {
	previews []string
}

func (p *previewRecorder) Respond(ctx context.Context, req *approval.Request) (approval.Decision, error) {
	return approval.DecisionApprove, nil
}

func (p *previewRecorder) Preview(req *approval.Request) {
	p.previews = append(p.previews, req.Tool)
}

func TestDispatchPartialOnlyPreviews(t *testing.T) {
	env := newFakeEnv(t.TempDir())
	rec := &previewRecorder{}
	env.gate = approval.NewGate(nil, rec, true)

	b := &assistant.ToolUse{
		Name:    "execute_command",
		Params:  map[string]string{"command": "rm -rf"},
		Partial: true,
	}
	Default().Dispatch(context.Background(), env, b)

	assert.Equal(t, []string{"execute_command"}, rec.previews)
	assert.Empty(t, env.results)
	assert.Equal(t, 0, env.mistakes)
}

type explodingTool struct{ ApplyDiff }

func (explodingTool) Name() string      { return "explode" }
func (explodingTool) Required() []string { return nil }

func (explodingTool) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	panic("kaboom")
}

func TestDispatchRecoversHandlerPanic(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	r := NewRegistry()
	r.Register(&explodingTool{})

	require.NotPanics(t, func() {
		r.Dispatch(context.Background(), env, block("explode", nil))
	})
	require.Len(t, env.faults, 1)
	assert.Contains(t, env.faults[0], "kaboom")
}

type failingTool struct{ ReadFile }

func (failingTool) Name() string       { return "failing" }
func (failingTool) Required() []string { return nil }

func (failingTool) Handle(ctx context.Context, env Env, block *assistant.ToolUse) error {
	return errors.New("backend unavailable")
}

func TestDispatchRoutesHandlerErrors(t *testing.T) {
	env := newFakeEnv(t.TempDir())

	r := NewRegistry()
	r.Register(&failingTool{})
	r.Dispatch(context.Background(), env, block("failing", nil))

	require.Len(t, env.faults, 1)
	assert.Contains(t, env.faults[0], "executing failing")
	assert.Contains(t, env.faults[0], "backend unavailable")
}
