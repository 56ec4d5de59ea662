// Package task runs one agent conversation as a state machine: it streams
// assistant turns from the model backend, dispatches parsed tool uses,
// and tracks approval suspension, mistakes, and terminal outcomes.
package task

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mend/internal/approval"
	"mend/internal/config"
	"mend/internal/diff"
	"mend/internal/experiments"
	"mend/internal/logging"
	"mend/internal/mode"
	"mend/internal/provider"
	"mend/internal/search"
	"mend/internal/settings"
	"mend/internal/shell"
	"mend/internal/tools"
	"mend/internal/undo"
	"mend/internal/workspace"
)

// State is the task lifecycle phase.
type State string

const (
	StateIdle            State = "idle"
	StateRunning         State = "running"
	StateWaitingApproval State = "waiting_approval"
	StateCompleted       State = "completed"
	StateAborted         State = "aborted"
	StateFailed          State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateAborted || s == StateFailed
}

// Session is the owning surface a task reports mode switches to. A task
// may run without one.
type Session interface {
	SwitchMode(slug string) error
}

// Turn is one entry of the conversation history.
type Turn struct {
	Role    string    `json:"role"` // "user", "assistant", "tool"
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// Conversation roles.
const (
	roleUser      = "user"
	roleAssistant = "assistant"
	roleTool      = "tool"
)

// Options configures a new task.
type Options struct {
	Config    *config.Config
	Settings  settings.Provider  // may be nil
	Client    provider.Client    // required to Run
	Responder approval.Responder // may be nil, gate then fails closed
	Registry  *tools.Registry    // nil uses the default tool set
	Session   Session            // may be nil
	WorkDir   string
	Tracker   *workspace.Tracker // optional, shared across tasks
}

// Task is one agent conversation.
type Task struct {
	id       string
	cfg      *config.Config
	settings settings.Provider
	session  Session
	client   provider.Client
	registry *tools.Registry
	gate     *approval.Gate
	engine   *diff.Engine
	shell    *shell.Runner
	searcher *search.Searcher
	journal  *undo.Journal
	tracker  *workspace.Tracker
	modes    *mode.Registry
	workDir  string
	events   chan Event

	mu       sync.RWMutex
	state    State
	history  []Turn
	mistakes int
	mode     mode.Mode
	snap     experiments.Snapshot
	strategy diff.Strategy
	failure  error
	cancel   context.CancelFunc
}

// New creates an idle task.
func New(opts Options) (*Task, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	registry := opts.Registry
	if registry == nil {
		registry = tools.Default()
	}

	t := &Task{
		id:       uuid.NewString(),
		cfg:      cfg,
		settings: opts.Settings,
		session:  opts.Session,
		client:   opts.Client,
		registry: registry,
		engine:   diff.NewEngine(cfg.Diff.SimilarityThreshold),
		shell:    shell.NewRunner(opts.WorkDir, cfg.Shell.Timeout, cfg.Shell.MaxOutput),
		searcher: search.NewSearcher(opts.WorkDir, cfg.Search.MaxFileSize, cfg.Search.MaxResults),
		journal:  undo.NewJournal(0),
		tracker:  opts.Tracker,
		modes:    mode.NewRegistry(),
		workDir:  opts.WorkDir,
		events:   make(chan Event, 16),
		state:    StateIdle,
	}

	var responder approval.Responder
	if opts.Responder != nil {
		responder = &suspendResponder{t: t, inner: opts.Responder}
	}
	t.gate = approval.NewGate(approval.RulesFromConfig(cfg.Approval.Rules), responder, cfg.Approval.Enabled)

	slug := mode.DefaultSlug
	if opts.Settings != nil {
		st := opts.Settings.GetState()
		t.modes.SetCustomModes(st.CustomModes)
		slug = st.EffectiveMode()
	}
	m, ok := t.modes.Find(slug)
	if !ok {
		return nil, &mode.NotFoundError{Slug: slug, Available: t.modes.Slugs()}
	}
	t.mode = m

	t.RefreshSettings()
	return t, nil
}

// suspendResponder marks the task as waiting while the user decides.
type suspendResponder struct {
	t     *Task
	inner approval.Responder
}

func (r *suspendResponder) Respond(ctx context.Context, req *approval.Request) (approval.Decision, error) {
	r.t.setState(StateWaitingApproval)
	defer r.t.setState(StateRunning)
	return r.inner.Respond(ctx, req)
}

func (r *suspendResponder) Preview(req *approval.Request) {
	if p, ok := r.inner.(approval.Previewer); ok {
		p.Preview(req)
	}
}

// RefreshSettings re-reads the settings provider and re-derives
// everything experiment flags govern, including the active diff
// strategy. Handlers that already captured the previous strategy keep
// running against it.
func (t *Task) RefreshSettings() {
	var st settings.State
	if t.settings != nil {
		st = t.settings.GetState()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap = st.Experiments.Clone()
	t.modes.SetCustomModes(st.CustomModes)
	t.strategy = diff.Select(t.cfg.Diff.Enabled, t.snap, t.engine)
	t.searcher.Concurrent = t.snap.Enabled(experiments.ConcurrentFileReads)
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// State returns the current lifecycle phase.
func (t *Task) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Failure returns the terminal error for failed or aborted tasks.
func (t *Task) Failure() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.failure
}

// History returns a copy of the conversation so far.
func (t *Task) History() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Turn, len(t.history))
	copy(out, t.history)
	return out
}

// TranscriptJSON exports the conversation with task metadata.
func (t *Task) TranscriptJSON() ([]byte, error) {
	t.mu.RLock()
	export := struct {
		ID    string `json:"id"`
		State State  `json:"state"`
		Mode  string `json:"mode"`
		Turns []Turn `json:"turns"`
	}{
		ID:    t.id,
		State: t.state,
		Mode:  t.mode.Slug,
		Turns: t.history,
	}
	t.mu.RUnlock()
	return json.MarshalIndent(export, "", "  ")
}

// MistakeCount returns the consecutive-mistake counter.
func (t *Task) MistakeCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mistakes
}

// Events delivers lifecycle notifications. The channel is buffered;
// events overflow silently rather than block the task.
func (t *Task) Events() <-chan Event {
	return t.events
}

func (t *Task) setState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Terminal() {
		return
	}
	t.state = s
}

// transition moves from exactly `from` to `to`, reporting success.
func (t *Task) transition(from, to State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != from {
		return false
	}
	t.state = to
	return true
}

func (t *Task) finish(s State, err error) {
	t.mu.Lock()
	if !t.state.Terminal() {
		t.state = s
		t.failure = err
	}
	t.mu.Unlock()
	logging.Info("task finished", "task", t.id, "state", string(s), "err", err)
}

func (t *Task) appendTurn(role, content string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = append(t.history, Turn{Role: role, Content: content, Time: time.Now()})
}

func (t *Task) emit(name string, data map[string]string) {
	select {
	case t.events <- Event{Name: name, TaskID: t.id, Data: data}:
	default:
		logging.Warn("event dropped", "task", t.id, "event", name)
	}
}

// --- tools.Env ---

func (t *Task) WorkDir() string { return t.workDir }

func (t *Task) DiffEnabled() bool { return t.cfg.Diff.Enabled }

func (t *Task) DiffStrategy() diff.Strategy {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.strategy
}

func (t *Task) Experiments() experiments.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap.Clone()
}

func (t *Task) Gate() *approval.Gate { return t.gate }

func (t *Task) PushToolResult(text string) {
	t.appendTurn(roleTool, text)
}

func (t *Task) RecordMistake() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistakes++
}

func (t *Task) ResetMistakes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mistakes = 0
}

func (t *Task) HandleError(action string, err error) {
	logging.Error("tool fault", "task", t.id, "action", action, "err", err)
	t.appendTurn(roleTool, fmt.Sprintf("Error %s: %v", action, err))
}

func (t *Task) CurrentMode() mode.Mode {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

func (t *Task) Modes() *mode.Registry { return t.modes }

// PerformModeSwitch applies an already-approved mode change to the
// owning session and to this task.
func (t *Task) PerformModeSwitch(slug string) error {
	m, err := t.modes.Resolve(slug)
	if err != nil {
		return err
	}
	if t.session != nil {
		if err := t.session.SwitchMode(slug); err != nil {
			return err
		}
	}
	t.mu.Lock()
	t.mode = m
	t.mu.Unlock()
	return nil
}

func (t *Task) EmitModeSwitched(from, to mode.Mode, reason string) {
	t.emit(EventModeSwitched, map[string]string{
		"from":   from.Slug,
		"to":     to.Slug,
		"reason": reason,
	})
}

func (t *Task) SettleDelay() time.Duration { return t.cfg.Task.ModeSettleDelay }

func (t *Task) Shell() *shell.Runner { return t.shell }

func (t *Task) Searcher() *search.Searcher { return t.searcher }

func (t *Task) Journal() *undo.Journal { return t.journal }

func (t *Task) Tracker() *workspace.Tracker { return t.tracker }
