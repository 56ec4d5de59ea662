package tools

import (
	"os"
	"path/filepath"
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

// fakeEnv is a scripted Env for handler tests.
type fakeEnv struct {
	workDir     string
	diffEnabled bool
	strategy    diff.Strategy
	snap        experiments.Snapshot
	gate        *approval.Gate
	runner      *shell.Runner
	searcher    *search.Searcher
	journal     *undo.Journal
	tracker     *workspace.Tracker
	modes       *mode.Registry
	mode        mode.Mode

	results  []string
	mistakes int
	resets   int
	faults   []string
	switched []string
	emitted  []string
}

func newFakeEnv(workDir string) *fakeEnv {
	modes := mode.NewRegistry()
	m, _ := modes.Find(mode.DefaultSlug)
	engine := diff.NewEngine(0)
	return &fakeEnv{
		workDir:     workDir,
		diffEnabled: true,
		strategy:    diff.NewMultiSearchReplace(engine),
		snap:        experiments.Snapshot{},
		gate:        approval.NewGate(nil, nil, false), // auto-approve
		runner:      shell.NewRunner(workDir, 30*time.Second, 64*1024),
		searcher:    search.NewSearcher(workDir, 0, 0),
		journal:     undo.NewJournal(0),
		modes:       modes,
		mode:        m,
	}
}

func (e *fakeEnv) WorkDir() string                    { return e.workDir }
func (e *fakeEnv) DiffEnabled() bool                  { return e.diffEnabled }
func (e *fakeEnv) DiffStrategy() diff.Strategy        { return e.strategy }
func (e *fakeEnv) Experiments() experiments.Snapshot  { return e.snap }
func (e *fakeEnv) Gate() *approval.Gate               { return e.gate }
func (e *fakeEnv) PushToolResult(text string)         { e.results = append(e.results, text) }
func (e *fakeEnv) RecordMistake()                     { e.mistakes++ }
func (e *fakeEnv) ResetMistakes()                     { e.resets++; e.mistakes = 0 }
func (e *fakeEnv) CurrentMode() mode.Mode             { return e.mode }
func (e *fakeEnv) Modes() *mode.Registry              { return e.modes }
func (e *fakeEnv) SettleDelay() time.Duration         { return 0 }
func (e *fakeEnv) Shell() *shell.Runner               { return e.runner }
func (e *fakeEnv) Searcher() *search.Searcher         { return e.searcher }
func (e *fakeEnv) Journal() *undo.Journal             { return e.journal }
func (e *fakeEnv) Tracker() *workspace.Tracker        { return e.tracker }

func (e *fakeEnv) HandleError(action string, err error) {
	e.faults = append(e.faults, action+": "+err.Error())
}

func (e *fakeEnv) PerformModeSwitch(slug string) error {
	m, err := e.modes.Resolve(slug)
	if err != nil {
		return err
	}
	e.mode = m
	e.switched = append(e.switched, slug)
	return nil
}

func (e *fakeEnv) EmitModeSwitched(from, to mode.Mode, reason string) {
	e.emitted = append(e.emitted, from.Slug+"->"+to.Slug)
}

func (e *fakeEnv) lastResult() string {
	if len(e.results) == 0 {
		return ""
	}
	return e.results[len(e.results)-1]
}

func writeFile(t testingT, dir, rel, content string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// testingT is the slice of *testing.T the helpers need.
type testingT interface {
	Helper()
	Fatalf(format string, args ...any)
}

// block builds a complete ToolUse for dispatch tests.
func block(name string, params map[string]string) *assistant.ToolUse {
	return &assistant.ToolUse{Name: name, Params: params}
}
