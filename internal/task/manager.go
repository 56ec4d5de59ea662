package task

import (
	"fmt"
	"sync"

	"mend/internal/approval"
	"mend/internal/config"
	"mend/internal/logging"
	"mend/internal/mode"
	"mend/internal/provider"
	"mend/internal/settings"
	"mend/internal/tools"
	"mend/internal/workspace"
)

// Manager owns the tasks of one session and the session-level mode that
// new tasks inherit. It implements Session for its tasks.
type Manager struct {
	cfg       *config.Config
	settings  settings.Provider
	client    provider.Client
	responder approval.Responder
	registry  *tools.Registry
	tracker   *workspace.Tracker
	workDir   string

	mu    sync.RWMutex
	tasks map[string]*Task
	mode  string
}

// NewManager creates a manager with no tasks.
func NewManager(cfg *config.Config, sp settings.Provider, client provider.Client, responder approval.Responder, workDir string) *Manager {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	slug := mode.DefaultSlug
	if sp != nil {
		slug = sp.GetState().EffectiveMode()
	}
	return &Manager{
		cfg:       cfg,
		settings:  sp,
		client:    client,
		responder: responder,
		registry:  tools.Default(),
		workDir:   workDir,
		tasks:     make(map[string]*Task),
		mode:      slug,
	}
}

// SetTracker attaches a shared workspace tracker for drift detection.
func (m *Manager) SetTracker(t *workspace.Tracker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tracker = t
}

// Create builds a new idle task bound to this session.
func (m *Manager) Create() (*Task, error) {
	m.mu.RLock()
	tracker := m.tracker
	m.mu.RUnlock()

	t, err := New(Options{
		Config:    m.cfg,
		Settings:  m.settings,
		Client:    m.client,
		Responder: m.responder,
		Registry:  m.registry,
		Session:   m,
		WorkDir:   m.workDir,
		Tracker:   tracker,
	})
	if err != nil {
		return nil, err
	}

	// The session mode wins over whatever the settings file seeded.
	if slug := m.CurrentMode(); slug != t.CurrentMode().Slug {
		if sm, ok := t.modes.Find(slug); ok {
			t.mu.Lock()
			t.mode = sm
			t.mu.Unlock()
		}
	}

	m.mu.Lock()
	m.tasks[t.ID()] = t
	m.mu.Unlock()
	return t, nil
}

// Get looks up a task by ID.
func (m *Manager) Get(id string) (*Task, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	return t, ok
}

// List returns all tasks in no particular order.
func (m *Manager) List() []*Task {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out
}

// Abort cancels one task.
func (m *Manager) Abort(id string) error {
	t, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("no task %s", id)
	}
	t.Abort()
	return nil
}

// AbortAll cancels every non-terminal task.
func (m *Manager) AbortAll() {
	for _, t := range m.List() {
		if !t.State().Terminal() {
			t.Abort()
		}
	}
}

// CurrentMode returns the session-level mode slug.
func (m *Manager) CurrentMode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// SwitchMode records the new session mode. Tasks switch themselves; the
// session value seeds tasks created afterwards.
func (m *Manager) SwitchMode(slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	logging.Info("session mode switched", "from", m.mode, "to", slug)
	m.mode = slug
	return nil
}
