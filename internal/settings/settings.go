// Package settings exposes the host-persisted state the engine reads but
// never owns: experiment flags, the active mode, and custom modes.
package settings

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"mend/internal/experiments"
	"mend/internal/logging"
	"mend/internal/mode"
)

// State is a snapshot of the host settings. Absent keys default to
// false / the base mode.
type State struct {
	Experiments experiments.Snapshot `yaml:"experiments,omitempty"`
	Mode        string               `yaml:"mode,omitempty"`
	CustomModes []mode.Mode          `yaml:"custom_modes,omitempty"`
}

// EffectiveMode returns the configured mode slug or the default.
func (s State) EffectiveMode() string {
	if s.Mode == "" {
		return mode.DefaultSlug
	}
	return s.Mode
}

// Provider yields the current settings snapshot. Implementations must be
// safe for concurrent use; the engine treats the snapshot as read-only.
type Provider interface {
	GetState() State
}

// Static is a fixed-state provider, used in tests and for flag overrides.
type Static struct {
	mu    sync.RWMutex
	state State
}

// NewStatic creates a provider that always returns state.
func NewStatic(state State) *Static {
	return &Static{state: state}
}

// GetState returns the held snapshot.
func (s *Static) GetState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Set replaces the held snapshot.
func (s *Static) Set(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// SetExperiment flips one experiment flag in place.
func (s *Static) SetExperiment(id experiments.ID, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Experiments == nil {
		s.state.Experiments = make(experiments.Snapshot)
	}
	s.state.Experiments[id] = on
}

// File is a yaml-file-backed provider. The file is re-read when its
// mtime changes; read failures keep the last good snapshot.
type File struct {
	path string

	mu      sync.Mutex
	state   State
	modTime time.Time
	loaded  bool
}

// NewFile creates a provider reading from path. A missing file yields the
// zero state.
func NewFile(path string) *File {
	return &File{path: path}
}

// GetState returns the current snapshot, refreshing from disk if stale.
func (f *File) GetState() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	info, err := os.Stat(f.path)
	if err != nil {
		if f.loaded {
			return f.state
		}
		return State{}
	}

	if f.loaded && info.ModTime().Equal(f.modTime) {
		return f.state
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		logging.Warn("settings read failed", "path", f.path, "error", err)
		return f.state
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		logging.Warn("settings parse failed", "path", f.path, "error", err)
		return f.state
	}

	f.state = state
	f.modTime = info.ModTime()
	f.loaded = true
	return f.state
}
