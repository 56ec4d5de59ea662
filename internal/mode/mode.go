// Package mode defines the operating modes a task can run in and the
// registry used to validate mode switches.
package mode

import (
	"fmt"
	"strings"
	"sync"
)

// Mode describes one operating mode.
type Mode struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// DefaultSlug is the mode a task starts in when settings carry none.
const DefaultSlug = "code"

// Builtin returns the built-in mode set.
func Builtin() []Mode {
	return []Mode{
		{Slug: "code", Name: "Code", Description: "Write and modify code"},
		{Slug: "architect", Name: "Architect", Description: "Plan and design before implementation"},
		{Slug: "ask", Name: "Ask", Description: "Answer questions without changing the workspace"},
		{Slug: "debug", Name: "Debug", Description: "Diagnose and fix problems"},
	}
}

// Registry holds the built-in modes plus any custom modes from settings.
type Registry struct {
	mu     sync.RWMutex
	modes  []Mode
	custom []Mode
}

// NewRegistry creates a registry seeded with the built-in modes.
func NewRegistry() *Registry {
	return &Registry{modes: Builtin()}
}

// SetCustomModes replaces the custom mode set. Custom modes with a slug
// matching a built-in mode override it.
func (r *Registry) SetCustomModes(modes []Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom = append([]Mode(nil), modes...)
}

// Find returns the mode for slug, checking custom modes first.
func (r *Registry) Find(slug string) (Mode, bool) {
	slug = strings.TrimSpace(slug)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, m := range r.custom {
		if m.Slug == slug {
			return m, true
		}
	}
	for _, m := range r.modes {
		if m.Slug == slug {
			return m, true
		}
	}
	return Mode{}, false
}

// Slugs returns every registered slug, custom modes first.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var slugs []string
	for _, m := range r.custom {
		if !seen[m.Slug] {
			seen[m.Slug] = true
			slugs = append(slugs, m.Slug)
		}
	}
	for _, m := range r.modes {
		if !seen[m.Slug] {
			seen[m.Slug] = true
			slugs = append(slugs, m.Slug)
		}
	}
	return slugs
}

// NotFoundError is returned when a mode slug is not registered.
type NotFoundError struct {
	Slug      string
	Available []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("mode not found: %s (available: %s)", e.Slug, strings.Join(e.Available, ", "))
}

// Resolve returns the mode for slug or a NotFoundError listing valid slugs.
func (r *Registry) Resolve(slug string) (Mode, error) {
	m, ok := r.Find(slug)
	if !ok {
		return Mode{}, &NotFoundError{Slug: slug, Available: r.Slugs()}
	}
	return m, nil
}
