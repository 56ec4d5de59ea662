// Package workspace watches files a task has read or mutated and flags
// ones that changed externally in the meantime, so diff application can
// warn about drift before matching against stale content.
package workspace

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"mend/internal/logging"
)

// Tracker watches tracked files for external modification.
type Tracker struct {
	mu      sync.Mutex
	watcher *fsnotify.Watcher
	tracked map[string]bool // path -> being watched
	dirty   map[string]bool // path -> changed since last Track
	// expect holds paths the engine itself is about to write, so our own
	// mutations are not reported as external drift.
	expect map[string]int

	done chan struct{}
}

// NewTracker starts a tracker. The caller must Close it.
func NewTracker() (*Tracker, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	t := &Tracker{
		watcher: w,
		tracked: make(map[string]bool),
		dirty:   make(map[string]bool),
		expect:  make(map[string]int),
		done:    make(chan struct{}),
	}
	go t.run()
	return t, nil
}

func (t *Tracker) run() {
	for {
		select {
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			t.mu.Lock()
			path := filepath.Clean(event.Name)
			if t.tracked[path] {
				if t.expect[path] > 0 {
					t.expect[path]--
				} else {
					t.dirty[path] = true
				}
			}
			t.mu.Unlock()
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("workspace watcher error", "error", err)
		case <-t.done:
			return
		}
	}
}

// Track marks path as freshly read: it is watched from now and its dirty
// flag is cleared.
func (t *Tracker) Track(path string) {
	path = filepath.Clean(path)

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.tracked[path] {
		// Watch the directory; editors commonly replace files by rename.
		if err := t.watcher.Add(filepath.Dir(path)); err != nil {
			logging.Debug("workspace watch failed", "path", path, "error", err)
			return
		}
		t.tracked[path] = true
	}
	delete(t.dirty, path)
}

// ExpectWrite tells the tracker the next change to path is our own.
func (t *Tracker) ExpectWrite(path string) {
	path = filepath.Clean(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.tracked[path] {
		t.expect[path]++
	}
}

// Changed reports whether path was modified externally since last Track.
func (t *Tracker) Changed(path string) bool {
	path = filepath.Clean(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dirty[path]
}

// Close stops the tracker.
func (t *Tracker) Close() error {
	close(t.done)
	return t.watcher.Close()
}
