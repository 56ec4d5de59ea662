package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mend/internal/fileutil"
	"mend/internal/undo"
)

// resolvePath turns a tool-supplied path into an absolute path inside
// the workspace. Absolute paths are used as-is.
func resolvePath(env Env, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(env.WorkDir(), path)
}

// relPath renders abs relative to the workspace root for display.
func relPath(env Env, abs string) string {
	if rel, err := filepath.Rel(env.WorkDir(), abs); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return abs
}

// readWorkspaceFile loads and tracks a file the task is about to edit.
func readWorkspaceFile(env Env, abs string) (string, error) {
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", err
	}
	if tr := env.Tracker(); tr != nil {
		tr.Track(abs)
	}
	return string(data), nil
}

// commitWrite persists new content atomically, suppresses the resulting
// watcher event, and journals the change for undo.
func commitWrite(env Env, abs, tool, oldContent, newContent string, wasNew bool) error {
	if tr := env.Tracker(); tr != nil {
		tr.ExpectWrite(abs)
	}
	if err := fileutil.AtomicWriteString(abs, newContent, 0o644); err != nil {
		return err
	}
	if j := env.Journal(); j != nil {
		var old []byte
		if !wasNew {
			old = []byte(oldContent)
		}
		j.Record(*undo.NewFileChange(abs, tool, old, []byte(newContent), wasNew))
	}
	return nil
}

// staleWarning renders the drift notice for files changed outside the
// engine since they were last read.
func staleWarning(env Env, abs string) string {
	tr := env.Tracker()
	if tr == nil || !tr.Changed(abs) {
		return ""
	}
	return fmt.Sprintf("Note: %s was modified outside this session after it was last read. The edit was matched against the current on-disk content.\n", relPath(env, abs))
}
