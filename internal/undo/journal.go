// Package undo records committed file mutations so a task's changes can
// be inspected and rolled back one at a time.
package undo

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
	"sync"
	"time"

	"mend/internal/fileutil"
)

// FileChange represents a single committed file mutation.
type FileChange struct {
	ID         string    `json:"id"`
	FilePath   string    `json:"file_path"`
	Tool       string    `json:"tool"`
	Timestamp  time.Time `json:"timestamp"`
	OldContent []byte    `json:"old_content"` // nil for new files
	NewContent []byte    `json:"new_content"`
	WasNew     bool      `json:"was_new"`
}

// NewFileChange creates a FileChange with a generated ID.
func NewFileChange(filePath, tool string, oldContent, newContent []byte, wasNew bool) *FileChange {
	return &FileChange{
		ID:         generateID(),
		FilePath:   filePath,
		Tool:       tool,
		Timestamp:  time.Now(),
		OldContent: oldContent,
		NewContent: newContent,
		WasNew:     wasNew,
	}
}

func generateID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Summary returns a human-readable summary of the change.
func (c *FileChange) Summary() string {
	if c.WasNew {
		return "created " + c.FilePath
	}
	return "modified " + c.FilePath
}

// ErrNothingToUndo is returned when the journal is empty.
var ErrNothingToUndo = errors.New("nothing to undo")

// Journal keeps the ordered change history for one task.
type Journal struct {
	mu      sync.Mutex
	changes []FileChange
	limit   int
}

// NewJournal creates a journal keeping at most limit changes (0 = 100).
func NewJournal(limit int) *Journal {
	if limit <= 0 {
		limit = 100
	}
	return &Journal{limit: limit}
}

// Record appends a change, evicting the oldest past the limit.
func (j *Journal) Record(change FileChange) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.changes = append(j.changes, change)
	if len(j.changes) > j.limit {
		j.changes = j.changes[len(j.changes)-j.limit:]
	}
}

// Undo reverts the most recent change on disk and pops it.
func (j *Journal) Undo() (*FileChange, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.changes) == 0 {
		return nil, ErrNothingToUndo
	}

	change := j.changes[len(j.changes)-1]
	if change.WasNew {
		if err := os.Remove(change.FilePath); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		if err := fileutil.AtomicWrite(change.FilePath, change.OldContent, 0644); err != nil {
			return nil, err
		}
	}

	j.changes = j.changes[:len(j.changes)-1]
	return &change, nil
}

// RevertAll undoes every recorded change, newest first, and returns
// the ones reverted. Stops on the first failure, leaving untouched
// entries in the journal.
func (j *Journal) RevertAll() ([]FileChange, error) {
	var reverted []FileChange
	for {
		change, err := j.Undo()
		if errors.Is(err, ErrNothingToUndo) {
			return reverted, nil
		}
		if err != nil {
			return reverted, err
		}
		reverted = append(reverted, *change)
	}
}

// List returns a copy of the change history, oldest first.
func (j *Journal) List() []FileChange {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]FileChange(nil), j.changes...)
}

// Len returns the number of recorded changes.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.changes)
}
