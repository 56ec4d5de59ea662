package diff

import (
	"fmt"
	"strings"

	"mend/internal/experiments"
)

// Strategy turns a patch description into new file content. Strategies
// are stateless; a task swaps its active strategy when experiment flags
// change, and handlers capture the reference at dispatch time.
type Strategy interface {
	// Name identifies the strategy variant.
	Name() string

	// ToolDescription is the prompt text describing the diff format to
	// the model. Pass-through, not functionally critical.
	ToolDescription() string

	// ApplyDiff applies the request's payload and reports a per-file
	// outcome list. The error return is reserved for payload-level
	// failures; per-file match failures land in FileResult.Err.
	ApplyDiff(req Request) (*Result, error)
}

// ReadFunc loads the current content of a workspace path.
type ReadFunc func(path string) (string, error)

// Request carries one diff application.
type Request struct {
	// Path is the file the tool call addressed.
	Path string
	// Original is the current content of Path.
	Original string
	// Payload is the textual diff.
	Payload string
	// StartLine is an optional 1-based hint applied to single-hunk
	// payloads that carry no inline hint.
	StartLine int
	// Read loads other files for the multi-file variant. May be nil for
	// the single-file variant.
	Read ReadFunc
}

// FileResult is the outcome for one file in a diff application.
type FileResult struct {
	Path    string
	Content string // new content, valid when Err is nil
	Applied int    // hunks applied
	Err     error  // NoMatchError or read failure; nil on success
}

// Changed reports whether the file content should be written back.
func (fr FileResult) Changed() bool {
	return fr.Err == nil && fr.Applied > 0
}

// Result is the per-file outcome list of one diff application.
// Partial success is representable: some files may succeed while others
// carry errors.
type Result struct {
	Files []FileResult
}

// AllFailed reports whether no file succeeded.
func (r *Result) AllFailed() bool {
	for _, f := range r.Files {
		if f.Err == nil {
			return false
		}
	}
	return len(r.Files) > 0
}

// Summary renders the per-file outcomes for the conversation.
func (r *Result) Summary() string {
	var b strings.Builder
	for _, f := range r.Files {
		if f.Err != nil {
			fmt.Fprintf(&b, "%s: FAILED\n%s\n", f.Path, f.Err.Error())
			continue
		}
		fmt.Fprintf(&b, "%s: applied %d hunk(s)\n", f.Path, f.Applied)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Select picks the active strategy for a task from its experiment
// snapshot. Returns nil when diff editing is disabled.
func Select(enabled bool, snap experiments.Snapshot, engine *Engine) Strategy {
	if !enabled {
		return nil
	}
	if engine == nil {
		engine = NewEngine(0)
	}
	if snap.Enabled(experiments.MultiFileApplyDiff) {
		return NewMultiFileSearchReplace(engine)
	}
	return NewMultiSearchReplace(engine)
}
