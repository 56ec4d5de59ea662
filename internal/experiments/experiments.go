// Package experiments defines the closed set of feature experiment flags.
// Flags are sourced from persisted settings external to the engine; the
// engine only ever reads a snapshot.
package experiments

// ID identifies one experiment flag.
type ID string

const (
	// PowerSteering tightens the per-turn system prompt reminders.
	PowerSteering ID = "powerSteering"

	// ConcurrentFileReads lets the search tool batch file reads in parallel.
	ConcurrentFileReads ID = "concurrentFileReads"

	// MultiFileApplyDiff selects the multi-file diff strategy for the task.
	MultiFileApplyDiff ID = "multiFileApplyDiff"
)

// Known lists every experiment the engine understands.
func Known() []ID {
	return []ID{PowerSteering, ConcurrentFileReads, MultiFileApplyDiff}
}

// IsKnown reports whether id is a recognized experiment.
func IsKnown(id ID) bool {
	switch id {
	case PowerSteering, ConcurrentFileReads, MultiFileApplyDiff:
		return true
	}
	return false
}

// Snapshot is a point-in-time view of the experiment flags.
// Absent keys default to false.
type Snapshot map[ID]bool

// Enabled reports whether the experiment is on in this snapshot.
func (s Snapshot) Enabled(id ID) bool {
	if s == nil {
		return false
	}
	return s[id]
}

// Clone returns a copy so callers can hold the snapshot without aliasing.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
