package experiments

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnownIsClosedSet(t *testing.T) {
	assert.ElementsMatch(t, []ID{PowerSteering, ConcurrentFileReads, MultiFileApplyDiff}, Known())

	assert.True(t, IsKnown(PowerSteering))
	assert.True(t, IsKnown(MultiFileApplyDiff))
	assert.False(t, IsKnown(ID("madeUpFlag")))
}

func TestSnapshotEnabled(t *testing.T) {
	var nilSnap Snapshot
	assert.False(t, nilSnap.Enabled(PowerSteering))

	snap := Snapshot{PowerSteering: true, ConcurrentFileReads: false}
	assert.True(t, snap.Enabled(PowerSteering))
	assert.False(t, snap.Enabled(ConcurrentFileReads))
	assert.False(t, snap.Enabled(MultiFileApplyDiff))
}

func TestSnapshotCloneIsIndependent(t *testing.T) {
	snap := Snapshot{PowerSteering: true}
	clone := snap.Clone()

	clone[PowerSteering] = false
	assert.True(t, snap.Enabled(PowerSteering))

	var nilSnap Snapshot
	assert.NotNil(t, nilSnap.Clone())
}
