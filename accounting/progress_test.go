package accounting

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gryfn-io/rjrssync/common"
)

func TestForCopySmallFileUsesMinimumWork(t *testing.T) {
	v := ForCopy(common.EEntityKind.File(), 10)
	assert.Equal(t, minFileSize, v.Work)
	assert.Equal(t, uint64(10), v.CopyBytes)
	assert.Equal(t, uint32(1), v.Copy)
}

func TestForCopyLargeFileUsesActualSize(t *testing.T) {
	v := ForCopy(common.EEntityKind.File(), 10*minFileSize)
	assert.Equal(t, 10*minFileSize, v.Work)
}

func TestForCopyFolderAndSymlinkCostMinimum(t *testing.T) {
	folder := ForCopy(common.EEntityKind.Folder(), 0)
	assert.Equal(t, minFileSize, folder.Work)
	assert.Equal(t, uint64(0), folder.CopyBytes)

	link := ForCopy(common.EEntityKind.Symlink(), 0)
	assert.Equal(t, minFileSize, link.Work)
}

func TestForDeleteIsFixedCost(t *testing.T) {
	v := ForDelete()
	assert.Equal(t, deleteWork, v.Work)
	assert.Equal(t, uint32(1), v.Delete)
}

// Chunk-sum law: summing ForCopyPartial over every chunk of a file
// must equal ForCopy for the whole file (spec §8's testable property).
func TestChunkSumLawSmallFile(t *testing.T) {
	const fileSize = uint64(100)
	const chunkSize = uint64(40)

	var sum Values
	for offset := uint64(0); offset < fileSize; offset += chunkSize {
		size := chunkSize
		if offset+size > fileSize {
			size = fileSize - offset
		}
		sum = sum.Add(ForCopyPartial(offset, size, fileSize))
	}

	whole := ForCopy(common.EEntityKind.File(), fileSize)
	assert.Equal(t, whole.Copy, sum.Copy)
	assert.Equal(t, whole.CopyBytes, sum.CopyBytes)
	assert.Equal(t, whole.Work, sum.Work)
}

func TestChunkSumLawLargeFile(t *testing.T) {
	const fileSize = 5 * minFileSize
	const chunkSize = uint64(1 << 20)

	var sum Values
	for offset := uint64(0); offset < fileSize; offset += chunkSize {
		size := chunkSize
		if offset+size > fileSize {
			size = fileSize - offset
		}
		sum = sum.Add(ForCopyPartial(offset, size, fileSize))
	}

	whole := ForCopy(common.EEntityKind.File(), fileSize)
	assert.Equal(t, whole.Copy, sum.Copy)
	assert.Equal(t, whole.CopyBytes, sum.CopyBytes)
	assert.Equal(t, whole.Work, sum.Work)
}

func TestAccountantRegisterInvariant(t *testing.T) {
	a := NewAccountant()
	a.IncTotalForCopy(common.EEntityKind.File(), 10*minFileSize)
	a.IncTotalForDelete()

	a.DeleteSent()
	a.CopySentPartial(0, minFileSize, 10*minFileSize)

	total, sent, completed := a.Snapshot()
	assert.LessOrEqual(t, completed.Work, sent.Work)
	assert.LessOrEqual(t, sent.Work, total.Work)
	assert.LessOrEqual(t, sent.Delete, total.Delete)
	assert.LessOrEqual(t, sent.Copy, total.Copy)
}

func TestShouldEmitMarkerRespectsThreshold(t *testing.T) {
	a := NewAccountant()
	a.IncTotalForCopy(common.EEntityKind.File(), 10*minFileSize)

	a.CopySentPartial(0, minFileSize/2, 10*minFileSize)
	assert.False(t, a.ShouldEmitMarker(), "half the threshold shouldn't trigger a marker yet")

	a.CopySentPartial(minFileSize/2, minFileSize, 10*minFileSize)
	assert.True(t, a.ShouldEmitMarker())
	assert.False(t, a.ShouldEmitMarker(), "watermark should have advanced")
}

func TestMarkerPhaseKindSwitchesFromDeletingToCopying(t *testing.T) {
	a := NewAccountant()
	a.IncTotalForDelete()
	assert.Equal(t, common.EProgressPhaseKind.Deleting(), a.MarkerPhaseKind())

	a.DeleteSent()
	assert.Equal(t, common.EProgressPhaseKind.Copying(), a.MarkerPhaseKind())
}
