// Package accounting implements the progress accountant described in
// spec §4.5: a pessimistic work estimate that only shrinks, three
// registers (total/sent/completed) and the marker-injection policy
// that turns dispatched-and-echoed work into a smoothly moving bar.
package accounting

import (
	"github.com/gryfn-io/rjrssync/common"
)

// Constants confirmed against the original engine's progress model:
// files below minFileSize are assumed to cost a constant amount of
// work (overhead dominates transfer time for small files), and we
// don't inject a ProgressMarker more often than once per MiB of
// dispatched work, to keep marker traffic from drowning out real
// commands on a fast, mostly-unchanged sync.
const (
	minFileSize     uint64 = 1024 * 1024
	markerThreshold uint64 = 1024 * 1024
	deleteWork      uint64 = 1024 * 1024
)

// Values is the set of counters tracked per register (spec §4.5):
// Work is an arbitrary time-cost unit, Delete/Copy are entry counts,
// CopyBytes is actual file bytes copied.
type Values struct {
	Work      uint64
	Delete    uint32
	Copy      uint32
	CopyBytes uint64
}

// Add returns the componentwise sum of v and other.
func (v Values) Add(other Values) Values {
	return Values{
		Work:      v.Work + other.Work,
		Delete:    v.Delete + other.Delete,
		Copy:      v.Copy + other.Copy,
		CopyBytes: v.CopyBytes + other.CopyBytes,
	}
}

// Sub returns the componentwise difference of v and other.
func (v Values) Sub(other Values) Values {
	return Values{
		Work:      v.Work - other.Work,
		Delete:    v.Delete - other.Delete,
		Copy:      v.Copy - other.Copy,
		CopyBytes: v.CopyBytes - other.CopyBytes,
	}
}

// ForCopy is the Values contributed by copying one whole entry.
func ForCopy(kind common.EntityKind, size uint64) Values {
	if kind == common.EEntityKind.File() {
		work := size
		if work < minFileSize {
			work = minFileSize
		}
		return Values{Work: work, Copy: 1, CopyBytes: size}
	}
	// Folders and symlinks are treated as costing the same as a small file.
	return Values{Work: minFileSize, Copy: 1}
}

// ForCopyPartial is the Values contributed by one chunk of a file copy.
// All of a small file's constant overhead is attributed to its final
// chunk, since the final chunk is assumed to be at least as large as
// the threshold anyway.
func ForCopyPartial(chunkStart, chunkSize, fileSize uint64) Values {
	isFinal := chunkStart+chunkSize >= fileSize
	if !isFinal {
		work := uint64(0)
		if fileSize > minFileSize {
			work = chunkSize
		}
		return Values{Work: work, CopyBytes: chunkSize}
	}
	work := minFileSize
	if fileSize > minFileSize {
		work = chunkSize
	}
	return Values{Work: work, Copy: 1, CopyBytes: chunkSize}
}

// ForDelete is the Values contributed by deleting one entry.
func ForDelete() Values {
	return Values{Work: deleteWork, Delete: 1}
}
