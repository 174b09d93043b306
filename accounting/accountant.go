package accounting

import (
	"sync"

	"github.com/gryfn-io/rjrssync/common"
)

// Accountant owns the three registers spec §4.5 names — total, sent,
// completed — and the invariant completed ≤ sent ≤ total
// (componentwise) that the boss driver and the marker echo loop both
// rely on. It is safe for concurrent use: the source and dest scans
// increment total from two goroutines running in parallel; the
// dispatch phase, which increments sent, starts after both finish.
type Accountant struct {
	mu             sync.Mutex
	total          Values
	sent           Values
	completed      Values
	lastMarkerWork uint64
}

// NewAccountant returns a zeroed Accountant.
func NewAccountant() *Accountant {
	return &Accountant{}
}

// IncTotalForCopy records that an entry found during scanning is
// (pessimistically) assumed to need copying.
func (a *Accountant) IncTotalForCopy(kind common.EntityKind, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = a.total.Add(ForCopy(kind, size))
}

// IncTotalForDelete records that a dest-only entry is (pessimistically)
// assumed to need deleting.
func (a *Accountant) IncTotalForDelete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = a.total.Add(ForDelete())
}

// DecTotalForCopy removes a previously pessimistic copy estimate once
// reconciliation decides the entry doesn't actually need copying
// (e.g. mtimes already match).
func (a *Accountant) DecTotalForCopy(kind common.EntityKind, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = a.total.Sub(ForCopy(kind, size))
}

// DecTotalForDelete removes a previously pessimistic delete estimate
// once reconciliation decides the entry shouldn't be deleted after all.
func (a *Accountant) DecTotalForDelete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total = a.total.Sub(ForDelete())
}

// CopySent records a whole-entry copy command as dispatched.
func (a *Accountant) CopySent(kind common.EntityKind, size uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = a.sent.Add(ForCopy(kind, size))
}

// CopySentPartial records one dispatched chunk of a file copy.
func (a *Accountant) CopySentPartial(chunkStart, chunkSize, fileSize uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = a.sent.Add(ForCopyPartial(chunkStart, chunkSize, fileSize))
}

// DeleteSent records a delete command as dispatched.
func (a *Accountant) DeleteSent() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = a.sent.Add(ForDelete())
}

// Completed records a ProgressMarker echo: everything sent before it
// has now durably happened (spec §4.4's linearization-point guarantee).
// The marker itself carries the sent snapshot at the time it was
// issued, so the caller passes that snapshot back in here.
func (a *Accountant) Completed(snapshot Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.completed = snapshot
}

// Snapshot returns a consistent (total, sent, completed) triple.
func (a *Accountant) Snapshot() (total, sent, completed Values) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.total, a.sent, a.completed
}

// MarkerPhaseKind decides whether a just-dispatched marker should
// report Deleting or Copying, based on whether all pessimistic delete
// work has been sent yet. Done is reported by the caller separately,
// once the whole sync has finished dispatching (see spec §4.5: "we
// don't return Done here otherwise we might end up with two Done
// markers").
func (a *Accountant) MarkerPhaseKind() common.ProgressPhaseKind {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sent.Delete < a.total.Delete {
		return common.EProgressPhaseKind.Deleting()
	}
	return common.EProgressPhaseKind.Copying()
}

// ShouldEmitMarker reports whether enough work has been dispatched
// since the last marker to justify sending another one (spec §4.5's
// MARKER_THRESHOLD policy), and if so records the new watermark.
func (a *Accountant) ShouldEmitMarker() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sent.Work-a.lastMarkerWork < markerThreshold {
		return false
	}
	a.lastMarkerWork = a.sent.Work
	return true
}

// SentSnapshot returns the current sent register, for embedding in a
// just-emitted ProgressMarker.
func (a *Accountant) SentSnapshot() Values {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sent
}
