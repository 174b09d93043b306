// Package boss implements the coordinating side of a sync (spec §4.1):
// handshake, root setup, the concurrent two-sided scan, the
// reconciliation merge cursor and its both-sides decision table, the
// chunked dispatch of create/delete/write commands to the dest doer,
// and the final drain. It talks to each doer purely through a
// transport.Conn - it has no idea whether that doer is a goroutine in
// this same process or a subprocess reached over a shell pipe.
package boss

import (
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/rootpath"
)

// Entry is one item from a doer's scanned entry list, given a dense
// EntryID (spec §3) equal to its index in the list.
type Entry struct {
	ID      int
	Path    rootpath.RootRelativePath
	Details common.EntryDetails
}

// EntryList is one side's (source or dest) accumulated, strictly
// sorted scan result (spec §9's "accumulated" resolution of the
// streamed-vs-accumulated open question: both lists are fully
// materialized before the merge cursor runs).
type EntryList struct {
	Entries []Entry
}

// Append adds the next scanned entry, assigning it the next EntryID
// and enforcing the sort-order invariant spec §3 requires of a
// conformant doer: an out-of-order entry is a fatal protocol error
// rather than something the reconciler tries to recover from.
func (l *EntryList) Append(path rootpath.RootRelativePath, details common.EntryDetails) error {
	id := len(l.Entries)
	if id > 0 && !l.Entries[id-1].Path.Less(path) {
		return common.NewSyncError(common.ProtocolError, errOutOfOrder(l.Entries[id-1].Path, path))
	}
	l.Entries = append(l.Entries, Entry{ID: id, Path: path, Details: details})
	return nil
}

func errOutOfOrder(prev, next rootpath.RootRelativePath) error {
	return &outOfOrderError{prev: prev.String(), next: next.String()}
}

type outOfOrderError struct {
	prev, next string
}

func (e *outOfOrderError) Error() string {
	return "entries received out of canonical sort order: " + e.prev + " >= " + e.next
}
