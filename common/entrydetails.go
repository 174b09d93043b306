package common

import "time"

// EntryDetails is the tagged variant from spec §3: exactly one of the
// type-specific fields is meaningful, selected by Kind. It is the
// shared representation used both by the in-memory entry lists the
// boss accumulates during scanning and by the wire protocol, so a
// scanned entry and its decoded wire message are the same Go type.
type EntryDetails struct {
	Kind     EntityKind  `json:"kind"`
	Modified time.Time   `json:"modified,omitempty"` // File only
	Size     uint64      `json:"size,omitempty"`      // File only
	Target   string      `json:"target,omitempty"`    // Symlink only
	LinkKind SymlinkKind `json:"link_kind,omitempty"`  // Symlink only
}

// SameMetadata reports whether two File entries have equal size and
// modified time. The reconciler's both-sides decision table does not
// call it: it picks a FileUpdateBehaviour by comparing modified times
// only.
func (d EntryDetails) SameMetadata(other EntryDetails) bool {
	return d.Size == other.Size && d.Modified.Equal(other.Modified)
}
