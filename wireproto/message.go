package wireproto

import (
	"time"

	"github.com/gryfn-io/rjrssync/common"
)

// ProtocolVersion is bumped whenever the JSON metadata shapes below
// change incompatibly. A Handshake mismatch is fatal (spec §4.1 step 1).
const ProtocolVersion = 1

// EntryDetails is an alias for the shared domain type: the wire
// encoding of an entry is exactly its in-memory representation, JSON-
// marshaled, so there is nothing protocol-specific left to add here.
type EntryDetails = common.EntryDetails

// Message is the decoded form of one frame: a Kind plus its JSON
// metadata, with Raw populated only for kinds where
// Kind.CarriesRawPayload() is true.
type Message struct {
	Kind Kind
	Meta interface{}
	Raw  []byte
}

// HandshakeMeta is the Handshake command/response payload.
type HandshakeMeta struct {
	Version int    `json:"version"`
	Side    string `json:"side"` // "source" or "dest", for log correlation
}

// SetRootMeta tells a doer which local filesystem root to operate on
// and which filter rules apply to its walk (spec §4.2/§4.3 SetRoot).
// Filters are the raw "+REGEX"/"-REGEX" strings, re-parsed doer-side so
// the wire carries plain strings rather than a compiled regexp.
type SetRootMeta struct {
	Root    string   `json:"root"`
	Filters []string `json:"filters,omitempty"`
}

// GetEntriesMeta requests a depth-first, canonically sorted entry walk.
type GetEntriesMeta struct{}

// EntryMsgMeta is one entry in a GetEntries response stream.
type EntryMsgMeta struct {
	Path    string       `json:"path"`
	Details EntryDetails `json:"details"`
}

// EndOfEntriesMeta terminates a GetEntries response stream.
type EndOfEntriesMeta struct {
	Count int `json:"count"`
}

// GetFileContentChunkMeta requests one chunk of a source file's bytes.
type GetFileContentChunkMeta struct {
	Path   string `json:"path"`
	Offset uint64 `json:"offset"`
	Length uint32 `json:"length"`
}

// FileChunkMeta precedes the raw chunk bytes returned by the source
// doer in answer to GetFileContentChunk.
type FileChunkMeta struct {
	Path      string `json:"path"`
	Offset    uint64 `json:"offset"`
	Final     bool   `json:"final"`
	RawLength uint32 `json:"raw_length"`
}

// EndOfFileMeta signals the source side has no more chunks for Path
// (used when GetFileContentChunk is answered by streaming rather than
// single-shot; kept distinct from FileChunk.Final for protocol clarity).
type EndOfFileMeta struct {
	Path string `json:"path"`
}

// CreateFolderMeta asks the dest doer to create (idempotently) a folder.
type CreateFolderMeta struct {
	Path string `json:"path"`
}

// CreateSymlinkMeta asks the dest doer to create a symlink.
type CreateSymlinkMeta struct {
	Path     string             `json:"path"`
	Target   string             `json:"target"`
	LinkKind common.SymlinkKind `json:"link_kind"`
}

// WriteFileStartMeta opens a new chunked write on the dest doer.
type WriteFileStartMeta struct {
	Path     string    `json:"path"`
	Size     uint64    `json:"size"`
	Modified time.Time `json:"modified"`
}

// WriteFileChunkMeta precedes the raw bytes to append to an open write.
type WriteFileChunkMeta struct {
	Path      string `json:"path"`
	Offset    uint64 `json:"offset"`
	RawLength uint32 `json:"raw_length"`
}

// WriteFileEndMeta closes and durably renames an open write (spec §4.3.1:
// temp-file-then-rename so a crash never leaves a partial file at Path).
type WriteFileEndMeta struct {
	Path string `json:"path"`
}

// DeleteEntryMeta asks the dest doer to remove an entry with no source
// counterpart (spec §4.3, EntryDeletingBehaviour/RootDeletingBehaviour
// have already been resolved by the boss before this is sent).
// Recursive is set only for the dest_root_needs_deleting wholesale
// root-replace case (spec §4.1 step 2): every other DeleteEntry relies
// on the boss's children-before-parents ordering guaranteeing the
// folder is already empty, and the dest doer enforces that.
type DeleteEntryMeta struct {
	Path      string            `json:"path"`
	Kind      common.EntityKind `json:"kind"`
	Recursive bool              `json:"recursive,omitempty"`
}

// ProgressMarkerMeta is both a control command (boss→doer) and, when
// echoed back verbatim (doer→boss), the linearization point described
// in spec §4.5 and §9.
type ProgressMarkerMeta struct {
	SentWork       uint64                   `json:"sent_work"`
	Phase          common.ProgressPhaseKind `json:"phase"`
	Count          uint64                   `json:"count"`
	Bytes          uint64                   `json:"bytes"`
	CurrentEntryID int64                    `json:"current_entry_id"`
}

// ShutdownMeta requests a clean doer exit.
type ShutdownMeta struct {
	Reason string `json:"reason,omitempty"`
}

// RootInfoMeta answers SetRoot with whether the root already exists and,
// if so, its kind - the boss uses this (spec §4.1 step 2) to decide
// whether dest_root_needs_deleting applies and whether the two roots'
// kinds even match.
type RootInfoMeta struct {
	Exists bool              `json:"exists"`
	Kind   common.EntityKind `json:"kind,omitempty"`
}

// AckMeta is a generic acknowledgement for commands that don't need a
// richer response (CreateFolder, CreateSymlink, DeleteEntry, WriteFileEnd).
type AckMeta struct {
	Path string `json:"path,omitempty"`
}

// ErrorMsgMeta reports a structured failure for the command it follows.
type ErrorMsgMeta struct {
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
	Entity string `json:"entity,omitempty"`
	Detail string `json:"detail"`
}
