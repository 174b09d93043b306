// Package wireproto is the length-framed message protocol boss and
// doer exchange over a Transport (spec §4.4): a 4-byte little-endian
// length prefix, a 1-byte command kind, a JSON metadata payload and,
// for the two chunk-carrying kinds, raw trailing bytes.
package wireproto

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// Kind tags every message on the wire. The teacher's own intra-process
// IPC (jobsAdmin/ste) is JSON over a framed channel; we keep that
// choice here rather than reaching for an un-grounded encoding like
// protobuf, and avoid base64-inflating bulk file bytes by appending
// them raw after the JSON envelope instead of embedding them in it.
var EKind = Kind(0)

type Kind uint8

func (Kind) Handshake() Kind           { return Kind(0) }
func (Kind) SetRoot() Kind             { return Kind(1) }
func (Kind) GetEntries() Kind          { return Kind(2) }
func (Kind) EntryMsg() Kind            { return Kind(3) }
func (Kind) EndOfEntries() Kind        { return Kind(4) }
func (Kind) GetFileContentChunk() Kind { return Kind(5) }
func (Kind) FileChunk() Kind           { return Kind(6) } // carries raw trailing bytes
func (Kind) EndOfFile() Kind           { return Kind(7) }
func (Kind) CreateFolder() Kind        { return Kind(8) }
func (Kind) CreateSymlink() Kind       { return Kind(9) }
func (Kind) WriteFileStart() Kind      { return Kind(10) }
func (Kind) WriteFileChunk() Kind      { return Kind(11) } // carries raw trailing bytes
func (Kind) WriteFileEnd() Kind        { return Kind(12) }
func (Kind) DeleteEntry() Kind         { return Kind(13) }
func (Kind) ProgressMarker() Kind      { return Kind(14) }
func (Kind) Shutdown() Kind            { return Kind(15) }
func (Kind) Ack() Kind                 { return Kind(16) }
func (Kind) ErrorMsg() Kind            { return Kind(17) }
func (Kind) RootInfo() Kind            { return Kind(18) } // SetRoot response (source and dest)

func (k Kind) String() string {
	return enum.StringInt(k, reflect.TypeOf(k))
}

// CarriesRawPayload reports whether this kind has raw bytes trailing
// its JSON metadata on the wire.
func (k Kind) CarriesRawPayload() bool {
	return k == EKind.FileChunk() || k == EKind.WriteFileChunk()
}
