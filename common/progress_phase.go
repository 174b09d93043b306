package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// ProgressPhaseKind is the tag of a ProgressMarker's phase payload
// (spec §4.5): Deleting{count, current_entry_id}, Copying{count, bytes,
// current_entry_id}, or Done.
var EProgressPhaseKind = ProgressPhaseKind(0)

type ProgressPhaseKind uint8

func (ProgressPhaseKind) Deleting() ProgressPhaseKind { return ProgressPhaseKind(0) }
func (ProgressPhaseKind) Copying() ProgressPhaseKind  { return ProgressPhaseKind(1) }
func (ProgressPhaseKind) Done() ProgressPhaseKind     { return ProgressPhaseKind(2) }

func (k ProgressPhaseKind) String() string {
	return enum.StringInt(k, reflect.TypeOf(k))
}

// ProgressPhase is the decoded phase carried by a ProgressMarker.
type ProgressPhase struct {
	Kind            ProgressPhaseKind
	Count           uint64
	Bytes           uint64
	CurrentEntryID  int64 // -1 when there is no current entry to report
}
