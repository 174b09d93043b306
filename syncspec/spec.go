package syncspec

import (
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/filter"
)

// Behaviors bundles the five destructive-action policy knobs spec §4.1
// names, defaulted per original_source/boss_frontend.rs's
// SyncSpec::default(): dest_file_newer=Prompt, dest_file_older=Overwrite,
// files_same_time=Skip, dest_entry_needs_deleting=Delete,
// dest_root_needs_deleting=Prompt.
type Behaviors struct {
	DestFileNewer          common.FileUpdateBehaviour
	DestFileOlder          common.FileUpdateBehaviour
	FilesSameTime          common.FileUpdateBehaviour
	DestEntryNeedsDeleting common.EntryDeletingBehaviour
	DestRootNeedsDeleting  common.RootDeletingBehaviour
}

// DefaultBehaviors returns the built-in defaults, the bottom layer of
// the precedence chain described in SPEC_FULL §3.1.
func DefaultBehaviors() Behaviors {
	return Behaviors{
		DestFileNewer:          common.EFileUpdateBehaviour.Prompt(),
		DestFileOlder:          common.EFileUpdateBehaviour.Overwrite(),
		FilesSameTime:          common.EFileUpdateBehaviour.Skip(),
		DestEntryNeedsDeleting: common.EEntryDeletingBehaviour.Delete(),
		DestRootNeedsDeleting:  common.ERootDeletingBehaviour.Prompt(),
	}
}

// SyncSpec is one resolved sync to run: a source and dest Location, the
// filter list to apply to both sides, and the destructive-action
// behaviors in effect (spec §3 "SyncSpec (per-sync)"). This is what
// flows into the boss driver - cmd/ is responsible for producing it
// from flags/spec-file/config-file, and boss/ never looks behind it.
type SyncSpec struct {
	Source    Location
	Dest      Location
	Filters   filter.List
	Behaviors Behaviors
	DryRun    bool
}
