package boss

import (
	"github.com/gryfn-io/rjrssync/accounting"
	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/rootpath"
	"github.com/gryfn-io/rjrssync/syncspec"
)

// deletePlan is one dest entry that must be removed, decided during
// the merge cursor but not executed until the delete phase (see Plan
// doc comment below).
type deletePlan struct {
	Path rootpath.RootRelativePath
	Kind common.EntityKind
}

// createPlan is one entry to bring into existence on dest, fresh from
// the source side's details - this covers a brand new folder/file/
// symlink AND a file overwrite (WriteFileStart doesn't care whether a
// file previously existed at that path).
type createPlan struct {
	Path    rootpath.RootRelativePath
	Details common.EntryDetails
}

// Plan is the complete, already-decided output of the reconciliation
// merge cursor (spec §4.1 phase 4): every prompt has already been
// resolved, every total-estimate decrement already applied. Dispatch
// executes Deletes (in reverse path order, so a folder's children are
// always removed before the folder itself - spec §4.3's "the boss
// guarantees that its contents are deleted first") and then Creates
// (in forward path order, so a folder exists before anything is
// written inside it).
type Plan struct {
	Deletes []deletePlan
	Creates []createPlan
	Summary ActionsSummary
}

// reconcile walks the two sorted entry lists with a merge cursor
// (spec §4.1 phase 4, the both-sides decision table) and returns the
// resulting Plan. acct's total register is decremented for every
// pessimistic estimate that turns out unnecessary (an unchanged file,
// a skipped delete, matching symlinks).
func reconcile(source, dest *EntryList, behaviors *syncspec.Behaviors, hooks *common.UIHooks, acct *accounting.Accountant) (Plan, error) {
	r := newResolver(hooks)
	var plan Plan

	i, j := 0, 0
	for i < len(source.Entries) || j < len(dest.Entries) {
		switch {
		case j >= len(dest.Entries) || (i < len(source.Entries) && source.Entries[i].Path.Less(dest.Entries[j].Path)):
			// Source only: create.
			se := source.Entries[i]
			if err := planCreate(&plan, se, acct); err != nil {
				return Plan{}, err
			}
			i++

		case i >= len(source.Entries) || dest.Entries[j].Path.Less(source.Entries[i].Path):
			// Dest only: delete, subject to dest_entry_needs_deleting.
			de := dest.Entries[j]
			proceed, err := r.entryDeleting(&behaviors.DestEntryNeedsDeleting, de.Path.String())
			if err != nil {
				return Plan{}, err
			}
			if proceed {
				plan.Deletes = append(plan.Deletes, deletePlan{Path: de.Path, Kind: de.Details.Kind})
				recordDelete(&plan.Summary, de.Details.Kind)
			} else {
				acct.DecTotalForDelete()
			}
			j++

		default:
			// Present on both sides: resolve per the both-sides table.
			se, de := source.Entries[i], dest.Entries[j]
			if err := planBoth(&plan, se, de, behaviors, r, acct); err != nil {
				return Plan{}, err
			}
			i++
			j++
		}
	}
	return plan, nil
}

func planCreate(plan *Plan, se Entry, acct *accounting.Accountant) error {
	plan.Creates = append(plan.Creates, createPlan{Path: se.Path, Details: se.Details})
	switch se.Details.Kind {
	case common.EEntityKind.Folder():
		plan.Summary.FoldersCreated++
	case common.EEntityKind.Symlink():
		plan.Summary.SymlinksCreated++
	default:
		plan.Summary.FilesCopied++
		plan.Summary.BytesCopied += se.Details.Size
	}
	return nil
}

func recordDelete(s *ActionsSummary, kind common.EntityKind) {
	switch kind {
	case common.EEntityKind.Folder():
		s.FoldersDeleted++
	case common.EEntityKind.Symlink():
		s.SymlinksDeleted++
	default:
		s.FilesDeleted++
	}
}

// planBoth implements the both-sides decision table from spec §4.1.
func planBoth(plan *Plan, se, de Entry, behaviors *syncspec.Behaviors, r *resolver, acct *accounting.Accountant) error {
	path := se.Path

	if se.Details.Kind != de.Details.Kind {
		// Type mismatch: delete dest (gated), then create from source.
		// Declining the delete means declining the whole swap - there is
		// no safe way to create the source's entry without first clearing
		// whatever different-kind thing already occupies path.
		proceed, err := r.entryDeleting(&behaviors.DestEntryNeedsDeleting, path.String())
		if err != nil {
			return err
		}
		if !proceed {
			acct.DecTotalForDelete()
			acct.DecTotalForCopy(se.Details.Kind, se.Details.Size)
			plan.Summary.FilesSkipped++
			return nil
		}
		plan.Deletes = append(plan.Deletes, deletePlan{Path: path, Kind: de.Details.Kind})
		recordDelete(&plan.Summary, de.Details.Kind)
		return planCreate(plan, se, acct)
	}

	// Same kind on both sides: no DeleteEntry command is ever issued for
	// this dest entry on any of the branches below (a changed symlink is
	// overwritten in place by CreateSymlink, a changed file by
	// WriteFileStart/End), so its pessimistic delete estimate never
	// materializes.
	acct.DecTotalForDelete()

	switch se.Details.Kind {
	case common.EEntityKind.Folder():
		// Both folders: nothing to do here: children are reconciled by
		// their own merge-cursor steps.
		acct.DecTotalForCopy(se.Details.Kind, se.Details.Size)
		return nil

	case common.EEntityKind.Symlink():
		if se.Details.Target == de.Details.Target {
			acct.DecTotalForCopy(se.Details.Kind, se.Details.Size)
			plan.Summary.FilesSkipped++
			return nil
		}
		// CreateSymlink overwrites whatever link is already there.
		return planCreate(plan, se, acct)

	default: // File
		var b *common.FileUpdateBehaviour
		var promptType common.PromptType
		var verb string
		switch {
		case se.Details.Modified.After(de.Details.Modified):
			// src newer than dest: the dest copy is the older one, so
			// dest_file_older governs (default Overwrite - the common
			// forward-update case shouldn't need a prompt).
			b, promptType, verb = &behaviors.DestFileOlder, common.EPromptType.Overwrite(), "source is newer than dest"
		case se.Details.Modified.Before(de.Details.Modified):
			// src older than dest: the dest copy is the newer one, so
			// dest_file_newer governs (default Prompt - overwriting
			// something newer than the source is unusual enough to ask).
			b, promptType, verb = &behaviors.DestFileNewer, common.EPromptType.Overwrite(), "dest is newer than source"
		default:
			b, promptType, verb = &behaviors.FilesSameTime, common.EPromptType.Overwrite(), "source and dest have the same modified time"
		}

		proceed, err := r.fileUpdate(b, promptType, path.String(), "overwrite "+path.String()+" ("+verb+")")
		if err != nil {
			return err
		}
		if !proceed {
			acct.DecTotalForCopy(se.Details.Kind, se.Details.Size)
			plan.Summary.FilesSkipped++
			return nil
		}
		return planCreate(plan, se, acct)
	}
}
