// Package common holds the ambient types shared across the sync engine:
// behavior enums, structured errors, the logger, the run ID, and the
// UI/prompt hook surface that callers plug into.
package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// DeployBehaviour governs deploying a peer binary to a remote target.
// The core engine never acts on this itself (deploy is an external
// collaborator, see spec §1) but it is part of the resolved config that
// flows from the CLI down to whatever deploy hook is wired in.
var EDeployBehaviour = DeployBehaviour(0)

type DeployBehaviour uint8

func (DeployBehaviour) Prompt() DeployBehaviour { return DeployBehaviour(0) }
func (DeployBehaviour) Error() DeployBehaviour  { return DeployBehaviour(1) }
func (DeployBehaviour) Ok() DeployBehaviour     { return DeployBehaviour(2) }
func (DeployBehaviour) Force() DeployBehaviour  { return DeployBehaviour(3) }

func (d *DeployBehaviour) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(d), s, true)
	if err == nil {
		*d = val.(DeployBehaviour)
	}
	return err
}

func (d DeployBehaviour) String() string {
	return enum.StringInt(d, reflect.TypeOf(d))
}

// FileUpdateBehaviour governs what happens when a file exists on both
// sides but needs reconciling (dest newer, dest older, or same mtime).
var EFileUpdateBehaviour = FileUpdateBehaviour(0)

type FileUpdateBehaviour uint8

func (FileUpdateBehaviour) Prompt() FileUpdateBehaviour    { return FileUpdateBehaviour(0) }
func (FileUpdateBehaviour) Error() FileUpdateBehaviour     { return FileUpdateBehaviour(1) }
func (FileUpdateBehaviour) Skip() FileUpdateBehaviour      { return FileUpdateBehaviour(2) }
func (FileUpdateBehaviour) Overwrite() FileUpdateBehaviour { return FileUpdateBehaviour(3) }

func (b *FileUpdateBehaviour) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(b), s, true)
	if err == nil {
		*b = val.(FileUpdateBehaviour)
	}
	return err
}

func (b FileUpdateBehaviour) String() string {
	return enum.StringInt(b, reflect.TypeOf(b))
}

// EntryDeletingBehaviour governs deleting an individual dest entry that
// has no counterpart on the source side.
var EEntryDeletingBehaviour = EntryDeletingBehaviour(0)

type EntryDeletingBehaviour uint8

func (EntryDeletingBehaviour) Prompt() EntryDeletingBehaviour { return EntryDeletingBehaviour(0) }
func (EntryDeletingBehaviour) Error() EntryDeletingBehaviour  { return EntryDeletingBehaviour(1) }
func (EntryDeletingBehaviour) Skip() EntryDeletingBehaviour   { return EntryDeletingBehaviour(2) }
func (EntryDeletingBehaviour) Delete() EntryDeletingBehaviour { return EntryDeletingBehaviour(3) }

func (b *EntryDeletingBehaviour) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(b), s, true)
	if err == nil {
		*b = val.(EntryDeletingBehaviour)
	}
	return err
}

func (b EntryDeletingBehaviour) String() string {
	return enum.StringInt(b, reflect.TypeOf(b))
}

// RootDeletingBehaviour governs wholesale replacement of the dest root.
var ERootDeletingBehaviour = RootDeletingBehaviour(0)

type RootDeletingBehaviour uint8

func (RootDeletingBehaviour) Prompt() RootDeletingBehaviour { return RootDeletingBehaviour(0) }
func (RootDeletingBehaviour) Error() RootDeletingBehaviour  { return RootDeletingBehaviour(1) }
func (RootDeletingBehaviour) Skip() RootDeletingBehaviour   { return RootDeletingBehaviour(2) }
func (RootDeletingBehaviour) Delete() RootDeletingBehaviour { return RootDeletingBehaviour(3) }

func (b *RootDeletingBehaviour) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(b), s, true)
	if err == nil {
		*b = val.(RootDeletingBehaviour)
	}
	return err
}

func (b RootDeletingBehaviour) String() string {
	return enum.StringInt(b, reflect.TypeOf(b))
}

// AllDestructiveBehaviour is the convenience override for every
// destructive behavior at once (--all-destructive-behaviour).
var EAllDestructiveBehaviour = AllDestructiveBehaviour(0)

type AllDestructiveBehaviour uint8

func (AllDestructiveBehaviour) Prompt() AllDestructiveBehaviour  { return AllDestructiveBehaviour(0) }
func (AllDestructiveBehaviour) Error() AllDestructiveBehaviour   { return AllDestructiveBehaviour(1) }
func (AllDestructiveBehaviour) Skip() AllDestructiveBehaviour    { return AllDestructiveBehaviour(2) }
func (AllDestructiveBehaviour) Proceed() AllDestructiveBehaviour { return AllDestructiveBehaviour(3) }

func (b *AllDestructiveBehaviour) Parse(s string) error {
	val, err := enum.Parse(reflect.TypeOf(b), s, true)
	if err == nil {
		*b = val.(AllDestructiveBehaviour)
	}
	return err
}

func (b AllDestructiveBehaviour) String() string {
	return enum.StringInt(b, reflect.TypeOf(b))
}

// AsFileUpdateBehaviour projects an AllDestructiveBehaviour value onto the
// FileUpdateBehaviour domain (Prompt/Error/Skip/Proceed -> .../Overwrite).
func (b AllDestructiveBehaviour) AsFileUpdateBehaviour() FileUpdateBehaviour {
	switch b {
	case EAllDestructiveBehaviour.Error():
		return EFileUpdateBehaviour.Error()
	case EAllDestructiveBehaviour.Skip():
		return EFileUpdateBehaviour.Skip()
	case EAllDestructiveBehaviour.Proceed():
		return EFileUpdateBehaviour.Overwrite()
	default:
		return EFileUpdateBehaviour.Prompt()
	}
}

// AsEntryDeletingBehaviour projects onto the EntryDeletingBehaviour domain.
func (b AllDestructiveBehaviour) AsEntryDeletingBehaviour() EntryDeletingBehaviour {
	switch b {
	case EAllDestructiveBehaviour.Error():
		return EEntryDeletingBehaviour.Error()
	case EAllDestructiveBehaviour.Skip():
		return EEntryDeletingBehaviour.Skip()
	case EAllDestructiveBehaviour.Proceed():
		return EEntryDeletingBehaviour.Delete()
	default:
		return EEntryDeletingBehaviour.Prompt()
	}
}

// AsRootDeletingBehaviour projects onto the RootDeletingBehaviour domain.
func (b AllDestructiveBehaviour) AsRootDeletingBehaviour() RootDeletingBehaviour {
	switch b {
	case EAllDestructiveBehaviour.Error():
		return ERootDeletingBehaviour.Error()
	case EAllDestructiveBehaviour.Skip():
		return ERootDeletingBehaviour.Skip()
	case EAllDestructiveBehaviour.Proceed():
		return ERootDeletingBehaviour.Delete()
	default:
		return ERootDeletingBehaviour.Prompt()
	}
}
