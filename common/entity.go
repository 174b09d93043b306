package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// EntityKind discriminates the three EntryDetails variants (spec §3).
var EEntityKind = EntityKind(0)

type EntityKind uint8

func (EntityKind) File() EntityKind    { return EntityKind(0) }
func (EntityKind) Folder() EntityKind  { return EntityKind(1) }
func (EntityKind) Symlink() EntityKind { return EntityKind(2) }

func (k EntityKind) String() string {
	return enum.StringInt(k, reflect.TypeOf(k))
}

// SymlinkKind distinguishes a file-link from a dir-link, meaningful only
// on platforms (Windows) that require picking one at creation time.
var ESymlinkKind = SymlinkKind(0)

type SymlinkKind uint8

func (SymlinkKind) File() SymlinkKind { return SymlinkKind(0) }
func (SymlinkKind) Dir() SymlinkKind  { return SymlinkKind(1) }

func (k SymlinkKind) String() string {
	return enum.StringInt(k, reflect.TypeOf(k))
}
