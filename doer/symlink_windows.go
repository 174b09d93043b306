//go:build windows

package doer

import (
	"os"

	"golang.org/x/sys/windows"

	"github.com/gryfn-io/rjrssync/common"
)

// symbolicLinkFlagDirectory mirrors SYMBOLIC_LINK_FLAG_DIRECTORY from
// winbase.h; windows.SYMBOLIC_LINK_FLAG_ALLOW_UNPRIVILEGED_CREATE
// (below) lets Developer-Mode Windows 10+ create symlinks without
// elevation, falling back transparently to an elevation error on
// older systems.
const symbolicLinkFlagDirectory = 0x1

func readSymlink(absPath string) (target string, kind common.SymlinkKind, err error) {
	target, err = os.Readlink(absPath)
	if err != nil {
		return "", common.ESymlinkKind.File(), err
	}
	// Readlink succeeded, so absPath is definitely a reparse point; ask
	// the OS whether it resolves to a directory to recover the kind it
	// was created with.
	if resolved, statErr := os.Stat(absPath); statErr == nil && resolved.IsDir() {
		return target, common.ESymlinkKind.Dir(), nil
	}
	return target, common.ESymlinkKind.File(), nil
}

// createSymlink creates a symlink honoring the caller-specified kind,
// since a Windows symlink must declare file-vs-directory at creation
// time (spec §9 open question): a kind mismatch here is reported by
// the caller as a PolicyError rather than silently reinterpreted.
func createSymlink(absPath, target string, kind common.SymlinkKind) error {
	flags := windows.SYMBOLIC_LINK_FLAG_ALLOW_UNPRIVILEGED_CREATE
	if kind == common.ESymlinkKind.Dir() {
		flags |= symbolicLinkFlagDirectory
	}

	targetPtr, err := windows.UTF16PtrFromString(target)
	if err != nil {
		return err
	}
	linkPtr, err := windows.UTF16PtrFromString(absPath)
	if err != nil {
		return err
	}
	return windows.CreateSymbolicLink(linkPtr, targetPtr, uint32(flags))
}
