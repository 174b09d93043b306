//go:build !windows

package doer

import (
	"os"
	"path/filepath"

	"github.com/gryfn-io/rjrssync/common"
)

// readSymlink resolves a symlink's target. POSIX filesystems don't
// themselves distinguish file- and dir-symlinks the way Windows does,
// but we still classify the target (by following it) so that a sync
// to a Windows dest has enough information to create the right kind
// (spec §9 open question) - an unresolvable (broken/relative-outside)
// target defaults to File.
func readSymlink(absPath string) (target string, kind common.SymlinkKind, err error) {
	target, err = os.Readlink(absPath)
	if err != nil {
		return "", common.ESymlinkKind.File(), err
	}

	resolved := target
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(absPath), target)
	}
	if info, statErr := os.Stat(resolved); statErr == nil && info.IsDir() {
		return target, common.ESymlinkKind.Dir(), nil
	}
	return target, common.ESymlinkKind.File(), nil
}

// createSymlink creates a symlink at absPath pointing at target. kind
// is accepted for interface symmetry with the Windows implementation
// but ignored here.
func createSymlink(absPath, target string, kind common.SymlinkKind) error {
	return os.Symlink(target, absPath)
}
