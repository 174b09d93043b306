package doer

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gryfn-io/rjrssync/common"
	"github.com/gryfn-io/rjrssync/filter"
	"github.com/gryfn-io/rjrssync/rootpath"
)

// Entry is one item discovered during a scan, paired with its canonical
// RootRelativePath.
type Entry struct {
	Path    rootpath.RootRelativePath
	Details common.EntryDetails
}

// EntryVisitor is called, in canonical sorted order, for every entry a
// Scan discovers (spec §4.2: "Walk order is depth-first with children
// emitted in canonical sorted order").
type EntryVisitor func(Entry) error

// Scan walks the local filesystem rooted at root. If root is itself a
// file or symlink (spec §3: "the root entry... is a folder or the root
// of a single-file sync"), it is emitted as the single root Entry and
// scanning stops there - there is nothing below a file to descend
// into. Otherwise the root folder itself is NOT emitted, only its
// contents, in depth-first, canonically sorted order; a folder
// excluded by f is not descended into, matching spec §4.2's
// filter-pruning rule.
func Scan(root string, f filter.List, visit EntryVisitor) error {
	info, err := os.Lstat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		details, err := detailsFor(root, info)
		if err != nil {
			return err
		}
		return visit(Entry{Path: rootpath.Root, Details: details})
	}
	return scanDir(root, rootpath.Root, f, visit)
}

func scanDir(absRoot string, rel rootpath.RootRelativePath, f filter.List, visit EntryVisitor) error {
	absDir := filepath.Join(absRoot, filepath.FromSlash(rel.String()))
	children, err := os.ReadDir(absDir)
	if err != nil {
		return err
	}

	names := make([]string, len(children))
	for i, c := range children {
		names[i] = c.Name()
	}
	sort.Strings(names)

	byName := make(map[string]os.DirEntry, len(children))
	for _, c := range children {
		byName[c.Name()] = c
	}

	for _, name := range names {
		child := byName[name]
		childRel := rel.Join(name)
		if !f.Includes(childRel) {
			continue
		}

		info, err := child.Info()
		if err != nil {
			return err
		}

		details, err := detailsFor(filepath.Join(absDir, name), info)
		if err != nil {
			return err
		}

		if err := visit(Entry{Path: childRel, Details: details}); err != nil {
			return err
		}

		if details.Kind == common.EEntityKind.Folder() {
			if err := scanDir(absRoot, childRel, f, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func detailsFor(absPath string, info os.FileInfo) (common.EntryDetails, error) {
	if info.Mode()&os.ModeSymlink != 0 {
		target, kind, err := readSymlink(absPath)
		if err != nil {
			return common.EntryDetails{}, err
		}
		return common.EntryDetails{Kind: common.EEntityKind.Symlink(), Target: target, LinkKind: kind}, nil
	}
	if info.IsDir() {
		return common.EntryDetails{Kind: common.EEntityKind.Folder()}, nil
	}
	return common.EntryDetails{Kind: common.EEntityKind.File(), Size: uint64(info.Size()), Modified: info.ModTime()}, nil
}
