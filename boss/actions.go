package boss

import "time"

// ActionsSummary reports what a sync did (or, for a dry run, would have
// done), per SPEC_FULL §4.1.1: one summary per SyncSpec entry, printed
// by `--stats`.
type ActionsSummary struct {
	FoldersCreated  int
	FilesCopied     int
	FilesSkipped    int
	SymlinksCreated int
	FilesDeleted    int
	FoldersDeleted  int
	SymlinksDeleted int
	BytesCopied     uint64
	Elapsed         time.Duration
	DryRun          bool
}

// TotalDeleted sums every deletion kind, for a one-line summary.
func (s ActionsSummary) TotalDeleted() int {
	return s.FilesDeleted + s.FoldersDeleted + s.SymlinksDeleted
}

// Add merges other into s, for combining multiple SyncSpec entries'
// summaries into one grand total (SPEC_FULL §4.1.1, multi-sync spec).
func (s ActionsSummary) Add(other ActionsSummary) ActionsSummary {
	return ActionsSummary{
		FoldersCreated:  s.FoldersCreated + other.FoldersCreated,
		FilesCopied:     s.FilesCopied + other.FilesCopied,
		FilesSkipped:    s.FilesSkipped + other.FilesSkipped,
		SymlinksCreated: s.SymlinksCreated + other.SymlinksCreated,
		FilesDeleted:    s.FilesDeleted + other.FilesDeleted,
		FoldersDeleted:  s.FoldersDeleted + other.FoldersDeleted,
		SymlinksDeleted: s.SymlinksDeleted + other.SymlinksDeleted,
		BytesCopied:     s.BytesCopied + other.BytesCopied,
		Elapsed:         s.Elapsed + other.Elapsed,
		DryRun:          s.DryRun || other.DryRun,
	}
}
