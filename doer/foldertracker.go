package doer

import "sync"

// FolderCreationTracker deduplicates CreateFolder commands for the
// same path, adapted from the teacher's folderCreationTracker: a path
// already created in this run is neither an error nor redone. Ensure
// takes a per-path lock rather than one global lock, though the doer
// calls it only from its single receive loop; WriteFileStart creates
// missing parent folders with os.MkdirAll and does not consult it.
type FolderCreationTracker struct {
	created     sync.Map // path -> struct{}
	folderLocks sync.Map // path -> *sync.Mutex
}

// NewFolderCreationTracker returns an empty tracker, one per sync run.
func NewFolderCreationTracker() *FolderCreationTracker {
	return &FolderCreationTracker{}
}

// Ensure calls doCreation at most once for a given path across however
// many concurrent callers ask for it, and reports whether this call
// was the one that actually ran it.
func (t *FolderCreationTracker) Ensure(path string, doCreation func() error) (created bool, err error) {
	lockIface, _ := t.folderLocks.LoadOrStore(path, &sync.Mutex{})
	lock := lockIface.(*sync.Mutex)
	lock.Lock()
	defer lock.Unlock()

	if _, already := t.created.Load(path); already {
		return false, nil
	}
	if err := doCreation(); err != nil {
		return false, err
	}
	t.created.Store(path, struct{}{})
	return true, nil
}
