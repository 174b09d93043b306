package boss

import (
	"fmt"

	"github.com/gryfn-io/rjrssync/common"
)

// resolver evaluates the four Prompt/Error/Skip/{Overwrite,Delete}
// behaviors spec §4.1 names against the hooks a caller wired in,
// honoring the "remembered decision" case: a YesForAll/NoForAll
// response from the prompt callback updates the behavior pointer in
// place so later entries in the same sync stop prompting (spec §4.1,
// "the callback may return either a one-shot decision or a remembered
// decision that overrides the behavior for the rest of the sync").
type resolver struct {
	hooks *common.UIHooks
}

func newResolver(hooks *common.UIHooks) *resolver {
	if hooks == nil {
		hooks = common.NewUIHooks()
	}
	return &resolver{hooks: hooks}
}

// fileUpdate resolves a FileUpdateBehaviour to proceed/skip, or a
// PolicyError if it resolves to Error. A declined prompt, one-shot or
// remembered, is a skip (false, nil).
func (r *resolver) fileUpdate(b *common.FileUpdateBehaviour, pt common.PromptType, path, message string) (proceed bool, err error) {
	switch *b {
	case common.EFileUpdateBehaviour.Overwrite():
		return true, nil
	case common.EFileUpdateBehaviour.Skip():
		return false, nil
	case common.EFileUpdateBehaviour.Error():
		return false, policyError(path, message)
	case common.EFileUpdateBehaviour.Prompt():
		resp := r.hooks.Prompt(message, common.PromptDetails{PromptType: pt, Path: path})
		if resp.Remembered() {
			if resp.Affirmative() {
				*b = common.EFileUpdateBehaviour.Overwrite()
			} else {
				*b = common.EFileUpdateBehaviour.Skip()
			}
		}
		return resp.Affirmative(), nil
	default:
		return false, policyError(path, "unknown FileUpdateBehaviour")
	}
}

// entryDeleting resolves an EntryDeletingBehaviour the same way.
func (r *resolver) entryDeleting(b *common.EntryDeletingBehaviour, path string) (proceed bool, err error) {
	message := fmt.Sprintf("delete %q from destination (no longer present in source)", path)
	switch *b {
	case common.EEntryDeletingBehaviour.Delete():
		return true, nil
	case common.EEntryDeletingBehaviour.Skip():
		return false, nil
	case common.EEntryDeletingBehaviour.Error():
		return false, policyError(path, message)
	case common.EEntryDeletingBehaviour.Prompt():
		resp := r.hooks.Prompt(message, common.PromptDetails{PromptType: common.EPromptType.DeleteEntry(), Path: path})
		if resp.Remembered() {
			if resp.Affirmative() {
				*b = common.EEntryDeletingBehaviour.Delete()
			} else {
				*b = common.EEntryDeletingBehaviour.Skip()
			}
		}
		return resp.Affirmative(), nil
	default:
		return false, policyError(path, "unknown EntryDeletingBehaviour")
	}
}

// rootDeleting resolves a RootDeletingBehaviour for wholesale dest
// root replacement (spec §4.1 step 2).
func (r *resolver) rootDeleting(b *common.RootDeletingBehaviour, path string) (proceed bool, err error) {
	message := fmt.Sprintf("replace destination root %q wholesale (its kind does not match the source root)", path)
	switch *b {
	case common.ERootDeletingBehaviour.Delete():
		return true, nil
	case common.ERootDeletingBehaviour.Skip():
		return false, nil
	case common.ERootDeletingBehaviour.Error():
		return false, policyError(path, message)
	case common.ERootDeletingBehaviour.Prompt():
		resp := r.hooks.Prompt(message, common.PromptDetails{PromptType: common.EPromptType.DeleteRoot(), Path: path})
		if resp.Remembered() {
			if resp.Affirmative() {
				*b = common.ERootDeletingBehaviour.Delete()
			} else {
				*b = common.ERootDeletingBehaviour.Skip()
			}
		}
		return resp.Affirmative(), nil
	default:
		return false, policyError(path, "unknown RootDeletingBehaviour")
	}
}

func policyError(path, message string) error {
	err := common.NewSyncError(common.PolicyError, fmt.Errorf("%s", message))
	err.Path = path
	return err
}
