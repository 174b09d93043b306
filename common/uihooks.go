package common

import "sync"

// UIHooks is a set of function callbacks that control how the sync engine
// interacts with the outside world: prompting, informational messages and
// warnings. Implemented as a struct of function fields, not an interface,
// so that sensible no-op defaults can be supplied and a caller only needs
// to override the one or two callbacks it cares about — the same shape as
// the teacher's common/lifecyleMgr.go JobUIHooks.
//
// Example:
//
//	h := common.NewUIHooks()
//	h.Warn = func(msg string) { fmt.Fprintln(os.Stderr, "warning:", msg) }
//	h.Prompt = func(message string, d PromptDetails) ResponseOption { ... }
type UIHooks struct {
	Prompt func(message string, details PromptDetails) ResponseOption
	Info   func(message string)
	Warn   func(message string)
}

// NewUIHooks returns a UIHooks with safe no-op defaults. Prompt defaults
// to the safest possible answer (No) rather than proceeding silently,
// since an un-set Prompt hook most likely means the caller forgot to wire
// one, not that it intends destructive actions to proceed unattended.
func NewUIHooks() *UIHooks {
	return &UIHooks{
		Prompt: func(string, PromptDetails) ResponseOption { return EResponseOption.No() },
		Info:   func(string) {},
		Warn:   func(string) {},
	}
}

var (
	hooksMu sync.RWMutex
	hooks   = NewUIHooks()
)

// SetUIHooks installs the process-wide UIHooks that Hooks returns. The
// CLI does not call it: cmd hands its UIHooks to boss.Run directly.
func SetUIHooks(h *UIHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	hooks = h
}

// Hooks returns the currently installed UIHooks.
func Hooks() *UIHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return hooks
}
