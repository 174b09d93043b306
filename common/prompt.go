package common

import (
	"reflect"

	"github.com/JeffreyRichter/enum/enum"
)

// PromptType categorizes a Prompt call, mirroring the teacher's
// common/output.go PromptType so a UI layer can style prompts
// consistently without string-matching the message text.
var EPromptType = PromptType(0)

type PromptType uint8

func (PromptType) Overwrite() PromptType      { return PromptType(0) }
func (PromptType) DeleteEntry() PromptType    { return PromptType(1) }
func (PromptType) DeleteRoot() PromptType     { return PromptType(2) }
func (PromptType) Deploy() PromptType         { return PromptType(3) }

func (t PromptType) String() string {
	return enum.StringInt(t, reflect.TypeOf(t))
}

// ResponseOption is what a Prompt hook returns: either a one-shot answer
// or a remembered answer that should override the behavior for the rest
// of the run (spec §4.1, "the callback may return either a one-shot
// decision or a remembered decision").
var EResponseOption = ResponseOption(0)

type ResponseOption uint8

func (ResponseOption) Yes() ResponseOption       { return ResponseOption(0) }
func (ResponseOption) No() ResponseOption        { return ResponseOption(1) }
func (ResponseOption) YesForAll() ResponseOption { return ResponseOption(2) }
func (ResponseOption) NoForAll() ResponseOption  { return ResponseOption(3) }

func (r ResponseOption) String() string {
	return enum.StringInt(r, reflect.TypeOf(r))
}

// Remembered reports whether this answer should be applied for the rest
// of the sync without prompting again.
func (r ResponseOption) Remembered() bool {
	return r == EResponseOption.YesForAll() || r == EResponseOption.NoForAll()
}

// Affirmative reports whether this answer means "go ahead".
func (r ResponseOption) Affirmative() bool {
	return r == EResponseOption.Yes() || r == EResponseOption.YesForAll()
}

// PromptDetails carries the structured context of a prompt, so that a
// Prompt hook can act on PromptType/Path without parsing the
// human-readable message. (The RJRSSYNC_TEST_PROMPT_RESPONSE rules in
// cmd match on the message text.)
type PromptDetails struct {
	PromptType PromptType
	Path       string
}
