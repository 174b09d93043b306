package syncspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gryfn-io/rjrssync/common"
)

func TestResolvePositionalArgsAppliesBuiltinDefaults(t *testing.T) {
	r, err := Resolve(CLIOverrides{SrcArg: "src", DestArg: "dest"})
	require.NoError(t, err)
	require.Len(t, r.Syncs, 1)
	s := r.Syncs[0]
	assert.Equal(t, "src", s.Source.Path)
	assert.Equal(t, "dest", s.Dest.Path)
	assert.Equal(t, DefaultBehaviors(), s.Behaviors)
}

func TestResolveRejectsSpecAndPositionalTogether(t *testing.T) {
	_, err := Resolve(CLIOverrides{SpecFilePath: "x.yaml", SrcArg: "src"})
	require.Error(t, err)
}

func TestResolveExplicitFlagOverridesAllDestructive(t *testing.T) {
	all := common.EAllDestructiveBehaviour.Proceed()
	explicit := common.EFileUpdateBehaviour.Skip()
	r, err := Resolve(CLIOverrides{
		SrcArg: "src", DestArg: "dest",
		AllDestructive: &all,
		DestFileNewer:  &explicit,
	})
	require.NoError(t, err)
	assert.Equal(t, common.EFileUpdateBehaviour.Skip(), r.Syncs[0].Behaviors.DestFileNewer)
	assert.Equal(t, common.EFileUpdateBehaviour.Overwrite(), r.Syncs[0].Behaviors.DestFileOlder)
}

func TestResolveSpecFileSkipSurvivesAllDestructive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
syncs:
  - src: a
    dest: b
    dest_entry_needs_deleting_behaviour: skip
`), 0o644))

	all := common.EAllDestructiveBehaviour.Proceed()
	r, err := Resolve(CLIOverrides{SpecFilePath: path, AllDestructive: &all})
	require.NoError(t, err)
	require.Len(t, r.Syncs, 1)
	// spec-provided Skip survives --all-destructive-behaviour.
	assert.Equal(t, common.EEntryDeletingBehaviour.Skip(), r.Syncs[0].Behaviors.DestEntryNeedsDeleting)
	// untouched field still gets the all-destructive projection.
	assert.Equal(t, common.ERootDeletingBehaviour.Delete(), r.Syncs[0].Behaviors.DestRootNeedsDeleting)
}

func TestResolveSpecFileUnknownKeyIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
bogus_key: 1
syncs: []
`), 0o644))

	_, err := Resolve(CLIOverrides{SpecFilePath: path})
	require.Error(t, err)
}

func TestResolveSpecFileMissingRequiredFieldIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
syncs:
  - dest: b
`), 0o644))

	_, err := Resolve(CLIOverrides{SpecFilePath: path})
	require.Error(t, err)
}
