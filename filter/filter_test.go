package filter

import (
	"testing"

	"github.com/gryfn-io/rjrssync/rootpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyListIncludesEverything(t *testing.T) {
	l := NewList()
	assert.True(t, l.Includes(rootpath.New("anything/at/all.txt")))
	assert.True(t, l.Includes(rootpath.Root))
}

func TestFirstMatchWins(t *testing.T) {
	l, err := ParseList([]string{`-\.tmp$`, `+build/.*`, `-.*`})
	require.NoError(t, err)

	assert.False(t, l.Includes(rootpath.New("scratch.tmp")))
	assert.True(t, l.Includes(rootpath.New("build/output.bin")))
	assert.False(t, l.Includes(rootpath.New("src/main.go")))
}

func TestNoMatchNegatesFirstRulePolarity(t *testing.T) {
	// First rule is an include, so anything that matches nothing is excluded.
	inc, err := ParseList([]string{`+build/.*`, `-secrets/.*`})
	require.NoError(t, err)
	_ = inc

	l, err := ParseList([]string{`+build/.*`})
	require.NoError(t, err)
	assert.True(t, l.Includes(rootpath.New("build/a.out")))
	assert.False(t, l.Includes(rootpath.New("src/main.go")))

	// First rule is an exclude, so anything that matches nothing is included.
	l2, err := ParseList([]string{`-secrets/.*`})
	require.NoError(t, err)
	assert.False(t, l2.Includes(rootpath.New("secrets/key.pem")))
	assert.True(t, l2.Includes(rootpath.New("src/main.go")))
}

func TestMatchMustConsumeWholePath(t *testing.T) {
	l, err := ParseList([]string{`-foo`})
	require.NoError(t, err)
	// "foo" matches as a substring of "foobar" under FindStringIndex,
	// but Includes requires the whole normalized path to match.
	assert.True(t, l.Includes(rootpath.New("foobar")))
	assert.False(t, l.Includes(rootpath.New("foo")))
}

func TestNewRuleRejectsMissingPolarity(t *testing.T) {
	_, err := NewRule("nopolarity")
	require.Error(t, err)
}

func TestNewRuleRejectsBadRegex(t *testing.T) {
	_, err := NewRule("+(unterminated")
	require.Error(t, err)
}
