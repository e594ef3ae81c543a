// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptySelectorMatchesEverything(t *testing.T) {
	sel, err := Compile(nil)
	require.NoError(t, err)
	assert.True(t, sel.Match("anything at all"))
	assert.True(t, sel.Match(""))
}

func TestAllShortcutMatchesEverything(t *testing.T) {
	sel, err := Compile([]string{"ALL"})
	require.NoError(t, err)
	assert.True(t, sel.Match("wfpctl rule provider"))

	sel2, err := Compile([]string{"some-pattern", "all"})
	require.NoError(t, err)
	assert.True(t, sel2.Match("anything"))
}

func TestCaseInsensitiveMatching(t *testing.T) {
	sel, err := Compile([]string{"PROVIDER"})
	require.NoError(t, err)
	assert.True(t, sel.Match("wfpctl rule provider"))
	assert.True(t, sel.Match("WFPCTL RULE PROVIDER"))
	assert.False(t, sel.Match("wfpctl rule sublayer"))
}

func TestMultiplePatternsMatchAny(t *testing.T) {
	sel, err := Compile([]string{"foo", "provider"})
	require.NoError(t, err)
	assert.True(t, sel.Match("wfpctl rule provider"))
	assert.False(t, sel.Match("bar"))
}

func TestMatchAnyAcrossCandidates(t *testing.T) {
	sel, err := Compile([]string{"sublayer"})
	require.NoError(t, err)
	assert.True(t, sel.MatchAny("wfpctl rule provider", "wfpctl rule sublayer"))
	assert.False(t, sel.MatchAny("a", "b"))
}

func TestInvalidPatternReturnsError(t *testing.T) {
	_, err := Compile([]string{"("})
	assert.Error(t, err)
}
