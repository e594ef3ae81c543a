// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenEqualityIgnoresLocation(t *testing.T) {
	a := Token{Kind: Ipv4Address, Text: "10.0.0.1", Location: SourceLocation{Line: 1, Column: 1}}
	b := Token{Kind: Ipv4Address, Text: "10.0.0.1", Location: SourceLocation{Line: 9, Column: 40}}
	assert.True(t, a.Equal(b))

	c := Token{Kind: Ipv4Address, Text: "10.0.0.2", Location: a.Location}
	assert.False(t, a.Equal(c))
}

func TestAllTokensBasic(t *testing.T) {
	toks, err := New(`permit out from "my-app" to 10.0.0.0/8 port 443`).AllTokens()
	require.NoError(t, err)

	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{
		PermitAction, OutDir, From, String, To, Ipv4Address, Port, Number,
	}, kinds)
}

func TestRoundTripWhitespaceInvariant(t *testing.T) {
	inputs := []string{
		"permit   out\tall",
		"block\nin\r\nproto{tcp,udp}",
	}
	for _, in := range inputs {
		a, err := New(in).AllTokens()
		require.NoError(t, err)

		collapsed := collapseWhitespace(in)
		b, err := New(collapsed).AllTokens()
		require.NoError(t, err)

		require.Equal(t, len(a), len(b))
		for i := range a {
			assert.True(t, a[i].Equal(b[i]), "token %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func collapseWhitespace(s string) string {
	var out []byte
	prevSpace := false
	for i := 0; i < len(s); i++ {
		b := s[i]
		switch b {
		case ' ', '\t', '\n', '\r':
			if !prevSpace {
				out = append(out, ' ')
			}
			prevSpace = true
		default:
			out = append(out, b)
			prevSpace = false
		}
	}
	return string(out)
}

func TestLongestPrefixKeyword(t *testing.T) {
	// "inet6" shares a prefix with "inet", which shares a prefix with
	// "in"; the table order must resolve each to its longest match.
	toks, err := New("inet6 inet in").AllTokens()
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, Inet6, toks[0].Kind)
	assert.Equal(t, Inet4, toks[1].Kind)
	assert.Equal(t, InDir, toks[2].Kind)
}

func TestCIDRPrefixBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"v4 prefix zero rejected", "10.0.0.0/0", true},
		{"v4 prefix at bit width accepted", "10.0.0.0/32", false},
		{"v4 prefix one above bit width rejected", "10.0.0.0/33", true},
		{"v6 prefix at bit width accepted", "::1/128", false},
		{"v6 prefix one above bit width rejected", "::1/129", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.input).AllTokens()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	_, err := New(`from "oops`).AllTokens()
	assert.Error(t, err)
}

func TestUnrecognizedCharacter(t *testing.T) {
	_, err := New("permit out $").AllTokens()
	assert.Error(t, err)
}

func TestIsIPv4AndIsIPv6(t *testing.T) {
	assert.True(t, isIPv4("192.168.0.1"))
	assert.False(t, isIPv4("192.168.0.256"))
	assert.False(t, isIPv4("1.2.3"))

	assert.True(t, isIPv6("2001:db8::1"))
	assert.True(t, isIPv6("::1"))
	assert.False(t, isIPv6("not-an-address"))
}
