// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package selector implements the case-insensitive substring/regex
// matching `list -s` uses to pick filters by provider, sublayer, or
// layer display name out of a larger set.
package selector

import (
	"regexp"
	"strings"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// Selector is a compiled set of patterns matched case-insensitively
// against display names. An empty Selector (no patterns) matches everything,
// and so does one built from the literal pattern "all".
type Selector struct {
	matchers []*regexp.Regexp
}

// Compile builds a Selector from the raw pattern strings a CLI flag
// collected. Each pattern is compiled with the (?i) flag, so it matches
// the candidate string case-insensitively; "all" anywhere in patterns makes the
// Selector match everything, matching the upstream shortcut.
func Compile(patterns []string) (Selector, error) {
	for _, p := range patterns {
		if strings.EqualFold(p, "all") {
			return Selector{}, nil
		}
	}

	matchers := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return Selector{}, werrors.Wrapf(err, werrors.KindValidation, "invalid selector pattern %q", p)
		}
		matchers = append(matchers, re)
	}
	return Selector{matchers: matchers}, nil
}

// Match reports whether any compiled pattern matches candidate. An
// empty Selector (no patterns at all) matches every candidate.
func (s Selector) Match(candidate string) bool {
	if len(s.matchers) == 0 {
		return true
	}
	for _, re := range s.matchers {
		if re.MatchString(candidate) {
			return true
		}
	}
	return false
}

// MatchAny reports whether candidate matches s, or any of
// candidates matches s — used to test a filter's provider and sublayer
// display names as a single selector query, the way the original CLI
// tested both fields against the same pattern set.
func (s Selector) MatchAny(candidates ...string) bool {
	for _, c := range candidates {
		if s.Match(c) {
			return true
		}
	}
	return false
}
