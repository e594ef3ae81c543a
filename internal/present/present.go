// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package present formats engine.Filter and engine.ClassifyEvent values
// for terminal output. Every format here mirrors the stream operators
// the original CLI used to print the same objects.
package present

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmgrimm/wfpctl/internal/engine"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// FormatFilter renders a single filter the way `list -f` prints it:
// "[Id: N] [Weight(u8): W] action layer <cond> <cond> ...". The weight
// kind is always "u8" here; nftables rule priority has no equivalent of
// WFP's engine-managed (FWP_EMPTY) weight class.
func FormatFilter(f engine.Filter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Id: %d] [Weight(u8): %2d] %-8s %s ", f.ID, f.Weight, actionName(f.Action), f.LayerName)

	if len(f.Conditions) == 0 {
		b.WriteString("None")
		return b.String()
	}
	for i, c := range f.Conditions {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(FormatCondition(c))
	}
	return b.String()
}

// FormatCondition renders one condition as "<field match value>".
func FormatCondition(c engine.ConditionView) string {
	return fmt.Sprintf("<%s %s %s>", c.FieldName, c.MatchName, formatConditionValue(c))
}

func formatConditionValue(c engine.ConditionView) string {
	switch v := c.Value.(type) {
	case lower.AddrMaskV4:
		return fmt.Sprintf("%s / %s", ipv4String(v.Addr), ipv4String(v.Mask))
	case lower.AddrPrefixV6:
		return fmt.Sprintf("%s / %d", ipv6String(v.Addr), v.PrefixLength)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func actionName(a fmt.Stringer) string {
	s := a.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func ipv4String(addr uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(addr>>24), byte(addr>>16), byte(addr>>8), byte(addr))
}

func ipv6String(addr [16]byte) string {
	parts := make([]string, 8)
	for i := 0; i < 8; i++ {
		parts[i] = fmt.Sprintf("%02x%02x", addr[i*2], addr[i*2+1])
	}
	return strings.Join(parts, ":")
}

// FormatEvent renders a live classification event the way `monitor`
// prints it: "[protocol: P] [FilterId: ID] allow|drop app local -> remote",
// followed by an indented "Filter applied" line when the responsible
// filter was identified.
func FormatEvent(ev engine.ClassifyEvent, filter engine.Filter, hasFilter bool) string {
	verb := "drop"
	if ev.Allowed {
		verb = "allow"
	}
	appName := filepath.Base(ev.AppPath)
	if appName == "." || appName == "" {
		appName = "unknown"
	}

	line := fmt.Sprintf("[protocol: %s] [FilterId: %d] %s %s %s:%d -> %s:%d",
		ev.Protocol, ev.FilterID, verb, appName, ev.LocalAddr, ev.LocalPort, ev.RemoteAddr, ev.RemotePort)
	if !hasFilter {
		return line
	}
	return line + "\n    - (Filter applied: " + FormatFilter(filter) + ")"
}
