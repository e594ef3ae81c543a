// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"fmt"

	"github.com/bmgrimm/wfpctl/internal/lower"
)

// layerFriendlyName maps a LayerKey to the string the list/monitor
// commands print. Any key outside the four recognized layers falls back
// to an "UNKNOWN-layer: <key>" form rather than panicking, since a
// future kernel addition should degrade to something printable.
func layerFriendlyName(key lower.LayerKey) string {
	switch key {
	case lower.AuthConnectV4:
		return "Auth Connect v4"
	case lower.AuthConnectV6:
		return "Auth Connect v6"
	case lower.AuthReceiveV4:
		return "Auth Receive v4"
	case lower.AuthReceiveV6:
		return "Auth Receive v6"
	default:
		return fmt.Sprintf("UNKNOWN-layer: %v", key)
	}
}

// fieldFriendlyName maps a FieldKey to its printed condition name.
func fieldFriendlyName(key lower.FieldKey) string {
	switch key {
	case lower.FieldAppID:
		return "App ID"
	case lower.FieldLocalIP:
		return "Local IP"
	case lower.FieldLocalPort:
		return "Local Port"
	case lower.FieldRemoteIP:
		return "Remote IP"
	case lower.FieldRemotePort:
		return "Remote Port"
	case lower.FieldProtocol:
		return "Protocol"
	default:
		return fmt.Sprintf("UNKNOWN-field: %v", key)
	}
}

// matchFriendlyName maps a MatchType to its printed operator.
func matchFriendlyName(m lower.MatchType) string {
	switch m {
	case lower.MatchEqual:
		return "=="
	default:
		return fmt.Sprintf("UNKNOWN-match: %v", m)
	}
}

// protocolFriendlyName maps an IANA protocol number to its usual name.
// Only tcp and udp are ever installed by the lowerer, but conditions
// read back from the kernel are matched against this table rather than
// assumed to be one of the two.
func protocolFriendlyName(proto uint8) string {
	switch proto {
	case 6:
		return "TCP"
	case 17:
		return "UDP"
	default:
		return fmt.Sprintf("UNKNOWN-protocol: %d", proto)
	}
}
