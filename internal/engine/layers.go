// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"github.com/google/nftables"

	"github.com/bmgrimm/wfpctl/internal/lower"
)

// chainSpec is the fixed hook/priority/family shape of one of the four
// layers. All four chains live in the same inet table; chains in an
// inet table fire for both address families at a given hook, so every
// rule installed in a chain carries an explicit nfproto match as its
// first condition to keep the v4 and v6 chains from matching each
// other's traffic.
type chainSpec struct {
	name    string
	hook    *nftables.ChainHook
	nfproto byte
}

var layerChains = map[lower.LayerKey]chainSpec{
	lower.AuthConnectV4: {name: "authconnect4", hook: nftables.ChainHookOutput, nfproto: nfprotoIPv4},
	lower.AuthConnectV6: {name: "authconnect6", hook: nftables.ChainHookOutput, nfproto: nfprotoIPv6},
	lower.AuthReceiveV4: {name: "authreceive4", hook: nftables.ChainHookInput, nfproto: nfprotoIPv4},
	lower.AuthReceiveV6: {name: "authreceive6", hook: nftables.ChainHookInput, nfproto: nfprotoIPv6},
}

const (
	nfprotoIPv4 byte = 2  // unix.NFPROTO_IPV4
	nfprotoIPv6 byte = 10 // unix.NFPROTO_IPV6
)

// isConnectLayer reports whether key is one of the two outbound
// (authconnect) layers, as opposed to a receive layer.
func isConnectLayer(key lower.LayerKey) bool {
	return key == lower.AuthConnectV4 || key == lower.AuthConnectV6
}

// isV6Layer reports whether key addresses the v6 family.
func isV6Layer(key lower.LayerKey) bool {
	return key == lower.AuthConnectV6 || key == lower.AuthReceiveV6
}
