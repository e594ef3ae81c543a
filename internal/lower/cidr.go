// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package lower

import (
	"encoding/binary"
	"net"
	"strconv"
	"strings"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// parseV4 turns a "CIDR string" (bare address or address/prefix, already
// validated by the lexer) into an AddrMaskV4. A bare address implies /32.
func parseV4(cidr string) (AddrMaskV4, error) {
	addrStr, prefix := splitCIDR(cidr, 32)

	ip := net.ParseIP(addrStr)
	if ip == nil || ip.To4() == nil {
		return AddrMaskV4{}, werrors.Errorf(werrors.KindInternal, "not a v4 address: %s", cidr)
	}
	addr := binary.BigEndian.Uint32(ip.To4())

	var mask uint32
	if prefix == 0 {
		mask = 0
	} else {
		mask = ^uint32(0) << (32 - prefix)
	}

	return AddrMaskV4{Addr: addr, Mask: mask}, nil
}

// parseV6 turns a "CIDR string" into an AddrPrefixV6. A bare address
// implies /128.
func parseV6(cidr string) (AddrPrefixV6, error) {
	addrStr, prefix := splitCIDR(cidr, 128)

	ip := net.ParseIP(addrStr)
	if ip == nil {
		return AddrPrefixV6{}, werrors.Errorf(werrors.KindInternal, "not a v6 address: %s", cidr)
	}
	var out AddrPrefixV6
	copy(out.Addr[:], ip.To16())
	out.PrefixLength = prefix
	return out, nil
}

func splitCIDR(cidr string, defaultPrefix int) (string, int) {
	idx := strings.IndexByte(cidr, '/')
	if idx < 0 {
		return cidr, defaultPrefix
	}
	prefix, err := strconv.Atoi(cidr[idx+1:])
	if err != nil {
		prefix = defaultPrefix
	}
	return cidr[:idx], prefix
}
