// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package parser

import (
	"github.com/bmgrimm/wfpctl/internal/ast"
	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// validate enforces the cross-field invariants of a single filter's
// conditions, immediately after its conditions block is parsed. The
// source-app exclusivity invariant is already structurally impossible
// to violate via the grammar (see parseSrc); validate re-checks it
// defensively. The rule that a from/to clause names an address, a port,
// or both is enforced by parseAddrAndPorts itself, not here.
func validate(c ast.FilterConditions) error {
	if c.IPVersion == ast.V4Only && (len(c.SourceIPs.V6) > 0 || len(c.DestIPs.V6) > 0) {
		return werrors.New(werrors.KindParse, "ip version is set to Inet4 yet ipv6 ips are present")
	}
	if c.IPVersion == ast.V6Only && (len(c.SourceIPs.V4) > 0 || len(c.DestIPs.V4) > 0) {
		return werrors.New(werrors.KindParse, "ip version is set to Inet6 yet ipv4 ips are present")
	}
	if c.SourceApp != "" && (!c.SourceIPs.Empty() || len(c.SourcePorts) > 0) {
		return werrors.New(werrors.KindParse, "source_app is set yet source ips or ports are also present")
	}
	return nil
}
