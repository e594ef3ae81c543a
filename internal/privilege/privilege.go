// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package privilege checks that the process has the rights nftables
// netlink operations require before the engine ever opens a
// connection.
package privilege

import (
	"golang.org/x/sys/unix"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// RequireNetAdmin returns an error unless the calling process is
// running as root. nftables netlink sockets accept unprivileged
// callers with CAP_NET_ADMIN too, but that capability isn't readable
// without parsing /proc/self/status, so the effective-uid check is the
// one actually enforced, matching cmd/proxy.go's own root check.
func RequireNetAdmin() error {
	if unix.Geteuid() != 0 {
		return werrors.New(werrors.KindPermission, "must run with elevated privileges")
	}
	return nil
}
