// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	werrors "github.com/bmgrimm/wfpctl/internal/errors"
)

// appIDFromPath resolves an executable path to the opaque token stored
// in a FieldAppID condition. nftables has no blob type analogous to an
// app-id the kernel computes from a binary's signature, so the token
// here is derived purely from the path: it is cleaned to an absolute
// form and hashed, giving a fixed-width value that is stable across
// calls for the same path and distinct for different paths, without
// reading or hashing the target file's contents.
func appIDFromPath(path string) (string, error) {
	if path == "" {
		return "", werrors.New(werrors.KindValidation, "app path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", werrors.Wrap(err, werrors.KindValidation, "resolving app path")
	}
	clean := filepath.Clean(abs)
	sum := sha256.Sum256([]byte(clean))
	return hex.EncodeToString(sum[:]), nil
}
