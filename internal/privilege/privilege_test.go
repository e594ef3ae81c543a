// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package privilege

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequireNetAdminMatchesProcessEUID(t *testing.T) {
	err := RequireNetAdmin()
	if os.Geteuid() == 0 {
		assert.NoError(t, err)
		return
	}
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must run with elevated privileges")
}
