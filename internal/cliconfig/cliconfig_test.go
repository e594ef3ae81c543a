// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cliconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngineConfigUsesGeneratedKeysAndDisplayConstants(t *testing.T) {
	cfg := EngineConfig()
	assert.Equal(t, TableName, cfg.TableName)
	assert.Equal(t, ProviderKey, cfg.ProviderKey)
	assert.Equal(t, ProviderDisplay, cfg.ProviderDisplay)
	assert.Equal(t, SublayerKey, cfg.SublayerKey)
	assert.NotEmpty(t, cfg.ProviderKey)
	assert.NotEmpty(t, cfg.SublayerKey)
	assert.NotEqual(t, cfg.ProviderKey, cfg.SublayerKey)
}
