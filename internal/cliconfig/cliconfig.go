// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cliconfig holds the process-wide defaults wfpctl's
// sub-commands share. There is no persistent configuration file: every
// run is a one-shot operation against the kernel, so these are plain
// constants rather than a loaded document.
package cliconfig

import (
	"github.com/google/uuid"

	"github.com/bmgrimm/wfpctl/internal/engine"
)

const (
	// TableName is the nftables table wfpctl owns.
	TableName = "wfpctl"

	// ProviderDisplay and SublayerDisplay are the human-readable names
	// every filter installed by this tool is tagged with for printing.
	ProviderDisplay = "wfpctl rule provider"
	SublayerDisplay = "wfpctl rule sublayer"
	SublayerWeight  = 0

	// DemoAppPath is the path the built-in `create` command installs a
	// permit rule for.
	DemoAppPath = "/usr/bin/wfpctl-demo"
)

// ProviderKey and SublayerKey are opaque identifiers, generated fresh
// per process rather than persisted: ownership of an installed rule is
// tracked structurally (the owned table and its four chains), not by a
// key stored alongside the rule, so these need only be unique within a
// run, the way a WFP provider/sublayer GUID is unique within the
// objects a single registration call creates.
var (
	ProviderKey = uuid.New().String()
	SublayerKey = uuid.New().String()
)

// EngineConfig returns the engine.Config built from the values above,
// ready to pass to engine.New/NewWithConn.
func EngineConfig() engine.Config {
	return engine.Config{
		TableName:       TableName,
		ProviderKey:     ProviderKey,
		ProviderDisplay: ProviderDisplay,
		SublayerKey:     SublayerKey,
		SublayerDisplay: SublayerDisplay,
		SublayerWeight:  SublayerWeight,
	}
}
