// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"fmt"

	"github.com/bmgrimm/wfpctl/internal/ast"
	"github.com/bmgrimm/wfpctl/internal/cliconfig"
	"github.com/bmgrimm/wfpctl/internal/lower"
)

// runCreate installs the built-in demo filter: a permit rule on the v4
// connect layer constrained to a single fixed application path, weight
// 5 (lower.DemoWeight), mirroring wfp_killer.cpp's createFilter.
func (a *App) runCreate(ctx context.Context, args []string) int {
	fs := a.newFlagSet("create")
	help := fs.Bool("h", false, "Display this help message.")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(a.Stdout)
		fs.Usage()
		return 0
	}

	appID, err := a.Facade.AppIDFromPath(cliconfig.DemoAppPath)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}

	record := lower.FilterRecord{
		ProviderKey: a.Facade.ProviderKey(),
		SublayerKey: a.Facade.SublayerKey(),
		DisplayData: a.Facade.DisplayData(),
		LayerKey:    lower.AuthConnectV4,
		Action:      ast.Permit,
		Weight:      lower.DemoWeight,
		Conditions: []lower.Condition{
			{Field: lower.FieldAppID, Match: lower.MatchEqual, Value: appID},
		},
	}

	installed, err := a.Facade.Add(ctx, record)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(a.Stdout, "Created demo filter with id %d.\n", installed.FilterID)
	return 0
}
