// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/bmgrimm/wfpctl/internal/lower"
	"github.com/bmgrimm/wfpctl/internal/parser"
)

func (a *App) runLoad(ctx context.Context, args []string) int {
	fs := a.newFlagSet("load")
	file := fs.String("f", "", "Rule-source file to parse and install.")
	help := fs.Bool("h", false, "Display this help message.")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(a.Stdout)
		fs.Usage()
		return 0
	}
	if *file == "" {
		fmt.Fprintln(a.Stderr, "Error: -f FILE is required")
		fs.Usage()
		return 1
	}

	source, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}

	ruleset, err := parser.Parse(string(source))
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}

	records, err := lower.Ruleset(ruleset, a.Facade)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}

	installed := 0
	failed := 0
	for _, record := range records {
		if _, err := a.Facade.Add(ctx, record); err != nil {
			a.Logger.Warn("failed to install filter", "error", err)
			failed++
			continue
		}
		installed++
	}

	fmt.Fprintf(a.Stdout, "Installed %d filters.\n", installed)
	if failed > 0 {
		fmt.Fprintf(a.Stderr, "Error: %d filters failed to install.\n", failed)
		return 1
	}
	return 0
}
