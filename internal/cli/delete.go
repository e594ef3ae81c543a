// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"fmt"
	"strconv"
)

func (a *App) runDelete(ctx context.Context, args []string) int {
	fs := a.newFlagSet("delete")
	var ids stringList
	fs.Var(&ids, "f", "Filter id to delete, or the literal \"pia\"/\"all\" to delete everything. Repeatable.")
	help := fs.Bool("h", false, "Display this help message.")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(a.Stdout)
		fs.Usage()
		return 0
	}

	deleteAll := len(ids) == 0
	var numericIDs []uint64
	for _, raw := range ids {
		if raw == "pia" || raw == "all" {
			deleteAll = true
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error: invalid filter id %q\n", raw)
			return 1
		}
		numericIDs = append(numericIDs, id)
	}

	if deleteAll {
		return a.deleteAll(ctx)
	}
	return a.deleteByIDs(ctx, numericIDs)
}

func (a *App) deleteAll(ctx context.Context) int {
	filters, err := a.Facade.EnumerateFilters(ctx)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
	if !a.confirm(fmt.Sprintf("Delete all %d wfpctl filters?", len(filters))) {
		fmt.Fprintln(a.Stdout, "Aborted.")
		return 0
	}
	ids := make([]uint64, len(filters))
	for i, f := range filters {
		ids[i] = f.ID
	}
	return a.deleteByIDs(ctx, ids)
}

func (a *App) deleteByIDs(ctx context.Context, ids []uint64) int {
	deleted := 0
	failed := 0
	for _, id := range ids {
		if err := a.Facade.DeleteByID(ctx, id); err != nil {
			a.Logger.Warn("failed to delete filter", "id", id, "error", err)
			failed++
			continue
		}
		deleted++
	}
	fmt.Fprintf(a.Stdout, "Deleted %d filters.\n", deleted)
	if failed > 0 {
		fmt.Fprintf(a.Stderr, "Error: %d filters failed to delete.\n", failed)
		return 1
	}
	return 0
}
