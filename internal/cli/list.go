// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"context"
	"fmt"

	"github.com/bmgrimm/wfpctl/internal/present"
	"github.com/bmgrimm/wfpctl/internal/selector"
)

type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (a *App) runList(ctx context.Context, args []string) int {
	fs := a.newFlagSet("list")
	filters := fs.Bool("f", false, "Display all filters.")
	callouts := fs.Bool("c", false, "Display all callouts.")
	layers := fs.Bool("L", false, "Display layers.")
	pia := fs.Bool("pia", false, "Display filters from the wfpctl provider (kept for compatibility; there is only one provider).")
	sublayers := fs.Bool("sublayers", false, "Display sublayers.")
	var search stringList
	fs.Var(&search, "s", "Display filters whose provider, sublayer, or layer name matches PATTERN. Repeatable.")
	help := fs.Bool("h", false, "Display this help message.")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(a.Stdout)
		fs.Usage()
		return 0
	}

	if !*filters && !*callouts && !*layers && !*pia && !*sublayers && len(search) == 0 {
		fmt.Fprintln(a.Stderr, "Options are required.")
		fs.Usage()
		return 1
	}

	if *callouts {
		fmt.Fprintln(a.Stdout, "No callouts installed.")
	}

	if *layers {
		a.printLayers()
	}

	if *sublayers {
		if err := a.printSublayer(ctx); err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if *filters || *pia || len(search) > 0 {
		sel, err := selector.Compile(search)
		if err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			return 1
		}
		if err := a.printFilters(ctx, sel); err != nil {
			fmt.Fprintf(a.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	return 0
}

func (a *App) printLayers() {
	fmt.Fprintln(a.Stdout, "Layers:")
	for _, name := range []string{"Auth Connect v4", "Auth Connect v6", "Auth Receive v4", "Auth Receive v6"} {
		fmt.Fprintf(a.Stdout, "  %s\n", name)
	}
}

func (a *App) printSublayer(ctx context.Context) error {
	sub, err := a.Facade.GetSublayerByKey(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "Sublayer: %s (weight %d)\n", sub.DisplayData, sub.Weight)
	return nil
}

// printFilters lists every installed filter whose provider, sublayer,
// or own layer display name matches sel — the same pattern set is
// tested against all three, union semantics, mirroring the original
// list command's simultaneous provider/sublayer/layer search.
func (a *App) printFilters(ctx context.Context, sel selector.Selector) error {
	provider, err := a.Facade.GetProviderByKey(ctx)
	if err != nil {
		return err
	}
	sublayer, err := a.Facade.GetSublayerByKey(ctx)
	if err != nil {
		return err
	}
	providerOrSublayerMatch := sel.MatchAny(provider.DisplayData, sublayer.DisplayData)

	filters, err := a.Facade.EnumerateFilters(ctx)
	if err != nil {
		return err
	}

	shown := 0
	for _, f := range filters {
		if !providerOrSublayerMatch && !sel.Match(f.LayerName) {
			continue
		}
		fmt.Fprintln(a.Stdout, present.FormatFilter(f))
		shown++
	}
	fmt.Fprintf(a.Stdout, "Total number of filters: %d\n", shown)
	return nil
}
