// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bmgrimm/wfpctl/internal/engine"
	"github.com/bmgrimm/wfpctl/internal/present"
)

func (a *App) runMonitor(ctx context.Context, args []string) int {
	fs := a.newFlagSet("monitor")
	help := fs.Bool("h", false, "Display this help message.")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *help {
		fs.SetOutput(a.Stdout)
		fs.Usage()
		return 0
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-monitorCtx.Done():
		}
	}()

	go func() {
		reader := bufio.NewReader(a.Stdin)
		reader.ReadString('\n')
		cancel()
	}()

	sub, err := a.Facade.SubscribeEvents(monitorCtx)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
	defer sub.Close()

	fmt.Fprintln(a.Stdout, "Monitoring classification events. Press Enter or Ctrl-C to stop.")
	for {
		select {
		case <-monitorCtx.Done():
			return 0
		case ev, ok := <-sub.Events():
			if !ok {
				return 0
			}
			a.printEvent(monitorCtx, ev)
		}
	}
}

func (a *App) printEvent(ctx context.Context, ev engine.ClassifyEvent) {
	var filter engine.Filter
	if ev.HasFilter {
		if f, ok, err := a.Facade.GetFilterByID(ctx, ev.FilterID); err == nil && ok {
			filter = f
		} else {
			ev.HasFilter = false
		}
	}
	fmt.Fprintln(a.Stdout, present.FormatEvent(ev, filter, ev.HasFilter))
}
