// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Command wfpctl inspects and installs packet filters on the host's
// nftables-backed authorization layers.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bmgrimm/wfpctl/internal/cli"
	"github.com/bmgrimm/wfpctl/internal/cliconfig"
	"github.com/bmgrimm/wfpctl/internal/engine"
	"github.com/bmgrimm/wfpctl/internal/logging"
	"github.com/bmgrimm/wfpctl/internal/privilege"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := privilege.RequireNetAdmin(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		return 1
	}

	logger := logging.New(logging.DefaultConfig())

	eng, err := engine.New(cliconfig.EngineConfig(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		return 1
	}
	defer eng.Close()

	ctx := context.Background()
	if err := eng.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: %v\n", err)
		return 1
	}

	app := &cli.App{
		Facade: eng,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Stdin:  os.Stdin,
		Logger: logger,
	}
	return app.Run(ctx, os.Args[1:])
}
