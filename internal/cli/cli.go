// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package cli implements wfpctl's sub-command surface: list, delete,
// create, load, and monitor. Each sub-command parses its own flag.FlagSet,
// the way flywall-sim's main.go dispatches on args[0] with the standard
// library flag package rather than a third-party CLI framework.
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/bmgrimm/wfpctl/internal/engine"
	"github.com/bmgrimm/wfpctl/internal/logging"
)

// App wires a Facade and the process's standard streams to the
// sub-commands. It holds no other state between Run calls.
type App struct {
	Facade engine.Facade
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader
	Logger *logging.Logger
}

var commandTable = []struct {
	name string
	help string
}{
	{"list", "List installed filters, layers, or sublayers"},
	{"delete", "Delete filters by id, or all of them"},
	{"create", "Install a built-in demo filter"},
	{"load", "Parse a rule-source file and install its filters"},
	{"monitor", "Stream live classification events"},
}

// Run dispatches args[0] to a sub-command and returns the process exit
// code. args does not include the program name.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.printTopLevelHelp()
		return 1
	}

	switch args[0] {
	case "-h", "--help", "help":
		a.printTopLevelHelp()
		return 0
	case "list":
		return a.runList(ctx, args[1:])
	case "delete":
		return a.runDelete(ctx, args[1:])
	case "create":
		return a.runCreate(ctx, args[1:])
	case "load":
		return a.runLoad(ctx, args[1:])
	case "monitor":
		return a.runMonitor(ctx, args[1:])
	default:
		fmt.Fprintf(a.Stderr, "Error: unknown command %q\n", args[0])
		a.printTopLevelHelp()
		return 1
	}
}

func (a *App) printTopLevelHelp() {
	fmt.Fprintln(a.Stdout, "wfpctl - inspect and install packet filters")
	fmt.Fprintln(a.Stdout)
	fmt.Fprintln(a.Stdout, "Commands:")
	for _, c := range commandTable {
		fmt.Fprintf(a.Stdout, "  %-10s %s\n", c.name, c.help)
	}
}

// newFlagSet builds a FlagSet that writes its usage to a.Stdout and
// never calls os.Exit on a parse error; callers check the returned
// error themselves so -h and a bad flag both become a clean exit code
// instead of killing the process out from under tests.
func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Stdout)
	return fs
}

// confirm prompts the user on Stdout and reads a yes/no answer from
// Stdin. Only "y" or "yes" (case-insensitive) counts as confirmation.
func (a *App) confirm(prompt string) bool {
	fmt.Fprintf(a.Stdout, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(a.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(line) {
	case "y\n", "yes\n":
		return true
	default:
		return false
	}
}
