package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/tilemart/tileadmin/cmd"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = ""
)

func main() {
	root := cmd.NewRootCmd()

	// fang adds styled help, completions, manpages and --version; interrupts
	// cancel the command context so uploads can cancel server-side extraction.
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
