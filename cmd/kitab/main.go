// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/cmd/kitab/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := commands.Root(commands.DefaultEnv()).Execute(ctx, os.Args[1:])
	stop()

	// Commands that print their own outcome (lookup, verify) return an
	// ExitError and get no extra "error:" line.
	code, report := cli.ExitCodeFor(err)
	if report {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}
