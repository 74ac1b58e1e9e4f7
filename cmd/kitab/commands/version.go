// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/version"
)

type versionParams struct {
	cli.JSONOutput
}

func versionCommand(env *Env) *cli.Command {
	var params versionParams
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Usage:   "kitab version [flags]",
		Params:  func() any { return &params },
		Run: func(context.Context, []string, *slog.Logger) error {
			build := version.Get()
			if done, err := params.EmitJSON(env.Stdout, build); done {
				return err
			}
			fmt.Fprintf(env.Stdout, "kitab %s\n", build.Full())
			return nil
		},
	}
}
