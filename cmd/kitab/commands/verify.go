// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
)

type verifyParams struct {
	globalParams
	cli.JSONOutput
}

type verifyFailure struct {
	Key   string `json:"key"`
	Error string `json:"error"`
}

type verifyOutput struct {
	Checked  int             `json:"checked"`
	Failures []verifyFailure `json:"failures"`
}

func verifyCommand(env *Env) *cli.Command {
	params := &verifyParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "verify",
		Summary: "Check stored records against their provenance",
		Description: `Check that each stored record still matches the checksum recorded when
it was written, and that it describes the digest it is stored under.
Without arguments every record in the store is checked.`,
		Usage:  "kitab verify [flags] [key...]",
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			session, err := params.open(logger)
			if err != nil {
				return err
			}
			keys := args
			if len(keys) == 0 {
				if keys, err = session.store.Keys(); err != nil {
					return cli.Internal("%w", err)
				}
			}

			var output verifyOutput
			for _, key := range keys {
				if err := ctx.Err(); err != nil {
					return err
				}
				output.Checked++
				if err := session.store.Verify(key); err != nil {
					logger.Warn("record failed verification", "key", key, "error", err)
					output.Failures = append(output.Failures, verifyFailure{Key: key, Error: err.Error()})
					continue
				}
				logger.Debug("record verified", "key", key)
			}

			if done, err := params.EmitJSON(env.Stdout, output); done {
				if err != nil {
					return err
				}
			} else {
				for _, failure := range output.Failures {
					fmt.Fprintf(env.Stdout, "FAIL %s: %s\n", failure.Key, failure.Error)
				}
				fmt.Fprintf(env.Stdout, "%d record(s) checked, %d failed\n", output.Checked, len(output.Failures))
			}
			if len(output.Failures) > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}
