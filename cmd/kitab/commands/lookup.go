// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/store"
)

type lookupParams struct {
	globalParams
}

func lookupCommand(env *Env) *cli.Command {
	params := &lookupParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "lookup",
		Summary: "Print the raw stored record for a key",
		Description: `Print the stored record bytes for a store key (the lowercase hex of a
digest). Exits with status 1 and prints nothing when the store holds no
record for the key.`,
		Usage:  "kitab lookup [flags] <key>",
		Params: func() any { return params },
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("lookup requires exactly one key")
			}
			if err := store.ValidateKey(args[0]); err != nil {
				return cli.Validation("%w", err)
			}
			session, err := params.open(logger)
			if err != nil {
				return err
			}
			data, ok, err := session.store.Lookup(args[0])
			if err != nil {
				return cli.Internal("%w", err)
			}
			if !ok {
				logger.Debug("no record", "key", args[0])
				return &cli.ExitError{Code: 1}
			}
			_, err = session.env.Stdout.Write(data)
			return err
		},
	}
}
