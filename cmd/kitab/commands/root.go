// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the kitab command tree.
package commands

import (
	"io"
	"os"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/clock"
	"github.com/nolash/kitab/lib/xattr"
)

// Env is what commands read from and write to outside the store.
type Env struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Attributes reads and writes extended attributes.
	Attributes xattr.Attributes
	// Clock stamps provenance and catalog entries.
	Clock clock.Clock
}

// DefaultEnv is the process environment.
func DefaultEnv() *Env {
	return &Env{
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Attributes: xattr.FS{},
		Clock:      clock.Real(),
	}
}

// Root returns the kitab command tree bound to env.
func Root(env *Env) *cli.Command {
	return &cli.Command{
		Name:    "kitab",
		Summary: "Content-addressed bibliographic metadata",
		Description: `kitab keeps bibliographic metadata for files in a store keyed by the
digest of each file's content. Metadata is imported from extended
attributes, Turtle records, or BibTeX/BibLaTeX files, and applied back to
any copy of a file by hashing it.`,
		Stderr: env.Stderr,
		Subcommands: []*cli.Command{
			importCommand(env),
			applyCommand(env),
			showCommand(env),
			lookupCommand(env),
			hashCommand(env),
			verifyCommand(env),
			exportCommand(env),
			restoreCommand(env),
			searchCommand(env),
			catalogCommand(env),
			versionCommand(env),
		},
	}
}
