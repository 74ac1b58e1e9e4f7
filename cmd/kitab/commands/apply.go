// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/apply"
	"github.com/nolash/kitab/lib/digest"
)

type applyParams struct {
	globalParams
	cli.JSONOutput
	Algorithms []string `flag:"algorithm,a" desc:"candidate digest algorithms in lookup order (default from configuration)"`
	DryRun     bool     `flag:"dry-run,n" desc:"look records up without writing attributes"`
}

type appliedFile struct {
	Path    string      `json:"path"`
	Digest  string      `json:"digest,omitempty"`
	Record  *recordView `json:"record,omitempty"`
	Written bool        `json:"written"`
}

type applyOutput struct {
	Files    []appliedFile `json:"files"`
	Failures []failureView `json:"failures"`
}

func applyCommand(env *Env) *cli.Command {
	params := &applyParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "apply",
		Summary: "Write stored metadata to files as extended attributes",
		Description: `Hash each file, look the digests up in the store, and write the first
stored record found to the file's extended attributes. Files without a
stored record are reported and left alone.`,
		Usage: "kitab apply [flags] <path>...",
		Examples: []cli.Example{
			{Description: "Tag every file in a directory", Command: "kitab apply ~/books"},
			{Description: "Match only by MD5", Command: "kitab apply --algorithm md5 scan.djvu"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runApply(ctx, params, args, logger)
		},
	}
}

func runApply(ctx context.Context, params *applyParams, args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		return cli.Validation("apply requires at least one path")
	}
	session, err := params.open(logger)
	if err != nil {
		return err
	}
	algorithms, err := candidateAlgorithms(session, params.Algorithms)
	if err != nil {
		return err
	}
	applier, err := apply.New(apply.Config{
		Store:      session.store,
		Attributes: session.env.Attributes,
		Algorithms: algorithms,
		DryRun:     params.DryRun,
		Logger:     logger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	paths, err := expandPaths(args, session.store.Root())
	if err != nil {
		return cli.NotFound("%w", err)
	}

	report, err := applier.ApplyAll(ctx, paths)
	if err != nil {
		return err
	}
	var output applyOutput
	for _, result := range report.Results {
		file := appliedFile{Path: result.Path, Written: result.Written}
		if result.Hit() {
			view := viewOf(result.Record)
			file.Digest = result.Digest.URN()
			file.Record = &view
		}
		output.Files = append(output.Files, file)
	}
	for _, failure := range report.Failures {
		output.Failures = append(output.Failures, failureOf(failure.Path, failure.Err))
	}

	if done, err := params.EmitJSON(session.env.Stdout, output); done {
		if err != nil {
			return err
		}
	} else {
		for _, file := range output.Files {
			switch {
			case file.Record == nil:
				fmt.Fprintf(session.env.Stdout, "%s: no stored record\n", file.Path)
			case file.Written:
				fmt.Fprintf(session.env.Stdout, "%s: applied %s (%s)\n", file.Path, file.Digest, file.Record.Title)
			default:
				fmt.Fprintf(session.env.Stdout, "%s: would apply %s (%s)\n", file.Path, file.Digest, file.Record.Title)
			}
		}
		for _, failure := range output.Failures {
			fmt.Fprintf(session.env.Stderr, "%s: %s\n", failure.Path, failure.Error)
		}
		fmt.Fprintf(session.env.Stdout, "%d file(s), %d matched, %d failure(s)\n",
			len(output.Files), report.Hits(), len(output.Failures))
	}

	if len(output.Failures) > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

// candidateAlgorithms parses --algorithm, falling back to the configured
// apply list.
func candidateAlgorithms(session *session, names []string) ([]digest.Algorithm, error) {
	if len(names) == 0 {
		algorithms, err := session.config.ApplyAlgorithms()
		if err != nil {
			return nil, cli.Validation("%w", err)
		}
		return algorithms, nil
	}
	var algorithms []digest.Algorithm
	for _, name := range names {
		algorithm, err := digest.ParseAlgorithm(name)
		if err != nil {
			return nil, cli.Validation("--algorithm: %w", err)
		}
		algorithms = append(algorithms, algorithm)
	}
	return algorithms, nil
}
