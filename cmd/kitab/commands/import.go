// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/importer"
	"github.com/nolash/kitab/lib/meta"
)

type importParams struct {
	globalParams
	cli.JSONOutput
	Digests []string `flag:"digest,d" desc:"digest URN of the file a single-entry bibliography describes (repeatable)"`
	DryRun  bool     `flag:"dry-run,n" desc:"extract and validate records without storing them"`
	NoIndex bool     `flag:"no-index" desc:"do not add imported records to the catalog"`
}

type importedFile struct {
	Path     string       `json:"path"`
	Strategy string       `json:"strategy"`
	Records  []recordView `json:"records"`
}

type importOutput struct {
	RunID    string         `json:"run_id"`
	DryRun   bool           `json:"dry_run,omitempty"`
	Files    []importedFile `json:"files"`
	Failures []failureView  `json:"failures"`
}

func importCommand(env *Env) *cli.Command {
	params := &importParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "import",
		Summary: "Store metadata from attributes, records, or bibliographies",
		Description: `Import metadata records into the store.

Each file is tried against three strategies in order: the file's own
extended attributes (the record is keyed by the file's digest), a Turtle
record or record batch, and a BibTeX/BibLaTeX bibliography whose entries
name their files' digests in the note field. Directories are walked
recursively. A file that fails does not stop the others, but nothing
from a failing file is stored.`,
		Usage: "kitab import [flags] <path>...",
		Examples: []cli.Example{
			{Description: "Import a directory of tagged books", Command: "kitab import ~/books"},
			{
				Description: "Import a single-entry bibliography for a known file",
				Command:     "kitab import --digest sha256:$(sha256sum book.pdf | cut -c1-64) book.bib",
			},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runImport(ctx, params, args, logger)
		},
	}
}

func runImport(ctx context.Context, params *importParams, args []string, logger *slog.Logger) error {
	if len(args) == 0 {
		return cli.Validation("import requires at least one path")
	}
	explicit := make([]digest.Digest, 0, len(params.Digests))
	for _, text := range params.Digests {
		parsed, err := digest.ParseURN(text)
		if err != nil {
			return cli.Validation("--digest: %w", err)
		}
		if parsed.IsEmpty() {
			return cli.Validation("--digest: empty digest")
		}
		explicit = append(explicit, parsed)
	}

	session, err := params.open(logger)
	if err != nil {
		return err
	}
	algorithm, err := session.config.ImportAlgorithm()
	if err != nil {
		return cli.Validation("%w", err)
	}
	imp, err := importer.New(importer.Config{
		Store:         session.store,
		Attributes:    session.env.Attributes,
		Algorithm:     algorithm,
		MaxSourceSize: session.config.Import.MaxSourceSize,
		Logger:        logger,
	})
	if err != nil {
		return cli.Internal("%w", err)
	}
	paths, err := expandPaths(args, session.store.Root())
	if err != nil {
		return cli.NotFound("%w", err)
	}

	output := importOutput{RunID: imp.RunID().String(), DryRun: params.DryRun}
	var stored []*meta.Record
	if params.DryRun {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return err
			}
			records, strategy, err := imp.Extract(path, explicit)
			if err != nil {
				output.Failures = append(output.Failures, failureOf(path, err))
				continue
			}
			output.Files = append(output.Files, importedFile{Path: path, Strategy: string(strategy), Records: viewsOf(records)})
		}
	} else {
		report, err := imp.ImportAll(ctx, paths, explicit)
		if err != nil {
			return err
		}
		for _, result := range report.Results {
			output.Files = append(output.Files, importedFile{
				Path:     result.Path,
				Strategy: string(result.Strategy),
				Records:  viewsOf(result.Records),
			})
			stored = append(stored, result.Records...)
		}
		for _, failure := range report.Failures {
			output.Failures = append(output.Failures, failureOf(failure.Path, failure.Err))
		}
	}

	if len(stored) > 0 && session.config.Catalog.AutoIndex && !params.NoIndex {
		if err := indexRecords(ctx, session, stored); err != nil {
			// The store is authoritative; a stale catalog is repaired by
			// "kitab catalog rebuild".
			logger.Warn("catalog not updated", "error", err)
		}
	}

	if done, err := params.EmitJSON(session.env.Stdout, output); done {
		if err != nil {
			return err
		}
	} else {
		printImport(session.env, output)
	}

	if len(output.Failures) > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}

func indexRecords(ctx context.Context, session *session, records []*meta.Record) error {
	index, err := session.openCatalog()
	if err != nil {
		return err
	}
	defer index.Close()
	for _, record := range records {
		if err := index.Index(ctx, record); err != nil {
			return err
		}
	}
	session.logger.Debug("indexed imported records", "records", len(records))
	return nil
}

func printImport(env *Env, output importOutput) {
	verb := "stored"
	if output.DryRun {
		verb = "would store"
	}
	total := 0
	for _, file := range output.Files {
		fmt.Fprintf(env.Stdout, "%s (%s): %s %d record(s)\n", file.Path, file.Strategy, verb, len(file.Records))
		for _, record := range file.Records {
			fmt.Fprintf(env.Stdout, "  %s  %s\n", record.Digest, record.Title)
		}
		total += len(file.Records)
	}
	for _, failure := range output.Failures {
		fmt.Fprintf(env.Stderr, "%s: %s\n", failure.Path, failure.Error)
	}
	fmt.Fprintf(env.Stdout, "%d file(s), %d record(s) %s, %d failure(s)\n",
		len(output.Files), total, verb, len(output.Failures))
}
