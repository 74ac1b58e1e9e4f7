// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/archive"
)

type exportParams struct {
	globalParams
	Output   string `flag:"output,o" desc:"archive file, or - for standard output" default:"-"`
	Compress string `flag:"compress" desc:"none, lz4, or zstd (default: from the output name)"`
}

func exportCommand(env *Env) *cli.Command {
	params := &exportParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "export",
		Summary: "Write the whole store as one Turtle archive",
		Description: `Write every stored record to a single Turtle document, optionally
compressed with zstd or LZ4. The compression defaults to zstd for names
ending in .zst and LZ4 for names ending in .lz4.`,
		Usage: "kitab export [flags]",
		Examples: []cli.Example{
			{Description: "Back up the store", Command: "kitab export -o library.ttl.zst"},
			{Description: "Print the store as Turtle", Command: "kitab export"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 0 {
				return cli.Validation("export takes no arguments (use --output)")
			}
			return runExport(ctx, params, logger)
		},
	}
}

// compressionFor resolves --compress, inferring it from the output name
// when unset.
func compressionFor(name, output string) (archive.Compression, error) {
	if name == "" {
		switch {
		case strings.HasSuffix(output, ".zst"):
			return archive.CompressionZstd, nil
		case strings.HasSuffix(output, ".lz4"):
			return archive.CompressionLZ4, nil
		default:
			return archive.CompressionNone, nil
		}
	}
	return archive.ParseCompression(name)
}

func runExport(ctx context.Context, params *exportParams, logger *slog.Logger) (err error) {
	compression, err := compressionFor(params.Compress, params.Output)
	if err != nil {
		return cli.Validation("--compress: %w", err)
	}
	session, err := params.open(logger)
	if err != nil {
		return err
	}
	exporter, err := archive.New(archive.Config{Store: session.store, Logger: logger})
	if err != nil {
		return cli.Internal("%w", err)
	}

	if params.Output == "-" {
		if _, err := exporter.Export(ctx, session.env.Stdout, compression); err != nil {
			return classify(err)
		}
		return nil
	}

	// Write beside the destination and rename, so an interrupted export
	// never leaves a truncated archive under the requested name.
	file, err := os.CreateTemp(filepath.Dir(params.Output), ".kitab-export-*")
	if err != nil {
		return cli.Internal("%w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(file.Name())
		}
	}()
	summary, err := exporter.Export(ctx, file, compression)
	if err != nil {
		return classify(err)
	}
	if err = file.Close(); err != nil {
		return cli.Internal("%w", err)
	}
	if err = os.Rename(file.Name(), params.Output); err != nil {
		return cli.Internal("%w", err)
	}
	fmt.Fprintf(session.env.Stdout, "exported %d record(s) to %s (%s)\n", summary.Records, params.Output, summary.Compression)
	return nil
}

type restoreParams struct {
	globalParams
	cli.JSONOutput
	NoIndex bool `flag:"no-index" desc:"do not rebuild the catalog after restoring"`
}

type restoreOutput struct {
	Source      string `json:"source"`
	Records     int    `json:"records"`
	Compression string `json:"compression"`
}

func restoreCommand(env *Env) *cli.Command {
	params := &restoreParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "restore",
		Summary: "Load an exported archive into the store",
		Description: `Read an archive written by "kitab export" and store every record in
it. The compression is detected from the archive itself. The archive is
checked in full before anything is written, so a damaged archive leaves
the store untouched. "-" reads standard input.`,
		Usage: "kitab restore [flags] <archive|->",
		Examples: []cli.Example{
			{Description: "Restore a backup into a new store", Command: "kitab restore --store /srv/kitab/idx library.ttl.zst"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("restore requires exactly one archive, or - for standard input")
			}
			return runRestore(ctx, params, args[0], logger)
		},
	}
}

func runRestore(ctx context.Context, params *restoreParams, source string, logger *slog.Logger) error {
	session, err := params.open(logger)
	if err != nil {
		return err
	}

	var input io.Reader = session.env.Stdin
	if source != "-" {
		file, err := os.Open(source)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return cli.NotFound("%w", err)
			}
			return cli.Internal("%w", err)
		}
		defer file.Close()
		input = file
	}

	restorer, err := archive.New(archive.Config{Store: session.store, Logger: logger})
	if err != nil {
		return cli.Internal("%w", err)
	}
	summary, err := restorer.Restore(ctx, input, source)
	if err != nil {
		return classify(err)
	}

	if summary.Records > 0 && session.config.Catalog.AutoIndex && !params.NoIndex {
		if err := rebuildCatalog(ctx, session); err != nil {
			logger.Warn("catalog not rebuilt", "error", err)
		}
	}

	output := restoreOutput{Source: source, Records: summary.Records, Compression: summary.Compression.String()}
	if done, err := params.EmitJSON(session.env.Stdout, output); done {
		return err
	}
	fmt.Fprintf(session.env.Stdout, "restored %d record(s) from %s (%s)\n", output.Records, source, output.Compression)
	return nil
}
