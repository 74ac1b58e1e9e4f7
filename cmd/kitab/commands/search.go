// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/catalog"
	"github.com/nolash/kitab/lib/meta"
)

type searchParams struct {
	globalParams
	cli.JSONOutput
	Title    string `flag:"title,t" desc:"title contains"`
	Author   string `flag:"author" desc:"author contains"`
	Subject  string `flag:"subject" desc:"subject contains"`
	Language string `flag:"language,l" desc:"language tag or its primary language"`
	Type     string `flag:"type" desc:"work type (book, article, ...)"`
	Limit    int    `flag:"limit" desc:"maximum results (0 for all)" default:"20"`
}

func searchCommand(env *Env) *cli.Command {
	params := &searchParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "search",
		Summary: "Search the catalog",
		Description: `Search the catalog of stored records. Field flags match case- and
accent-insensitively. Words given as arguments are ranked against title,
author, and subject, best match first.`,
		Usage: "kitab search [flags] [word...]",
		Examples: []cli.Example{
			{Description: "German books about economics", Command: "kitab search --language de --type book Ökonomie"},
			{Description: "Everything by an author", Command: "kitab search --author smith --limit 0"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			return runSearch(ctx, params, args, logger)
		},
	}
}

func runSearch(ctx context.Context, params *searchParams, args []string, logger *slog.Logger) error {
	if params.Limit < 0 {
		return cli.Validation("--limit must not be negative")
	}
	session, err := params.open(logger)
	if err != nil {
		return err
	}
	index, err := session.openCatalog()
	if err != nil {
		return err
	}
	defer index.Close()

	query := catalog.Query{
		Title:    params.Title,
		Author:   params.Author,
		Subject:  params.Subject,
		Language: params.Language,
		Text:     strings.Join(args, " "),
		Limit:    params.Limit,
	}
	if params.Type != "" {
		query.Type = meta.ParseWorkType(params.Type)
	}
	entries, err := index.Search(ctx, query)
	if err != nil {
		return cli.Internal("%w", err)
	}

	if done, err := params.EmitJSON(session.env.Stdout, entries); done {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(session.env.Stdout, "no matching records")
		return nil
	}
	tw := tabwriter.NewWriter(session.env.Stdout, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TITLE\tAUTHOR\tTYPE\tLANGUAGE\tDIGEST")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", entry.Title, entry.Author, entry.Type, entry.Language, entry.Digest.URN())
	}
	return tw.Flush()
}

type catalogParams struct {
	globalParams
	cli.JSONOutput
}

type rebuildOutput struct {
	Indexed int      `json:"indexed"`
	Skipped []string `json:"skipped"`
}

func catalogCommand(env *Env) *cli.Command {
	params := &catalogParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "catalog",
		Summary: "Maintain the search catalog",
		Subcommands: []*cli.Command{
			{
				Name:    "rebuild",
				Summary: "Rebuild the catalog from the store",
				Description: `Replace the catalog with an index of every record in the store.
Records that cannot be read are skipped and listed.`,
				Usage:  "kitab catalog rebuild [flags]",
				Params: func() any { return params },
				Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
					session, err := params.open(logger)
					if err != nil {
						return err
					}
					index, err := session.openCatalog()
					if err != nil {
						return err
					}
					defer index.Close()
					summary, err := index.Rebuild(ctx, session.store)
					if err != nil {
						return cli.Internal("%w", err)
					}
					output := rebuildOutput{Indexed: summary.Indexed, Skipped: summary.Skipped}
					if done, err := params.EmitJSON(session.env.Stdout, output); done {
						return err
					}
					for _, key := range output.Skipped {
						fmt.Fprintf(session.env.Stderr, "skipped %s\n", key)
					}
					fmt.Fprintf(session.env.Stdout, "indexed %d record(s), skipped %d\n", output.Indexed, len(output.Skipped))
					return nil
				},
			},
			{
				Name:    "count",
				Summary: "Print the number of indexed records",
				Usage:   "kitab catalog count [flags]",
				Params:  func() any { return params },
				Run: func(ctx context.Context, _ []string, logger *slog.Logger) error {
					session, err := params.open(logger)
					if err != nil {
						return err
					}
					index, err := session.openCatalog()
					if err != nil {
						return err
					}
					defer index.Close()
					count, err := index.Count(ctx)
					if err != nil {
						return cli.Internal("%w", err)
					}
					if done, err := params.EmitJSON(session.env.Stdout, map[string]int{"count": count}); done {
						return err
					}
					fmt.Fprintln(session.env.Stdout, count)
					return nil
				},
			},
		},
	}
}

// rebuildCatalog replaces the catalog with the store's current records.
func rebuildCatalog(ctx context.Context, session *session) error {
	index, err := session.openCatalog()
	if err != nil {
		return err
	}
	defer index.Close()
	summary, err := index.Rebuild(ctx, session.store)
	if err != nil {
		return err
	}
	session.logger.Debug("rebuilt catalog", "indexed", summary.Indexed, "skipped", len(summary.Skipped))
	return nil
}
