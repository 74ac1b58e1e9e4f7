// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/apply"
	"github.com/nolash/kitab/lib/codec"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/rdf"
	"github.com/nolash/kitab/lib/store"
)

type showParams struct {
	globalParams
	cli.JSONOutput
	Provenance bool `flag:"provenance,p" desc:"include how and when the record was stored"`
	Diagnostic bool `flag:"diagnostic" desc:"print provenance in CBOR diagnostic notation"`
}

type provenanceView struct {
	StoredAt time.Time `json:"stored_at"`
	Strategy string    `json:"strategy,omitempty"`
	Source   string    `json:"source,omitempty"`
	RunID    string    `json:"run_id"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
}

type showOutput struct {
	recordView
	Provenance *provenanceView `json:"provenance,omitempty"`
}

func showCommand(env *Env) *cli.Command {
	params := &showParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "show",
		Summary: "Print the stored record for a digest or a file",
		Description: `Print a stored record as Turtle. The argument is a digest URN
("sha256:..."), a bare store key, or a file, which is hashed with the
configured apply algorithms.`,
		Usage: "kitab show [flags] <digest|key|file>",
		Examples: []cli.Example{
			{Description: "Show the record for a file", Command: "kitab show book.pdf"},
			{Description: "Show where a record came from", Command: "kitab show --provenance --json md5:00112233445566778899aabbccddeeff"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return cli.Validation("show requires exactly one digest, key, or file")
			}
			session, err := params.open(logger)
			if err != nil {
				return err
			}
			key, err := resolveKey(session, args[0])
			if err != nil {
				return err
			}
			return runShow(session, params, key)
		},
	}
}

// resolveKey turns a digest URN, store key, or file path into a key the
// store holds.
func resolveKey(session *session, arg string) (string, error) {
	if parsed, err := digest.ParseURN(arg); err == nil && !parsed.IsEmpty() {
		return parsed.Hex(), nil
	}
	if key, ok := keyFromHex(arg); ok {
		return key, nil
	}
	if _, err := os.Stat(arg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", cli.Validation("%q is neither a digest, a store key, nor a file", arg)
		}
		return "", cli.Internal("%w", err)
	}

	algorithms, err := session.config.ApplyAlgorithms()
	if err != nil {
		return "", cli.Validation("%w", err)
	}
	finder, err := apply.New(apply.Config{
		Store:      session.store,
		Attributes: session.env.Attributes,
		Algorithms: algorithms,
		DryRun:     true,
		Logger:     session.logger,
	})
	if err != nil {
		return "", cli.Internal("%w", err)
	}
	result, err := finder.Apply(arg)
	if err != nil {
		return "", classify(err)
	}
	if !result.Hit() {
		return "", cli.NotFound("no stored record for %s", arg)
	}
	return result.Digest.Hex(), nil
}

// keyFromHex accepts a bare digest in hex of either case and returns
// its store key.
func keyFromHex(arg string) (string, bool) {
	for _, algorithm := range digest.Algorithms {
		if len(arg) != 2*algorithm.Size() {
			continue
		}
		if d, err := digest.ParseHex(algorithm, arg); err == nil {
			return d.Hex(), true
		}
	}
	return "", false
}

func runShow(session *session, params *showParams, key string) error {
	record, err := session.store.Read(key)
	if err != nil {
		return classify(err)
	}

	var provenance *store.Provenance
	if params.Provenance || params.Diagnostic {
		provenance, err = session.store.Provenance(key)
		if errors.Is(err, store.ErrNoProvenance) {
			session.logger.Warn("record has no provenance", "key", key)
		} else if err != nil {
			return cli.Internal("%w", err)
		}
	}

	output := showOutput{recordView: viewOf(record)}
	if provenance != nil {
		output.Provenance = &provenanceView{
			StoredAt: provenance.StoredAt,
			Strategy: provenance.Strategy,
			Source:   provenance.Source,
			RunID:    provenance.RunID.String(),
			Checksum: fmt.Sprintf("%x", provenance.Checksum),
			Size:     provenance.Size,
		}
	}
	if done, err := params.EmitJSON(session.env.Stdout, output); done {
		return err
	}

	stdout := session.env.Stdout
	if err := rdf.Write(stdout, record); err != nil {
		return cli.Internal("%w", err)
	}
	if provenance == nil {
		return nil
	}
	fmt.Fprintln(stdout)
	if params.Diagnostic {
		return printDiagnostic(session, provenance)
	}
	printProvenance(session, output.Provenance)
	return nil
}

func printProvenance(session *session, view *provenanceView) {
	stdout := session.env.Stdout
	fmt.Fprintf(stdout, "# stored:   %s\n", view.StoredAt.UTC().Format(time.RFC3339))
	if view.Strategy != "" {
		fmt.Fprintf(stdout, "# strategy: %s\n", view.Strategy)
	}
	if view.Source != "" {
		fmt.Fprintf(stdout, "# source:   %s\n", view.Source)
	}
	fmt.Fprintf(stdout, "# run:      %s\n", view.RunID)
	fmt.Fprintf(stdout, "# checksum: blake3:%s (%d bytes)\n", view.Checksum, view.Size)
}

func printDiagnostic(session *session, provenance *store.Provenance) error {
	encoded, err := codec.Marshal(provenance)
	if err != nil {
		return cli.Internal("%w", err)
	}
	notation, err := codec.Diagnose(encoded)
	if err != nil {
		return cli.Internal("%w", err)
	}
	fmt.Fprintln(session.env.Stdout, notation)
	return nil
}
