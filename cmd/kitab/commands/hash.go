// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/digest"
)

type hashParams struct {
	globalParams
	cli.JSONOutput
	Algorithms []string `flag:"algorithm,a" desc:"digest algorithms to compute (default: the import algorithm)"`
}

type hashedFile struct {
	Path    string   `json:"path"`
	Digests []string `json:"digests"`
}

func hashCommand(env *Env) *cli.Command {
	params := &hashParams{globalParams: globalParams{env: env}}
	return &cli.Command{
		Name:    "hash",
		Summary: "Print the digest URNs of files",
		Description: `Compute the digests kitab would key a file under, printed as URNs.
"-" reads standard input. Supported algorithms are sha512, sha256, md5,
and bzz (the Swarm binary Merkle tree hash).`,
		Usage: "kitab hash [flags] <file|->...",
		Examples: []cli.Example{
			{Description: "All candidate digests of a file", Command: "kitab hash -a sha512,sha256,md5,bzz book.pdf"},
		},
		Params: func() any { return params },
		Run: func(ctx context.Context, args []string, _ *slog.Logger) error {
			return runHash(ctx, params, args)
		},
	}
}

func runHash(ctx context.Context, params *hashParams, args []string) error {
	if len(args) == 0 {
		return cli.Validation("hash requires at least one file, or - for standard input")
	}
	loaded, err := params.load()
	if err != nil {
		return cli.Validation("%w", err)
	}

	var algorithms []digest.Algorithm
	if len(params.Algorithms) == 0 {
		algorithm, err := loaded.ImportAlgorithm()
		if err != nil {
			return cli.Validation("%w", err)
		}
		algorithms = []digest.Algorithm{algorithm}
	} else {
		for _, name := range params.Algorithms {
			algorithm, err := digest.ParseAlgorithm(name)
			if err != nil {
				return cli.Validation("--algorithm: %w", err)
			}
			algorithms = append(algorithms, algorithm)
		}
	}

	env := params.env
	var files []hashedFile
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		digests, err := hashArgument(env, path, algorithms)
		if err != nil {
			return classify(err)
		}
		file := hashedFile{Path: path}
		for _, d := range digests {
			file.Digests = append(file.Digests, d.URN())
		}
		files = append(files, file)
	}

	if done, err := params.EmitJSON(env.Stdout, files); done {
		return err
	}
	for _, file := range files {
		for _, urn := range file.Digests {
			fmt.Fprintf(env.Stdout, "%s  %s\n", urn, file.Path)
		}
	}
	return nil
}

func hashArgument(env *Env, path string, algorithms []digest.Algorithm) ([]digest.Digest, error) {
	if path != "-" {
		return digest.HashFileMulti(path, algorithms...)
	}
	content, err := io.ReadAll(env.Stdin)
	if err != nil {
		return nil, fmt.Errorf("reading standard input: %w", err)
	}
	digests := make([]digest.Digest, 0, len(algorithms))
	for _, algorithm := range algorithms {
		d, err := digest.HashReader(bytes.NewReader(content), algorithm)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}
	return digests, nil
}
