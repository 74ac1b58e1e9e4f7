// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/xattr"
)

// DefaultAlgorithms are tried when Config.Algorithms is empty, in order.
var DefaultAlgorithms = []digest.Algorithm{digest.SHA512, digest.SHA256, digest.MD5, digest.Bzz}

// Source is the read side of the store. *store.Store implements it.
type Source interface {
	Lookup(key string) ([]byte, bool, error)
	Read(key string) (*meta.Record, error)
}

// Config configures an Applier.
type Config struct {
	// Store is consulted for every candidate digest. Required.
	Store Source
	// Attributes receives the record. Nil uses xattr.FS.
	Attributes xattr.Attributes
	// Algorithms are the candidate digests computed for each file, in
	// lookup order.
	Algorithms []digest.Algorithm
	// DryRun looks records up without writing attributes.
	DryRun bool
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Applier runs the apply flow.
type Applier struct {
	store      Source
	attributes xattr.Attributes
	algorithms []digest.Algorithm
	dryRun     bool
	logger     *slog.Logger
}

// New validates config and returns an Applier.
func New(config Config) (*Applier, error) {
	if config.Store == nil {
		return nil, errors.New("apply: Store is required")
	}
	if config.Attributes == nil {
		config.Attributes = xattr.FS{}
	}
	if len(config.Algorithms) == 0 {
		config.Algorithms = DefaultAlgorithms
	}
	for _, algorithm := range config.Algorithms {
		if algorithm == digest.AlgorithmNone {
			return nil, errors.New("apply: algorithm list contains the empty algorithm")
		}
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Applier{
		store:      config.Store,
		attributes: config.Attributes,
		algorithms: append([]digest.Algorithm(nil), config.Algorithms...),
		dryRun:     config.DryRun,
		logger:     config.Logger,
	}, nil
}

// Result describes one file. Record is nil when no candidate digest was
// found in the store.
type Result struct {
	Path   string
	Digest digest.Digest
	Record *meta.Record
	// Written is false for misses and dry runs.
	Written bool
}

// Hit reports whether the store had a record for the file.
func (r *Result) Hit() bool {
	return r.Record != nil
}

// Apply hashes path, finds the first candidate digest the store holds,
// and writes that record's attributes to path.
func (a *Applier) Apply(path string) (*Result, error) {
	candidates, err := digest.HashFileMulti(path, a.algorithms...)
	if err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	result := &Result{Path: path}
	for _, candidate := range candidates {
		_, ok, err := a.store.Lookup(candidate.Hex())
		if err != nil {
			return nil, fmt.Errorf("apply: %s: %w", path, err)
		}
		if !ok {
			a.logger.Debug("no record for candidate", "path", path, "digest", candidate.URN())
			continue
		}
		record, err := a.store.Read(candidate.Hex())
		if err != nil {
			return nil, fmt.Errorf("apply: %s: %w", path, err)
		}
		result.Digest = candidate
		result.Record = record
		break
	}

	if !result.Hit() {
		a.logger.Info("no stored record", "path", path)
		return result, nil
	}
	if a.dryRun {
		a.logger.Info("would apply record", "path", path, "digest", result.Digest.URN())
		return result, nil
	}
	if err := xattr.Write(a.attributes, path, result.Record); err != nil {
		return nil, fmt.Errorf("apply: %s: %w", path, err)
	}
	result.Written = true
	a.logger.Info("applied record",
		"path", path,
		"digest", result.Digest.URN(),
		"title", result.Record.Title(),
	)
	return result, nil
}

// Failure records a file that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes an ApplyAll run.
type Report struct {
	Results  []*Result
	Failures []Failure
}

// Hits counts the files that matched a stored record.
func (r *Report) Hits() int {
	count := 0
	for _, result := range r.Results {
		if result.Hit() {
			count++
		}
	}
	return count
}

// Err joins every per-file failure, or returns nil.
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for index, failure := range r.Failures {
		errs[index] = failure.Err
	}
	return errors.Join(errs...)
}

// ApplyAll applies each path independently. Cancelling ctx stops before
// the next file.
func (a *Applier) ApplyAll(ctx context.Context, paths []string) (*Report, error) {
	report := &Report{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := a.Apply(path)
		if err != nil {
			a.logger.Warn("apply failed", "path", path, "error", err)
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}
