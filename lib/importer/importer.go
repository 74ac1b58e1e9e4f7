// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/nolash/kitab/lib/biblio"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/rdf"
	"github.com/nolash/kitab/lib/store"
	"github.com/nolash/kitab/lib/xattr"
)

var (
	// ErrUnparseable means a strategy could not read the source. It is
	// handled by moving on to the next strategy.
	ErrUnparseable = errors.New("importer: unparseable source")

	// ErrUnsupportedSource is returned when no strategy could read a
	// file. It matches ErrUnparseable.
	ErrUnsupportedSource = fmt.Errorf("importer: no import strategy applies: %w", ErrUnparseable)

	// ErrDigestConflict means two records of one file claim the same
	// store key, or a record batch contradicts itself about digests.
	ErrDigestConflict = rdf.ErrDigestConflict

	// ErrNoDigest means a bibliography entry has no digest in its note
	// and none was supplied explicitly.
	ErrNoDigest = errors.New("importer: no digest available for entry")

	// ErrAmbiguousExplicitDigest means explicit digests were supplied
	// for a bibliography holding more than one entry.
	ErrAmbiguousExplicitDigest = errors.New("importer: explicit digests cannot apply to multiple entries")
)

// Strategy names the way a file's records were obtained.
type Strategy string

const (
	StrategyAttribute    Strategy = "xattr"
	StrategyRecord       Strategy = "rdf"
	StrategyBibliography Strategy = "biblatex"
)

// DefaultMaxSourceSize bounds the files the record and bibliography
// strategies will parse.
const DefaultMaxSourceSize = 16 << 20

// Writer persists the records of one file as a unit: all of them or,
// on error, none. *store.Store implements it.
type Writer interface {
	WriteAll(records []*meta.Record, origin store.Origin) error
}

// Config configures an Importer.
type Config struct {
	// Store receives every imported record. Required.
	Store Writer
	// Attributes reads extended attributes. Nil uses xattr.FS.
	Attributes xattr.Attributes
	// Algorithm hashes files for the attribute strategy. Zero means
	// SHA-512.
	Algorithm digest.Algorithm
	// MaxSourceSize is the largest file the record and bibliography
	// strategies will parse. Zero means DefaultMaxSourceSize.
	MaxSourceSize int64
	// RunID tags the provenance of every record this importer writes.
	// The zero UUID draws a random one.
	RunID uuid.UUID
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Importer runs the strategy pipeline.
type Importer struct {
	store         Writer
	attributes    xattr.Attributes
	algorithm     digest.Algorithm
	maxSourceSize int64
	runID         uuid.UUID
	logger        *slog.Logger
	reader        *rdf.Reader
}

// New validates config and returns an Importer.
func New(config Config) (*Importer, error) {
	if config.Store == nil {
		return nil, errors.New("importer: Store is required")
	}
	if config.Attributes == nil {
		config.Attributes = xattr.FS{}
	}
	if config.Algorithm == digest.AlgorithmNone {
		config.Algorithm = digest.SHA512
	}
	if config.MaxSourceSize <= 0 {
		config.MaxSourceSize = DefaultMaxSourceSize
	}
	if config.RunID == uuid.Nil {
		config.RunID = uuid.New()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Importer{
		store:         config.Store,
		attributes:    config.Attributes,
		algorithm:     config.Algorithm,
		maxSourceSize: config.MaxSourceSize,
		runID:         config.RunID,
		logger:        config.Logger,
		reader:        &rdf.Reader{Logger: config.Logger},
	}, nil
}

// RunID returns the identifier stamped on this importer's writes.
func (i *Importer) RunID() uuid.UUID {
	return i.runID
}

// Result describes one successfully imported file.
type Result struct {
	Path     string
	Strategy Strategy
	Records  []*meta.Record
}

// Import reads path, validates everything it yields, and writes the
// records to the store. explicit digests apply to the bibliography
// strategy only.
func (i *Importer) Import(path string, explicit []digest.Digest) (*Result, error) {
	records, strategy, err := i.Extract(path, explicit)
	if err != nil {
		return nil, err
	}

	origin := store.Origin{Strategy: string(strategy), Source: path, RunID: i.runID}
	if err := i.store.WriteAll(records, origin); err != nil {
		return nil, fmt.Errorf("importer: %s: %w", path, err)
	}
	i.logger.Info("imported file",
		"path", path,
		"strategy", strategy,
		"records", len(records),
	)
	return &Result{Path: path, Strategy: strategy, Records: records}, nil
}

// Extract runs the strategies and the validation gate without writing
// anything.
func (i *Importer) Extract(path string, explicit []digest.Digest) ([]*meta.Record, Strategy, error) {
	var skipped []error

	records, ok, err := i.fromAttributes(path, explicit)
	if err != nil {
		return nil, "", err
	}
	if ok {
		return i.admit(path, StrategyAttribute, records)
	}

	content, err := i.readSource(path)
	if errors.Is(err, ErrUnparseable) {
		return nil, "", fmt.Errorf("%w: %s: %w", ErrUnsupportedSource, path, err)
	}
	if err != nil {
		return nil, "", err
	}

	records, err = i.fromRecords(path, content, explicit)
	switch {
	case errors.Is(err, ErrUnparseable):
		i.logger.Debug("not a record batch", "path", path, "error", err)
		skipped = append(skipped, err)
	case err != nil:
		return nil, "", err
	default:
		return i.admit(path, StrategyRecord, records)
	}

	records, err = i.fromBibliography(path, content, explicit)
	switch {
	case errors.Is(err, ErrUnparseable):
		i.logger.Debug("not a bibliography", "path", path, "error", err)
		skipped = append(skipped, err)
	case err != nil:
		return nil, "", err
	default:
		return i.admit(path, StrategyBibliography, records)
	}

	return nil, "", fmt.Errorf("%w: %s: %w", ErrUnsupportedSource, path, errors.Join(skipped...))
}

// admit is the validation gate. Every record must pass validation and
// map to its own store key before any is written.
func (i *Importer) admit(path string, strategy Strategy, records []*meta.Record) ([]*meta.Record, Strategy, error) {
	keys := make(map[string]digest.Digest, len(records))
	for _, record := range records {
		if err := record.Check(); err != nil {
			return nil, "", fmt.Errorf("importer: %s (%s): %w", path, strategy, err)
		}
		key := record.Fingerprint()
		if previous, ok := keys[key]; ok {
			return nil, "", fmt.Errorf("%w: %s (%s): %s and %s share store key %s",
				ErrDigestConflict, path, strategy, previous, record.Digest(), key)
		}
		keys[key] = record.Digest()
	}
	return records, strategy, nil
}

func (i *Importer) fromAttributes(path string, explicit []digest.Digest) ([]*meta.Record, bool, error) {
	record, ok, err := xattr.Read(i.attributes, path)
	if err != nil {
		return nil, false, fmt.Errorf("importer: %s: %w", path, err)
	}
	if !ok {
		return nil, false, nil
	}

	d, err := digest.HashFile(path, i.algorithm)
	if err != nil {
		return nil, false, fmt.Errorf("importer: %w", err)
	}
	if err := record.SetDigest(d); err != nil {
		return nil, false, fmt.Errorf("importer: %s: %w", path, err)
	}
	record.SetLocalName(filepath.Base(path))
	if len(explicit) > 0 {
		i.logger.Warn("ignoring explicit digests for a file with metadata attributes",
			"path", path,
			"digest", d.URN(),
		)
	}
	return []*meta.Record{record}, true, nil
}

// readSource loads a file for the parsing strategies. Files that are
// too large or are not regular files are unparseable.
func (i *Importer) readSource(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("importer: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: not a regular file", ErrUnparseable)
	}
	if info.Size() > i.maxSourceSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte parse limit", ErrUnparseable, info.Size(), i.maxSourceSize)
	}
	content, err := io.ReadAll(io.LimitReader(file, i.maxSourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("importer: reading %s: %w", path, err)
	}
	return content, nil
}

func (i *Importer) fromRecords(path string, content []byte, explicit []digest.Digest) ([]*meta.Record, error) {
	records, err := i.reader.ReadAll(bytes.NewReader(content))
	switch {
	case errors.Is(err, rdf.ErrSyntax), errors.Is(err, rdf.ErrNoRecord), errors.Is(err, rdf.ErrMalformedSubject):
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	case err != nil:
		return nil, fmt.Errorf("importer: %s (%s): %w", path, StrategyRecord, err)
	}
	if len(explicit) > 0 {
		i.logger.Warn("ignoring explicit digests for a record batch", "path", path)
	}
	return records, nil
}

func (i *Importer) fromBibliography(path string, content []byte, explicit []digest.Digest) ([]*meta.Record, error) {
	entries, err := biblio.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparseable, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no bibliography entries", ErrUnparseable)
	}
	if len(explicit) > 0 && len(entries) > 1 {
		return nil, fmt.Errorf("%w: %s has %d entries", ErrAmbiguousExplicitDigest, path, len(entries))
	}

	var records []*meta.Record
	for _, entry := range entries {
		digests, err := entry.NoteDigests()
		if err != nil {
			return nil, fmt.Errorf("importer: %s: %w", path, err)
		}
		digests = union(digests, explicit)
		if len(digests) == 0 {
			return nil, fmt.Errorf("%w: %s entry %q", ErrNoDigest, path, entry.Key)
		}
		for _, d := range digests {
			record, err := entry.Record(d)
			if err != nil {
				return nil, fmt.Errorf("importer: %s: %w", path, err)
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// union appends the digests of extra that are not already in base.
func union(base, extra []digest.Digest) []digest.Digest {
	result := append([]digest.Digest(nil), base...)
	for _, d := range extra {
		if d.IsEmpty() || containsDigest(result, d) {
			continue
		}
		result = append(result, d)
	}
	return result
}

func containsDigest(digests []digest.Digest, d digest.Digest) bool {
	for _, existing := range digests {
		if existing == d {
			return true
		}
	}
	return false
}

// Failure records a file that could not be imported.
type Failure struct {
	Path string
	Err  error
}

// Report summarizes an ImportAll run.
type Report struct {
	Results  []*Result
	Failures []Failure
}

// Stored counts the records written.
func (r *Report) Stored() int {
	count := 0
	for _, result := range r.Results {
		count += len(result.Records)
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

// ImportAll imports each path independently. A failing file is recorded
// in the report and does not stop the others. Cancelling ctx stops
// before the next file.
func (i *Importer) ImportAll(ctx context.Context, paths []string, explicit []digest.Digest) (*Report, error) {
	report := &Report{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		result, err := i.Import(path, explicit)
		if err != nil {
			i.logger.Warn("import failed", "path", path, "error", err)
			report.Failures = append(report.Failures, Failure{Path: path, Err: err})
			continue
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}
