// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
)

// Reader folds triples into records. The zero value is ready to use and
// discards diagnostics.
type Reader struct {
	// Logger receives debug messages about ignored predicates. Nil
	// discards them.
	Logger *slog.Logger
}

// ReadAll decodes src and folds its triples into one record per
// contiguous run of statements about the same subject.
func (r *Reader) ReadAll(src io.Reader) ([]*meta.Record, error) {
	return r.fold(NewDecoder(src), false)
}

// Read decodes src, which must describe exactly one subject.
func (r *Reader) Read(src io.Reader) (*meta.Record, error) {
	records, err := r.fold(NewDecoder(src), true)
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// Reconcile folds already-decoded triples. It is ReadAll without the
// text decoding step.
func (r *Reader) Reconcile(triples []Triple) ([]*meta.Record, error) {
	return r.fold(&sliceSource{triples: triples}, false)
}

type tripleSource interface {
	Next() (Triple, error)
}

type sliceSource struct {
	triples []Triple
}

func (s *sliceSource) Next() (Triple, error) {
	if len(s.triples) == 0 {
		return Triple{}, io.EOF
	}
	triple := s.triples[0]
	s.triples = s.triples[1:]
	return triple, nil
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// foldState is the whole state of the reconciliation: the records
// already closed and the one being populated.
type foldState struct {
	closed  []*meta.Record
	current *meta.Record

	// seen holds the digest of every closed record. byBytes maps the hex
	// of every adopted digest to its algorithm.
	seen    map[digest.Digest]bool
	byBytes map[string]digest.Algorithm
}

func (r *Reader) fold(source tripleSource, single bool) ([]*meta.Record, error) {
	logger := r.logger()
	state := foldState{
		current: meta.Empty(),
		seen:    make(map[digest.Digest]bool),
		byBytes: make(map[string]digest.Algorithm),
	}

	for {
		triple, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := state.step(triple, single, logger); err != nil {
			return nil, err
		}
	}

	records := append(state.closed, state.current)
	if records[0].Digest().IsEmpty() {
		return nil, ErrNoRecord
	}
	for _, record := range records {
		if err := record.Check(); err != nil {
			return nil, fmt.Errorf("rdf: %w", err)
		}
	}
	return records, nil
}

func (s *foldState) step(triple Triple, single bool, logger *slog.Logger) error {
	subject, err := DecodeSubject(triple.Subject)
	if err != nil {
		return err
	}

	current := s.current.Digest()
	switch {
	case current.IsEmpty():
		if err := s.adopt(subject); err != nil {
			return err
		}
	case current != subject:
		if single {
			return fmt.Errorf("%w: %s then %s", ErrMultipleSubjects, current, subject)
		}
		s.closed = append(s.closed, s.current)
		s.seen[current] = true
		s.current = meta.Empty()
		if err := s.adopt(subject); err != nil {
			return err
		}
	}

	return apply(s.current, triple, logger)
}

// adopt gives the fresh current record its digest.
func (s *foldState) adopt(subject digest.Digest) error {
	if s.seen[subject] {
		return fmt.Errorf("%w: statements about %s resume after another subject", ErrDigestConflict, subject)
	}
	hex := subject.Hex()
	if algorithm, ok := s.byBytes[hex]; ok && algorithm != subject.Algorithm() {
		return fmt.Errorf("%w: digest bytes %s appear as both %s and %s", ErrDigestConflict, hex, algorithm, subject.Algorithm())
	}
	if err := s.current.SetDigest(subject); err != nil {
		return fmt.Errorf("%w: %w", ErrDigestConflict, err)
	}
	s.byBytes[hex] = subject.Algorithm()
	return nil
}

func apply(record *meta.Record, triple Triple, logger *slog.Logger) error {
	value := triple.Object
	switch lookupPredicate(triple.Predicate) {
	case fieldTitle:
		record.SetTitle(value)
	case fieldCreator:
		record.SetAuthor(value)
	case fieldType:
		record.SetType(meta.ParseWorkType(value))
	case fieldSubject:
		if existing := record.Subject(); existing != "" {
			value = existing + ", " + value
		}
		record.SetSubject(value)
	case fieldMediaType:
		if err := record.SetMediaType(value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidObject, triple.Subject, err)
		}
	case fieldLanguage:
		if err := record.SetLanguage(value); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidObject, triple.Subject, err)
		}
	default:
		logger.Debug("ignoring unknown predicate",
			"subject", triple.Subject,
			"predicate", triple.Predicate,
		)
	}
	return nil
}
