// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/nolash/kitab/lib/clock"
	"github.com/nolash/kitab/lib/codec"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/rdf"
)

const provenanceDir = ".provenance"

var (
	// ErrInvalidKey is returned for keys that are not the lowercase hex
	// of a digest.
	ErrInvalidKey = errors.New("store: invalid key")

	// ErrNotFound is returned when no record exists under a key.
	ErrNotFound = errors.New("store: no record for key")

	// ErrNoDigest is returned when writing a record without a digest.
	ErrNoDigest = errors.New("store: record has no digest")

	// ErrNoProvenance is returned when a record has no sidecar.
	ErrNoProvenance = errors.New("store: no provenance for key")

	// ErrChecksumMismatch means the record bytes no longer match the
	// checksum recorded when they were written.
	ErrChecksumMismatch = errors.New("store: checksum mismatch")

	// ErrKeyMismatch means the record stored under a key describes a
	// different digest.
	ErrKeyMismatch = errors.New("store: record digest does not match key")
)

// Origin describes where a written record came from. The zero value is
// valid and records nothing.
type Origin struct {
	// Strategy names the import strategy, such as "xattr", "rdf",
	// "biblatex", or "restore".
	Strategy string
	// Source is the path the record was read from.
	Source string
	// RunID groups every record written by one command invocation.
	RunID uuid.UUID
}

// Provenance is the content of a sidecar file.
type Provenance struct {
	Digest   digest.Digest `cbor:"digest"`
	Key      string        `cbor:"key"`
	Checksum []byte        `cbor:"checksum"`
	Size     int64         `cbor:"size"`
	StoredAt time.Time     `cbor:"stored_at"`
	Strategy string        `cbor:"strategy,omitempty"`
	Source   string        `cbor:"source,omitempty"`
	RunID    uuid.UUID     `cbor:"run_id"`
}

// Config configures a Store.
type Config struct {
	// Root is the store directory. It is created if missing.
	Root string
	// Clock stamps provenance. Nil uses the real clock.
	Clock clock.Clock
	// Logger receives debug messages. Nil discards them.
	Logger *slog.Logger
}

// Store is a directory of records keyed by digest.
type Store struct {
	root   string
	clock  clock.Clock
	logger *slog.Logger
	reader *rdf.Reader
}

// New opens the store at config.Root, creating the directory tree if
// needed.
func New(config Config) (*Store, error) {
	if config.Root == "" {
		return nil, errors.New("store: root directory is required")
	}
	if err := os.MkdirAll(filepath.Join(config.Root, provenanceDir), 0o755); err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", config.Root, err)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Store{
		root:   config.Root,
		clock:  config.Clock,
		logger: config.Logger,
		reader: &rdf.Reader{Logger: config.Logger},
	}, nil
}

// Root returns the store directory.
func (s *Store) Root() string {
	return s.root
}

// ValidateKey checks that key is the lowercase hex of a digest of one of
// the supported sizes.
func ValidateKey(key string) error {
	sizeMatches := false
	for _, algorithm := range digest.Algorithms {
		if len(key) == 2*algorithm.Size() {
			sizeMatches = true
			break
		}
	}
	if !sizeMatches {
		return fmt.Errorf("%w %q: wrong length", ErrInvalidKey, key)
	}
	for index := 0; index < len(key); index++ {
		c := key[index]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w %q: not lowercase hex", ErrInvalidKey, key)
		}
	}
	return nil
}

// Write stores record under its digest's hex key.
func (s *Store) Write(record *meta.Record) error {
	return s.WriteFrom(record, Origin{})
}

// WriteFrom stores record and a provenance sidecar naming its origin.
// The record must have a digest and pass validation.
func (s *Store) WriteFrom(record *meta.Record, origin Origin) error {
	return s.WriteAll([]*meta.Record{record}, origin)
}

// WriteAll stores records and their sidecars as one unit. Every record
// is validated and every file staged before the first one is renamed
// into place. If anything fails, the keys the call touched are put back
// to what they held before and the error is returned.
func (s *Store) WriteAll(records []*meta.Record, origin Origin) error {
	for _, record := range records {
		if record.Digest().IsEmpty() {
			return fmt.Errorf("%w: %s", ErrNoDigest, record)
		}
		if err := record.Check(); err != nil {
			return fmt.Errorf("store: %w", err)
		}
	}

	var files []*stagedFile
	defer func() {
		for _, file := range files {
			if !file.committed {
				os.Remove(file.tmpPath)
			}
		}
	}()
	for _, record := range records {
		var err error
		if files, err = s.stage(files, record, origin); err != nil {
			return err
		}
	}

	for index, file := range files {
		if err := file.commit(); err != nil {
			s.rollback(files[:index])
			return err
		}
	}

	for _, record := range records {
		s.logger.Debug("stored record",
			"key", record.Fingerprint(),
			"digest", record.Digest().URN(),
			"strategy", origin.Strategy,
			"source", origin.Source,
		)
	}
	return nil
}

// stage writes record and its sidecar to temporary files, appending
// them to files as they are created.
func (s *Store) stage(files []*stagedFile, record *meta.Record, origin Origin) ([]*stagedFile, error) {
	var buffer bytes.Buffer
	if err := rdf.Write(&buffer, record); err != nil {
		return files, fmt.Errorf("store: serializing %s: %w", record.Digest(), err)
	}
	data := buffer.Bytes()
	key := record.Fingerprint()

	recordFile, err := stageFile(s.root, s.recordPath(key), data)
	if err != nil {
		return files, err
	}
	files = append(files, recordFile)

	checksum := blake3.Sum256(data)
	provenance := Provenance{
		Digest:   record.Digest(),
		Key:      key,
		Checksum: checksum[:],
		Size:     int64(len(data)),
		StoredAt: s.clock.Now().UTC(),
		Strategy: origin.Strategy,
		Source:   origin.Source,
		RunID:    origin.RunID,
	}
	encoded, err := codec.Marshal(provenance)
	if err != nil {
		return files, fmt.Errorf("store: encoding provenance for %s: %w", key, err)
	}
	provenanceFile, err := stageFile(filepath.Join(s.root, provenanceDir), s.provenancePath(key), encoded)
	if err != nil {
		return files, err
	}
	return append(files, provenanceFile), nil
}

// rollback undoes committed files in reverse order, restoring previous
// contents or removing files that did not exist before.
func (s *Store) rollback(committed []*stagedFile) {
	for index := len(committed) - 1; index >= 0; index-- {
		file := committed[index]
		var err error
		if file.existed {
			err = writeAtomic(filepath.Dir(file.finalPath), file.finalPath, file.previous)
		} else {
			err = os.Remove(file.finalPath)
		}
		if err != nil {
			s.logger.Warn("restoring store entry failed",
				"path", file.finalPath,
				"error", err,
			)
		}
	}
}

// Lookup returns the serialized record stored under key. ok is false
// when there is none.
func (s *Store) Lookup(key string) ([]byte, bool, error) {
	if err := ValidateKey(key); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(s.recordPath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: reading %s: %w", key, err)
	}
	return data, true, nil
}

// Read deserializes the record stored under key.
func (s *Store) Read(key string) (*meta.Record, error) {
	data, ok, err := s.Lookup(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrNotFound, key)
	}
	record, err := s.reader.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store: decoding %s: %w", key, err)
	}
	return record, nil
}

// Provenance returns the sidecar for key.
func (s *Store) Provenance(key string) (*Provenance, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.provenancePath(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w %s", ErrNoProvenance, key)
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading provenance for %s: %w", key, err)
	}
	var provenance Provenance
	if err := codec.Unmarshal(data, &provenance); err != nil {
		return nil, fmt.Errorf("store: decoding provenance for %s: %w", key, err)
	}
	return &provenance, nil
}

// Verify checks the record under key against its sidecar checksum and
// checks that the record's digest matches the key.
func (s *Store) Verify(key string) error {
	data, ok, err := s.Lookup(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w %s", ErrNotFound, key)
	}
	provenance, err := s.Provenance(key)
	if err != nil {
		return err
	}

	checksum := blake3.Sum256(data)
	if !bytes.Equal(checksum[:], provenance.Checksum) || int64(len(data)) != provenance.Size {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, key)
	}

	record, err := s.reader.Read(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("store: decoding %s: %w", key, err)
	}
	if record.Fingerprint() != key {
		return fmt.Errorf("%w: %s holds %s", ErrKeyMismatch, key, record.Digest())
	}
	return nil
}

// Keys lists every stored key in sorted order. Files whose names are not
// valid keys are skipped.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("store: listing %s: %w", s.root, err)
	}
	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || ValidateKey(entry.Name()) != nil {
			continue
		}
		keys = append(keys, entry.Name())
	}
	slices.Sort(keys)
	return keys, nil
}

// ScanAll reads every stored record, in key order.
func (s *Store) ScanAll() ([]*meta.Record, error) {
	keys, err := s.Keys()
	if err != nil {
		return nil, err
	}
	records := make([]*meta.Record, 0, len(keys))
	for _, key := range keys {
		record, err := s.Read(key)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Store) recordPath(key string) string {
	return filepath.Join(s.root, key)
}

func (s *Store) provenancePath(key string) string {
	return filepath.Join(s.root, provenanceDir, key+".cbor")
}

// stagedFile is a temporary file waiting to be renamed over finalPath.
type stagedFile struct {
	tmpPath   string
	finalPath string
	previous  []byte
	existed   bool
	committed bool
}

// commit remembers what finalPath holds and renames the staged file
// over it.
func (f *stagedFile) commit() error {
	previous, err := os.ReadFile(f.finalPath)
	switch {
	case err == nil:
		f.previous, f.existed = previous, true
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("store: reading %s: %w", f.finalPath, err)
	}
	if err := os.Rename(f.tmpPath, f.finalPath); err != nil {
		return fmt.Errorf("store: renaming to %s: %w", f.finalPath, err)
	}
	f.committed = true
	return nil
}

// stageFile writes data to a hidden temporary file in dir, destined for
// finalPath. On error nothing is left behind.
func stageFile(dir, finalPath string, data []byte) (*stagedFile, error) {
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("store: creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("store: writing %s: %w", finalPath, err)
	}
	if err := tmpFile.Chmod(0o644); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("store: setting mode on %s: %w", finalPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("store: closing temp file: %w", err)
	}
	return &stagedFile{tmpPath: tmpPath, finalPath: finalPath}, nil
}

// writeAtomic writes data to a hidden temporary file in dir and renames
// it to finalPath.
func writeAtomic(dir, finalPath string, data []byte) error {
	file, err := stageFile(dir, finalPath, data)
	if err != nil {
		return err
	}
	if err := os.Rename(file.tmpPath, finalPath); err != nil {
		os.Remove(file.tmpPath)
		return fmt.Errorf("store: renaming to %s: %w", finalPath, err)
	}
	return nil
}
