// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/rdf"
	"github.com/nolash/kitab/lib/store"
)

// StrategyRestore is the provenance strategy of restored records.
const StrategyRestore = "restore"

// Store is the part of *store.Store an Archive uses.
type Store interface {
	Keys() ([]string, error)
	Read(key string) (*meta.Record, error)
	WriteFrom(record *meta.Record, origin store.Origin) error
}

// Config configures an Archive.
type Config struct {
	// Store is exported from and restored into. Required.
	Store Store
	// RunID tags the provenance of restored records. The zero UUID draws
	// a random one.
	RunID uuid.UUID
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Archive exports and restores a store.
type Archive struct {
	store  Store
	runID  uuid.UUID
	logger *slog.Logger
}

// Summary reports what an export or restore did.
type Summary struct {
	Records     int
	Compression Compression
}

// New validates config and returns an Archive.
func New(config Config) (*Archive, error) {
	if config.Store == nil {
		return nil, errors.New("archive: Store is required")
	}
	if config.RunID == uuid.Nil {
		config.RunID = uuid.New()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Archive{store: config.Store, runID: config.RunID, logger: config.Logger}, nil
}

// Export writes every stored record to w. Records are read one at a time
// so memory use does not grow with the store.
func (a *Archive) Export(ctx context.Context, w io.Writer, compression Compression) (*Summary, error) {
	keys, err := a.store.Keys()
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}

	output, err := compressor(w, compression)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Compression: compression}
	for index, key := range keys {
		if err := ctx.Err(); err != nil {
			output.Close()
			return nil, err
		}
		record, err := a.store.Read(key)
		if err != nil {
			output.Close()
			return nil, fmt.Errorf("archive: exporting %s: %w", key, err)
		}
		if index > 0 {
			if _, err := io.WriteString(output, "\n"); err != nil {
				output.Close()
				return nil, fmt.Errorf("archive: %w", err)
			}
		}
		if err := rdf.Write(output, record); err != nil {
			output.Close()
			return nil, fmt.Errorf("archive: exporting %s: %w", key, err)
		}
		summary.Records++
	}

	if err := output.Close(); err != nil {
		return nil, fmt.Errorf("archive: finishing %s frame: %w", compression, err)
	}
	a.logger.Info("exported store", "records", summary.Records, "compression", compression)
	return summary, nil
}

// Restore reads an archive from r and writes every record to the store.
// The whole archive is reconciled and validated before the first write,
// so a damaged archive stores nothing. source names the archive in the
// provenance of each restored record.
func (a *Archive) Restore(ctx context.Context, r io.Reader, source string) (*Summary, error) {
	content, compression, release, err := decompressor(r)
	if err != nil {
		return nil, err
	}
	defer release()

	reader := &rdf.Reader{Logger: a.logger}
	records, err := reader.ReadAll(content)
	if errors.Is(err, rdf.ErrNoRecord) {
		a.logger.Warn("archive holds no records", "source", source)
		return &Summary{Compression: compression}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: restoring %s: %w", source, err)
	}

	origin := store.Origin{Strategy: StrategyRestore, Source: source, RunID: a.runID}
	summary := &Summary{Compression: compression}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := a.store.WriteFrom(record, origin); err != nil {
			return summary, fmt.Errorf("archive: restoring %s: %w", record.Digest(), err)
		}
		summary.Records++
	}
	a.logger.Info("restored archive",
		"source", source,
		"records", summary.Records,
		"compression", compression,
	)
	return summary, nil
}
