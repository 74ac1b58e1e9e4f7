// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/nolash/kitab/lib/clock"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key         TEXT PRIMARY KEY,
	urn         TEXT NOT NULL,
	title       TEXT NOT NULL,
	author      TEXT NOT NULL,
	work_type   TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	media_type  TEXT NOT NULL DEFAULT '',
	language    TEXT NOT NULL DEFAULT '',
	title_fold   TEXT NOT NULL,
	author_fold  TEXT NOT NULL,
	subject_fold TEXT NOT NULL DEFAULT '',
	indexed_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_records_title ON records(title_fold);
CREATE INDEX IF NOT EXISTS idx_records_language ON records(language);
CREATE INDEX IF NOT EXISTS idx_records_type ON records(work_type);
`

const columns = `key, urn, title, author, work_type, subject, media_type, language`

// Source supplies records for a rebuild. *store.Store implements it.
type Source interface {
	Keys() ([]string, error)
	Read(key string) (*meta.Record, error)
}

// Config configures a Catalog.
type Config struct {
	// Path is the database file. Its directory must exist.
	Path string
	// Clock stamps index times. Nil uses the real clock.
	Clock clock.Clock
	// Logger receives progress and diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Catalog is an open index database.
type Catalog struct {
	pool   *sqlitepool.Pool
	clock  clock.Clock
	logger *slog.Logger
}

// Entry is one indexed record.
type Entry struct {
	Key       string        `json:"key"`
	Digest    digest.Digest `json:"digest"`
	Title     string        `json:"title"`
	Author    string        `json:"author"`
	Type      meta.WorkType `json:"type"`
	Subject   string        `json:"subject,omitempty"`
	MediaType string        `json:"media_type,omitempty"`
	Language  string        `json:"language,omitempty"`
	// Score is the relevance of the entry to a free text query. It is
	// zero when no query text was given.
	Score float64 `json:"score,omitempty"`
}

// Query selects entries. Empty fields do not constrain the result.
type Query struct {
	Title    string
	Author   string
	Subject  string
	Language string
	Type     meta.WorkType
	// Text is ranked against title, author, and subject. Entries that
	// share no term with it are dropped.
	Text string
	// Limit caps the number of entries returned. Zero means no cap.
	Limit int
}

// Open opens or creates the catalog database.
func Open(config Config) (*Catalog, error) {
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   config.Path,
		Logger: config.Logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return &Catalog{pool: pool, clock: config.Clock, logger: config.Logger}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.pool.Close()
}

// RebuildSummary reports the outcome of a rebuild.
type RebuildSummary struct {
	Indexed int
	// Skipped lists store keys whose records could not be read.
	Skipped []string
}

// Rebuild replaces the whole index with the records in source. Records
// that cannot be read are skipped and reported. The replacement is a
// single transaction, so a failed rebuild leaves the previous index in
// place.
func (c *Catalog) Rebuild(ctx context.Context, source Source) (*RebuildSummary, error) {
	keys, err := source.Keys()
	if err != nil {
		return nil, fmt.Errorf("catalog: listing store: %w", err)
	}

	summary := &RebuildSummary{}
	records := make([]*meta.Record, 0, len(keys))
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := source.Read(key)
		if err != nil {
			c.logger.Warn("skipping unreadable record", "key", key, "error", err)
			summary.Skipped = append(summary.Skipped, key)
			continue
		}
		records = append(records, record)
	}

	err = c.pool.With(ctx, func(conn *sqlite.Conn) (err error) {
		endTransaction, err := sqlitex.ImmediateTransaction(conn)
		if err != nil {
			return fmt.Errorf("catalog: begin rebuild: %w", err)
		}
		defer endTransaction(&err)

		if err := sqlitex.Execute(conn, "DELETE FROM records", nil); err != nil {
			return fmt.Errorf("catalog: clearing index: %w", err)
		}
		for _, record := range records {
			if err := c.upsert(conn, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary.Indexed = len(records)
	c.logger.Info("catalog rebuilt",
		"path", c.pool.Path(),
		"indexed", summary.Indexed,
		"skipped", len(summary.Skipped),
	)
	return summary, nil
}

// Index adds or replaces the entry for record.
func (c *Catalog) Index(ctx context.Context, record *meta.Record) error {
	if record.Digest().IsEmpty() {
		return errors.New("catalog: cannot index a record without a digest")
	}
	return c.pool.With(ctx, func(conn *sqlite.Conn) error {
		return c.upsert(conn, record)
	})
}

func (c *Catalog) upsert(conn *sqlite.Conn, record *meta.Record) error {
	err := sqlitex.Execute(conn, `INSERT OR REPLACE INTO records
		(key, urn, title, author, work_type, subject, media_type, language,
		 title_fold, author_fold, subject_fold, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, &sqlitex.ExecOptions{
		Args: []any{
			record.Fingerprint(),
			record.Digest().URN(),
			record.Title(),
			record.Author(),
			record.Type().String(),
			record.Subject(),
			record.MediaType(),
			record.Language(),
			fold(record.Title()),
			fold(record.Author()),
			fold(record.Subject()),
			c.clock.Now().UnixNano(),
		},
	})
	if err != nil {
		return fmt.Errorf("catalog: indexing %s: %w", record.Digest(), err)
	}
	return nil
}

// Get returns the entry for a store key.
func (c *Catalog) Get(ctx context.Context, key string) (*Entry, bool, error) {
	var entries []Entry
	err := c.pool.With(ctx, func(conn *sqlite.Conn) error {
		var err error
		entries, err = selectEntries(conn, "SELECT "+columns+" FROM records WHERE key = ?", []any{key})
		return err
	})
	if err != nil || len(entries) == 0 {
		return nil, false, err
	}
	return &entries[0], true, nil
}

// Count returns the number of indexed entries.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	count := 0
	err := c.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT count(*) FROM records", &sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				count = stmt.ColumnInt(0)
				return nil
			},
		})
	})
	if err != nil {
		return 0, fmt.Errorf("catalog: counting: %w", err)
	}
	return count, nil
}

// Search returns the entries matching query, ordered by title, or by
// relevance when query.Text is set.
func (c *Catalog) Search(ctx context.Context, query Query) ([]Entry, error) {
	var conditions []string
	var args []any
	for _, filter := range []struct {
		column string
		value  string
	}{
		{"title_fold", query.Title},
		{"author_fold", query.Author},
		{"subject_fold", query.Subject},
	} {
		if filter.value == "" {
			continue
		}
		conditions = append(conditions, filter.column+` LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(fold(filter.value))+"%")
	}
	if query.Language != "" {
		conditions = append(conditions, `(lower(language) = ? OR lower(language) LIKE ? ESCAPE '\')`)
		language := strings.ToLower(query.Language)
		args = append(args, language, escapeLike(language)+"-%")
	}
	if query.Type != "" {
		conditions = append(conditions, "work_type = ?")
		args = append(args, meta.ParseWorkType(query.Type.String()).String())
	}

	statement := "SELECT " + columns + " FROM records"
	if len(conditions) > 0 {
		statement += " WHERE " + strings.Join(conditions, " AND ")
	}
	statement += " ORDER BY title_fold, key"
	if query.Limit > 0 && query.Text == "" {
		statement += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	var entries []Entry
	err := c.pool.With(ctx, func(conn *sqlite.Conn) error {
		var err error
		entries, err = selectEntries(conn, statement, args)
		return err
	})
	if err != nil {
		return nil, err
	}

	if query.Text != "" {
		entries = rank(entries, query.Text)
		if query.Limit > 0 && len(entries) > query.Limit {
			entries = entries[:query.Limit]
		}
	}
	return entries, nil
}

func selectEntries(conn *sqlite.Conn, statement string, args []any) ([]Entry, error) {
	var entries []Entry
	err := sqlitex.Execute(conn, statement, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			d, err := digest.ParseURN(stmt.ColumnText(1))
			if err != nil {
				return fmt.Errorf("catalog: entry %s: %w", stmt.ColumnText(0), err)
			}
			entries = append(entries, Entry{
				Key:       stmt.ColumnText(0),
				Digest:    d,
				Title:     stmt.ColumnText(2),
				Author:    stmt.ColumnText(3),
				Type:      meta.WorkType(stmt.ColumnText(4)),
				Subject:   stmt.ColumnText(5),
				MediaType: stmt.ColumnText(6),
				Language:  stmt.ColumnText(7),
			})
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}
	return entries, nil
}

func fold(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(text string) string {
	return likeEscaper.Replace(text)
}
