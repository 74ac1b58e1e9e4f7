// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool opens SQLite databases with kitab's connection
// settings.
//
// It wraps zombiezen.com/go/sqlite's sqlitex.Pool. Callers [Pool.Take]
// a connection, use it, and [Pool.Put] it back. A connection must not be
// shared between goroutines.
//
// Every connection is prepared with:
//
//   - journal_mode=WAL, so a search can read while a rebuild writes.
//   - synchronous=NORMAL. The databases kitab keeps in SQLite are
//     derived from the record store and can always be rebuilt, so losing
//     the last transactions on power failure is harmless.
//   - busy_timeout=5000.
//   - cache_size=-4096 (4 MB per connection).
//   - temp_store=MEMORY.
//
// followed by the caller's OnConnect hook, which is where schemas are
// created:
//
//	pool, err := sqlitepool.Open(sqlitepool.Config{
//	    Path: filepath.Join(dataDir, "catalog.db"),
//	    OnConnect: func(conn *sqlite.Conn) error {
//	        return sqlitex.ExecuteScript(conn, schema, nil)
//	    },
//	})
package sqlitepool
