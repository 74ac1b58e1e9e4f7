// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package catalog maintains a searchable SQLite index of the records in
// a store.
//
// The catalog is derived data. The store remains the source of truth,
// and [Catalog.Rebuild] recreates the index from it at any time.
// Individual records can also be indexed as they are imported so the
// catalog stays current between rebuilds.
//
// Searches filter on title, author, and subject substrings (case
// insensitive), on language tags (a tag matches itself and its more
// specific subtags, so "en" finds "en-GB"), and on work type. A free
// text query additionally ranks the filtered entries with Okapi BM25
// over their title, author, and subject.
package catalog
