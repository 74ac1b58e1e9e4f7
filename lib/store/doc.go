// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package store persists one record per digest on the local
// filesystem.
//
// The layout is flat:
//
//	<root>/<hex>                     Turtle serialization of the record
//	<root>/.provenance/<hex>.cbor    how and when the entry was written
//
// where <hex> is the lowercase hex of the record's digest bytes. Writing
// a key that already exists replaces it; there is no merge. Every file
// is written to a temporary name in the same directory and renamed into
// place, so readers never observe a partial record.
//
// The provenance sidecar carries a BLAKE3 checksum of the record bytes,
// which [Store.Verify] uses to detect entries modified outside kitab.
// Entries written by other tools have no sidecar and are still readable.
//
// The store keeps no in-memory state beyond its configuration. It does
// not lock: concurrent writers of the same key race, and the last
// rename wins.
package store
