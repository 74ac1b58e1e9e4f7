// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive exports a whole store as a single record batch and
// restores such a batch into a store.
//
// An archive is the Turtle serialization of every stored record, in key
// order, separated by blank lines. It may be wrapped in a zstd or LZ4
// frame. Restore recognizes the compression from the frame's magic
// bytes, so the reader never needs to be told how an archive was made.
// An uncompressed archive is an ordinary record batch and can also be
// fed to the importer.
package archive
