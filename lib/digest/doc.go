// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package digest implements kitab's content digests: the storage key of
// every metadata record and the join key between independently produced
// metadata sources.
//
// A [Digest] is a small comparable value tagged with its [Algorithm].
// Four algorithms are supported:
//
//   - sha512 (64 bytes): the default, and the only algorithm the
//     earliest kitab stores used
//   - sha256 (32 bytes)
//   - md5 (16 bytes): for matching legacy catalog exports
//   - bzz (32 bytes): the Swarm binary Merkle tree hash, so that files
//     published to Swarm can be matched by their content address
//
// The canonical text form is the digest URN, "<scheme>:<lowercase-hex>".
// The empty digest encodes as the empty string. [ParseURN] is the only
// way text becomes a Digest and it never panics: every failure is a
// [*ParseError] that matches [ErrMalformedURN].
//
// Byte length is validated once, at construction. A Digest that exists
// is well formed.
//
// Hashing ([HashFile], [HashFileMulti], [HashReader]) streams content
// through a buffer sized to the filesystem's preferred I/O block size, so
// memory use is constant regardless of file size.
package digest
