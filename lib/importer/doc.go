// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package importer turns files into stored records.
//
// For each file the importer tries three strategies in order and keeps
// the first that applies:
//
//  1. attribute: the file's extended attributes carry a title or
//     creator. The file's content is hashed to key the single record.
//  2. record: the file is a Turtle batch of records, each naming its
//     own digest.
//  3. bibliography: the file is a BibTeX/BibLaTeX bibliography. Each
//     entry is keyed by the digests in its note field together with any
//     digests the operator supplied, and one copy of the entry's record
//     is stored per digest.
//
// A strategy that cannot read the file passes it on to the next one. A
// strategy that can read the file but finds something wrong with it
// (a record missing its author, two records claiming one digest, an
// entry with no digest) fails the whole file. Nothing from a failed
// file is written: every record is validated before the first write.
package importer
