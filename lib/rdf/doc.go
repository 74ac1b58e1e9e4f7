// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package rdf converts between [meta.Record] values and Turtle triples.
//
// The vocabulary is a fixed subset of Dublin Core terms (see
// [PredicateTitle] and friends). Each record becomes one subject, the
// string "URN:" followed by the record's digest URN, with one statement
// per present field.
//
// Reading is split in two. [Decoder] tokenizes the N-Triples and Turtle
// subset that kitab and common tools emit and yields [Triple] values.
// [Reader] folds a triple sequence into records: consecutive statements
// about the same subject build one record, and a change of subject closes
// the current record and starts the next. This lets a batch export made
// of many concatenated records be read back without explicit record
// boundaries.
//
// Digest identity is never negotiable while folding. A subject that does
// not decode to a digest invalidates the whole batch, and a digest that
// reappears after the stream has moved on to another subject is a
// [ErrDigestConflict] rather than a silent merge.
package rdf
