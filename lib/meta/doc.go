// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package meta defines [Record], the descriptive metadata kitab binds to
// one file digest.
//
// Records are built incrementally by the importers (attribute, triple,
// and bibliography sources) through typed setters. Setters that parse
// text (language, media type) validate it and return errors instead of
// storing junk. The digest is write-once: after a non-empty digest is
// set, setting a different one fails with [ErrDigestImmutable].
//
// [Record.Validate] is the sole admission gate before a record may be
// persisted: title and author must both be non-empty.
package meta
