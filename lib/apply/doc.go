// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package apply copies stored metadata back onto files.
//
// An [Applier] hashes a file once under every configured algorithm,
// looks each candidate digest up in the store, and on the first hit
// writes the stored record to the file's extended attributes. Files the
// store knows nothing about are reported as misses, not errors.
package apply
