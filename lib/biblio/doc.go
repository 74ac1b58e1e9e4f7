// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package biblio parses BibTeX and BibLaTeX bibliographies into entries
// that can be turned into [meta.Record] values.
//
// The parser covers what real-world .bib files use: brace- or
// parenthesis-delimited entries, braced and quoted values with nested
// braces, "#" concatenation, @string macros (with the predefined month
// abbreviations), and @comment/@preamble blocks, which are skipped. Text
// outside entries is ignored, as BibTeX does, so input that contains no
// "@" parses to zero entries without error.
//
// A digest can travel with an entry in its note field, written as a
// digest URN (for example "sha512:ab12..."). [Entry.NoteDigests]
// extracts them.
package biblio
