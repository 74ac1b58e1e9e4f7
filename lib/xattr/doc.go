// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package xattr moves records in and out of filesystem extended
// attributes.
//
// Each record field has a fixed attribute name in the user namespace
// (see [KeyTitle] and friends). [Read] builds a record from whichever
// attributes are present and [Write] stores a record's fields on a file.
// Both work against the [Attributes] interface: [FS] talks to the
// kernel, [Memory] keeps attributes in a map for tests and for
// filesystems without extended attribute support.
package xattr
