// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds kitab's CBOR configuration. Every on-disk CBOR
// file (the store's provenance sidecars) goes through [Marshal] and
// [Unmarshal] so that encoding is identical everywhere.
//
// Types that implement encoding.TextMarshaler, such as digest.Digest,
// encode as CBOR text strings. Field names come from `cbor` struct tags.
package codec
