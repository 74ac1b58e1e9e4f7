// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source.
//
// Code that stamps records with the current time (store sidecars,
// catalog rows) takes a Clock instead of calling time.Now directly:
//
//	s := &Store{clock: clock.Real()}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Store{clock: c}
//	c.Advance(5 * time.Second)
package clock
