// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package xattr

import "fmt"

// FS reports every attribute as absent and refuses writes on platforms
// where kitab does not implement extended attributes.
type FS struct{}

func (FS) Get(path, name string) ([]byte, bool, error) {
	return nil, false, nil
}

func (FS) Set(path, name string, value []byte) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, path)
}
