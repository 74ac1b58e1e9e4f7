// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package xattr

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// FS reads and writes extended attributes through the kernel. Symbolic
// links are followed.
type FS struct{}

func (FS) Get(path, name string) ([]byte, bool, error) {
	for {
		size, err := unix.Getxattr(path, name, nil)
		if err != nil {
			return nil, false, absentOrError(err)
		}
		if size == 0 {
			return []byte{}, true, nil
		}
		buffer := make([]byte, size)
		read, err := unix.Getxattr(path, name, buffer)
		if errors.Is(err, unix.ERANGE) {
			// Grew between the two calls.
			continue
		}
		if err != nil {
			return nil, false, absentOrError(err)
		}
		return buffer[:read], true, nil
	}
}

func (FS) Set(path, name string, value []byte) error {
	err := unix.Setxattr(path, name, value, 0)
	if errors.Is(err, unix.ENOTSUP) {
		return fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	return err
}

// absentOrError maps "no such attribute" and "filesystem has no
// attributes" to absence.
func absentOrError(err error) error {
	if errors.Is(err, unix.ENODATA) || errors.Is(err, unix.ENOTSUP) {
		return nil
	}
	return err
}
