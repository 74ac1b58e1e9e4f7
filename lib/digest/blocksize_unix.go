// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package digest

import (
	"os"

	"golang.org/x/sys/unix"
)

// preferredBufferSize returns the filesystem's preferred I/O size for
// the open file.
func preferredBufferSize(file *os.File) int {
	var stat unix.Stat_t
	if err := unix.Fstat(int(file.Fd()), &stat); err != nil {
		return defaultBufferSize
	}
	return clampBufferSize(int64(stat.Blksize))
}
