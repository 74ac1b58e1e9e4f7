// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !unix

package digest

import "os"

func preferredBufferSize(file *os.File) int {
	return defaultBufferSize
}
