// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the kitab binary.
//
// [Version], [GitCommit], and [BuildTime] are injected with -ldflags -X
// by release builds:
//
//	go build -ldflags "-X github.com/nolash/kitab/lib/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/kitab
//
// When they are not injected, [Get] falls back to the VCS stamps the Go
// toolchain embeds in module builds.
package version
