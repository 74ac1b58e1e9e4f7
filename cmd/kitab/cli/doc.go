// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the kitab CLI.
//
// The central type is [Command], a named command with optional nested
// [Command.Subcommands], a parameter struct whose tagged fields become
// flags (see [BindFlags]), and a Run function that receives a context
// and a logger. Commands are assembled into a tree by the commands
// package and dispatched via [Command.Execute], which handles flag
// parsing, subcommand routing, and help output with examples.
//
// Unknown commands and flags get a "did you mean" suggestion computed by
// Levenshtein edit distance (threshold: distance <= 3).
//
// Errors returned by Run are classified with [ToolError] and mapped to
// process exit codes by [ExitCodeFor]. A command that has already
// reported its outcome returns an [ExitError] to exit non-zero without
// an extra message.
package cli
