// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output, as "kitab lookup" does for a miss.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit codes for errors that are not an ExitError.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitCodeFor maps an error returned by Execute to a process exit code,
// and reports whether the error message should be printed. Validation
// errors exit with ExitUsage, other errors with ExitFailure.
func ExitCodeFor(err error) (code int, report bool) {
	if err == nil {
		return 0, false
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode(), false
	}
	var toolError *ToolError
	if errors.As(err, &toolError) && toolError.Category == CategoryValidation {
		return ExitUsage, true
	}
	return ExitFailure, true
}
