// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax matches every [*SyntaxError].
	ErrSyntax = errors.New("rdf: syntax error")

	// ErrMalformedSubject means a subject did not decode to a digest.
	// The whole batch is rejected.
	ErrMalformedSubject = errors.New("rdf: malformed subject")

	// ErrDigestConflict means the triple stream contradicts itself about
	// which record a digest belongs to.
	ErrDigestConflict = errors.New("rdf: digest conflict")

	// ErrNoRecord means the stream held no statement about any digest.
	ErrNoRecord = errors.New("rdf: no record found")

	// ErrMultipleSubjects is returned by [Reader.Read] when the stream
	// describes more than one subject.
	ErrMultipleSubjects = errors.New("rdf: more than one subject")

	// ErrInvalidObject means an object literal was rejected by the field
	// it targets (an unparseable language tag, for example).
	ErrInvalidObject = errors.New("rdf: invalid object")

	// ErrMissingDigest is returned when serializing a record that has no
	// digest and therefore no subject.
	ErrMissingDigest = errors.New("rdf: record has no digest")
)

// SyntaxError reports malformed Turtle input.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("rdf: line %d: %s", e.Line, e.Message)
}

// Is matches ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}
