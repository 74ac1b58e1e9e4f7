// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/nolash/kitab/cmd/kitab/cli"
	"github.com/nolash/kitab/lib/biblio"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/importer"
	"github.com/nolash/kitab/lib/meta"
	"github.com/nolash/kitab/lib/rdf"
	"github.com/nolash/kitab/lib/store"
)

// recordView is the JSON form of a record.
type recordView struct {
	Digest      string `json:"digest"`
	Key         string `json:"key"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Type        string `json:"type"`
	Subject     string `json:"subject,omitempty"`
	MediaType   string `json:"media_type,omitempty"`
	Language    string `json:"language,omitempty"`
	LocalName   string `json:"local_name,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
}

func viewOf(record *meta.Record) recordView {
	view := recordView{
		Digest:    record.Digest().URN(),
		Key:       record.Fingerprint(),
		Title:     record.Title(),
		Author:    record.Author(),
		Type:      record.Type().String(),
		Subject:   record.Subject(),
		MediaType: record.MediaType(),
		Language:  record.Language(),
		LocalName: record.LocalName(),
	}
	if date := record.PublishDate(); !date.IsZero() {
		view.PublishDate = formatDate(date)
	}
	return view
}

func viewsOf(records []*meta.Record) []recordView {
	views := make([]recordView, len(records))
	for index, record := range records {
		views[index] = viewOf(record)
	}
	return views
}

// formatDate writes the known parts of a date, most significant first.
func formatDate(date meta.PublishDate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%04d", date.Year)
	if date.Month != 0 {
		fmt.Fprintf(&b, "-%02d", date.Month)
		if date.Day != 0 {
			fmt.Fprintf(&b, "-%02d", date.Day)
		}
	}
	return b.String()
}

// failureView is the JSON form of a per-file failure.
type failureView struct {
	Path     string            `json:"path"`
	Error    string            `json:"error"`
	Category cli.ErrorCategory `json:"category"`
}

func failureOf(path string, err error) failureView {
	return failureView{Path: path, Error: err.Error(), Category: classify(err).Category}
}

// classify attaches a category to an error from the library packages.
func classify(err error) *cli.ToolError {
	var toolError *cli.ToolError
	switch {
	case errors.As(err, &toolError):
		return toolError
	case errors.Is(err, rdf.ErrDigestConflict):
		return &cli.ToolError{Category: cli.CategoryConflict, Err: err}
	case errors.Is(err, store.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return &cli.ToolError{Category: cli.CategoryNotFound, Err: err}
	case errors.Is(err, meta.ErrValidation),
		errors.Is(err, digest.ErrMalformedURN),
		errors.Is(err, importer.ErrUnparseable),
		errors.Is(err, importer.ErrNoDigest),
		errors.Is(err, importer.ErrAmbiguousExplicitDigest),
		errors.Is(err, rdf.ErrSyntax),
		errors.Is(err, biblio.ErrSyntax),
		errors.Is(err, store.ErrInvalidKey):
		return &cli.ToolError{Category: cli.CategoryValidation, Err: err}
	default:
		return &cli.ToolError{Category: cli.CategoryInternal, Err: err}
	}
}
