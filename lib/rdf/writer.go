// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/nolash/kitab/lib/meta"
)

// Triples returns the statements describing record, in the fixed order
// title, creator, type, subject, media type, language. Title, creator,
// and type are always present; the others only when set.
func Triples(record *meta.Record) ([]Triple, error) {
	if record.Digest().IsEmpty() {
		return nil, fmt.Errorf("%w: %s", ErrMissingDigest, record)
	}
	subject := SubjectFor(record.Digest())
	triples := []Triple{
		{subject, PredicateTitle, record.Title()},
		{subject, PredicateCreator, record.Author()},
		{subject, PredicateType, record.Type().String()},
	}
	if value := record.Subject(); value != "" {
		triples = append(triples, Triple{subject, PredicateSubject, value})
	}
	if value := record.MediaType(); value != "" {
		triples = append(triples, Triple{subject, PredicateMediaType, value})
	}
	if value := record.Language(); value != "" {
		triples = append(triples, Triple{subject, PredicateLanguage, value})
	}
	return triples, nil
}

// Write serializes one record as a Turtle statement block.
func Write(w io.Writer, record *meta.Record) error {
	return WriteAll(w, []*meta.Record{record})
}

// WriteAll serializes records one after another. The output is a single
// Turtle document that [Reader.ReadAll] splits back into the same
// records.
func WriteAll(w io.Writer, records []*meta.Record) error {
	buffered := bufio.NewWriter(w)
	for index, record := range records {
		triples, err := Triples(record)
		if err != nil {
			return err
		}
		if index > 0 {
			buffered.WriteByte('\n')
		}
		writeBlock(buffered, triples)
	}
	return buffered.Flush()
}

func writeBlock(w *bufio.Writer, triples []Triple) {
	fmt.Fprintf(w, "<%s>", escapeIRI(triples[0].Subject))
	for index, triple := range triples {
		if index > 0 {
			w.WriteString(" ;\n   ")
		}
		fmt.Fprintf(w, " <%s> \"%s\"", escapeIRI(triple.Predicate), EscapeLiteral(triple.Object))
	}
	w.WriteString(" .\n")
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\b", `\b`,
	"\f", `\f`,
)

// EscapeLiteral escapes value for use inside a double-quoted Turtle
// string.
func EscapeLiteral(value string) string {
	return literalEscaper.Replace(value)
}

// Digest URNs never contain characters that need escaping in an IRI,
// but predicates from callers might.
func escapeIRI(iri string) string {
	var builder strings.Builder
	for _, r := range iri {
		switch {
		case r <= 0x20, strings.ContainsRune(`<>"{}|^`+"`"+`\`, r):
			fmt.Fprintf(&builder, `\u%04X`, r)
		default:
			builder.WriteRune(r)
		}
	}
	return builder.String()
}
