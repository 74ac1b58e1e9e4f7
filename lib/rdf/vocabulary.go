// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"fmt"
	"strings"

	"github.com/nolash/kitab/lib/digest"
)

// DCTerms is the Dublin Core terms namespace used for every predicate.
const DCTerms = "https://purl.org/dc/terms/"

const (
	PredicateTitle     = DCTerms + "title"
	PredicateCreator   = DCTerms + "creator"
	PredicateType      = DCTerms + "type"
	PredicateSubject   = DCTerms + "subject"
	PredicateMediaType = DCTerms + "MediaType"
	PredicateLanguage  = DCTerms + "language"
)

// SubjectPrefix precedes the digest URN in every subject IRI.
const SubjectPrefix = "URN:"

// Triple is a single subject-predicate-object statement. All three parts
// are plain strings: IRIs are unbracketed and literals are unescaped.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

func (t Triple) String() string {
	return fmt.Sprintf("<%s> <%s> %q", t.Subject, t.Predicate, t.Object)
}

type field int

const (
	fieldNone field = iota
	fieldTitle
	fieldCreator
	fieldType
	fieldSubject
	fieldMediaType
	fieldLanguage
)

// Predicate short names, lowercased. Both the bare form and the dcterms
// namespaced forms resolve through this table.
var predicateFields = map[string]field{
	"title":      fieldTitle,
	"creator":    fieldCreator,
	"author":     fieldCreator,
	"type":       fieldType,
	"subject":    fieldSubject,
	"keywords":   fieldSubject,
	"mediatype":  fieldMediaType,
	"media-type": fieldMediaType,
	"format":     fieldMediaType,
	"language":   fieldLanguage,
}

var predicateNamespaces = []string{
	DCTerms,
	"http://purl.org/dc/terms/",
	"dcterms:",
}

// lookupPredicate maps a predicate IRI or short name to a record field.
// Unknown predicates map to fieldNone.
func lookupPredicate(predicate string) field {
	name := predicate
	for _, namespace := range predicateNamespaces {
		if rest, ok := cutPrefixFold(name, namespace); ok {
			name = rest
			break
		}
	}
	return predicateFields[strings.ToLower(name)]
}

// SubjectFor returns the subject IRI for a digest.
func SubjectFor(d digest.Digest) string {
	return SubjectPrefix + d.URN()
}

// DecodeSubject extracts the digest from a subject IRI. The "URN:" prefix
// is matched case-insensitively and may be absent. An empty digest is an
// error.
func DecodeSubject(subject string) (digest.Digest, error) {
	urn, _ := cutPrefixFold(strings.TrimSpace(subject), SubjectPrefix)
	d, err := digest.ParseURN(urn)
	if err != nil {
		return digest.Empty(), fmt.Errorf("%w %q: %w", ErrMalformedSubject, subject, err)
	}
	if d.IsEmpty() {
		return digest.Empty(), fmt.Errorf("%w %q: no digest", ErrMalformedSubject, subject)
	}
	return d, nil
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
