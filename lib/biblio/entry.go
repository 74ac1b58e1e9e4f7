// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package biblio

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
)

// Entry is one bibliography entry.
type Entry struct {
	// Type is the lowercased entry type ("book", "article", ...).
	Type string
	// Key is the citation key.
	Key string
	// Fields maps lowercased field names to plain-text values.
	Fields map[string]string

	raw map[string]string
}

// Field returns the plain-text value of a field.
func (e *Entry) Field(name string) (string, bool) {
	value, ok := e.Fields[strings.ToLower(name)]
	return value, ok
}

func (e *Entry) Title() string {
	return e.Fields["title"]
}

// Authors splits the author field into people. A literal "others" (as
// in "A and others") is dropped.
func (e *Entry) Authors() []Person {
	raw, ok := e.raw["author"]
	if !ok {
		return nil
	}
	var people []Person
	for _, name := range splitNames(raw) {
		person := ParsePerson(name)
		if person.IsZero() || strings.EqualFold(person.Family, "others") && person.Given == "" {
			continue
		}
		people = append(people, person)
	}
	return people
}

// Author joins every author as "Given Family", separated by ", ".
func (e *Entry) Author() string {
	people := e.Authors()
	names := make([]string, len(people))
	for index, person := range people {
		names[index] = person.String()
	}
	return strings.Join(names, ", ")
}

// Keywords splits the keywords field on commas and semicolons.
func (e *Entry) Keywords() []string {
	var keywords []string
	for _, keyword := range strings.FieldsFunc(e.Fields["keywords"], func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

// Language returns the entry's language as a BCP 47 tag. Babel language
// names ("english", "ngerman") are mapped to their tags; anything else
// is returned as written.
func (e *Entry) Language() string {
	value := strings.TrimSpace(e.Fields["language"])
	if tag, ok := babelLanguages[strings.ToLower(value)]; ok {
		return tag
	}
	return value
}

var babelLanguages = map[string]string{
	"english":    "en",
	"american":   "en-US",
	"usenglish":  "en-US",
	"british":    "en-GB",
	"ukenglish":  "en-GB",
	"german":     "de",
	"ngerman":    "de",
	"austrian":   "de-AT",
	"naustrian":  "de-AT",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"portuguese": "pt",
	"brazilian":  "pt-BR",
	"dutch":      "nl",
	"norsk":      "nb",
	"norwegian":  "no",
	"nynorsk":    "nn",
	"swedish":    "sv",
	"danish":     "da",
	"finnish":    "fi",
	"icelandic":  "is",
	"polish":     "pl",
	"czech":      "cs",
	"russian":    "ru",
	"ukrainian":  "uk",
	"greek":      "el",
	"latin":      "la",
	"turkish":    "tr",
	"hebrew":     "he",
	"arabic":     "ar",
	"japanese":   "ja",
	"chinese":    "zh",
	"korean":     "ko",
}

// NoteDigests extracts the digest URNs written in the note field, in
// order and without duplicates. Words whose prefix is not a digest
// scheme are ignored; a word that names a scheme but does not decode is
// an error.
func (e *Entry) NoteDigests() ([]digest.Digest, error) {
	var digests []digest.Digest
	for _, word := range strings.FieldsFunc(e.Fields["note"], func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	}) {
		word = strings.Trim(word, "()[]<>.")
		if len(word) >= 4 && strings.EqualFold(word[:4], "urn:") {
			word = word[4:]
		}
		scheme, _, found := strings.Cut(word, ":")
		if !found {
			continue
		}
		if _, err := digest.ParseAlgorithm(strings.ToLower(scheme)); err != nil {
			continue
		}
		d, err := digest.ParseURN(strings.ToLower(scheme) + word[len(scheme):])
		if err != nil {
			return nil, fmt.Errorf("biblio: entry %q note: %w", e.Key, err)
		}
		if !d.IsEmpty() && !containsDigest(digests, d) {
			digests = append(digests, d)
		}
	}
	return digests, nil
}

func containsDigest(digests []digest.Digest, d digest.Digest) bool {
	for _, existing := range digests {
		if existing == d {
			return true
		}
	}
	return false
}

// PublishDate reads the BibLaTeX date field ("2024", "2024-03",
// "2024-03-09", or a range whose start is used), falling back to the
// year, month, and day fields.
func (e *Entry) PublishDate() meta.PublishDate {
	var date meta.PublishDate
	if value, ok := e.Fields["date"]; ok {
		start, _, _ := strings.Cut(value, "/")
		parts := strings.Split(start, "-")
		date.Year = parseUint32(parts[0])
		if len(parts) > 1 {
			date.Month = parseUint8(parts[1], 12)
		}
		if len(parts) > 2 {
			date.Day = parseUint8(parts[2], 31)
		}
		return date
	}
	date.Year = parseUint32(e.Fields["year"])
	date.Month = parseMonth(e.Fields["month"])
	date.Day = parseUint8(e.Fields["day"], 31)
	return date
}

func parseUint32(text string) uint32 {
	value, err := strconv.ParseUint(strings.TrimSpace(text), 10, 32)
	if err != nil {
		return 0
	}
	return uint32(value)
}

func parseUint8(text string, limit uint64) uint8 {
	value, err := strconv.ParseUint(strings.TrimSpace(text), 10, 8)
	if err != nil || value > limit {
		return 0
	}
	return uint8(value)
}

func parseMonth(text string) uint8 {
	text = strings.TrimSpace(text)
	if month := parseUint8(text, 12); month != 0 {
		return month
	}
	if len(text) < 3 {
		return 0
	}
	prefix := strings.ToLower(text[:3])
	for index, abbreviation := range []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"} {
		if prefix == abbreviation {
			return uint8(index + 1)
		}
	}
	return 0
}

// Record builds the metadata record this entry describes, keyed by d.
// The record is not validated; callers decide whether an entry without
// title or author is acceptable.
func (e *Entry) Record(d digest.Digest) (*meta.Record, error) {
	record := meta.NewWithDigest(e.Title(), e.Author(), meta.ParseWorkType(e.Type), d)
	record.SetSubjects(e.Keywords())
	if err := record.SetLanguage(e.Language()); err != nil {
		return nil, fmt.Errorf("biblio: entry %q: %w", e.Key, err)
	}
	record.SetPublishDate(e.PublishDate())
	return record, nil
}
