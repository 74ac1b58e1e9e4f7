// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"golang.org/x/text/language"

	"github.com/nolash/kitab/lib/digest"
)

var (
	// ErrInvalidDigestLength is returned by [New] when the digest bytes
	// do not have the length of the expected algorithm.
	ErrInvalidDigestLength = errors.New("meta: invalid digest length")

	// ErrDigestImmutable is returned when a record that already carries a
	// digest is given a different one.
	ErrDigestImmutable = errors.New("meta: digest already set")

	// ErrInvalidLanguage is returned for text that is not a BCP 47
	// language tag.
	ErrInvalidLanguage = errors.New("meta: invalid language tag")

	// ErrInvalidMediaType is returned for text that is not a
	// "type/subtype" MIME media type.
	ErrInvalidMediaType = errors.New("meta: invalid media type")

	// ErrValidation matches every [*ValidationError].
	ErrValidation = errors.New("meta: record failed validation")
)

// ValidationError lists the required fields a record is missing.
type ValidationError struct {
	// Digest identifies the record, when it has one.
	Digest digest.Digest
	// Missing names the empty required fields.
	Missing []string
}

func (e *ValidationError) Error() string {
	if e.Digest.IsEmpty() {
		return fmt.Sprintf("record failed validation: missing %s", strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("record %s failed validation: missing %s", e.Digest, strings.Join(e.Missing, ", "))
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PublishDate is a day/month/year triple. Zero fields mean unknown.
type PublishDate struct {
	Day   uint8
	Month uint8
	Year  uint32
}

// IsZero reports whether no part of the date is known.
func (d PublishDate) IsZero() bool {
	return d == PublishDate{}
}

// Record is the descriptive metadata for one file. The zero value is not
// ready for use; create records with [New], [NewWithDigest], or [Empty].
type Record struct {
	title       string
	author      string
	workType    WorkType
	digest      digest.Digest
	subject     string
	mediaType   string
	language    string
	localName   string
	publishDate PublishDate
}

// New creates a record keyed by a SHA-512 digest given as raw bytes.
func New(title, author string, workType WorkType, digestBytes []byte) (*Record, error) {
	d, err := digest.New(digest.SHA512, digestBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDigestLength, err)
	}
	return NewWithDigest(title, author, workType, d), nil
}

// NewWithDigest creates a record with the required fields and an
// already-constructed digest of any algorithm.
func NewWithDigest(title, author string, workType WorkType, d digest.Digest) *Record {
	if workType == "" {
		workType = WorkTypeUnknown
	}
	return &Record{
		title:    title,
		author:   author,
		workType: workType,
		digest:   d,
	}
}

// Empty returns a record with no fields set, for parsers that populate
// it one statement at a time.
func Empty() *Record {
	return &Record{workType: WorkTypeUnknown}
}

func (r *Record) Title() string { return r.title }

func (r *Record) Author() string { return r.author }

func (r *Record) Type() WorkType { return r.workType }

func (r *Record) Digest() digest.Digest { return r.digest }

func (r *Record) Subject() string { return r.subject }

func (r *Record) MediaType() string { return r.mediaType }

func (r *Record) Language() string { return r.language }

// LocalName is the file name the record was imported from, if known.
func (r *Record) LocalName() string { return r.localName }

func (r *Record) PublishDate() PublishDate { return r.publishDate }

func (r *Record) SetTitle(title string) { r.title = title }

func (r *Record) SetAuthor(author string) { r.author = author }

func (r *Record) SetLocalName(name string) { r.localName = name }

func (r *Record) SetPublishDate(date PublishDate) { r.publishDate = date }

// SetType sets the work type; empty means unknown.
func (r *Record) SetType(workType WorkType) {
	if workType == "" {
		workType = WorkTypeUnknown
	}
	r.workType = workType
}

// SetDigest sets the record's digest. Setting the digest the record
// already has is a no-op; replacing a non-empty digest with a different
// value fails.
func (r *Record) SetDigest(d digest.Digest) error {
	if r.digest.IsEmpty() || r.digest == d {
		r.digest = d
		return nil
	}
	return fmt.Errorf("%w: record has %s, refusing %s", ErrDigestImmutable, r.digest, d)
}

// SetSubject sets the comma-joined keyword string.
func (r *Record) SetSubject(subject string) {
	r.subject = strings.TrimSpace(subject)
}

// SetSubjects joins keywords into the subject string, dropping blanks.
func (r *Record) SetSubjects(keywords []string) {
	kept := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	r.subject = strings.Join(kept, ", ")
}

// Subjects splits the subject string into keywords.
func (r *Record) Subjects() []string {
	if r.subject == "" {
		return nil
	}
	var keywords []string
	for _, part := range strings.Split(r.subject, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keywords = append(keywords, trimmed)
		}
	}
	return keywords
}

// SetLanguage parses a BCP 47 tag and stores its canonical form. Empty
// input clears the field.
func (r *Record) SetLanguage(tag string) error {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		r.language = ""
		return nil
	}
	parsed, err := language.Parse(tag)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidLanguage, tag, err)
	}
	r.language = parsed.String()
	return nil
}

// SetMediaType parses a MIME media type and stores its canonical form.
// Empty input clears the field.
func (r *Record) SetMediaType(mediaType string) error {
	mediaType = strings.TrimSpace(mediaType)
	if mediaType == "" {
		r.mediaType = ""
		return nil
	}
	base, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidMediaType, mediaType, err)
	}
	major, minor, found := strings.Cut(base, "/")
	if !found || major == "" || minor == "" || strings.Contains(minor, "/") {
		return fmt.Errorf("%w %q: want type/subtype", ErrInvalidMediaType, mediaType)
	}
	canonical := mime.FormatMediaType(base, params)
	if canonical == "" {
		return fmt.Errorf("%w %q", ErrInvalidMediaType, mediaType)
	}
	r.mediaType = canonical
	return nil
}

// Validate reports whether the record may be persisted: title and
// author are both non-empty.
func (r *Record) Validate() bool {
	return r.title != "" && r.author != ""
}

// Check is Validate with an explanation.
func (r *Record) Check() error {
	var missing []string
	if r.title == "" {
		missing = append(missing, "title")
	}
	if r.author == "" {
		missing = append(missing, "author")
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Digest: r.digest, Missing: missing}
}

// URN returns the digest URN, or "" while the digest is unknown.
func (r *Record) URN() string {
	return r.digest.URN()
}

// Fingerprint returns the lowercase hex of the digest bytes. This is the
// record's store key.
func (r *Record) Fingerprint() string {
	return r.digest.Hex()
}

// WithDigest returns a copy of the record carrying d instead of the
// original digest.
func (r *Record) WithDigest(d digest.Digest) *Record {
	clone := *r
	clone.digest = d
	return &clone
}

// Equal reports whether two records agree on every field.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return *r == *other
}

func (r *Record) String() string {
	return fmt.Sprintf("%s %q by %q (%s)", r.digest, r.title, r.author, r.workType)
}
