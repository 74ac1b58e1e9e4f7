// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package meta

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/nolash/kitab/lib/digest"
)

func sha512Of(fill byte) digest.Digest {
	d, err := digest.New(digest.SHA512, bytes.Repeat([]byte{fill}, 64))
	if err != nil {
		panic(err)
	}
	return d
}

func TestNewRejectsWrongLength(t *testing.T) {
	for _, size := range []int{0, 1, 32, 63, 65} {
		_, err := New("Title", "Author", WorkTypeBook, make([]byte, size))
		if !errors.Is(err, ErrInvalidDigestLength) {
			t.Errorf("New with %d bytes: err = %v, want ErrInvalidDigestLength", size, err)
		}
	}
}

func TestNewSetsRequiredFields(t *testing.T) {
	sum := bytes.Repeat([]byte{0xab}, 64)
	record, err := New("Title", "Author", WorkTypeBook, sum)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if record.Title() != "Title" || record.Author() != "Author" || record.Type() != WorkTypeBook {
		t.Errorf("record = %v", record)
	}
	if record.Digest().Algorithm() != digest.SHA512 {
		t.Errorf("Algorithm = %v, want sha512", record.Digest().Algorithm())
	}
	if record.Fingerprint() != string(bytes.Repeat([]byte("ab"), 64)) {
		t.Errorf("Fingerprint = %q", record.Fingerprint())
	}
	if record.URN() != "sha512:"+record.Fingerprint() {
		t.Errorf("URN = %q", record.URN())
	}
}

func TestEmptyRecord(t *testing.T) {
	record := Empty()
	if record.Validate() {
		t.Error("empty record should not validate")
	}
	if record.URN() != "" || record.Fingerprint() != "" {
		t.Errorf("empty record URN = %q, Fingerprint = %q", record.URN(), record.Fingerprint())
	}
	if record.Type() != WorkTypeUnknown {
		t.Errorf("Type = %q, want unknown", record.Type())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		author  string
		valid   bool
		missing []string
	}{
		{"both", "T", "A", true, nil},
		{"no title", "", "A", false, []string{"title"}},
		{"no author", "T", "", false, []string{"author"}},
		{"neither", "", "", false, []string{"title", "author"}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			record := NewWithDigest(test.title, test.author, WorkTypeBook, sha512Of(1))
			if got := record.Validate(); got != test.valid {
				t.Errorf("Validate() = %v, want %v", got, test.valid)
			}
			err := record.Check()
			if test.valid {
				if err != nil {
					t.Errorf("Check() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Check() = %v, want ErrValidation", err)
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("Check() = %T, want *ValidationError", err)
			}
			if !reflect.DeepEqual(validationErr.Missing, test.missing) {
				t.Errorf("Missing = %v, want %v", validationErr.Missing, test.missing)
			}
		})
	}
}

func TestSetDigestImmutable(t *testing.T) {
	record := Empty()
	first := sha512Of(1)
	if err := record.SetDigest(first); err != nil {
		t.Fatalf("first SetDigest: %v", err)
	}
	if err := record.SetDigest(first); err != nil {
		t.Errorf("same SetDigest: %v, want nil", err)
	}
	if err := record.SetDigest(sha512Of(2)); !errors.Is(err, ErrDigestImmutable) {
		t.Errorf("different SetDigest: %v, want ErrDigestImmutable", err)
	}
	if record.Digest() != first {
		t.Errorf("digest changed to %v", record.Digest())
	}
}

func TestSetLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"en", "en", false},
		{"EN-us", "en-US", false},
		{"nb", "nb", false},
		{"", "", false},
		{"not a language", "", true},
		{"x", "", true},
	}
	for _, test := range tests {
		record := Empty()
		err := record.SetLanguage(test.input)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidLanguage) {
				t.Errorf("SetLanguage(%q) = %v, want ErrInvalidLanguage", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetLanguage(%q): %v", test.input, err)
			continue
		}
		if record.Language() != test.want {
			t.Errorf("SetLanguage(%q) stored %q, want %q", test.input, record.Language(), test.want)
		}
	}
}

func TestSetMediaType(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"application/pdf", "application/pdf", false},
		{"Text/Plain", "text/plain", false},
		{"text/plain; charset=utf-8", "text/plain; charset=utf-8", false},
		{"", "", false},
		{"pdf", "", true},
		{"text/", "", true},
		{"/plain", "", true},
		{"a/b/c", "", true},
	}
	for _, test := range tests {
		record := Empty()
		err := record.SetMediaType(test.input)
		if test.wantErr {
			if !errors.Is(err, ErrInvalidMediaType) {
				t.Errorf("SetMediaType(%q) = %v, want ErrInvalidMediaType", test.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetMediaType(%q): %v", test.input, err)
			continue
		}
		if record.MediaType() != test.want {
			t.Errorf("SetMediaType(%q) stored %q, want %q", test.input, record.MediaType(), test.want)
		}
	}
}

func TestSubjects(t *testing.T) {
	record := Empty()
	record.SetSubjects([]string{" foo ", "", "bar baz"})
	if record.Subject() != "foo, bar baz" {
		t.Errorf("Subject = %q", record.Subject())
	}
	if got := record.Subjects(); !reflect.DeepEqual(got, []string{"foo", "bar baz"}) {
		t.Errorf("Subjects = %v", got)
	}

	record.SetSubject("")
	if record.Subjects() != nil {
		t.Errorf("Subjects after clear = %v, want nil", record.Subjects())
	}
}

func TestWithDigestAndEqual(t *testing.T) {
	original := NewWithDigest("Title", "Author", WorkTypeArticle, sha512Of(1))
	original.SetSubject("foo")
	if err := original.SetLanguage("de"); err != nil {
		t.Fatal(err)
	}

	other, err := digest.New(digest.SHA256, bytes.Repeat([]byte{9}, 32))
	if err != nil {
		t.Fatal(err)
	}
	clone := original.WithDigest(other)
	if clone.Digest() != other {
		t.Errorf("clone digest = %v, want %v", clone.Digest(), other)
	}
	if original.Digest() != sha512Of(1) {
		t.Error("WithDigest modified the original")
	}
	if clone.Equal(original) {
		t.Error("records with different digests compare equal")
	}
	if !clone.WithDigest(original.Digest()).Equal(original) {
		t.Error("clone with the original digest should equal the original")
	}
	var nilRecord *Record
	if nilRecord.Equal(original) || !nilRecord.Equal(nil) {
		t.Error("nil handling in Equal")
	}
}

func TestParseWorkType(t *testing.T) {
	tests := map[string]WorkType{
		"":              WorkTypeUnknown,
		"  ":            WorkTypeUnknown,
		"Book":          WorkTypeBook,
		"ARTICLE":       WorkTypeArticle,
		"phdthesis":     WorkTypeThesis,
		"techreport":    WorkTypeReport,
		"www":           WorkTypeOnline,
		"Dataset":       WorkType("Dataset"),
		"inproceedings": WorkTypeInProceedings,
	}
	for input, want := range tests {
		got := ParseWorkType(input)
		if got != want {
			t.Errorf("ParseWorkType(%q) = %q, want %q", input, got, want)
		}
	}
	if WorkType("Dataset").Known() {
		t.Error("unfamiliar type reported as known")
	}
	if !WorkTypeMisc.Known() {
		t.Error("misc should be known")
	}
}
