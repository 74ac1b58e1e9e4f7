// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
)

// decodeAll reads every triple from r.
func decodeAll(r io.Reader) ([]Triple, error) {
	decoder := NewDecoder(r)
	var triples []Triple
	for {
		triple, err := decoder.Next()
		if errors.Is(err, io.EOF) {
			return triples, nil
		}
		if err != nil {
			return nil, err
		}
		triples = append(triples, triple)
	}
}

func TestDecodeTriples(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Triple
	}{
		{
			name:  "n-triples",
			input: "<s> <p> \"o\" .\n<s> <q> \"r\" .\n",
			want:  []Triple{{"s", "p", "o"}, {"s", "q", "r"}},
		},
		{
			name:  "predicate and object lists",
			input: "<s> <p> \"a\", \"b\" ;\n  <q> \"c\" ;\n.",
			want:  []Triple{{"s", "p", "a"}, {"s", "p", "b"}, {"s", "q", "c"}},
		},
		{
			name: "prefixes",
			input: "@prefix dc: <https://purl.org/dc/terms/> .\n" +
				"PREFIX ex: <http://example.org/>\n" +
				"ex:thing dc:title 'x' .",
			want: []Triple{{"http://example.org/thing", "https://purl.org/dc/terms/title", "x"}},
		},
		{
			name:  "undeclared prefix kept verbatim",
			input: "<URN:md5:00> dcterms:creator \"me\" .",
			want:  []Triple{{"URN:md5:00", "dcterms:creator", "me"}},
		},
		{
			name:  "comments and base",
			input: "# leading\n@base <http://example.org/> .\n<s> <p> \"o\" . # trailing\n",
			want:  []Triple{{"s", "p", "o"}},
		},
		{
			name:  "language tag and datatype",
			input: `<s> <p> "hello"@en-GB ; <q> "5"^^<http://www.w3.org/2001/XMLSchema#integer> ; <r> "x"^^xsd:string .`,
			want:  []Triple{{"s", "p", "hello"}, {"s", "q", "5"}, {"s", "r", "x"}},
		},
		{
			name:  "escapes",
			input: `<s> <p> "a\"b\\c\nd\u00e9\U0001F600" .`,
			want:  []Triple{{"s", "p", "a\"b\\c\nd\u00e9\U0001F600"}},
		},
		{
			name:  "long literal",
			input: "<s> <p> \"\"\"line one\nline \"two\"\"\"\" .",
			want:  []Triple{{"s", "p", "line one\nline \"two\""}},
		},
		{
			name:  "empty literal",
			input: `<s> <p> "" .`,
			want:  []Triple{{"s", "p", ""}},
		},
		{
			name:  "raw wrapping quotes stripped",
			input: `<s> <p> '"quoted"' .`,
			want:  []Triple{{"s", "p", "quoted"}},
		},
		{
			name:  "raw wrapping quotes in a long literal stripped",
			input: `<s> <p> """'quoted'""" .`,
			want:  []Triple{{"s", "p", "quoted"}},
		},
		{
			name:  "escaped wrapping quotes kept",
			input: `<s> <p> "\"quoted\"" .`,
			want:  []Triple{{"s", "p", `"quoted"`}},
		},
		{
			name:  "escaped single quotes kept",
			input: `<s> <p> "\'single\'" .`,
			want:  []Triple{{"s", "p", "'single'"}},
		},
		{
			name:  "one escaped end keeps both quotes",
			input: `<s> <p> '"half\"' .`,
			want:  []Triple{{"s", "p", `"half"`}},
		},
		{
			name:  "a keyword and bare literals",
			input: "<s> a <C> ; <n> 42 ; <b> true .",
			want:  []Triple{{"s", rdfType, "C"}, {"s", "n", "42"}, {"s", "b", "true"}},
		},
		{
			name:  "blank node subject",
			input: "_:b0 <p> \"o\" .",
			want:  []Triple{{"_:b0", "p", "o"}},
		},
		{
			name:  "empty input",
			input: "  \n# nothing\n",
			want:  nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := decodeAll(strings.NewReader(test.input))
			if err != nil {
				t.Fatalf("decodeAll: %v", err)
			}
			if !reflect.DeepEqual(got, test.want) {
				t.Errorf("decodeAll = %v, want %v", got, test.want)
			}
		})
	}
}

func TestDecodeSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"missing terminator", "<s> <p> \"o\"", 1},
		{"unterminated literal", "<s> <p> \"o .\n", 1},
		{"newline in short literal", "<s> <p> \"o\n\" .", 1},
		{"literal subject", "\"s\" <p> <o> .", 1},
		{"bad predicate", "<s> \"p\" <o> .", 1},
		{"bare word object", "<s> <p> nonsense .", 1},
		{"collection", "<s> <p> ( <a> ) .", 1},
		{"bad separator", "<s> <p> <o> <q> .", 1},
		{"error on later line", "<s> <p> \"o\" .\n\n<s> <p> \"\\q\" .", 3},
		{"space in IRI", "<s s> <p> <o> .", 1},
		{"unknown directive", "@foo <x> .", 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := decodeAll(strings.NewReader(test.input))
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("decodeAll = %v, want ErrSyntax", err)
			}
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("error %T is not *SyntaxError", err)
			}
			if syntaxErr.Line != test.line {
				t.Errorf("Line = %d, want %d", syntaxErr.Line, test.line)
			}
		})
	}
}

func TestDecoderErrorIsSticky(t *testing.T) {
	decoder := NewDecoder(strings.NewReader("<s> <p> \"o\" .\n<s> <p>"))
	if _, err := decoder.Next(); err != nil {
		t.Fatalf("first Next: %v", err)
	}
	_, first := decoder.Next()
	if !errors.Is(first, ErrSyntax) {
		t.Fatalf("second Next = %v, want ErrSyntax", first)
	}
	if _, again := decoder.Next(); again != first {
		t.Errorf("third Next = %v, want the same error", again)
	}
}

func TestDecoderEOF(t *testing.T) {
	decoder := NewDecoder(strings.NewReader(""))
	if _, err := decoder.Next(); err != io.EOF {
		t.Errorf("Next on empty input = %v, want io.EOF", err)
	}
}
