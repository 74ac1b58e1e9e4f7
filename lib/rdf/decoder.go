// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// rdfType is the predicate abbreviated as "a" in Turtle.
const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

type decoderState int

const (
	expectSubject decoderState = iota
	expectPredicate
	expectObject
)

type termKind int

const (
	termIRI termKind = iota
	termPrefixed
	termBlank
	termLiteral
	termBare
)

type term struct {
	kind  termKind
	value string
}

// Decoder reads triples from N-Triples or Turtle text. It understands
// prefix and base directives, IRIs, prefixed names, blank node labels,
// predicate lists (";"), object lists (","), the "a" keyword, quoted and
// long-quoted literals with escapes, language tags, datatypes, and bare
// numeric or boolean literals. Language tags and datatypes are consumed
// and discarded. Blank node property lists and collections are not
// supported.
//
// Prefixed names with an undeclared prefix are returned verbatim, so a
// predicate written as dcterms:title resolves even without a prefix
// declaration.
type Decoder struct {
	reader         *bufio.Reader
	line           int
	prefixes       map[string]string
	state          decoderState
	afterSemicolon bool
	subject        string
	predicate      string
	err            error
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		reader:   bufio.NewReader(r),
		line:     1,
		prefixes: make(map[string]string),
	}
}

// Next returns the next triple, or io.EOF after the last statement.
// Errors are sticky: once Next fails it keeps returning the same error.
func (d *Decoder) Next() (Triple, error) {
	if d.err != nil {
		return Triple{}, d.err
	}
	triple, err := d.next()
	if err != nil {
		d.err = err
	}
	return triple, err
}

func (d *Decoder) next() (Triple, error) {
	for {
		switch d.state {
		case expectSubject:
			r, err := d.skipSpace()
			if errors.Is(err, io.EOF) {
				return Triple{}, io.EOF
			}
			if err != nil {
				return Triple{}, err
			}
			if r == '@' {
				d.readRune()
				if err := d.directive(true); err != nil {
					return Triple{}, err
				}
				continue
			}
			subject, err := d.readTerm()
			if err != nil {
				return Triple{}, err
			}
			switch subject.kind {
			case termIRI, termPrefixed, termBlank:
				d.subject = subject.value
				d.state = expectPredicate
				d.afterSemicolon = false
			case termBare:
				if !strings.EqualFold(subject.value, "prefix") && !strings.EqualFold(subject.value, "base") {
					return Triple{}, d.syntaxError("unexpected %q where a subject was expected", subject.value)
				}
				if err := d.namedDirective(subject.value, false); err != nil {
					return Triple{}, err
				}
			default:
				return Triple{}, d.syntaxError("a literal cannot be a subject")
			}

		case expectPredicate:
			r, err := d.skipSpace()
			if err != nil {
				return Triple{}, d.unexpectedEnd(err)
			}
			if r == ';' {
				d.readRune()
				continue
			}
			if r == '.' && d.afterSemicolon {
				d.readRune()
				d.state = expectSubject
				continue
			}
			predicate, err := d.readTerm()
			if err != nil {
				return Triple{}, err
			}
			switch {
			case predicate.kind == termIRI || predicate.kind == termPrefixed:
				d.predicate = predicate.value
			case predicate.kind == termBare && predicate.value == "a":
				d.predicate = rdfType
			default:
				return Triple{}, d.syntaxError("unexpected %q where a predicate was expected", predicate.value)
			}
			d.state = expectObject

		case expectObject:
			object, err := d.readTerm()
			if err != nil {
				return Triple{}, err
			}
			if object.kind == termBare && !isBareLiteral(object.value) {
				return Triple{}, d.syntaxError("unexpected %q where an object was expected", object.value)
			}
			triple := Triple{Subject: d.subject, Predicate: d.predicate, Object: object.value}
			if err := d.separator(); err != nil {
				return Triple{}, err
			}
			return triple, nil
		}
	}
}

// separator consumes the punctuation after an object and moves the
// state machine accordingly.
func (d *Decoder) separator() error {
	r, err := d.skipSpace()
	if err != nil {
		return d.unexpectedEnd(err)
	}
	d.readRune()
	switch r {
	case ',':
		d.state = expectObject
	case ';':
		d.state = expectPredicate
		d.afterSemicolon = true
	case '.':
		d.state = expectSubject
	default:
		return d.syntaxError("expected '.', ';' or ',' but found %q", r)
	}
	return nil
}

// directive parses the remainder of an "@prefix" or "@base" directive.
func (d *Decoder) directive(terminated bool) error {
	word, err := d.readBare()
	if err != nil {
		return err
	}
	return d.namedDirective(word, terminated)
}

func (d *Decoder) namedDirective(word string, terminated bool) error {
	switch strings.ToLower(word) {
	case "prefix":
		if _, err := d.skipSpace(); err != nil {
			return d.unexpectedEnd(err)
		}
		name, err := d.readBare()
		if err != nil {
			return err
		}
		if !strings.HasSuffix(name, ":") {
			return d.syntaxError("prefix name %q must end with ':'", name)
		}
		iri, err := d.readTerm()
		if err != nil {
			return err
		}
		if iri.kind != termIRI {
			return d.syntaxError("prefix %q must be bound to an IRI", name)
		}
		d.prefixes[strings.TrimSuffix(name, ":")] = iri.value
	case "base":
		iri, err := d.readTerm()
		if err != nil {
			return err
		}
		if iri.kind != termIRI {
			return d.syntaxError("base must be an IRI")
		}
	default:
		return d.syntaxError("unknown directive %q", word)
	}

	if !terminated {
		return nil
	}
	r, err := d.skipSpace()
	if err != nil {
		return d.unexpectedEnd(err)
	}
	if r != '.' {
		return d.syntaxError("expected '.' after directive but found %q", r)
	}
	d.readRune()
	return nil
}

func (d *Decoder) readTerm() (term, error) {
	r, err := d.skipSpace()
	if err != nil {
		return term{}, d.unexpectedEnd(err)
	}
	switch r {
	case '<':
		value, err := d.readIRI()
		return term{termIRI, value}, err
	case '"', '\'':
		value, err := d.readLiteral(r)
		return term{termLiteral, value}, err
	case '[', '(':
		return term{}, d.syntaxError("blank node property lists and collections are not supported")
	}

	value, err := d.readBare()
	if err != nil {
		return term{}, err
	}
	if value == "" {
		return term{}, d.syntaxError("unexpected %q", r)
	}
	if strings.HasPrefix(value, "_:") {
		return term{termBlank, value}, nil
	}
	if prefix, local, found := strings.Cut(value, ":"); found {
		local = strings.ReplaceAll(local, `\`, "")
		if namespace, ok := d.prefixes[prefix]; ok {
			return term{termPrefixed, namespace + local}, nil
		}
		return term{termPrefixed, value}, nil
	}
	return term{termBare, value}, nil
}

func (d *Decoder) readIRI() (string, error) {
	d.readRune()
	var builder strings.Builder
	for {
		r, err := d.readRune()
		if err != nil {
			return "", d.unexpectedEnd(err)
		}
		switch {
		case r == '>':
			return builder.String(), nil
		case r == '\\':
			decoded, err := d.readEscape(true)
			if err != nil {
				return "", err
			}
			builder.WriteRune(decoded)
		case unicode.IsSpace(r):
			return "", d.syntaxError("whitespace inside IRI")
		default:
			builder.WriteRune(r)
		}
	}
}

func (d *Decoder) readLiteral(quote rune) (string, error) {
	d.readRune()
	long := false
	if next, err := d.reader.Peek(2); err == nil && rune(next[0]) == quote && rune(next[1]) == quote {
		d.readRune()
		d.readRune()
		long = true
	} else if err == nil && rune(next[0]) == quote {
		// Empty short literal.
		d.readRune()
		return "", d.literalSuffix()
	}

	var body literal
	for {
		if !long {
			if next, err := d.peek(); err == nil && (next == '\n' || next == '\r') {
				return "", d.syntaxError("newline in short string literal")
			}
		}
		r, err := d.readRune()
		if err != nil {
			return "", d.syntaxError("unterminated string literal")
		}
		switch {
		case r == '\\':
			decoded, err := d.readEscape(false)
			if err != nil {
				return "", err
			}
			body.add(decoded, true)
		case r == quote && !long:
			return body.unwrap(), d.literalSuffix()
		case r == quote:
			// The last three of a run of quotes close the literal; any
			// before them are content.
			count := 1
			for {
				next, err := d.peek()
				if err != nil || next != quote {
					break
				}
				d.readRune()
				count++
			}
			if count >= 3 {
				for range count - 3 {
					body.add(quote, false)
				}
				return body.unwrap(), d.literalSuffix()
			}
			for range count {
				body.add(quote, false)
			}
		default:
			body.add(r, false)
		}
	}
}

// literal is the body of a string literal, remembering which runes
// were written as escape sequences.
type literal struct {
	runes   []rune
	escaped []bool
}

func (l *literal) add(r rune, escaped bool) {
	l.runes = append(l.runes, r)
	l.escaped = append(l.escaped, escaped)
}

// unwrap returns the literal's value without the matching raw quote
// characters some tools wrap around values they quote twice. Escaped
// quotes are content and always survive.
func (l *literal) unwrap() string {
	start, end := 0, len(l.runes)
	for end-start >= 2 {
		first, last := l.runes[start], l.runes[end-1]
		if first != last || (first != '"' && first != '\'') || l.escaped[start] || l.escaped[end-1] {
			break
		}
		start++
		end--
	}
	return string(l.runes[start:end])
}

// literalSuffix consumes an optional language tag or datatype.
func (d *Decoder) literalSuffix() error {
	r, err := d.peek()
	if err != nil {
		return nil
	}
	switch r {
	case '@':
		d.readRune()
		tag, err := d.readWhile(func(r rune) bool {
			return r == '-' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
		})
		if err != nil {
			return err
		}
		if tag == "" {
			return d.syntaxError("empty language tag")
		}
	case '^':
		d.readRune()
		if next, err := d.readRune(); err != nil || next != '^' {
			return d.syntaxError("expected '^^' before datatype")
		}
		datatype, err := d.readTerm()
		if err != nil {
			return err
		}
		if datatype.kind != termIRI && datatype.kind != termPrefixed {
			return d.syntaxError("datatype must be an IRI")
		}
	}
	return nil
}

func (d *Decoder) readEscape(iri bool) (rune, error) {
	r, err := d.readRune()
	if err != nil {
		return 0, d.unexpectedEnd(err)
	}
	switch r {
	case 'u':
		return d.readHexRune(4)
	case 'U':
		return d.readHexRune(8)
	}
	if iri {
		return 0, d.syntaxError("invalid escape \\%c in IRI", r)
	}
	switch r {
	case 't':
		return '\t', nil
	case 'b':
		return '\b', nil
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 'f':
		return '\f', nil
	case '"', '\'', '\\':
		return r, nil
	}
	return 0, d.syntaxError("invalid escape \\%c", r)
}

func (d *Decoder) readHexRune(digits int) (rune, error) {
	var builder strings.Builder
	for range digits {
		r, err := d.readRune()
		if err != nil {
			return 0, d.unexpectedEnd(err)
		}
		builder.WriteRune(r)
	}
	value, err := strconv.ParseUint(builder.String(), 16, 32)
	if err != nil || value > unicode.MaxRune {
		return 0, d.syntaxError("invalid unicode escape %q", builder.String())
	}
	return rune(value), nil
}

// readBare reads an unquoted token: a prefixed name, keyword, blank node
// label, or number. A '.' ends the token when it is followed by
// whitespace, a comment, or end of input.
func (d *Decoder) readBare() (string, error) {
	var builder strings.Builder
	for {
		r, err := d.peek()
		if errors.Is(err, io.EOF) {
			return builder.String(), nil
		}
		if err != nil {
			return "", err
		}
		if unicode.IsSpace(r) || strings.ContainsRune(`<>"';,#[]()`, r) {
			return builder.String(), nil
		}
		if r == '.' {
			next, _ := d.reader.Peek(2)
			if len(next) < 2 || next[1] == '#' || unicode.IsSpace(rune(next[1])) {
				return builder.String(), nil
			}
		}
		d.readRune()
		builder.WriteRune(r)
	}
}

func (d *Decoder) readWhile(accept func(rune) bool) (string, error) {
	var builder strings.Builder
	for {
		r, err := d.peek()
		if errors.Is(err, io.EOF) || (err == nil && !accept(r)) {
			return builder.String(), nil
		}
		if err != nil {
			return "", err
		}
		d.readRune()
		builder.WriteRune(r)
	}
}

// skipSpace consumes whitespace and comments and returns the next rune
// without consuming it.
func (d *Decoder) skipSpace() (rune, error) {
	for {
		r, err := d.peek()
		if err != nil {
			return 0, err
		}
		switch {
		case unicode.IsSpace(r):
			d.readRune()
		case r == '#':
			for r != '\n' {
				if r, err = d.readRune(); err != nil {
					return 0, err
				}
			}
		default:
			return r, nil
		}
	}
}

func (d *Decoder) peek() (rune, error) {
	r, _, err := d.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	d.reader.UnreadRune()
	return r, nil
}

func (d *Decoder) readRune() (rune, error) {
	r, _, err := d.reader.ReadRune()
	if err != nil {
		return 0, err
	}
	if r == '\n' {
		d.line++
	}
	return r, nil
}

func (d *Decoder) unexpectedEnd(err error) error {
	if errors.Is(err, io.EOF) {
		return d.syntaxError("unexpected end of input")
	}
	return err
}

func (d *Decoder) syntaxError(format string, args ...any) error {
	return &SyntaxError{Line: d.line, Message: fmt.Sprintf(format, args...)}
}

func isBareLiteral(value string) bool {
	if value == "true" || value == "false" {
		return true
	}
	_, err := strconv.ParseFloat(value, 64)
	return err == nil
}
