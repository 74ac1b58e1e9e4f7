// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package biblio

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrSyntax matches every [*SyntaxError].
var ErrSyntax = errors.New("biblio: syntax error")

// SyntaxError reports malformed bibliography input.
type SyntaxError struct {
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("biblio: line %d: %s", e.Line, e.Message)
}

// Is matches ErrSyntax.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

var monthMacros = map[string]string{
	"jan": "January",
	"feb": "February",
	"mar": "March",
	"apr": "April",
	"may": "May",
	"jun": "June",
	"jul": "July",
	"aug": "August",
	"sep": "September",
	"oct": "October",
	"nov": "November",
	"dec": "December",
}

// Parse reads every entry in r, in input order.
func Parse(r io.Reader) ([]*Entry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("biblio: reading input: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, &SyntaxError{Line: 1, Message: "input is not valid UTF-8"}
	}

	p := &parser{
		input:  string(data),
		line:   1,
		macros: make(map[string]string, len(monthMacros)),
	}
	for name, value := range monthMacros {
		p.macros[name] = value
	}
	return p.parse()
}

type parser struct {
	input  string
	pos    int
	line   int
	macros map[string]string
}

func (p *parser) parse() ([]*Entry, error) {
	var entries []*Entry
	for {
		at := strings.IndexByte(p.input[p.pos:], '@')
		if at < 0 {
			return entries, nil
		}
		p.advance(at + 1)

		entryType := p.identifier()
		if entryType == "" {
			return nil, p.errorf("expected an entry type after '@'")
		}
		p.skipSpace()
		closing, err := p.openDelimiter()
		if err != nil {
			return nil, err
		}

		switch strings.ToLower(entryType) {
		case "comment", "preamble":
			if _, err := p.balanced(closing); err != nil {
				return nil, err
			}
		case "string":
			if err := p.macro(closing); err != nil {
				return nil, err
			}
		default:
			entry, err := p.entry(entryType, closing)
			if err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}
}

func (p *parser) openDelimiter() (byte, error) {
	switch p.peek() {
	case '{':
		p.advance(1)
		return '}', nil
	case '(':
		p.advance(1)
		return ')', nil
	}
	return 0, p.errorf("expected '{' or '(' to open entry")
}

func (p *parser) macro(closing byte) error {
	p.skipSpace()
	name := p.identifier()
	if name == "" {
		return p.errorf("expected a macro name in @string")
	}
	p.skipSpace()
	if !p.consume('=') {
		return p.errorf("expected '=' after macro name %q", name)
	}
	raw, err := p.value()
	if err != nil {
		return err
	}
	p.skipSpace()
	if !p.consume(closing) {
		return p.errorf("expected %q to close @string", closing)
	}
	p.macros[strings.ToLower(name)] = raw
	return nil
}

func (p *parser) entry(entryType string, closing byte) (*Entry, error) {
	p.skipSpace()
	key := strings.TrimSpace(p.until(func(c byte) bool {
		return c == ',' || c == closing || c == '\n'
	}))
	if key == "" {
		return nil, p.errorf("entry of type %q has no citation key", entryType)
	}

	entry := &Entry{
		Type:   strings.ToLower(entryType),
		Key:    key,
		Fields: make(map[string]string),
		raw:    make(map[string]string),
	}

	p.skipSpace()
	if p.consume(closing) {
		return entry, nil
	}
	if !p.consume(',') {
		return nil, p.errorf("expected ',' after citation key %q", key)
	}

	for {
		p.skipSpace()
		if p.consume(closing) {
			return entry, nil
		}
		name := p.identifier()
		if name == "" {
			return nil, p.errorf("expected a field name in entry %q", key)
		}
		p.skipSpace()
		if !p.consume('=') {
			return nil, p.errorf("expected '=' after field %q in entry %q", name, key)
		}
		raw, err := p.value()
		if err != nil {
			return nil, err
		}
		field := strings.ToLower(name)
		entry.raw[field] = raw
		entry.Fields[field] = normalize(raw)

		p.skipSpace()
		if p.consume(',') {
			continue
		}
		if p.consume(closing) {
			return entry, nil
		}
		return nil, p.errorf("expected ',' or %q after field %q in entry %q", closing, name, key)
	}
}

// value reads a field value: one or more parts joined with '#'. Braces
// inside the value are preserved so that name splitting can respect
// them; [normalize] removes them.
func (p *parser) value() (string, error) {
	var builder strings.Builder
	for {
		p.skipSpace()
		switch c := p.peek(); {
		case c == '{':
			p.advance(1)
			part, err := p.balanced('}')
			if err != nil {
				return "", err
			}
			builder.WriteString(part)
		case c == '"':
			p.advance(1)
			part, err := p.quoted()
			if err != nil {
				return "", err
			}
			builder.WriteString(part)
		case c >= '0' && c <= '9':
			builder.WriteString(p.until(func(c byte) bool { return c < '0' || c > '9' }))
		default:
			name := p.identifier()
			if name == "" {
				return "", p.errorf("expected a field value")
			}
			if expansion, ok := p.macros[strings.ToLower(name)]; ok {
				builder.WriteString(expansion)
			} else {
				builder.WriteString(name)
			}
		}

		p.skipSpace()
		if !p.consume('#') {
			return builder.String(), nil
		}
	}
}

// balanced returns the text up to the closing delimiter that matches
// an already consumed opening one, and consumes the closer.
func (p *parser) balanced(closing byte) (string, error) {
	opening := byte('{')
	if closing == ')' {
		opening = '('
	}
	start := p.pos
	startLine := p.line
	depth := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.input):
			p.advance(2)
			continue
		case c == opening:
			depth++
		case c == closing && depth == 0:
			text := p.input[start:p.pos]
			p.advance(1)
			return text, nil
		case c == closing:
			depth--
		}
		p.advance(1)
	}
	return "", &SyntaxError{Line: startLine, Message: fmt.Sprintf("unbalanced %q", opening)}
}

// quoted returns the text up to the next '"' outside braces.
func (p *parser) quoted() (string, error) {
	start := p.pos
	startLine := p.line
	depth := 0
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '\\' && p.pos+1 < len(p.input):
			p.advance(2)
			continue
		case c == '{':
			depth++
		case c == '}':
			depth--
		case c == '"' && depth == 0:
			text := p.input[start:p.pos]
			p.advance(1)
			return text, nil
		}
		p.advance(1)
	}
	return "", &SyntaxError{Line: startLine, Message: "unterminated quoted value"}
}

func (p *parser) identifier() string {
	return p.until(func(c byte) bool {
		return c <= ' ' || strings.IndexByte(`{}(),="#%@'`, c) >= 0
	})
}

func (p *parser) until(stop func(byte) bool) string {
	start := p.pos
	for p.pos < len(p.input) && !stop(p.input[p.pos]) {
		p.advance(1)
	}
	return p.input[start:p.pos]
}

func (p *parser) skipSpace() {
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		switch {
		case c == '%':
			// Line comment.
			for p.pos < len(p.input) && p.input[p.pos] != '\n' {
				p.advance(1)
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			p.advance(1)
		default:
			return
		}
	}
}

func (p *parser) peek() byte {
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) consume(c byte) bool {
	if p.peek() == c && p.pos < len(p.input) {
		p.advance(1)
		return true
	}
	return false
}

func (p *parser) advance(n int) {
	end := min(p.pos+n, len(p.input))
	p.line += strings.Count(p.input[p.pos:end], "\n")
	p.pos = end
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

var latexEscapes = strings.NewReplacer(
	`\&`, "&",
	`\%`, "%",
	`\_`, "_",
	`\$`, "$",
	`\#`, "#",
	`\{`, "\x00",
	`\}`, "\x01",
	"~", " ",
)

// normalize turns a raw field value into plain text: escaped specials
// are unescaped, grouping braces are dropped, and runs of whitespace
// collapse to one space.
func normalize(raw string) string {
	text := latexEscapes.Replace(raw)
	text = strings.Map(func(r rune) rune {
		switch r {
		case '{', '}':
			return -1
		case '\x00':
			return '{'
		case '\x01':
			return '}'
		}
		return r
	}, text)
	return strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
}
