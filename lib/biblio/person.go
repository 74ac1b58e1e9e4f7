// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package biblio

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Person is one name from a name list, split into the four BibTeX name
// parts.
type Person struct {
	Given  string
	Prefix string
	Family string
	Suffix string
}

// IsZero reports whether the name is empty.
func (p Person) IsZero() bool {
	return p == Person{}
}

// String renders the name in reading order: "Given Prefix Family
// Suffix", skipping empty parts.
func (p Person) String() string {
	var parts []string
	for _, part := range []string{p.Given, p.Prefix, p.Family, p.Suffix} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// splitNames splits a raw name list on the word "and" outside braces.
func splitNames(raw string) []string {
	var names []string
	depth := 0
	start := 0
	for index := 0; index < len(raw); index++ {
		switch raw[index] {
		case '{':
			depth++
		case '}':
			depth--
		case 'a', 'A':
			if depth != 0 || index == 0 || index+4 > len(raw) {
				continue
			}
			if !isSpaceByte(raw[index-1]) || !strings.EqualFold(raw[index:index+3], "and") || !isSpaceByte(raw[index+3]) {
				continue
			}
			names = append(names, raw[start:index-1])
			start = index + 4
			index += 3
		}
	}
	names = append(names, raw[start:])

	trimmed := names[:0]
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			trimmed = append(trimmed, name)
		}
	}
	return trimmed
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// ParsePerson splits one raw name. It accepts the three BibTeX forms
// "Given von Family", "von Family, Given", and "von Family, Suffix,
// Given". Braced groups count as single words and are never split.
func ParsePerson(raw string) Person {
	segments := splitTopLevel(raw, ',')
	switch len(segments) {
	case 0:
		return Person{}
	case 1:
		words := wordsOf(segments[0])
		if len(words) == 0 {
			return Person{}
		}
		// Given names run until the first lowercase word, which starts
		// the prefix. The last word is always the family name.
		last := len(words) - 1
		prefixStart := last
		for index := 0; index < last; index++ {
			if isLowercaseWord(words[index]) {
				prefixStart = index
				break
			}
		}
		prefixEnd := prefixStart
		for prefixEnd < last && isLowercaseWord(words[prefixEnd]) {
			prefixEnd++
		}
		return Person{
			Given:  joinWords(words[:prefixStart]),
			Prefix: joinWords(words[prefixStart:prefixEnd]),
			Family: joinWords(words[prefixEnd:]),
		}
	default:
		prefix, family := splitPrefix(wordsOf(segments[0]))
		person := Person{Prefix: prefix, Family: family}
		if len(segments) == 2 {
			person.Given = joinWords(wordsOf(segments[1]))
		} else {
			person.Suffix = joinWords(wordsOf(segments[1]))
			person.Given = joinWords(wordsOf(strings.Join(segments[2:], ",")))
		}
		return person
	}
}

// splitPrefix separates leading lowercase words from the family name in
// the "von Family" part of a comma form.
func splitPrefix(words []string) (string, string) {
	end := 0
	for end < len(words)-1 && isLowercaseWord(words[end]) {
		end++
	}
	return joinWords(words[:end]), joinWords(words[end:])
}

func splitTopLevel(raw string, separator byte) []string {
	var segments []string
	depth := 0
	start := 0
	for index := 0; index < len(raw); index++ {
		switch raw[index] {
		case '{':
			depth++
		case '}':
			depth--
		case separator:
			if depth == 0 {
				segments = append(segments, raw[start:index])
				start = index + 1
			}
		}
	}
	segments = append(segments, raw[start:])
	if len(segments) == 1 && strings.TrimSpace(segments[0]) == "" {
		return nil
	}
	return segments
}

// wordsOf splits on whitespace outside braces, keeping braces in the
// words so that case detection can see them.
func wordsOf(raw string) []string {
	var words []string
	var current strings.Builder
	depth := 0
	for _, r := range raw {
		switch {
		case r == '{':
			depth++
			current.WriteRune(r)
		case r == '}':
			depth--
			current.WriteRune(r)
		case unicode.IsSpace(r) || r == '~':
			if depth > 0 {
				current.WriteRune(' ')
				continue
			}
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}
	return words
}

// isLowercaseWord reports whether a word starts with a lowercase letter.
// Braced words are treated as capitalized.
func isLowercaseWord(word string) bool {
	first, _ := utf8.DecodeRuneInString(word)
	return unicode.IsLower(first)
}

func joinWords(words []string) string {
	return normalize(strings.Join(words, " "))
}
