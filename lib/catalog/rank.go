// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Okapi BM25 parameters.
const (
	paramK1      = 1.2
	paramB       = 0.75
	paramEpsilon = 0.25
)

// Fields are weighted by repeating their tokens.
const (
	weightTitle   = 3
	weightAuthor  = 2
	weightSubject = 2
)

// rank scores entries against text and returns those sharing at least
// one term with it, most relevant first. Ties keep their input order.
func rank(entries []Entry, text string) []Entry {
	queryTokens := tokenize(text)
	if len(queryTokens) == 0 || len(entries) == 0 {
		return nil
	}

	frequencies := make([]map[string]int, len(entries))
	lengths := make([]int, len(entries))
	documentFrequency := make(map[string]int)
	totalLength := 0
	for index, entry := range entries {
		tokens := documentTokens(entry)
		lengths[index] = len(tokens)
		totalLength += len(tokens)
		frequency := make(map[string]int)
		for _, token := range tokens {
			if frequency[token] == 0 {
				documentFrequency[token]++
			}
			frequency[token]++
		}
		frequencies[index] = frequency
	}
	averageLength := float64(totalLength) / float64(len(entries))
	documentCount := float64(len(entries))

	var ranked []Entry
	for index, entry := range entries {
		score := 0.0
		for _, token := range queryTokens {
			frequency := float64(frequencies[index][token])
			if frequency == 0 {
				continue
			}
			containing := float64(documentFrequency[token])
			idf := math.Log(1 + (documentCount-containing+0.5)/(containing+0.5))
			if idf < 0 {
				idf = paramEpsilon
			}
			norm := 1 - paramB + paramB*float64(lengths[index])/averageLength
			score += idf * frequency * (paramK1 + 1) / (frequency + paramK1*norm)
		}
		if score > 0 {
			entry.Score = score
			ranked = append(ranked, entry)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})
	return ranked
}

func documentTokens(entry Entry) []string {
	var tokens []string
	for _, field := range []struct {
		text   string
		weight int
	}{
		{entry.Title, weightTitle},
		{entry.Author, weightAuthor},
		{entry.Subject, weightSubject},
	} {
		fieldTokens := tokenize(field.text)
		for range field.weight {
			tokens = append(tokens, fieldTokens...)
		}
	}
	return tokens
}

// tokenize splits text into lowercase runs of letters and digits,
// dropping single-character tokens.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := words[:0]
	for _, word := range words {
		if utf8.RuneCountInString(word) >= 2 {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
