// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package rdf

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
)

// genRecords yields non-empty batches of valid records. buildRecords
// gives each record a distinct SHA-512 digest.
func genRecords() gopter.Gen {
	return gen.SliceOf(gen.Struct(reflect.TypeOf(recordFields{}), map[string]gopter.Gen{
		"Title":   nonEmptyString(),
		"Author":  nonEmptyString(),
		"Subject": gen.AnyString(),
		"Type":    gen.OneConstOf("book", "article", "misc", "unknown"),
	})).SuchThat(func(fieldSets []recordFields) bool {
		return len(fieldSets) > 0 && len(fieldSets) < 256
	})
}

// nonEmptyString covers quotes, backslashes, control characters and
// non-ASCII runes.
func nonEmptyString() gopter.Gen {
	return gen.AnyString().SuchThat(func(s string) bool { return s != "" })
}

type recordFields struct {
	Title   string
	Author  string
	Subject string
	Type    string
}

func buildRecords(fieldSets []recordFields) []*meta.Record {
	records := make([]*meta.Record, 0, len(fieldSets))
	for index, fields := range fieldSets {
		sum := bytes.Repeat([]byte{byte(index + 1)}, 64)
		d, err := digest.New(digest.SHA512, sum)
		if err != nil {
			panic(err)
		}
		record := meta.NewWithDigest(fields.Title, fields.Author, meta.ParseWorkType(fields.Type), d)
		record.SetSubject(fields.Subject)
		records = append(records, record)
	}
	return records
}

func TestWriteReadAllRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ReadAll(WriteAll(records)) == records", prop.ForAll(
		func(fieldSets []recordFields) bool {
			records := buildRecords(fieldSets)
			var buffer bytes.Buffer
			if err := WriteAll(&buffer, records); err != nil {
				return false
			}
			decoded, err := (&Reader{}).ReadAll(&buffer)
			if err != nil || len(decoded) != len(records) {
				return false
			}
			for index := range records {
				if !decoded[index].Equal(records[index]) {
					return false
				}
			}
			return true
		},
		genRecords(),
	))

	properties.Property("every record in a batch splits out", prop.ForAll(
		func(fieldSets []recordFields) bool {
			records := buildRecords(fieldSets)
			var triples []Triple
			for _, record := range records {
				recordTriples, err := Triples(record)
				if err != nil {
					return false
				}
				triples = append(triples, recordTriples...)
			}
			decoded, err := (&Reader{}).Reconcile(triples)
			return err == nil && len(decoded) == len(records)
		},
		genRecords(),
	))

	properties.TestingRun(t)
}
