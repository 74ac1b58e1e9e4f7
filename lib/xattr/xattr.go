// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package xattr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nolash/kitab/lib/meta"
)

// Attribute names, one per record field.
const (
	KeyTitle     = "user.dcterms:title"
	KeyCreator   = "user.dcterms:creator"
	KeySubject   = "user.dcterms:subject"
	KeyLanguage  = "user.dcterms:language"
	KeyType      = "user.dcterms:type"
	KeyMediaType = "user.dcterms:MediaType"
)

// Keys lists every attribute name kitab reads and writes.
var Keys = []string{KeyTitle, KeyCreator, KeySubject, KeyLanguage, KeyType, KeyMediaType}

// ErrUnsupported means the platform or filesystem cannot store extended
// attributes.
var ErrUnsupported = errors.New("xattr: extended attributes not supported")

// Attributes reads and writes single named attributes on files.
type Attributes interface {
	// Get returns the value of an attribute. A missing attribute is
	// reported as ok == false with a nil error.
	Get(path, name string) (value []byte, ok bool, err error)
	// Set creates or replaces an attribute.
	Set(path, name string, value []byte) error
}

// Read builds a record from the attributes on path. The returned record
// has no digest. ok is false when neither a title nor a creator
// attribute is present, meaning the file carries no record at all; a
// file with only one of the two still yields a record, which will fail
// validation.
func Read(attrs Attributes, path string) (*meta.Record, bool, error) {
	values := make(map[string]string, len(Keys))
	for _, key := range Keys {
		value, ok, err := attrs.Get(path, key)
		if err != nil {
			return nil, false, fmt.Errorf("xattr: reading %s from %s: %w", key, path, err)
		}
		if ok {
			values[key] = string(value)
		}
	}

	_, hasTitle := values[KeyTitle]
	_, hasCreator := values[KeyCreator]
	if !hasTitle && !hasCreator {
		return nil, false, nil
	}

	record := meta.Empty()
	record.SetTitle(values[KeyTitle])
	record.SetAuthor(values[KeyCreator])
	record.SetSubject(values[KeySubject])
	if value, ok := values[KeyType]; ok {
		record.SetType(meta.ParseWorkType(value))
	}
	if err := record.SetLanguage(values[KeyLanguage]); err != nil {
		return nil, false, fmt.Errorf("xattr: %s: %w", path, err)
	}
	if err := record.SetMediaType(values[KeyMediaType]); err != nil {
		return nil, false, fmt.Errorf("xattr: %s: %w", path, err)
	}
	return record, true, nil
}

// Write stores a record's fields as attributes on path. Title, creator,
// and type are always written; the other fields only when set.
func Write(attrs Attributes, path string, record *meta.Record) error {
	values := []struct {
		key   string
		value string
		force bool
	}{
		{KeyTitle, record.Title(), true},
		{KeyCreator, record.Author(), true},
		{KeyType, record.Type().String(), true},
		{KeySubject, record.Subject(), false},
		{KeyMediaType, record.MediaType(), false},
		{KeyLanguage, record.Language(), false},
	}
	for _, entry := range values {
		if entry.value == "" && !entry.force {
			continue
		}
		if err := attrs.Set(path, entry.key, []byte(entry.value)); err != nil {
			return fmt.Errorf("xattr: writing %s to %s: %w", entry.key, path, err)
		}
	}
	return nil
}

// Memory is an in-process [Attributes] implementation. It is safe for
// concurrent use.
type Memory struct {
	mu     sync.Mutex
	values map[string]map[string][]byte
}

// NewMemory returns an empty attribute map.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]map[string][]byte)}
}

func (m *Memory) Get(path, name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[path][name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), value...), true, nil
}

func (m *Memory) Set(path, name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	attributes, ok := m.values[path]
	if !ok {
		attributes = make(map[string][]byte)
		m.values[path] = attributes
	}
	attributes[name] = append([]byte(nil), value...)
	return nil
}
