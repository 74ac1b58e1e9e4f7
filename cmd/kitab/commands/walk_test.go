// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExpandPaths(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"library/b.pdf",
		"library/a.epub",
		"library/nested/c.bib",
		"library/idx/0011",
		"single.ttl",
	} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Symlink(filepath.Join(root, "single.ttl"), filepath.Join(root, "library", "link.ttl")); err != nil {
		t.Fatal(err)
	}

	missing := filepath.Join(root, "missing.pdf")
	got, err := expandPaths([]string{
		filepath.Join(root, "library"),
		filepath.Join(root, "single.ttl"),
		missing,
	}, filepath.Join(root, "library", "idx"))
	if err != nil {
		t.Fatalf("expandPaths: %v", err)
	}

	want := []string{
		filepath.Join(root, "library", "a.epub"),
		filepath.Join(root, "library", "b.pdf"),
		filepath.Join(root, "library", "nested", "c.bib"),
		filepath.Join(root, "single.ttl"),
		missing,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandPaths = %v, want %v", got, want)
	}
}

func TestExpandPathsRelativeSkip(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	if err := os.MkdirAll(filepath.Join("books", "idx"), 0o755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(filepath.Join("books", "idx", "record"), nil, 0o644)
	os.WriteFile(filepath.Join("books", "book.pdf"), nil, 0o644)

	got, err := expandPaths([]string{"books"}, filepath.Join(root, "books", "idx"))
	if err != nil {
		t.Fatalf("expandPaths: %v", err)
	}
	if want := []string{filepath.Join("books", "book.pdf")}; !reflect.DeepEqual(got, want) {
		t.Errorf("expandPaths = %v, want %v", got, want)
	}
}
