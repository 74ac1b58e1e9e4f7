// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nolash/kitab/lib/clock"
	"github.com/nolash/kitab/lib/digest"
	"github.com/nolash/kitab/lib/meta"
)

var epoch = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(Config{Root: t.TempDir(), Clock: clock.Fake(epoch)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return store
}

func testRecord(t *testing.T, algorithm digest.Algorithm, fill byte) *meta.Record {
	t.Helper()
	d, err := digest.New(algorithm, bytes.Repeat([]byte{fill}, algorithm.Size()))
	if err != nil {
		t.Fatalf("digest.New: %v", err)
	}
	record := meta.NewWithDigest("Title", "Author", meta.WorkTypeBook, d)
	record.SetSubject("testing")
	return record
}

func TestWriteLookupRead(t *testing.T) {
	store := newTestStore(t)
	record := testRecord(t, digest.SHA512, 0x2a)
	key := record.Fingerprint()

	if _, ok, err := store.Lookup(key); ok || err != nil {
		t.Fatalf("Lookup before write = %v, %v", ok, err)
	}

	if err := store.Write(record); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, ok, err := store.Lookup(key)
	if err != nil || !ok {
		t.Fatalf("Lookup = %v, %v", ok, err)
	}
	if !strings.Contains(string(data), "URN:sha512:"+key) {
		t.Errorf("stored bytes do not name the subject:\n%s", data)
	}

	read, err := store.Read(key)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !read.Equal(record) {
		t.Errorf("Read = %v, want %v", read, record)
	}
}

func TestWriteOverwrites(t *testing.T) {
	store := newTestStore(t)
	record := testRecord(t, digest.SHA256, 1)
	if err := store.Write(record); err != nil {
		t.Fatalf("first Write: %v", err)
	}

	replacement := record.WithDigest(record.Digest())
	replacement.SetTitle("Replaced")
	if err := store.Write(replacement); err != nil {
		t.Fatalf("second Write: %v", err)
	}

	read, err := store.Read(record.Fingerprint())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if read.Title() != "Replaced" {
		t.Errorf("Title = %q, want Replaced", read.Title())
	}
}

func TestWriteRejects(t *testing.T) {
	store := newTestStore(t)

	noDigest := meta.Empty()
	noDigest.SetTitle("T")
	noDigest.SetAuthor("A")
	if err := store.Write(noDigest); !errors.Is(err, ErrNoDigest) {
		t.Errorf("Write without digest = %v, want ErrNoDigest", err)
	}

	invalid := testRecord(t, digest.SHA512, 1)
	invalid.SetAuthor("")
	if err := store.Write(invalid); !errors.Is(err, meta.ErrValidation) {
		t.Errorf("Write invalid = %v, want ErrValidation", err)
	}

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("rejected writes left keys %v", keys)
	}
}

func TestValidateKey(t *testing.T) {
	valid := []string{
		strings.Repeat("0", 32),
		strings.Repeat("ab", 32),
		strings.Repeat("f", 128),
	}
	for _, key := range valid {
		if err := ValidateKey(key); err != nil {
			t.Errorf("ValidateKey(%q) = %v", key, err)
		}
	}

	invalid := []string{
		"",
		"../etc/passwd",
		strings.Repeat("A", 64),
		strings.Repeat("g", 64),
		strings.Repeat("0", 63),
		strings.Repeat("0", 30) + "/.",
	}
	for _, key := range invalid {
		if err := ValidateKey(key); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("ValidateKey(%q) = %v, want ErrInvalidKey", key, err)
		}
	}

	store := newTestStore(t)
	if _, _, err := store.Lookup("../../secret"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Lookup traversal = %v, want ErrInvalidKey", err)
	}
}

func TestProvenance(t *testing.T) {
	store := newTestStore(t)
	record := testRecord(t, digest.MD5, 7)
	runID := uuid.New()

	origin := Origin{Strategy: "biblatex", Source: "/refs/library.bib", RunID: runID}
	if err := store.WriteFrom(record, origin); err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}

	provenance, err := store.Provenance(record.Fingerprint())
	if err != nil {
		t.Fatalf("Provenance: %v", err)
	}
	if provenance.Digest != record.Digest() || provenance.Key != record.Fingerprint() {
		t.Errorf("provenance identity = %v / %s", provenance.Digest, provenance.Key)
	}
	if provenance.Strategy != "biblatex" || provenance.Source != "/refs/library.bib" || provenance.RunID != runID {
		t.Errorf("provenance origin = %+v", provenance)
	}
	if !provenance.StoredAt.Equal(epoch) {
		t.Errorf("StoredAt = %v, want %v", provenance.StoredAt, epoch)
	}
	if len(provenance.Checksum) != 32 || provenance.Size == 0 {
		t.Errorf("Checksum = %x, Size = %d", provenance.Checksum, provenance.Size)
	}

	if err := store.Verify(record.Fingerprint()); err != nil {
		t.Errorf("Verify: %v", err)
	}
}

func TestVerifyDetectsTampering(t *testing.T) {
	store := newTestStore(t)
	record := testRecord(t, digest.SHA512, 3)
	if err := store.Write(record); err != nil {
		t.Fatalf("Write: %v", err)
	}
	key := record.Fingerprint()

	path := filepath.Join(store.Root(), key)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(data), "Title", "Tytle", 1)
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Verify(key); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Verify = %v, want ErrChecksumMismatch", err)
	}
}

func TestVerifyDetectsMisplacedRecord(t *testing.T) {
	store := newTestStore(t)
	first := testRecord(t, digest.SHA512, 1)
	second := testRecord(t, digest.SHA512, 2)
	if err := store.Write(first); err != nil {
		t.Fatal(err)
	}
	if err := store.Write(second); err != nil {
		t.Fatal(err)
	}

	// Move the second record's bytes and sidecar under the first key.
	secondData, _, _ := store.Lookup(second.Fingerprint())
	os.WriteFile(filepath.Join(store.Root(), first.Fingerprint()), secondData, 0o644)
	sidecar, err := os.ReadFile(store.provenancePath(second.Fingerprint()))
	if err != nil {
		t.Fatal(err)
	}
	os.WriteFile(store.provenancePath(first.Fingerprint()), sidecar, 0o644)

	if err := store.Verify(first.Fingerprint()); !errors.Is(err, ErrKeyMismatch) {
		t.Errorf("Verify = %v, want ErrKeyMismatch", err)
	}
}

func TestVerifyWithoutSidecar(t *testing.T) {
	store := newTestStore(t)
	record := testRecord(t, digest.SHA512, 4)
	if err := store.Write(record); err != nil {
		t.Fatal(err)
	}
	os.Remove(store.provenancePath(record.Fingerprint()))

	if err := store.Verify(record.Fingerprint()); !errors.Is(err, ErrNoProvenance) {
		t.Errorf("Verify = %v, want ErrNoProvenance", err)
	}
	if _, err := store.Read(record.Fingerprint()); err != nil {
		t.Errorf("Read without sidecar: %v", err)
	}
}

func TestReadMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Read(strings.Repeat("0", 128)); !errors.Is(err, ErrNotFound) {
		t.Errorf("Read = %v, want ErrNotFound", err)
	}
}

func TestKeysAndScanAll(t *testing.T) {
	store := newTestStore(t)
	records := []*meta.Record{
		testRecord(t, digest.SHA512, 0xcc),
		testRecord(t, digest.SHA256, 0xaa),
		testRecord(t, digest.MD5, 0xbb),
	}
	for _, record := range records {
		if err := store.Write(record); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	// Foreign files are not keys.
	os.WriteFile(filepath.Join(store.Root(), "README"), []byte("hi"), 0o644)
	os.WriteFile(filepath.Join(store.Root(), ".tmp-123"), []byte("partial"), 0o644)

	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	want := []string{records[1].Fingerprint(), records[2].Fingerprint(), records[0].Fingerprint()}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys = %v, want %v", keys, want)
	}

	scanned, err := store.ScanAll()
	if err != nil {
		t.Fatalf("ScanAll: %v", err)
	}
	if len(scanned) != 3 || !scanned[0].Equal(records[1]) {
		t.Errorf("ScanAll = %v", scanned)
	}
}

func TestWriteAllRestoresOnFailure(t *testing.T) {
	store := newTestStore(t)
	existing := testRecord(t, digest.SHA512, 1)
	existing.SetTitle("Old")
	if err := store.WriteFrom(existing, Origin{Strategy: "rdf"}); err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}
	before, _, err := store.Lookup(existing.Fingerprint())
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	replacement := existing.WithDigest(existing.Digest())
	replacement.SetTitle("New")
	added := testRecord(t, digest.SHA256, 2)
	blocked := testRecord(t, digest.MD5, 3)
	// A directory where the last record belongs makes its commit fail
	// after the first two are already in place.
	if err := os.Mkdir(filepath.Join(store.Root(), blocked.Fingerprint()), 0o755); err != nil {
		t.Fatal(err)
	}

	err = store.WriteAll([]*meta.Record{replacement, added, blocked}, Origin{Strategy: "biblatex"})
	if err == nil {
		t.Fatal("WriteAll succeeded with a blocked key")
	}

	after, ok, err := store.Lookup(existing.Fingerprint())
	if err != nil || !ok {
		t.Fatalf("Lookup after failure = %v, %v", ok, err)
	}
	if !bytes.Equal(after, before) {
		t.Errorf("existing record changed:\n got %s\nwant %s", after, before)
	}
	provenance, err := store.Provenance(existing.Fingerprint())
	if err != nil {
		t.Fatalf("Provenance: %v", err)
	}
	if provenance.Strategy != "rdf" {
		t.Errorf("provenance strategy = %q, want the original %q", provenance.Strategy, "rdf")
	}
	if err := store.Verify(existing.Fingerprint()); err != nil {
		t.Errorf("Verify after rollback: %v", err)
	}

	if _, ok, err := store.Lookup(added.Fingerprint()); ok || err != nil {
		t.Errorf("Lookup of rolled back record = %v, %v", ok, err)
	}
	if _, err := store.Provenance(added.Fingerprint()); !errors.Is(err, ErrNoProvenance) {
		t.Errorf("Provenance of rolled back record = %v, want ErrNoProvenance", err)
	}

	for _, dir := range []string{store.Root(), filepath.Join(store.Root(), provenanceDir)} {
		leftovers, err := filepath.Glob(filepath.Join(dir, ".tmp-*"))
		if err != nil {
			t.Fatal(err)
		}
		if len(leftovers) != 0 {
			t.Errorf("temporary files left in %s: %v", dir, leftovers)
		}
	}
}

func TestWriteAllValidatesEveryRecordFirst(t *testing.T) {
	store := newTestStore(t)
	valid := testRecord(t, digest.SHA512, 4)
	invalid := testRecord(t, digest.SHA512, 5)
	invalid.SetAuthor("")

	err := store.WriteAll([]*meta.Record{valid, invalid}, Origin{})
	if !errors.Is(err, meta.ErrValidation) {
		t.Fatalf("WriteAll = %v, want ErrValidation", err)
	}
	keys, err := store.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys after rejected batch = %v, want none", keys)
	}
}
