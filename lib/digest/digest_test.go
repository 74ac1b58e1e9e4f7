// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const deadbeef64 = "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"

func TestParseURN(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		algorithm Algorithm
		empty     bool
	}{
		{"sha512", "sha512:" + deadbeef64, SHA512, false},
		{"sha256", "sha256:" + deadbeef64[:64], SHA256, false},
		{"md5", "md5:" + deadbeef64[:32], MD5, false},
		{"bzz", "bzz:" + deadbeef64[:64], Bzz, false},
		{"uppercase hex", "sha256:" + strings.ToUpper(deadbeef64[:64]), SHA256, false},
		{"empty string", "", AlgorithmNone, true},
		{"bare separator", ":", AlgorithmNone, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			d, err := ParseURN(test.input)
			if err != nil {
				t.Fatalf("ParseURN(%q): %v", test.input, err)
			}
			if d.IsEmpty() != test.empty {
				t.Errorf("IsEmpty = %v, want %v", d.IsEmpty(), test.empty)
			}
			if d.Algorithm() != test.algorithm {
				t.Errorf("Algorithm = %v, want %v", d.Algorithm(), test.algorithm)
			}
		})
	}
}

func TestParseURNInvalid(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		unknownScheme bool
	}{
		{"short sha512", "sha512:deadbeef", false},
		{"long sha256", "sha256:" + deadbeef64, false},
		{"short md5", "md5:" + deadbeef64[:30], false},
		{"short bzz", "bzz:" + deadbeef64[:62], false},
		{"bad hex", "sha256:" + strings.Repeat("zz", 32), false},
		{"odd hex", "md5:" + deadbeef64[:31], false},
		{"missing value", "sha512", false},
		{"empty value", "sha512:", false},
		{"unknown scheme long", "foo:" + deadbeef64[:64], true},
		{"unknown scheme short", "foo:deadbeef", true},
		{"empty scheme", ":deadbeef", true},
		{"capitalized scheme", "SHA512:" + deadbeef64, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseURN(test.input)
			if err == nil {
				t.Fatalf("ParseURN(%q) should fail", test.input)
			}
			if !errors.Is(err, ErrMalformedURN) {
				t.Errorf("error %v does not match ErrMalformedURN", err)
			}
			if errors.Is(err, ErrUnknownScheme) != test.unknownScheme {
				t.Errorf("errors.Is(ErrUnknownScheme) = %v, want %v", !test.unknownScheme, test.unknownScheme)
			}
			var parseError *ParseError
			if !errors.As(err, &parseError) {
				t.Fatalf("error %T is not a *ParseError", err)
			}
			if parseError.Detail == "" {
				t.Error("ParseError.Detail is empty")
			}
		})
	}
}

func TestURNRoundTrip(t *testing.T) {
	for _, algorithm := range Algorithms {
		t.Run(algorithm.String(), func(t *testing.T) {
			sum := bytes.Repeat([]byte{0x2a}, algorithm.Size())
			original, err := New(algorithm, sum)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			parsed, err := ParseURN(original.URN())
			if err != nil {
				t.Fatalf("ParseURN(%q): %v", original.URN(), err)
			}
			if parsed != original {
				t.Errorf("round trip = %v, want %v", parsed, original)
			}
			if !bytes.Equal(parsed.Bytes(), sum) {
				t.Errorf("Bytes = %x, want %x", parsed.Bytes(), sum)
			}
		})
	}
}

func TestNewRejectsWrongLength(t *testing.T) {
	for _, algorithm := range Algorithms {
		for _, size := range []int{0, algorithm.Size() - 1, algorithm.Size() + 1} {
			_, err := New(algorithm, make([]byte, size))
			if !errors.Is(err, ErrInvalidLength) {
				t.Errorf("New(%s, %d bytes) error = %v, want ErrInvalidLength", algorithm, size, err)
			}
		}
	}
	if _, err := New(AlgorithmNone, nil); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("New(AlgorithmNone) error = %v, want ErrUnknownScheme", err)
	}
}

func TestEmptyDigest(t *testing.T) {
	empty := Empty()
	if empty.URN() != "" {
		t.Errorf("Empty().URN() = %q, want empty", empty.URN())
	}
	if empty.Bytes() != nil {
		t.Errorf("Empty().Bytes() = %x, want nil", empty.Bytes())
	}
	if empty.Hex() != "" {
		t.Errorf("Empty().Hex() = %q, want empty", empty.Hex())
	}

	waiting := EmptyOf(SHA256)
	if !waiting.IsEmpty() {
		t.Error("EmptyOf should be empty")
	}
	if waiting.Algorithm() != SHA256 {
		t.Errorf("EmptyOf(SHA256).Algorithm() = %v", waiting.Algorithm())
	}
	if waiting.Bytes() != nil || waiting.URN() != "" {
		t.Error("EmptyOf should carry no bytes and encode as empty")
	}
	if waiting == empty {
		t.Error("EmptyOf(SHA256) should differ from Empty()")
	}
}

func TestParseHex(t *testing.T) {
	sum := bytes.Repeat([]byte{0xab}, 16)
	want, _ := New(MD5, sum)

	for _, text := range []string{"abababababababababababababababab", "ABABABABABABABABABABABABABABABAB"} {
		got, err := ParseHex(MD5, text)
		if err != nil || got != want {
			t.Errorf("ParseHex(%q) = %v, %v, want %v", text, got, err, want)
		}
	}
	if _, err := ParseHex(SHA256, "abab"); !errors.Is(err, ErrMalformedURN) {
		t.Errorf("short hex = %v, want ErrMalformedURN", err)
	}
}

func TestTextMarshaling(t *testing.T) {
	original, _ := New(MD5, bytes.Repeat([]byte{0xab}, 16))
	text, err := original.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(text) != "md5:abababababababababababababababab" {
		t.Errorf("MarshalText = %q", text)
	}

	var decoded Digest
	if err := decoded.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if decoded != original {
		t.Errorf("UnmarshalText = %v, want %v", decoded, original)
	}

	if err := decoded.UnmarshalText([]byte("md5:00")); !errors.Is(err, ErrMalformedURN) {
		t.Errorf("UnmarshalText(short) error = %v, want ErrMalformedURN", err)
	}
}

func TestParseAlgorithm(t *testing.T) {
	for _, algorithm := range Algorithms {
		parsed, err := ParseAlgorithm(algorithm.String())
		if err != nil {
			t.Fatalf("ParseAlgorithm(%q): %v", algorithm, err)
		}
		if parsed != algorithm {
			t.Errorf("ParseAlgorithm(%q) = %v", algorithm, parsed)
		}
	}
	if _, err := ParseAlgorithm("sha1"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("ParseAlgorithm(sha1) error = %v, want ErrUnknownScheme", err)
	}
}
