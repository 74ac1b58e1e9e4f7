// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Algorithm identifies the hash function that produced a digest. The
// zero value is AlgorithmNone, carried by the empty digest.
type Algorithm uint8

const (
	AlgorithmNone Algorithm = iota
	SHA512
	SHA256
	MD5
	Bzz
)

// MaxSize is the largest digest size of any supported algorithm.
const MaxSize = 64

// Algorithms lists every concrete algorithm in preference order.
var Algorithms = []Algorithm{SHA512, SHA256, MD5, Bzz}

// String returns the URN scheme tag of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return ""
	case SHA512:
		return "sha512"
	case SHA256:
		return "sha256"
	case MD5:
		return "md5"
	case Bzz:
		return "bzz"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(a))
	}
}

// Size returns the digest length in bytes, or 0 for AlgorithmNone and
// unknown values.
func (a Algorithm) Size() int {
	switch a {
	case SHA512:
		return 64
	case SHA256, Bzz:
		return 32
	case MD5:
		return 16
	default:
		return 0
	}
}

// ParseAlgorithm maps a scheme tag to its Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "sha512":
		return SHA512, nil
	case "sha256":
		return SHA256, nil
	case "md5":
		return MD5, nil
	case "bzz":
		return Bzz, nil
	default:
		return AlgorithmNone, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
}

var (
	// ErrMalformedURN matches every digest parse failure: bad hex, wrong
	// length for the scheme, missing digest segment, or unknown scheme.
	ErrMalformedURN = errors.New("digest: malformed digest URN")

	// ErrUnknownScheme is the more specific cause when the scheme tag is
	// not one kitab supports. Errors wrapping it also match
	// ErrMalformedURN.
	ErrUnknownScheme = errors.New("digest: unknown digest scheme")

	// ErrInvalidLength is returned by [New] when the byte slice does not
	// match the algorithm's output size.
	ErrInvalidLength = errors.New("digest: invalid digest length")
)

// ParseError describes why a digest URN could not be decoded.
type ParseError struct {
	// URN is the input text.
	URN string
	// Detail is a human-readable explanation.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *ParseError) Error() string {
	if e.URN == "" {
		return fmt.Sprintf("parsing digest URN: %s", e.Detail)
	}
	return fmt.Sprintf("parsing digest URN %q: %s", e.URN, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports every ParseError as an ErrMalformedURN.
func (e *ParseError) Is(target error) bool {
	return target == ErrMalformedURN
}

// Digest is a content digest tagged with its algorithm. The zero value is
// the empty digest. Digests are comparable with == and safe to copy.
type Digest struct {
	algorithm Algorithm
	present   bool
	sum       [MaxSize]byte
}

// Empty returns the digest meaning "not yet known".
func Empty() Digest {
	return Digest{}
}

// EmptyOf returns an empty digest that remembers which algorithm it is
// waiting for.
func EmptyOf(algorithm Algorithm) Digest {
	return Digest{algorithm: algorithm}
}

// New builds a digest from raw bytes. The length must match the
// algorithm's output size exactly.
func New(algorithm Algorithm, sum []byte) (Digest, error) {
	size := algorithm.Size()
	if size == 0 {
		return Digest{}, fmt.Errorf("%w: %s", ErrUnknownScheme, algorithm)
	}
	if len(sum) != size {
		return Digest{}, fmt.Errorf("%w: %s digest is %d bytes, want %d", ErrInvalidLength, algorithm, len(sum), size)
	}
	d := Digest{algorithm: algorithm, present: true}
	copy(d.sum[:], sum)
	return d, nil
}

// ParseURN decodes a digest URN of the form "<scheme>:<hex>". The empty
// string decodes to the empty digest.
func ParseURN(text string) (Digest, error) {
	if text == "" {
		return Digest{}, nil
	}

	scheme, hexPart, hasSeparator := strings.Cut(text, ":")
	if scheme == "" && hexPart == "" {
		return Digest{}, nil
	}

	algorithm, err := ParseAlgorithm(scheme)
	if err != nil {
		return Digest{}, &ParseError{URN: text, Detail: fmt.Sprintf("unknown scheme %q", scheme), Err: ErrUnknownScheme}
	}
	if !hasSeparator || hexPart == "" {
		return Digest{}, &ParseError{URN: text, Detail: fmt.Sprintf("missing %s digest value", algorithm)}
	}

	sum, err := hex.DecodeString(hexPart)
	if err != nil {
		return Digest{}, &ParseError{URN: text, Detail: "invalid hex encoding", Err: err}
	}
	d, err := New(algorithm, sum)
	if err != nil {
		return Digest{}, &ParseError{
			URN:    text,
			Detail: fmt.Sprintf("%s digest is %d bytes, want %d", algorithm, len(sum), algorithm.Size()),
			Err:    ErrInvalidLength,
		}
	}
	return d, nil
}

// ParseHex decodes a bare hex digest under the given algorithm.
func ParseHex(algorithm Algorithm, hexString string) (Digest, error) {
	return ParseURN(algorithm.String() + ":" + hexString)
}

// Algorithm returns the digest's algorithm. Empty digests created with
// [EmptyOf] report the algorithm they were created for.
func (d Digest) Algorithm() Algorithm { return d.algorithm }

// IsEmpty reports whether the digest carries no bytes.
func (d Digest) IsEmpty() bool { return !d.present }

// Bytes returns a copy of the raw digest bytes, or nil when empty.
func (d Digest) Bytes() []byte {
	if !d.present {
		return nil
	}
	out := make([]byte, d.algorithm.Size())
	copy(out, d.sum[:])
	return out
}

// Hex returns the lowercase hex encoding of the digest bytes. This is the
// store key. Empty digests return "".
func (d Digest) Hex() string {
	if !d.present {
		return ""
	}
	return hex.EncodeToString(d.sum[:d.algorithm.Size()])
}

// URN returns the canonical "<scheme>:<hex>" form, or "" when empty.
func (d Digest) URN() string {
	if !d.present {
		return ""
	}
	return d.algorithm.String() + ":" + d.Hex()
}

// String returns the URN, or "<empty>" so log lines stay readable.
func (d Digest) String() string {
	if !d.present {
		return "<empty>"
	}
	return d.URN()
}

// MarshalText encodes the digest as its URN.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.URN()), nil
}

// UnmarshalText decodes a URN produced by MarshalText.
func (d *Digest) UnmarshalText(text []byte) error {
	parsed, err := ParseURN(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
