// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
)

// Bounds for the streaming buffer. The preferred block size reported by
// the filesystem is clamped into this range.
const (
	minBufferSize     = 4 << 10
	maxBufferSize     = 1 << 20
	defaultBufferSize = 64 << 10
)

// NewHasher returns a streaming hash for the algorithm.
func NewHasher(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case SHA512:
		return sha512.New(), nil
	case SHA256:
		return sha256.New(), nil
	case MD5:
		return md5.New(), nil
	case Bzz:
		return NewBzzHasher(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScheme, algorithm)
	}
}

// HashFile computes the digest of the file at path. The file is streamed
// through the hash in block-sized reads.
func HashFile(path string, algorithm Algorithm) (Digest, error) {
	digests, err := HashFileMulti(path, algorithm)
	if err != nil {
		return Digest{}, err
	}
	return digests[0], nil
}

// HashFileMulti computes one digest per algorithm in a single pass over
// the file. Results are returned in the order the algorithms were given.
func HashFileMulti(path string, algorithms ...Algorithm) ([]Digest, error) {
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("hashing %s: no algorithms requested", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s for hashing: %w", path, err)
	}
	defer file.Close()

	digests, err := hashStream(file, preferredBufferSize(file), algorithms)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return digests, nil
}

// HashReader computes the digest of everything readable from r.
func HashReader(r io.Reader, algorithm Algorithm) (Digest, error) {
	digests, err := hashStream(r, defaultBufferSize, []Algorithm{algorithm})
	if err != nil {
		return Digest{}, err
	}
	return digests[0], nil
}

func hashStream(r io.Reader, bufferSize int, algorithms []Algorithm) ([]Digest, error) {
	hashers := make([]hash.Hash, len(algorithms))
	writers := make([]io.Writer, len(algorithms))
	for i, algorithm := range algorithms {
		hasher, err := NewHasher(algorithm)
		if err != nil {
			return nil, err
		}
		hashers[i] = hasher
		writers[i] = hasher
	}

	buffer := make([]byte, bufferSize)
	if _, err := io.CopyBuffer(io.MultiWriter(writers...), onlyReader{r}, buffer); err != nil {
		return nil, err
	}

	digests := make([]Digest, len(algorithms))
	for i, algorithm := range algorithms {
		d, err := New(algorithm, hashers[i].Sum(nil))
		if err != nil {
			return nil, err
		}
		digests[i] = d
	}
	return digests, nil
}

// onlyReader hides WriterTo implementations (such as *os.File) so that
// io.CopyBuffer actually uses the supplied buffer.
type onlyReader struct {
	io.Reader
}

func clampBufferSize(size int64) int {
	switch {
	case size <= 0:
		return defaultBufferSize
	case size < minBufferSize:
		return minBufferSize
	case size > maxBufferSize:
		return maxBufferSize
	default:
		return int(size)
	}
}
