// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package digest

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/sha3"
)

// Swarm BMT parameters. A chunk carries up to 4096 bytes of payload; its
// address is keccak256(span || BMT root) where the BMT is a binary
// keccak256 tree over the 128 32-byte segments of the zero-padded
// payload. Files larger than one chunk are split into data chunks whose
// addresses are packed, 128 per chunk, into intermediate chunks until a
// single root remains.
const (
	bzzChunkSize   = 4096
	bzzSegmentSize = 32
	bzzBranches    = bzzChunkSize / bzzSegmentSize
	bzzSpanSize    = 8
)

type bzzRef struct {
	address [32]byte
	span    uint64
}

// BzzHasher computes the Swarm content address of a byte stream. Memory
// use is one pending chunk plus at most 128 references per tree level.
type BzzHasher struct {
	pending []byte
	levels  [][]bzzRef
	keccak  hash.Hash
}

var _ hash.Hash = (*BzzHasher)(nil)

// NewBzzHasher returns an empty Swarm BMT hasher.
func NewBzzHasher() *BzzHasher {
	return &BzzHasher{
		pending: make([]byte, 0, bzzChunkSize),
		keccak:  sha3.NewLegacyKeccak256(),
	}
}

// Write buffers p into data chunks. A full chunk is only committed to
// the tree once more data arrives, because a single-chunk stream has no
// intermediate level.
func (h *BzzHasher) Write(p []byte) (int, error) {
	written := len(p)
	for len(p) > 0 {
		if len(h.pending) == bzzChunkSize {
			h.levels = h.push(h.levels, 0, h.dataRef(h.pending))
			h.pending = h.pending[:0]
		}
		take := min(bzzChunkSize-len(h.pending), len(p))
		h.pending = append(h.pending, p[:take]...)
		p = p[take:]
	}
	return written, nil
}

// Sum appends the content address to b without changing the hasher's
// state.
func (h *BzzHasher) Sum(b []byte) []byte {
	levels := make([][]bzzRef, len(h.levels))
	for i, level := range h.levels {
		levels[i] = append([]bzzRef(nil), level...)
	}
	levels = h.push(levels, 0, h.dataRef(h.pending))

	for level := 0; ; level++ {
		refs := levels[level]
		if len(refs) == 0 {
			continue
		}
		if len(refs) == 1 && !hasRefsAbove(levels, level) {
			return append(b, refs[0].address[:]...)
		}
		carried := refs[0]
		if len(refs) > 1 {
			carried = h.wrap(refs)
		}
		levels[level] = nil
		levels = h.push(levels, level+1, carried)
	}
}

// Reset discards all written data.
func (h *BzzHasher) Reset() {
	h.pending = h.pending[:0]
	h.levels = nil
}

// Size returns the address length.
func (h *BzzHasher) Size() int { return 32 }

// BlockSize returns the chunk payload size.
func (h *BzzHasher) BlockSize() int { return bzzChunkSize }

// push appends ref at level, first packing a full level into a parent
// reference one level up.
func (h *BzzHasher) push(levels [][]bzzRef, level int, ref bzzRef) [][]bzzRef {
	for len(levels) <= level {
		levels = append(levels, make([]bzzRef, 0, bzzBranches))
	}
	if len(levels[level]) == bzzBranches {
		parent := h.wrap(levels[level])
		levels[level] = levels[level][:0]
		levels = h.push(levels, level+1, parent)
	}
	levels[level] = append(levels[level], ref)
	return levels
}

func hasRefsAbove(levels [][]bzzRef, level int) bool {
	for _, refs := range levels[level+1:] {
		if len(refs) > 0 {
			return true
		}
	}
	return false
}

// wrap packs child references into an intermediate chunk.
func (h *BzzHasher) wrap(children []bzzRef) bzzRef {
	payload := make([]byte, 0, len(children)*bzzSegmentSize)
	var span uint64
	for _, child := range children {
		payload = append(payload, child.address[:]...)
		span += child.span
	}
	return bzzRef{address: h.chunkAddress(payload, span), span: span}
}

func (h *BzzHasher) dataRef(data []byte) bzzRef {
	span := uint64(len(data))
	return bzzRef{address: h.chunkAddress(data, span), span: span}
}

func (h *BzzHasher) chunkAddress(payload []byte, span uint64) [32]byte {
	var segments [bzzChunkSize]byte
	copy(segments[:], payload)

	level := segments[:]
	for len(level) > bzzSegmentSize {
		next := make([]byte, len(level)/2)
		for i := 0; i < len(level); i += 2 * bzzSegmentSize {
			h.keccak.Reset()
			h.keccak.Write(level[i : i+2*bzzSegmentSize])
			h.keccak.Sum(next[i/2 : i/2])
		}
		level = next
	}

	var spanBytes [bzzSpanSize]byte
	binary.LittleEndian.PutUint64(spanBytes[:], span)

	h.keccak.Reset()
	h.keccak.Write(spanBytes[:])
	h.keccak.Write(level)
	var address [32]byte
	h.keccak.Sum(address[:0])
	return address
}
