// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the framing around an archive.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionLZ4
	CompressionZstd
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// String returns the name accepted by ParseCompression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name. The empty string means
// none.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("archive: unknown compression %q", name)
	}
}

// Detect identifies the compression of an archive from its first bytes.
// Anything that is not a zstd or LZ4 frame is treated as uncompressed.
func Detect(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return CompressionZstd
	case bytes.HasPrefix(header, lz4Magic):
		return CompressionLZ4
	default:
		return CompressionNone
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressor wraps w in the framing for c. Closing the result flushes
// the frame but does not close w.
func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("archive: zstd encoder: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("archive: unsupported compression %s", c)
	}
}

// decompressor detects the framing of r and returns a reader over the
// decompressed content. release must be called when reading is done.
func decompressor(r io.Reader) (content io.Reader, c Compression, release func(), err error) {
	buffered := bufio.NewReader(r)
	header, err := buffered.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, 0, nil, fmt.Errorf("archive: reading header: %w", err)
	}

	c = Detect(header)
	switch c {
	case CompressionZstd:
		decoder, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, 0, nil, fmt.Errorf("archive: zstd decoder: %w", err)
		}
		return decoder, c, decoder.Close, nil
	case CompressionLZ4:
		return lz4.NewReader(buffered), c, func() {}, nil
	default:
		return buffered, c, func() {}, nil
	}
}
