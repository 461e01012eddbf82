// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"compress/bzip2"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Compression type constants
const (
	CompressionNone    = 0x00 // Stored verbatim after the tag byte
	CompressionHuffman = 0x01 // Huffman (used on wave files only)
	CompressionZlib    = 0x02 // Zlib compression
	CompressionPKWare  = 0x08 // PKWare DCL compression
	CompressionBzip2   = 0x10 // BZip2 compression
	CompressionLZMA    = 0x12 // LZMA compression (SC2+)
)

// decompressData decodes a tagged payload. The first byte selects the codec.
func decompressData(data []byte, uncompressedSize uint32) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty compressed data", ErrCorrupt)
	}

	compressionType := data[0]
	payload := data[1:]

	switch compressionType {
	case CompressionNone:
		if uint64(len(payload)) != uint64(uncompressedSize) {
			return nil, fmt.Errorf("%w: stored payload has %d bytes, want %d", ErrCorrupt, len(payload), uncompressedSize)
		}
		return payload, nil
	case CompressionZlib:
		return decompressZlib(payload, uncompressedSize)
	case CompressionBzip2:
		return decompressBzip2(payload, uncompressedSize)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnsupportedCompression, compressionType)
	}
}

// decompressZlib decompresses zlib-compressed data
func decompressZlib(data []byte, uncompressedSize uint32) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create zlib reader: %w", err)
	}
	defer r.Close()

	return readDecompressed(r, uncompressedSize, "zlib")
}

// decompressBzip2 decompresses bzip2-compressed data
func decompressBzip2(data []byte, uncompressedSize uint32) ([]byte, error) {
	return readDecompressed(bzip2.NewReader(bytes.NewReader(data)), uncompressedSize, "bzip2")
}

// readDecompressed reads the output of r, which must be exactly
// uncompressedSize bytes long.
func readDecompressed(r io.Reader, uncompressedSize uint32, codec string) ([]byte, error) {
	result, err := io.ReadAll(io.LimitReader(r, int64(uncompressedSize)+1))
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%s decompress: %w", codec, err)
	}
	if uint64(len(result)) != uint64(uncompressedSize) {
		return nil, fmt.Errorf("%w: %s output has %d bytes, want %d", ErrCorrupt, codec, len(result), uncompressedSize)
	}
	return result, nil
}
