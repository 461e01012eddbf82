// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package testutil builds MPQ archives and DBC files in memory for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"os"
	"strings"
	"testing"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// Block flags written by the builder.
const (
	FlagCompress   = 0x00000200
	FlagEncrypted  = 0x00010000
	FlagSingleUnit = 0x01000000
	FlagExists     = 0x80000000
)

// Compression tags written in front of compressed payloads.
const (
	TagNone  = 0x00
	TagZlib  = 0x02
	TagBzip2 = 0x10
)

const (
	headerSize         = 0x20
	extendedHeaderSize = 0x2C
	hashTableEmpty     = 0xFFFFFFFF
	defaultSectorShift = 3
)

type member struct {
	name   string
	stored []byte
	size   uint32
	flags  uint32
	crc    uint32
}

// ArchiveBuilder assembles an MPQ archive. Files are laid out in the order
// they are added, followed by the listfile, the attributes, the hash table,
// the block table and, for extended headers, the hi-block table.
type ArchiveBuilder struct {
	tb          testing.TB
	extended    bool
	sectorShift uint16
	listfile    bool
	attributes  bool
	members     []member
}

// NewArchive returns an empty version 0 archive builder.
func NewArchive(tb testing.TB) *ArchiveBuilder {
	tb.Helper()
	return &ArchiveBuilder{tb: tb, sectorShift: defaultSectorShift}
}

// WithExtendedHeader writes a format version 1 header and a hi-block table.
func (b *ArchiveBuilder) WithExtendedHeader() *ArchiveBuilder {
	b.extended = true
	return b
}

// WithSectorShift sets the sector size to 512 << shift.
func (b *ArchiveBuilder) WithSectorShift(shift uint16) *ArchiveBuilder {
	b.sectorShift = shift
	return b
}

// WithListfile adds a "(listfile)" naming every added file.
func (b *ArchiveBuilder) WithListfile() *ArchiveBuilder {
	b.listfile = true
	return b
}

// WithAttributes adds an "(attributes)" member with CRC32 values.
func (b *ArchiveBuilder) WithAttributes() *ArchiveBuilder {
	b.attributes = true
	return b
}

// Add stores data as a single unit, zlib compressed when that is smaller.
func (b *ArchiveBuilder) Add(name string, data []byte) *ArchiveBuilder {
	b.tb.Helper()
	stored, flags := b.singleUnit(data)
	b.members = append(b.members, member{
		name:   name,
		stored: stored,
		size:   uint32(len(data)),
		flags:  flags,
		crc:    crc32.ChecksumIEEE(data),
	})
	return b
}

// AddRaw stores the given bytes with explicit size and flags. No CRC is
// recorded for raw members.
func (b *ArchiveBuilder) AddRaw(name string, stored []byte, size, flags uint32) *ArchiveBuilder {
	b.members = append(b.members, member{name: name, stored: stored, size: size, flags: flags})
	return b
}

// AddSectored splits data into sectors, each zlib compressed when that is
// smaller, behind a sector offset table.
func (b *ArchiveBuilder) AddSectored(name string, data []byte) *ArchiveBuilder {
	b.tb.Helper()
	sectorSize := 512 << b.sectorShift
	var sectors [][]byte
	for start := 0; start < len(data); start += sectorSize {
		end := min(start+sectorSize, len(data))
		chunk := data[start:end]
		compressed := Zlib(b.tb, chunk)
		if len(compressed) < len(chunk) {
			chunk = compressed
		}
		sectors = append(sectors, chunk)
	}

	offset := uint32(4 * (len(sectors) + 1))
	var buf bytes.Buffer
	offsets := make([]uint32, 0, len(sectors)+1)
	for _, s := range sectors {
		offsets = append(offsets, offset)
		offset += uint32(len(s))
	}
	offsets = append(offsets, offset)
	require.NoError(b.tb, binary.Write(&buf, binary.LittleEndian, offsets))
	for _, s := range sectors {
		buf.Write(s)
	}

	b.members = append(b.members, member{
		name:   name,
		stored: buf.Bytes(),
		size:   uint32(len(data)),
		flags:  FlagExists | FlagCompress,
		crc:    crc32.ChecksumIEEE(data),
	})
	return b
}

func (b *ArchiveBuilder) singleUnit(data []byte) ([]byte, uint32) {
	flags := uint32(FlagExists | FlagSingleUnit)
	compressed := Zlib(b.tb, data)
	if len(compressed) < len(data) {
		return compressed, flags | FlagCompress
	}
	return data, flags
}

// Bytes returns the encoded archive.
func (b *ArchiveBuilder) Bytes() []byte {
	b.tb.Helper()

	members := append([]member(nil), b.members...)
	if b.listfile {
		var names strings.Builder
		for _, m := range b.members {
			names.WriteString(m.name)
			names.WriteString("\r\n")
		}
		data := []byte(names.String())
		stored, flags := b.singleUnit(data)
		members = append(members, member{
			name:   "(listfile)",
			stored: stored,
			size:   uint32(len(data)),
			flags:  flags,
			crc:    crc32.ChecksumIEEE(data),
		})
	}
	if b.attributes {
		count := len(members) + 1
		words := make([]uint32, 0, 2+count)
		words = append(words, 100, 0x00000001)
		for _, m := range members {
			words = append(words, m.crc)
		}
		// The attributes member carries no checksum of itself.
		words = append(words, 0)
		var buf bytes.Buffer
		require.NoError(b.tb, binary.Write(&buf, binary.LittleEndian, words))
		members = append(members, member{
			name:   "(attributes)",
			stored: buf.Bytes(),
			size:   uint32(buf.Len()),
			flags:  FlagExists | FlagSingleUnit,
		})
	}

	hdrSize := uint32(headerSize)
	if b.extended {
		hdrSize = extendedHeaderSize
	}

	var body bytes.Buffer
	positions := make([]uint32, len(members))
	for i, m := range members {
		positions[i] = hdrSize + uint32(body.Len())
		body.Write(m.stored)
	}

	hashSize := uint32(16)
	for hashSize < uint32(2*len(members)) {
		hashSize <<= 1
	}
	hashWords := make([]uint32, hashSize*4)
	for i := range hashWords {
		hashWords[i] = hashTableEmpty
	}
	for i, m := range members {
		start := hashString(m.name, hashTypeTableOffset) % hashSize
		for probe := uint32(0); probe < hashSize; probe++ {
			slot := (start + probe) % hashSize
			if hashWords[slot*4+3] != hashTableEmpty {
				continue
			}
			hashWords[slot*4] = hashString(m.name, hashTypeNameA)
			hashWords[slot*4+1] = hashString(m.name, hashTypeNameB)
			hashWords[slot*4+2] = 0
			hashWords[slot*4+3] = uint32(i)
			break
		}
	}
	encryptBlock(hashWords, hashString("(hash table)", hashTypeFileKey))

	blockWords := make([]uint32, 0, len(members)*4)
	for i, m := range members {
		blockWords = append(blockWords, positions[i], uint32(len(m.stored)), m.size, m.flags)
	}
	encryptBlock(blockWords, hashString("(block table)", hashTypeFileKey))

	hashTableOffset := hdrSize + uint32(body.Len())
	require.NoError(b.tb, binary.Write(&body, binary.LittleEndian, hashWords))
	blockTableOffset := hdrSize + uint32(body.Len())
	require.NoError(b.tb, binary.Write(&body, binary.LittleEndian, blockWords))
	hiBlockTableOffset := hdrSize + uint32(body.Len())
	if b.extended {
		body.Write(make([]byte, 2*len(members)))
	}
	archiveSize := hdrSize + uint32(body.Len())

	var out bytes.Buffer
	out.WriteString("MPQ\x1a")
	version := uint16(0)
	if b.extended {
		version = 1
	}
	require.NoError(b.tb, binary.Write(&out, binary.LittleEndian, struct {
		HeaderSize       uint32
		ArchiveSize      uint32
		FormatVersion    uint16
		BlockSizeShift   uint16
		HashTableOffset  uint32
		BlockTableOffset uint32
		HashTableSize    uint32
		BlockTableSize   uint32
	}{hdrSize, archiveSize, version, b.sectorShift, hashTableOffset, blockTableOffset, hashSize, uint32(len(members))}))
	if b.extended {
		require.NoError(b.tb, binary.Write(&out, binary.LittleEndian, struct {
			HiBlockTableOffset  int64
			HashTableOffsetHigh int16
			BlockTableOffsetHi  int16
		}{int64(hiBlockTableOffset), 0, 0}))
	}
	out.Write(body.Bytes())
	return out.Bytes()
}

// WriteFile writes the archive to path.
func (b *ArchiveBuilder) WriteFile(path string) {
	b.tb.Helper()
	require.NoError(b.tb, os.WriteFile(path, b.Bytes(), 0o644))
}

// Zlib returns data zlib compressed behind the zlib compression tag.
func Zlib(tb testing.TB, data []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	buf.WriteByte(TagZlib)
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(tb, err)
	require.NoError(tb, w.Close())
	return buf.Bytes()
}

// bzip2HelloWorld is "Hello World" repeated 100 times, bzip2 compressed.
const bzip2HelloWorld = "425a6839314159265359326b15820000639780400000400080060490002000508604052a8c34e916c8bf22e916c8b08b08b422c22c22f0bb9229c284819358ac10"

// Bzip2 returns a tagged bzip2 payload and the bytes it decodes to.
func Bzip2(tb testing.TB) (stored, plain []byte) {
	tb.Helper()
	payload, err := hex.DecodeString(bzip2HelloWorld)
	require.NoError(tb, err)
	return append([]byte{TagBzip2}, payload...), bytes.Repeat([]byte("Hello World"), 100)
}
