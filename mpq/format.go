// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// MPQ format constants
const (
	formatVersion1 = 0 // Original format (up to 4GB)
	formatVersion2 = 1 // Extended format (Burning Crusade+)

	headerSizeV1        = 0x20 // 32 bytes
	headerExtensionSize = 0x0C // 12 bytes
	tableEntrySize      = 0x10 // hash and block table entries

	// Hash table entry block index sentinels
	hashTableEmpty   = 0xFFFFFFFF
	hashTableDeleted = 0xFFFFFFFE
)

var (
	mpqMagic   = [4]byte{'M', 'P', 'Q', 0x1A}
	shuntMagic = [4]byte{'M', 'P', 'Q', 0x1B}
)

// Block table entry flags
const (
	FlagImplode      = 0x00000100 // Imploded (PKWARE compression)
	FlagCompress     = 0x00000200 // Compressed (multi-algorithm)
	FlagEncrypted    = 0x00010000 // Encrypted
	FlagFixKey       = 0x00020000 // Key adjusted by block offset
	FlagPatchFile    = 0x00100000 // Patch file
	FlagSingleUnit   = 0x01000000 // Single unit (not split into sectors)
	FlagDeleteMarker = 0x02000000 // File is a deletion marker
	FlagSectorCRC    = 0x04000000 // Sector CRC values after data
	FlagExists       = 0x80000000 // File exists
)

// Header is the MPQ archive header.
type Header struct {
	Magic            [4]byte
	HeaderSize       uint32
	ArchiveSize      uint32
	FormatVersion    uint16
	BlockSizeShift   uint16 // sector size is 512 << BlockSizeShift
	HashTableOffset  uint32 // low 32 bits
	BlockTableOffset uint32 // low 32 bits
	HashTableSize    uint32 // entry count
	BlockTableSize   uint32 // entry count

	// Extension is only present for format version 1.
	Extension *HeaderExtension
}

// HeaderExtension holds the fields appended to the header by format version 1.
type HeaderExtension struct {
	ExtendedBlockTableOffset int64 // offset of the hi-block table
	HashTableOffsetHigh      int16
	BlockTableOffsetHigh     int16
}

// headerV1 is the fixed on-disk part of the header.
type headerV1 struct {
	Magic            [4]byte
	HeaderSize       uint32
	ArchiveSize      uint32
	FormatVersion    uint16
	BlockSizeShift   uint16
	HashTableOffset  uint32
	BlockTableOffset uint32
	HashTableSize    uint32
	BlockTableSize   uint32
}

// SectorSize returns the size of a file sector in bytes.
func (h *Header) SectorSize() uint32 {
	return 512 << h.BlockSizeShift
}

// HashTablePos returns the full 64-bit hash table offset.
func (h *Header) HashTablePos() int64 {
	pos := int64(h.HashTableOffset)
	if h.Extension != nil {
		pos |= int64(uint16(h.Extension.HashTableOffsetHigh)) << 32
	}
	return pos
}

// BlockTablePos returns the full 64-bit block table offset.
func (h *Header) BlockTablePos() int64 {
	pos := int64(h.BlockTableOffset)
	if h.Extension != nil {
		pos |= int64(uint16(h.Extension.BlockTableOffsetHigh)) << 32
	}
	return pos
}

// HashTableEntry is one slot of the hash table.
type HashTableEntry struct {
	NameHash1  uint32 // HashNameA of the file name
	NameHash2  uint32 // HashNameB of the file name
	Locale     uint16
	Platform   uint16
	BlockIndex uint32 // index into the block table, or an empty/deleted sentinel
}

// Empty reports whether the slot has never been used.
func (e HashTableEntry) Empty() bool {
	return e.BlockIndex == hashTableEmpty
}

// Deleted reports whether the slot held a file that was removed.
func (e HashTableEntry) Deleted() bool {
	return e.BlockIndex == hashTableDeleted
}

// BlockTableEntry describes the stored form of one file.
type BlockTableEntry struct {
	FilePosition     uint32 // low 32 bits of the offset
	CompressedSize   uint32
	UncompressedSize uint32
	Flags            uint32

	// FilePositionHigh comes from the hi-block table of version 1 archives.
	FilePositionHigh uint16
}

// Pos returns the full 64-bit file position.
func (b *BlockTableEntry) Pos() int64 {
	return int64(b.FilePosition) | int64(b.FilePositionHigh)<<32
}

// HashTable is the decrypted hash table of an archive.
type HashTable struct {
	Entries []HashTableEntry
}

// BlockTable is the decrypted block table of an archive.
type BlockTable struct {
	Entries []BlockTableEntry
}

// parseHeader decodes the fixed header from the first 32 bytes of data.
func parseHeader(data []byte) (*Header, error) {
	var raw headerV1
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &raw); err != nil {
		return nil, err
	}
	return &Header{
		Magic:            raw.Magic,
		HeaderSize:       raw.HeaderSize,
		ArchiveSize:      raw.ArchiveSize,
		FormatVersion:    raw.FormatVersion,
		BlockSizeShift:   raw.BlockSizeShift,
		HashTableOffset:  raw.HashTableOffset,
		BlockTableOffset: raw.BlockTableOffset,
		HashTableSize:    raw.HashTableSize,
		BlockTableSize:   raw.BlockTableSize,
	}, nil
}

// parseHeaderExtension decodes the 12-byte version 1 extension.
func parseHeaderExtension(data []byte) (*HeaderExtension, error) {
	ext := &HeaderExtension{}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, ext); err != nil {
		return nil, err
	}
	return ext, nil
}

// parseHashTable splits decrypted table bytes into hash table entries.
func parseHashTable(data []byte) []HashTableEntry {
	entries := make([]HashTableEntry, len(data)/tableEntrySize)
	for i := range entries {
		b := data[i*tableEntrySize:]
		entries[i] = HashTableEntry{
			NameHash1:  binary.LittleEndian.Uint32(b[0:]),
			NameHash2:  binary.LittleEndian.Uint32(b[4:]),
			Locale:     binary.LittleEndian.Uint16(b[8:]),
			Platform:   binary.LittleEndian.Uint16(b[10:]),
			BlockIndex: binary.LittleEndian.Uint32(b[12:]),
		}
	}
	return entries
}

// parseBlockTable splits decrypted table bytes into block table entries.
func parseBlockTable(data []byte) []BlockTableEntry {
	entries := make([]BlockTableEntry, len(data)/tableEntrySize)
	for i := range entries {
		b := data[i*tableEntrySize:]
		entries[i] = BlockTableEntry{
			FilePosition:     binary.LittleEndian.Uint32(b[0:]),
			CompressedSize:   binary.LittleEndian.Uint32(b[4:]),
			UncompressedSize: binary.LittleEndian.Uint32(b[8:]),
			Flags:            binary.LittleEndian.Uint32(b[12:]),
		}
	}
	return entries
}

// applyHiBlockTable merges the hi-block table words into the entries.
func applyHiBlockTable(entries []BlockTableEntry, data []byte) error {
	if len(data) < len(entries)*2 {
		return fmt.Errorf("%w: hi-block table has %d bytes for %d entries", ErrCorrupt, len(data), len(entries))
	}
	for i := range entries {
		entries[i].FilePositionHigh = binary.LittleEndian.Uint16(data[i*2:])
	}
	return nil
}
