// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Archive is a read-only view of one MPQ archive.
//
// The header, hash table, block table, listfile and attributes are each
// parsed at most once and kept for the lifetime of the Archive. An Archive
// is not safe for concurrent use until they have been loaded.
type Archive struct {
	path   string
	src    source
	logger *slog.Logger

	header     *Header
	hashTable  *HashTable
	blockTable *BlockTable

	fileNames       []string
	fileNamesLoaded bool

	attributes       *Attributes
	attributesLoaded bool
}

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// readerAt is a reader over the whole archive that knows its size.
type readerAt interface {
	io.ReaderAt
	Size() int64
}

// source hands out a reader for the duration of a single operation.
type source interface {
	open() (readerAt, func() error, error)
}

// fileSource opens the archive file for every operation.
type fileSource string

type fileReader struct {
	*os.File
	size int64
}

func (f fileReader) Size() int64 {
	return f.size
}

func (p fileSource) open() (readerAt, func() error, error) {
	f, err := os.Open(string(p))
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return fileReader{File: f, size: info.Size()}, f.Close, nil
}

// bytesSource serves an archive held in memory.
type bytesSource []byte

func (b bytesSource) open() (readerAt, func() error, error) {
	return bytes.NewReader(b), func() error { return nil }, nil
}

// Open opens the MPQ archive at path and validates its header.
// The file is only held open while a read is in progress.
func Open(path string, opts ...Option) (*Archive, error) {
	a := newArchive(path, fileSource(path), opts)
	if _, err := a.Header(); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return a, nil
}

// New returns an Archive over an in-memory copy of an archive. The name is
// used as the archive path for chain priorities.
func New(name string, data []byte, opts ...Option) *Archive {
	return newArchive(name, bytesSource(data), opts)
}

func newArchive(path string, src source, opts []Option) *Archive {
	a := &Archive{path: path, src: src}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Path returns the path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

// withReader runs fn with a reader that is released when fn returns.
func (a *Archive) withReader(fn func(r readerAt) error) (err error) {
	r, release, err := a.src.open()
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() {
		if cerr := release(); cerr != nil && err == nil {
			err = fmt.Errorf("close archive: %w", cerr)
		}
	}()
	return fn(r)
}

// readFull reads exactly size bytes at off. Ranges past the end of the
// archive fail before anything is allocated.
func readFull(r readerAt, off int64, size int) ([]byte, error) {
	if off < 0 || size < 0 || off > r.Size() || int64(size) > r.Size()-off {
		return nil, io.ErrUnexpectedEOF
	}
	buf := make([]byte, size)
	n, err := r.ReadAt(buf, off)
	if n == size {
		return buf, nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return nil, err
}

// Header returns the archive header.
func (a *Archive) Header() (*Header, error) {
	if a.header != nil {
		return a.header, nil
	}

	var header *Header
	err := a.withReader(func(r readerAt) error {
		magic, err := readFull(r, 0, len(mpqMagic))
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return ErrInvalidSignature
			}
			return fmt.Errorf("read magic: %w", err)
		}
		switch {
		case bytes.Equal(magic, shuntMagic[:]):
			return ErrShunt
		case !bytes.Equal(magic, mpqMagic[:]):
			return fmt.Errorf("%w: magic %q", ErrInvalidSignature, magic)
		}

		data, err := readFull(r, 0, headerSizeV1)
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		header, err = parseHeader(data)
		if err != nil {
			return fmt.Errorf("parse header: %w", err)
		}
		if header.FormatVersion > formatVersion2 {
			return fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.FormatVersion)
		}
		if header.FormatVersion == formatVersion2 {
			data, err := readFull(r, headerSizeV1, headerExtensionSize)
			if err != nil {
				return fmt.Errorf("read header extension: %w", err)
			}
			header.Extension, err = parseHeaderExtension(data)
			if err != nil {
				return fmt.Errorf("parse header extension: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.header = header
	a.log().Debug("parsed archive header",
		"archive", a.path,
		"version", header.FormatVersion,
		"hash_table_size", header.HashTableSize,
		"block_table_size", header.BlockTableSize)
	return a.header, nil
}

// readTable reads and decrypts count table entries at pos.
func (a *Archive) readTable(pos int64, count uint32, key uint32) ([]byte, error) {
	var data []byte
	err := a.withReader(func(r readerAt) error {
		need := int64(count) * tableEntrySize
		if pos < 0 || pos > r.Size() || need > r.Size()-pos {
			return fmt.Errorf("%w: table of %d entries at offset %d exceeds archive size %d",
				ErrCorrupt, count, pos, r.Size())
		}
		var err error
		data, err = readFull(r, pos, int(need))
		return err
	})
	if err != nil {
		return nil, err
	}
	return Decrypt(data, key), nil
}

// HashTable returns the decrypted hash table.
func (a *Archive) HashTable() (*HashTable, error) {
	if a.hashTable != nil {
		return a.hashTable, nil
	}

	header, err := a.Header()
	if err != nil {
		return nil, err
	}
	data, err := a.readTable(header.HashTablePos(), header.HashTableSize, HashTableKey)
	if err != nil {
		return nil, fmt.Errorf("read hash table: %w", err)
	}

	a.hashTable = &HashTable{Entries: parseHashTable(data)}
	a.log().Debug("loaded hash table", "archive", a.path, "entries", len(a.hashTable.Entries))
	return a.hashTable, nil
}

// BlockTable returns the decrypted block table.
func (a *Archive) BlockTable() (*BlockTable, error) {
	if a.blockTable != nil {
		return a.blockTable, nil
	}

	header, err := a.Header()
	if err != nil {
		return nil, err
	}
	data, err := a.readTable(header.BlockTablePos(), header.BlockTableSize, BlockTableKey)
	if err != nil {
		return nil, fmt.Errorf("read block table: %w", err)
	}
	entries := parseBlockTable(data)

	if ext := header.Extension; ext != nil && ext.ExtendedBlockTableOffset != 0 {
		err := a.withReader(func(r readerAt) error {
			hi, err := readFull(r, ext.ExtendedBlockTableOffset, len(entries)*2)
			if err != nil {
				return err
			}
			return applyHiBlockTable(entries, hi)
		})
		if err != nil {
			return nil, fmt.Errorf("read hi-block table: %w", err)
		}
	}

	a.blockTable = &BlockTable{Entries: entries}
	a.log().Debug("loaded block table", "archive", a.path, "entries", len(entries))
	return a.blockTable, nil
}

// HashTableEntry finds the hash table entry for name. Lookup starts at the
// slot given by HashTableOffset and probes linearly until an empty slot.
func (a *Archive) HashTableEntry(name string) (HashTableEntry, bool, error) {
	table, err := a.HashTable()
	if err != nil {
		return HashTableEntry{}, false, err
	}

	size := uint32(len(table.Entries))
	if size == 0 {
		return HashTableEntry{}, false, nil
	}

	nameA := Hash(name, HashNameA)
	nameB := Hash(name, HashNameB)
	start := Hash(name, HashTableOffset) % size

	for i := uint32(0); i < size; i++ {
		entry := table.Entries[(start+i)%size]
		if entry.Empty() {
			break
		}
		if entry.Deleted() {
			continue
		}
		if entry.NameHash1 == nameA && entry.NameHash2 == nameB {
			return entry, true, nil
		}
	}
	return HashTableEntry{}, false, nil
}

// blockEntry resolves name to its block table entry and index.
func (a *Archive) blockEntry(name string) (BlockTableEntry, uint32, bool, error) {
	entry, ok, err := a.HashTableEntry(name)
	if err != nil || !ok {
		return BlockTableEntry{}, 0, false, err
	}
	blocks, err := a.BlockTable()
	if err != nil {
		return BlockTableEntry{}, 0, false, err
	}
	if entry.BlockIndex >= uint32(len(blocks.Entries)) {
		return BlockTableEntry{}, 0, false, nil
	}
	return blocks.Entries[entry.BlockIndex], entry.BlockIndex, true, nil
}

// FileExists reports whether the archive holds a file called name.
func (a *Archive) FileExists(name string) (bool, error) {
	block, _, ok, err := a.blockEntry(name)
	if err != nil || !ok {
		return false, err
	}
	return block.Flags&FlagExists != 0, nil
}

// ReadFile returns the decoded contents of name. The boolean is false when
// the archive has no such member or the member is empty.
func (a *Archive) ReadFile(name string) ([]byte, bool, error) {
	block, _, ok, err := a.blockEntry(name)
	if err != nil || !ok {
		return nil, false, err
	}
	if block.CompressedSize == 0 || block.UncompressedSize == 0 {
		return nil, false, nil
	}
	if block.Flags&FlagEncrypted != 0 {
		return nil, false, fmt.Errorf("read %s: %w", name, ErrEncrypted)
	}
	if block.Flags&FlagImplode != 0 {
		return nil, false, fmt.Errorf("read %s: %w: PKWARE implode", name, ErrUnsupportedCompression)
	}

	header, err := a.Header()
	if err != nil {
		return nil, false, err
	}

	var raw []byte
	err = a.withReader(func(r readerAt) error {
		var err error
		raw, err = readFull(r, block.Pos(), int(block.CompressedSize))
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}

	data, err := decodeBlock(raw, &block, header.SectorSize())
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", name, err)
	}
	return data, true, nil
}

// decodeBlock turns the stored bytes of a block into file contents. Equal
// sizes mean the bytes are stored as is. Otherwise a compressed block that
// is not a single unit is read as sectors when it starts with a valid
// sector offset table, and as one tagged payload when it does not.
func decodeBlock(raw []byte, block *BlockTableEntry, sectorSize uint32) ([]byte, error) {
	if block.CompressedSize == block.UncompressedSize {
		return raw, nil
	}
	if block.Flags&FlagCompress != 0 && block.Flags&FlagSingleUnit == 0 {
		if offsets, ok := sectorOffsets(raw, block, sectorSize); ok {
			return decompressSectors(raw, offsets, block, sectorSize)
		}
	}
	return decompressData(raw, block.UncompressedSize)
}

// sectorOffsets reads the sector offset table at the start of data. The
// table must begin right after itself, never decrease and stay within data.
func sectorOffsets(data []byte, block *BlockTableEntry, sectorSize uint32) ([]uint32, bool) {
	if sectorSize == 0 {
		return nil, false
	}
	numSectors := (uint64(block.UncompressedSize) + uint64(sectorSize) - 1) / uint64(sectorSize)

	// The offset table has numSectors+1 entries, plus one for the CRC block.
	offsetCount := numSectors + 1
	if block.Flags&FlagSectorCRC != 0 {
		offsetCount++
	}
	if uint64(len(data)) < offsetCount*4 {
		return nil, false
	}

	offsets := make([]uint32, offsetCount)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	if uint64(offsets[0]) != offsetCount*4 {
		return nil, false
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, false
		}
	}
	if uint64(offsets[len(offsets)-1]) > uint64(len(data)) {
		return nil, false
	}
	return offsets[:numSectors+1], true
}

// decompressSectors decodes a sectored file given its offset table.
func decompressSectors(data []byte, offsets []uint32, block *BlockTableEntry, sectorSize uint32) ([]byte, error) {
	numSectors := uint32(len(offsets) - 1)
	var result []byte
	for i := uint32(0); i < numSectors; i++ {
		sector := data[offsets[i]:offsets[i+1]]

		expected := sectorSize
		if i == numSectors-1 {
			expected = block.UncompressedSize - i*sectorSize
		}

		if uint32(len(sector)) < expected {
			decompressed, err := decompressData(sector, expected)
			if err != nil {
				return nil, fmt.Errorf("decompress sector %d: %w", i, err)
			}
			result = append(result, decompressed...)
		} else {
			result = append(result, sector...)
		}
	}

	return result, nil
}

// FileNames returns the names listed in the archive's "(listfile)", or an
// empty list when the archive has none.
func (a *Archive) FileNames() ([]string, error) {
	if a.fileNamesLoaded {
		return a.fileNames, nil
	}

	data, ok, err := a.ReadFile("(listfile)")
	if err != nil {
		return nil, fmt.Errorf("read listfile: %w", err)
	}

	names := []string{}
	if ok {
		names = strings.FieldsFunc(string(data), func(r rune) bool {
			return r == '\r' || r == '\n'
		})
	}

	a.fileNames = names
	a.fileNamesLoaded = true
	a.log().Debug("loaded listfile", "archive", a.path, "files", len(names))
	return a.fileNames, nil
}
