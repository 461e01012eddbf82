// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	attributesVersion = 100

	AttributeCRC32    = 0x00000001
	AttributeFileTime = 0x00000002
	AttributeMD5      = 0x00000004
	AttributePatchBit = 0x00000008
)

// Attributes holds the per-block metadata stored in "(attributes)". Each
// present slice is indexed by block table index.
type Attributes struct {
	Version  uint32
	Flags    uint32
	CRC32    []uint32
	FileTime []uint64
	MD5      [][16]byte
	PatchBit []bool
}

// parseAttributes decodes an "(attributes)" member for blockCount blocks.
func parseAttributes(data []byte, blockCount int) (*Attributes, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: attributes too small: %d bytes", ErrCorrupt, len(data))
	}

	attrs := &Attributes{
		Version: binary.LittleEndian.Uint32(data[0:4]),
		Flags:   binary.LittleEndian.Uint32(data[4:8]),
	}
	if attrs.Version != attributesVersion {
		return nil, fmt.Errorf("%w: attributes version %d", ErrCorrupt, attrs.Version)
	}

	rest := data[8:]
	take := func(n int, what string) ([]byte, error) {
		if len(rest) < n {
			return nil, fmt.Errorf("%w: attributes truncated in %s", ErrCorrupt, what)
		}
		chunk := rest[:n]
		rest = rest[n:]
		return chunk, nil
	}

	if attrs.Flags&AttributeCRC32 != 0 {
		chunk, err := take(blockCount*4, "crc32")
		if err != nil {
			return nil, err
		}
		attrs.CRC32 = make([]uint32, blockCount)
		for i := range attrs.CRC32 {
			attrs.CRC32[i] = binary.LittleEndian.Uint32(chunk[i*4:])
		}
	}

	if attrs.Flags&AttributeFileTime != 0 {
		chunk, err := take(blockCount*8, "filetime")
		if err != nil {
			return nil, err
		}
		attrs.FileTime = make([]uint64, blockCount)
		for i := range attrs.FileTime {
			attrs.FileTime[i] = binary.LittleEndian.Uint64(chunk[i*8:])
		}
	}

	if attrs.Flags&AttributeMD5 != 0 {
		chunk, err := take(blockCount*16, "md5")
		if err != nil {
			return nil, err
		}
		attrs.MD5 = make([][16]byte, blockCount)
		for i := range attrs.MD5 {
			copy(attrs.MD5[i][:], chunk[i*16:])
		}
	}

	if attrs.Flags&AttributePatchBit != 0 {
		chunk, err := take((blockCount+7)/8, "patch bits")
		if err != nil {
			return nil, err
		}
		attrs.PatchBit = make([]bool, blockCount)
		for i := range attrs.PatchBit {
			attrs.PatchBit[i] = chunk[i/8]&(1<<(i%8)) != 0
		}
	}

	return attrs, nil
}

// Attributes returns the parsed "(attributes)" member, or nil when the
// archive has none.
func (a *Archive) Attributes() (*Attributes, error) {
	if a.attributesLoaded {
		return a.attributes, nil
	}

	blocks, err := a.BlockTable()
	if err != nil {
		return nil, err
	}
	data, ok, err := a.ReadFile("(attributes)")
	if err != nil {
		return nil, fmt.Errorf("read attributes: %w", err)
	}

	var attrs *Attributes
	if ok {
		attrs, err = parseAttributes(data, len(blocks.Entries))
		if err != nil {
			return nil, err
		}
	}

	a.attributes = attrs
	a.attributesLoaded = true
	return a.attributes, nil
}

// VerifyFile checks the contents of name against the CRC32 recorded in
// "(attributes)". Files without a recorded checksum verify trivially.
func (a *Archive) VerifyFile(name string) (bool, error) {
	_, index, ok, err := a.blockEntry(name)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("verify %s: file not found", name)
	}

	attrs, err := a.Attributes()
	if err != nil {
		return false, err
	}
	if attrs == nil || attrs.CRC32 == nil || attrs.CRC32[index] == 0 {
		return true, nil
	}

	data, _, err := a.ReadFile(name)
	if err != nil {
		return false, err
	}
	return crc32.ChecksumIEEE(data) == attrs.CRC32[index], nil
}
