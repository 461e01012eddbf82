// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the size of the fixed WDBC header in bytes.
const HeaderSize = 20

var signature = [4]byte{'W', 'D', 'B', 'C'}

// Header is the fixed WDBC file header.
type Header struct {
	Signature       [4]byte
	RecordCount     uint32
	FieldCount      uint32
	RecordSize      uint32 // bytes per record
	StringBlockSize uint32
}

// parseHeader decodes and validates the header at the start of data.
func parseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
	}
	header := &Header{}
	if err := binary.Read(bytes.NewReader(data[:HeaderSize]), binary.LittleEndian, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Signature != signature {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSignature, header.Signature[:])
	}
	return header, nil
}

// stringBlockOffset returns where the string block starts.
func (h *Header) stringBlockOffset() uint64 {
	return HeaderSize + uint64(h.RecordCount)*uint64(h.RecordSize)
}
