// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// DBC returns a WDBC file made of the given parts. The header counts are
// taken as given, so they may disagree with the data.
func DBC(tb testing.TB, recordCount, fieldCount, recordSize uint32, records, strings []byte) []byte {
	tb.Helper()
	var buf bytes.Buffer
	buf.WriteString("WDBC")
	require.NoError(tb, binary.Write(&buf, binary.LittleEndian, []uint32{
		recordCount, fieldCount, recordSize, uint32(len(strings)),
	}))
	buf.Write(records)
	buf.Write(strings)
	return buf.Bytes()
}

// DBCBuilder assembles a WDBC file row by row.
type DBCBuilder struct {
	tb         testing.TB
	fieldCount uint32
	recordSize uint32
	rows       uint32
	records    bytes.Buffer
	strings    bytes.Buffer
	offsets    map[string]uint32
}

// NewDBC returns a builder for records of recordSize bytes.
func NewDBC(tb testing.TB, fieldCount, recordSize uint32) *DBCBuilder {
	b := &DBCBuilder{
		tb:         tb,
		fieldCount: fieldCount,
		recordSize: recordSize,
		offsets:    map[string]uint32{"": 0},
	}
	b.strings.WriteByte(0)
	return b
}

// String adds s to the string block and returns its offset.
func (b *DBCBuilder) String(s string) uint32 {
	if off, ok := b.offsets[s]; ok {
		return off
	}
	off := uint32(b.strings.Len())
	b.strings.WriteString(s)
	b.strings.WriteByte(0)
	b.offsets[s] = off
	return off
}

// Row appends a record. Values may be int32, uint32, float32, bool or
// string; strings are added to the string block.
func (b *DBCBuilder) Row(values ...any) *DBCBuilder {
	b.tb.Helper()
	for _, v := range values {
		switch v := v.(type) {
		case string:
			require.NoError(b.tb, binary.Write(&b.records, binary.LittleEndian, b.String(v)))
		case bool:
			var u uint32
			if v {
				u = 1
			}
			require.NoError(b.tb, binary.Write(&b.records, binary.LittleEndian, u))
		case int:
			require.NoError(b.tb, binary.Write(&b.records, binary.LittleEndian, int32(v)))
		default:
			require.NoError(b.tb, binary.Write(&b.records, binary.LittleEndian, v))
		}
	}
	b.rows++
	return b
}

// Bytes returns the encoded file.
func (b *DBCBuilder) Bytes() []byte {
	return DBC(b.tb, b.rows, b.fieldCount, b.recordSize, b.records.Bytes(), b.strings.Bytes())
}
