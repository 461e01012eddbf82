// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"
)

// Database decodes the records of one WDBC file.
//
// The header, records and primary key index are each computed once and
// kept. A Database is not safe for concurrent use until they are loaded.
type Database struct {
	data    []byte
	columns []Column
	logger  *slog.Logger

	header  *Header
	records []Record
	loaded  bool
	keys    map[any]int
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(db *Database) {
		db.logger = logger
	}
}

// New returns a Database over data. With no columns, every field is read
// as an unsigned integer (see DefaultColumns).
func New(data []byte, columns []Column, opts ...Option) *Database {
	db := &Database{data: data, columns: columns}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Open reads the file at path and validates its header.
func Open(path string, columns []Column, opts ...Option) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	db := New(data, columns, opts...)
	if _, err := db.Header(); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

func (db *Database) log() *slog.Logger {
	if db.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return db.logger
}

// Header returns the file header.
func (db *Database) Header() (*Header, error) {
	if db.header != nil {
		return db.header, nil
	}
	header, err := parseHeader(db.data)
	if err != nil {
		return nil, err
	}
	db.header = header
	db.log().Debug("parsed dbc header",
		"records", header.RecordCount,
		"fields", header.FieldCount,
		"record_size", header.RecordSize,
		"string_block_size", header.StringBlockSize)
	return db.header, nil
}

// Columns returns the schema records are decoded with.
func (db *Database) Columns() ([]Column, error) {
	if len(db.columns) > 0 {
		return db.columns, nil
	}
	header, err := db.Header()
	if err != nil {
		return nil, err
	}
	db.columns = DefaultColumns(int(header.FieldCount))
	return db.columns, nil
}

// Records decodes every record. Repeated calls return the same slice.
func (db *Database) Records() ([]Record, error) {
	if db.loaded {
		return db.records, nil
	}

	header, err := db.Header()
	if err != nil {
		return nil, err
	}
	columns, err := db.Columns()
	if err != nil {
		return nil, err
	}

	width := 0
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		width += col.Width()
		index[col.Name] = i
	}
	if width != int(header.RecordSize) {
		db.log().Debug("column widths do not match record size",
			"width", width,
			"record_size", header.RecordSize)
	}

	if header.RecordSize == 0 && header.RecordCount > 0 {
		return nil, fmt.Errorf("%w: %d records of size 0", ErrFormat, header.RecordCount)
	}
	stringsStart := header.stringBlockOffset()
	stringsEnd := stringsStart + uint64(header.StringBlockSize)
	if uint64(len(db.data)) < stringsEnd {
		return nil, fmt.Errorf("read string block: %w", io.ErrUnexpectedEOF)
	}
	d := &decoder{strings: db.data[stringsStart:stringsEnd]}

	records := make([]Record, 0, header.RecordCount)
	for i := uint64(0); i < uint64(header.RecordCount); i++ {
		start := HeaderSize + i*uint64(header.RecordSize)
		row := db.data[start : start+uint64(header.RecordSize)]

		values := make([]any, len(columns))
		cursor := 0
		for c, col := range columns {
			v, err := d.column(row, cursor, col)
			if err != nil {
				return nil, fmt.Errorf("record %d column %s: %w", i, col.Name, err)
			}
			values[c] = v
			cursor += col.Width()
		}
		records = append(records, Record{Values: values, index: index})
	}

	db.records = records
	db.loaded = true
	db.log().Debug("decoded dbc records", "records", len(records), "columns", len(columns))
	return db.records, nil
}

// Find returns the record whose primary key equals key. The key must have
// the Go type of the primary key column, for example uint32 for UInt32.
func (db *Database) Find(key any) (Record, bool, error) {
	records, err := db.Records()
	if err != nil {
		return Record{}, false, err
	}
	if db.keys == nil {
		columns, err := db.Columns()
		if err != nil {
			return Record{}, false, err
		}
		pk := -1
		for i, col := range columns {
			if col.PrimaryKey && col.count() == 1 && col.Type != LocString {
				pk = i
				break
			}
		}
		if pk < 0 {
			return Record{}, false, fmt.Errorf("%w: no scalar primary key column", ErrSchema)
		}
		db.keys = make(map[any]int, len(records))
		for i, rec := range records {
			if _, dup := db.keys[rec.Values[pk]]; !dup {
				db.keys[rec.Values[pk]] = i
			}
		}
	}
	i, ok := db.keys[key]
	if !ok {
		return Record{}, false, nil
	}
	return records[i], true, nil
}

// decoder resolves column values against one string block.
type decoder struct {
	strings []byte
}

func (d *decoder) column(row []byte, cursor int, col Column) (any, error) {
	if cursor+col.Width() > len(row) {
		return nil, io.ErrUnexpectedEOF
	}
	b := row[cursor : cursor+col.Width()]

	switch col.Type {
	case Int32:
		return decodeArray(b, col, func(u uint32) (int32, error) { return int32(u), nil })
	case UInt32:
		return decodeArray(b, col, func(u uint32) (uint32, error) { return u, nil })
	case Float32:
		return decodeArray(b, col, func(u uint32) (float32, error) { return math.Float32frombits(u), nil })
	case String:
		return decodeArray(b, col, d.string)
	case Boolean:
		return decodeArray(b, col, func(u uint32) (bool, error) { return u != 0, nil })
	case LocString:
		text := make(LocalizedString, LocaleCount)
		for l := range LocaleCount {
			s, err := d.string(binary.LittleEndian.Uint32(b[l*4:]))
			if err != nil {
				return nil, fmt.Errorf("locale %s: %w", Locale(l), err)
			}
			text[Locale(l)] = s
		}
		return text, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFieldType, int(col.Type))
	}
}

// decodeArray decodes a scalar column as T and an array column as []T.
func decodeArray[T any](b []byte, col Column, conv func(uint32) (T, error)) (any, error) {
	if col.count() == 1 {
		v, err := conv(binary.LittleEndian.Uint32(b))
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	out := make([]T, col.count())
	for i := range out {
		v, err := conv(binary.LittleEndian.Uint32(b[i*4:]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// string resolves a string block offset. Offset 0 is the empty string.
func (d *decoder) string(offset uint32) (string, error) {
	if offset == 0 {
		return "", nil
	}
	if uint64(offset) >= uint64(len(d.strings)) {
		return "", fmt.Errorf("%w: %d of %d", ErrStringOffset, offset, len(d.strings))
	}
	s := d.strings[offset:]
	if end := bytes.IndexByte(s, 0); end >= 0 {
		s = s[:end]
	}
	return strings.ToValidUTF8(string(s), "\uFFFD"), nil
}

// Record is one decoded row. Values holds one entry per column, in column
// order.
type Record struct {
	Values []any
	index  map[string]int
}

// Get returns the value of the named column.
func (r Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.Values[i], true
}

// Field returns the named column as a T. The boolean is false when the
// column is missing or holds a different type.
func Field[T any](r Record, name string) (T, bool) {
	v, ok := r.Get(name)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}
