// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"fmt"
	"strings"
)

// FieldType is the storage type of a column.
type FieldType int

const (
	Int32 FieldType = iota + 1
	UInt32
	Float32
	String    // uint32 offset into the string block
	Boolean   // uint32, true when nonzero
	LocString // one string offset per Locale
)

func (t FieldType) String() string {
	switch t {
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Float32:
		return "float32"
	case String:
		return "string"
	case Boolean:
		return "bool"
	case LocString:
		return "locstring"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// Locale is the slot of a localized string.
type Locale int

const (
	EnUS Locale = iota
	KoKR
	FrFR
	DeDE
	ZhCN
	ZhTW
	EsES
	EsMX
	RuRU
)

// LocaleCount is the number of string slots in a LocalizedString column.
const LocaleCount = 9

var localeNames = [LocaleCount]string{"enUS", "koKR", "frFR", "deDE", "zhCN", "zhTW", "esES", "esMX", "ruRU"}

func (l Locale) String() string {
	if l >= 0 && int(l) < LocaleCount {
		return localeNames[l]
	}
	return fmt.Sprintf("Locale(%d)", int(l))
}

// ParseLocale returns the locale with the given name, such as "enUS",
// ignoring case.
func ParseLocale(name string) (Locale, bool) {
	for i, n := range localeNames {
		if strings.EqualFold(n, name) {
			return Locale(i), true
		}
	}
	return 0, false
}

// LocalizedString holds the text of one localized column, keyed by locale.
type LocalizedString map[Locale]string

// Column describes one field of a record.
type Column struct {
	Name       string
	Type       FieldType
	ArraySize  int // number of elements; 0 and 1 both mean a scalar
	PrimaryKey bool
}

// count returns the number of elements stored for the column.
func (c Column) count() int {
	if c.ArraySize < 1 || c.Type == LocString {
		return 1
	}
	return c.ArraySize
}

// Width returns the number of bytes the column occupies in a record.
func (c Column) Width() int {
	if c.Type == LocString {
		return 4 * LocaleCount
	}
	return 4 * c.count()
}

// DefaultColumns returns n UInt32 columns named field_0 to field_n-1, the
// first of them the primary key.
func DefaultColumns(n int) []Column {
	columns := make([]Column, n)
	for i := range columns {
		columns[i] = Column{
			Name:       fmt.Sprintf("field_%d", i),
			Type:       UInt32,
			PrimaryKey: i == 0,
		}
	}
	return columns
}
