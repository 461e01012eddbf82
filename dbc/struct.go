// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"fmt"
	"reflect"
	"strings"
)

var localizedStringType = reflect.TypeOf(LocalizedString(nil))

// structField links a column to the struct field it is stored in.
type structField struct {
	index  int
	column Column
}

// ColumnsOf derives columns from the exported fields of the struct v (or
// the struct v points to). Field types map to columns as follows:
//
//	int32            Int32
//	uint32           UInt32
//	float32          Float32
//	string           String
//	bool             Boolean
//	LocalizedString  LocString
//	[N]T             N-element array of the type of T
//
// The column name defaults to the field name and can be set with a tag,
// which may also mark the primary key:
//
//	ID   uint32 `dbc:"id,pk"`
//	Skip string `dbc:"-"`
//
// A field tagged "-" is not read, so it must not occupy space in the record.
func ColumnsOf(v any) ([]Column, error) {
	fields, err := structFields(reflect.TypeOf(v))
	if err != nil {
		return nil, err
	}
	columns := make([]Column, len(fields))
	for i, f := range fields {
		columns[i] = f.column
	}
	return columns, nil
}

func structFields(t reflect.Type) ([]structField, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrSchema, t)
	}

	var fields []structField
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("dbc")
		if tag == "-" {
			continue
		}

		col := Column{Name: f.Name}
		name, opts, _ := strings.Cut(tag, ",")
		if name != "" {
			col.Name = name
		}
		col.PrimaryKey = opts == "pk"

		ft := f.Type
		if ft.Kind() == reflect.Array {
			col.ArraySize = ft.Len()
			ft = ft.Elem()
		}
		typ, ok := fieldTypeOf(ft)
		if !ok || (typ == LocString && col.ArraySize > 0) {
			return nil, fmt.Errorf("%w: field %s has unsupported type %s", ErrSchema, f.Name, f.Type)
		}
		col.Type = typ
		fields = append(fields, structField{index: i, column: col})
	}
	return fields, nil
}

func fieldTypeOf(t reflect.Type) (FieldType, bool) {
	if t == localizedStringType {
		return LocString, true
	}
	switch t.Kind() {
	case reflect.Int32:
		return Int32, true
	case reflect.Uint32:
		return UInt32, true
	case reflect.Float32:
		return Float32, true
	case reflect.String:
		return String, true
	case reflect.Bool:
		return Boolean, true
	}
	return 0, false
}

// Decode copies the records of db into values of the struct type T. Each
// field is filled from the column with the same name as ColumnsOf derives.
func Decode[T any](db *Database) ([]T, error) {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %v is not a struct", ErrSchema, t)
	}
	fields, err := structFields(t)
	if err != nil {
		return nil, err
	}
	records, err := db.Records()
	if err != nil {
		return nil, err
	}

	out := make([]T, len(records))
	for i, rec := range records {
		dst := reflect.ValueOf(&out[i]).Elem()
		for _, f := range fields {
			v, ok := rec.Get(f.column.Name)
			if !ok {
				continue
			}
			if err := assign(dst.Field(f.index), v); err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i, f.column.Name, err)
			}
		}
	}
	return out, nil
}

// Unmarshal decodes a WDBC file into values of the struct type T, using
// the columns ColumnsOf derives from T.
func Unmarshal[T any](data []byte, opts ...Option) ([]T, error) {
	var zero T
	columns, err := ColumnsOf(zero)
	if err != nil {
		return nil, err
	}
	return Decode[T](New(data, columns, opts...))
}

func assign(dst reflect.Value, v any) error {
	src := reflect.ValueOf(v)
	if dst.Kind() == reflect.Array && src.Kind() == reflect.Slice {
		if src.Len() != dst.Len() || src.Type().Elem() != dst.Type().Elem() {
			return fmt.Errorf("%w: cannot store %s in %s", ErrSchema, src.Type(), dst.Type())
		}
		reflect.Copy(dst, src)
		return nil
	}
	if !src.Type().ConvertibleTo(dst.Type()) || src.Kind() != dst.Kind() {
		return fmt.Errorf("%w: cannot store %s in %s", ErrSchema, src.Type(), dst.Type())
	}
	dst.Set(src.Convert(dst.Type()))
	return nil
}
