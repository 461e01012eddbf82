// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"errors"
	"fmt"
)

var (
	// ErrFormat is returned for files that are not valid WDBC databases.
	ErrFormat = errors.New("dbc: format error")

	// ErrInvalidSignature is returned when the file does not start with "WDBC".
	ErrInvalidSignature = fmt.Errorf("%w: invalid DBC file signature", ErrFormat)

	// ErrStringOffset is returned when a string column points outside the string block.
	ErrStringOffset = fmt.Errorf("%w: string offset out of range", ErrFormat)

	// ErrUnknownFieldType is returned for a column whose type is not one of the FieldType constants.
	ErrUnknownFieldType = errors.New("dbc: unknown field type")

	// ErrSchema is returned when a Go type cannot be mapped to or from columns.
	ErrSchema = errors.New("dbc: invalid schema")
)
