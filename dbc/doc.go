// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

// Package dbc decodes WDBC client database files (*.dbc).
//
// A WDBC file is a 20-byte header, RecordCount fixed-size records and a
// string block. The file carries no schema, so callers describe each
// record with a list of [Column] values, or with a struct:
//
//	type Map struct {
//		ID        uint32 `dbc:"id,pk"`
//		Directory string `dbc:"directory"`
//		...
//	}
//
//	maps, err := dbc.Unmarshal[Map](data)
//
// Without a schema every field is decoded as a uint32.
package dbc
