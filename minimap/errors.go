// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package minimap

import "errors"

var (
	// ErrFormat is returned for a malformed md5translate.trs.
	ErrFormat = errors.New("minimap: malformed translate file")

	// ErrMissingResource is returned when a file the service needs is not in the archives.
	ErrMissingResource = errors.New("minimap: missing resource")
)
