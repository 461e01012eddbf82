// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package for a malformed or
// unsupported archive wraps exactly one of them.
var (
	// ErrFormat is returned for archives whose header cannot be used.
	ErrFormat = errors.New("mpq: format error")

	// ErrNotSupported is returned for members this package cannot decode.
	// It is fatal for that member only; the archive stays usable.
	ErrNotSupported = errors.New("mpq: not supported")

	// ErrConfiguration is returned when a chain is misconfigured.
	ErrConfiguration = errors.New("mpq: configuration error")
)

var (
	// ErrInvalidSignature is returned when the archive does not start with "MPQ\x1a".
	ErrInvalidSignature = fmt.Errorf("%w: invalid MPQ header", ErrFormat)

	// ErrShunt is returned for archives starting with a user data shunt ("MPQ\x1b").
	ErrShunt = fmt.Errorf("%w: MPQ shunts are not supported", ErrFormat)

	// ErrUnsupportedVersion is returned for format versions 2 and later.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported MPQ format version", ErrFormat)

	// ErrCorrupt is returned when table or sector data is inconsistent.
	ErrCorrupt = fmt.Errorf("%w: corrupt archive data", ErrFormat)

	// ErrEncrypted is returned when reading an encrypted member.
	ErrEncrypted = fmt.Errorf("%w: encryption is not supported", ErrNotSupported)

	// ErrUnsupportedCompression is returned for unknown compression tags.
	ErrUnsupportedCompression = fmt.Errorf("%w: unsupported compression type", ErrNotSupported)

	// ErrNoPriority is returned when no priority pattern matches an archive path.
	ErrNoPriority = fmt.Errorf("%w: could not find a suitable priority", ErrConfiguration)
)
