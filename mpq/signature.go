// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"fmt"
	"slices"
)

// weakSignatureSize is the size of a "(signature)" member: 8 reserved
// bytes followed by a 512-bit RSA signature.
const weakSignatureSize = 72

// Signature is the weak digital signature stored in "(signature)".
type Signature struct {
	// RSA holds the signature bytes in the order they are stored (little-endian).
	RSA []byte
}

// Signature reads the "(signature)" member. It returns nil when the
// archive is not signed.
func (a *Archive) Signature() (*Signature, error) {
	data, ok, err := a.ReadFile("(signature)")
	if err != nil {
		return nil, fmt.Errorf("read signature: %w", err)
	}
	if !ok {
		return nil, nil
	}
	if len(data) != weakSignatureSize {
		return nil, fmt.Errorf("%w: signature has %d bytes, want %d", ErrCorrupt, len(data), weakSignatureSize)
	}
	return &Signature{RSA: slices.Clone(data[8:])}, nil
}
