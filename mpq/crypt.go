// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import "encoding/binary"

// HashType selects which section of the crypt table a hash mixes with.
type HashType uint32

const (
	// HashTableOffset yields the preferred hash table slot for a name.
	HashTableOffset HashType = 0
	// HashNameA is the first name check hash stored in a hash table entry.
	HashNameA HashType = 1
	// HashNameB is the second name check hash stored in a hash table entry.
	HashNameB HashType = 2
	// HashFileKey derives decryption keys, e.g. for "(hash table)" and "(block table)".
	HashFileKey HashType = 3
)

// cryptTable is the encryption/hash lookup table. It is built in a
// variable initializer so that the package-level keys below can use it.
var cryptTable = func() [0x500]uint32 {
	var table [0x500]uint32
	seed := uint32(0x00100001)

	for index1 := 0; index1 < 0x100; index1++ {
		index2 := index1
		for i := 0; i < 5; i++ {
			seed = (seed*125 + 3) % 0x2AAAAB
			temp1 := (seed & 0xFFFF) << 0x10

			seed = (seed*125 + 3) % 0x2AAAAB
			temp2 := seed & 0xFFFF

			table[index2] = temp1 | temp2
			index2 += 0x100
		}
	}
	return table
}()

// Decryption keys of the two archive directories.
var (
	HashTableKey  = Hash("(hash table)", HashFileKey)
	BlockTableKey = Hash("(block table)", HashFileKey)
)

// Hash computes the MPQ hash of name. Hashing is case-insensitive and
// treats forward slashes as backslashes.
func Hash(name string, kind HashType) uint32 {
	seed1 := uint32(0x7FED7FED)
	seed2 := uint32(0xEEEEEEEE)

	for i := 0; i < len(name); i++ {
		ch := uint32(name[i])
		if ch >= 'a' && ch <= 'z' {
			ch -= 0x20
		}
		if ch == '/' {
			ch = '\\'
		}

		seed1 = cryptTable[uint32(kind)*0x100+ch] ^ (seed1 + seed2)
		seed2 = ch + seed1 + seed2 + (seed2 << 5) + 3
	}

	return seed1
}

// decryptBlock decrypts a block of words in place
func decryptBlock(data []uint32, key uint32) {
	seed := uint32(0xEEEEEEEE)

	for i := range data {
		seed += cryptTable[0x400+(key&0xFF)]
		plain := data[i] ^ (key + seed)
		key = ((^key << 0x15) + 0x11111111) | (key >> 0x0B)
		seed = plain + seed + (seed << 5) + 3
		data[i] = plain
	}
}

// Decrypt returns the decryption of data under key. Data is processed as
// little-endian words; a trailing partial word is dropped.
func Decrypt(data []byte, key uint32) []byte {
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	decryptBlock(words, key)

	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}
