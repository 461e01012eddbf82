// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package mpq

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/icecap/internal/testutil"
)

func TestHashFromStormLib(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  HashType
		want  uint32
	}{
		{"hash table key", "(hash table)", HashFileKey, 0xC3AF3770},
		{"block table key", "(block table)", HashFileKey, 0xEC83B3A3},
		{"table offset", "ReplaceableTextures\\CommandButtons\\BTNHaboss79.blp", HashTableOffset, 0x7365B3E7},
		{"name a", "ReplaceableTextures\\CommandButtons\\BTNHaboss79.blp", HashNameA, 0x8BD6929A},
		{"name b", "ReplaceableTextures\\CommandButtons\\BTNHaboss79.blp", HashNameB, 0xFD55129B},
		{"forward slashes", "ReplaceableTextures/CommandButtons/BTNHaboss79.blp", HashNameA, 0x8BD6929A},
		{"lowercase", "replaceabletextures\\commandbuttons\\btnhaboss79.blp", HashNameB, 0xFD55129B},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Hash(tt.input, tt.kind))
		})
	}
}

func TestTableKeys(t *testing.T) {
	assert.Equal(t, uint32(0xC3AF3770), HashTableKey)
	assert.Equal(t, uint32(0xEC83B3A3), BlockTableKey)
}

func TestHashKindsDiffer(t *testing.T) {
	name := "DBFilesClient\\Map.dbc"
	seen := map[uint32]HashType{}
	for _, kind := range []HashType{HashTableOffset, HashNameA, HashNameB, HashFileKey} {
		h := Hash(name, kind)
		_, dup := seen[h]
		assert.False(t, dup, "kind %d collides", kind)
		seen[h] = kind
	}
}

func TestCryptTableInitialization(t *testing.T) {
	// First entries of the table as published by StormLib.
	assert.Equal(t, uint32(0x55C636E2), cryptTable[0])
	assert.Equal(t, uint32(0x02BE0170), cryptTable[1])
	for i, v := range cryptTable {
		require.NotZero(t, v, "entry %d", i)
	}
}

func TestDecrypt(t *testing.T) {
	plain := []byte("0123456789abcdef0123456789abcdef")

	t.Run("round trip", func(t *testing.T) {
		enc := testutil.Encrypt(plain, HashTableKey)
		assert.NotEqual(t, plain, enc)
		assert.Equal(t, plain, Decrypt(enc, HashTableKey))
	})

	t.Run("deterministic", func(t *testing.T) {
		enc := testutil.Encrypt(plain, BlockTableKey)
		assert.Equal(t, Decrypt(enc, BlockTableKey), Decrypt(enc, BlockTableKey))
	})

	t.Run("keys differ", func(t *testing.T) {
		assert.NotEqual(t, Decrypt(plain, HashTableKey), Decrypt(plain, BlockTableKey))
	})

	t.Run("trailing partial word dropped", func(t *testing.T) {
		enc := testutil.Encrypt(plain[:8], HashTableKey)
		out := Decrypt(append(enc, 0xAA, 0xBB), HashTableKey)
		assert.Equal(t, plain[:8], out)
	})

	t.Run("input untouched", func(t *testing.T) {
		enc := testutil.Encrypt(plain, HashTableKey)
		snapshot := append([]byte(nil), enc...)
		Decrypt(enc, HashTableKey)
		assert.Equal(t, snapshot, enc)
	})

	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Decrypt(nil, HashTableKey))
	})
}
