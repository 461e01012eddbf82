// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package minimap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/icecap/dbc"
	"github.com/suprsokr/icecap/internal/testutil"
	"github.com/suprsokr/icecap/mpq"
)

const translate = "dir: Azeroth\r\n" +
	"Azeroth\\map32_48.blp\t0a1b2c3d4e5f60718293a4b5c6d7e8f9.blp\r\n" +
	"Azeroth\\map32_49.blp\t11111111111111111111111111111111.blp\r\n" +
	"\r\n" +
	"dir: Kalimdor\r\n" +
	"Kalimdor\\map0_63.blp\t22222222222222222222222222222222.blp\r\n"

func mapDBC(t *testing.T) []byte {
	b := testutil.NewDBC(t, 13, 52)
	row := func(id uint32, dir string, instance, mapType uint32, name string) {
		values := []any{id, dir, instance, mapType, name}
		for range dbc.LocaleCount - 1 {
			values = append(values, "")
		}
		b.Row(values...)
	}
	row(0, "Azeroth", 0, 0, "Eastern Kingdoms")
	row(1, "Kalimdor", 0, 0, "Kalimdor")
	row(33, "Shadowfang", 1, 1, "Shadowfang Keep")
	return b.Bytes()
}

func newTestChain(t *testing.T, withTranslate, withMaps bool) *mpq.Chain {
	t.Helper()
	builder := testutil.NewArchive(t).
		Add(TexturesDirectory+`\0a1b2c3d4e5f60718293a4b5c6d7e8f9.blp`, []byte("BLP2 azeroth 32 48"))
	if withTranslate {
		builder.Add(TranslatePath, []byte(translate))
	}
	if withMaps {
		builder.Add(MapDatabasePath, mapDBC(t))
	}

	chain := mpq.NewChain()
	require.NoError(t, chain.AddArchive(mpq.New("Data/common.MPQ", builder.Bytes())))
	return chain
}

func TestParseTranslate(t *testing.T) {
	tr, err := ParseTranslate([]byte(translate))
	require.NoError(t, err)
	assert.Len(t, tr, 2)

	hashed, ok := tr.Lookup("Azeroth", "map32_48.blp")
	require.True(t, ok)
	assert.Equal(t, "0a1b2c3d4e5f60718293a4b5c6d7e8f9.blp", hashed)

	hashed, ok = tr.Lookup("kalimdor", "MAP0_63.BLP")
	require.True(t, ok)
	assert.Equal(t, "22222222222222222222222222222222.blp", hashed)

	_, ok = tr.Lookup("Azeroth", "map0_63.blp")
	assert.False(t, ok)
	_, ok = tr.Lookup("Outland", "map0_0.blp")
	assert.False(t, ok)
}

func TestParseTranslateEdgeCases(t *testing.T) {
	t.Run("lines before first dir are ignored", func(t *testing.T) {
		tr, err := ParseTranslate([]byte("stray line\ndir: A\nA/map1_2.blp\thash.blp\n"))
		require.NoError(t, err)
		hashed, ok := tr.Lookup("A", "map1_2.blp")
		assert.True(t, ok)
		assert.Equal(t, "hash.blp", hashed)
	})

	t.Run("empty", func(t *testing.T) {
		tr, err := ParseTranslate(nil)
		require.NoError(t, err)
		assert.Empty(t, tr)
	})

	t.Run("missing tab", func(t *testing.T) {
		_, err := ParseTranslate([]byte("dir: A\nmap1_2.blp hash.blp\n"))
		assert.ErrorIs(t, err, ErrFormat)
		assert.ErrorContains(t, err, "line 2")
	})

	t.Run("extra column", func(t *testing.T) {
		_, err := ParseTranslate([]byte("dir: A\nmap1_2.blp\thash.blp\textra\n"))
		assert.ErrorIs(t, err, ErrFormat)
	})
}

func TestService(t *testing.T) {
	svc, err := NewService(newTestChain(t, true, true))
	require.NoError(t, err)
	require.Len(t, svc.Maps(), 3)
	assert.Equal(t, "Eastern Kingdoms", svc.Maps()[0].Name[dbc.EnUS])
	assert.Equal(t, uint32(1), svc.Maps()[2].InstanceType)

	path, ok := svc.TexturePath("Azeroth", 32, 48)
	require.True(t, ok)
	assert.Equal(t, `textures\Minimap\0a1b2c3d4e5f60718293a4b5c6d7e8f9.blp`, path)

	_, ok = svc.TexturePath("Azeroth", 0, 0)
	assert.False(t, ok)

	minimap := svc.Minimap()
	require.Len(t, minimap.Maps, 3)

	azeroth := minimap.Maps[0]
	assert.Equal(t, "Azeroth", azeroth.Directory)
	assert.Len(t, azeroth.Tiles, 2)
	assert.Len(t, minimap.Maps[1].Tiles, 1)
	assert.Empty(t, minimap.Maps[33].Tiles)

	tile := azeroth.Tiles[Position{X: 32, Y: 48}]
	require.NotNil(t, tile)
	texture, err := tile.Texture()
	require.NoError(t, err)
	assert.Equal(t, "BLP2 azeroth 32 48", string(texture))

	_, err = azeroth.Tiles[Position{X: 32, Y: 49}].Texture()
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestServiceMissingResources(t *testing.T) {
	_, err := NewService(newTestChain(t, false, true))
	assert.ErrorIs(t, err, ErrMissingResource)
	assert.ErrorContains(t, err, "md5translate.trs")

	_, err = NewService(newTestChain(t, true, false))
	assert.ErrorIs(t, err, ErrMissingResource)
	assert.ErrorContains(t, err, "Map.dbc")
}
