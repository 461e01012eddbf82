// Copyright (c) 2025 suprsokr
// SPDX-License-Identifier: MIT

package dbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suprsokr/icecap/internal/testutil"
	"github.com/suprsokr/icecap/mpq"
)

type spellRow struct {
	ID      uint32    `dbc:"id,pk"`
	School  int32     `dbc:"school"`
	Range   float32   `dbc:"range"`
	Passive bool      `dbc:"passive"`
	Effects [3]uint32 `dbc:"effects"`
	Name    LocalizedString
	Icon    string `dbc:"icon"`

	cached string
	Extra  string `dbc:"-"`
}

func TestColumnsOf(t *testing.T) {
	columns, err := ColumnsOf(spellRow{})
	require.NoError(t, err)
	assert.Equal(t, []Column{
		{Name: "id", Type: UInt32, PrimaryKey: true},
		{Name: "school", Type: Int32},
		{Name: "range", Type: Float32},
		{Name: "passive", Type: Boolean},
		{Name: "effects", Type: UInt32, ArraySize: 3},
		{Name: "Name", Type: LocString},
		{Name: "icon", Type: String},
	}, columns)

	width := 0
	for _, c := range columns {
		width += c.Width()
	}
	assert.Equal(t, 4*4+12+36+4, width)

	fromPtr, err := ColumnsOf(&spellRow{})
	require.NoError(t, err)
	assert.Equal(t, columns, fromPtr)
}

func TestColumnsOfErrors(t *testing.T) {
	type withInt struct {
		ID int
	}
	type withLocalizedArray struct {
		Names [2]LocalizedString
	}

	for name, v := range map[string]any{
		"not a struct":    42,
		"nil":             nil,
		"int field":       withInt{},
		"localized array": withLocalizedArray{},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ColumnsOf(v)
			assert.ErrorIs(t, err, ErrSchema)
		})
	}
}

func spellBytes(t *testing.T) []byte {
	b := testutil.NewDBC(t, 17, 68)
	row := func(id uint32, school int32, rng float32, passive bool, effects [3]uint32, enName, icon string) {
		values := []any{id, school, rng, passive, effects[0], effects[1], effects[2], enName}
		for range LocaleCount - 1 {
			values = append(values, "")
		}
		values = append(values, icon)
		b.Row(values...)
	}
	row(133, 2, 35, false, [3]uint32{2, 0, 0}, "Fireball", "Spell_Fire_FlameBolt")
	row(2457, 1, 0, true, [3]uint32{6, 0, 0}, "Battle Stance", "Ability_Warrior_OffensiveStance")
	return b.Bytes()
}

func TestUnmarshal(t *testing.T) {
	rows, err := Unmarshal[spellRow](spellBytes(t))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, uint32(133), rows[0].ID)
	assert.Equal(t, int32(2), rows[0].School)
	assert.Equal(t, float32(35), rows[0].Range)
	assert.False(t, rows[0].Passive)
	assert.Equal(t, [3]uint32{2, 0, 0}, rows[0].Effects)
	assert.Equal(t, "Fireball", rows[0].Name[EnUS])
	assert.Equal(t, "Spell_Fire_FlameBolt", rows[0].Icon)
	assert.Empty(t, rows[0].Extra)

	assert.Equal(t, uint32(2457), rows[1].ID)
	assert.True(t, rows[1].Passive)
	assert.Equal(t, "Battle Stance", rows[1].Name[EnUS])
}

func TestDecodeNamedTypes(t *testing.T) {
	type mapID uint32
	type row struct {
		ID   mapID  `dbc:"field_0"`
		Flag uint32 `dbc:"field_1"`
		Skip uint32 `dbc:"absent"`
	}

	db := New(testutil.NewDBC(t, 2, 8).Row(uint32(571), uint32(1)).Bytes(), nil)
	rows, err := Decode[row](db)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, mapID(571), rows[0].ID)
	assert.Equal(t, uint32(1), rows[0].Flag)
	assert.Zero(t, rows[0].Skip)
}

func TestDecodeMismatch(t *testing.T) {
	type row struct {
		Name string `dbc:"field_0"`
	}
	db := New(testutil.NewDBC(t, 1, 4).Row(uint32(1)).Bytes(), nil)
	_, err := Decode[row](db)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Decode[*row](db)
	assert.ErrorIs(t, err, ErrSchema)
}

func TestUnmarshalFromArchive(t *testing.T) {
	archive := mpq.New("Data/patch.MPQ", testutil.NewArchive(t).
		Add("DBFilesClient\\Spell.dbc", spellBytes(t)).
		Bytes())
	chain := mpq.NewChain()
	require.NoError(t, chain.AddArchive(archive))

	data, ok, err := chain.ReadFile("DBFilesClient\\Spell.dbc")
	require.NoError(t, err)
	require.True(t, ok)

	rows, err := Unmarshal[spellRow](data)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ability_Warrior_OffensiveStance", rows[1].Icon)
}
