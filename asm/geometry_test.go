package asm_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodgit/cpcgfx/asm"
	"github.com/bodgit/cpcgfx/ink"
)

func TestGuessFormatHeader(t *testing.T) {
	flat := []byte{2, 3, 1, 2, 3, 4, 5, 6}
	rows := [][]byte{flat}

	f, g, data, err := asm.GuessFormat(rows, flat)
	require.NoError(t, err)
	assert.Equal(t, asm.FormatHeader, f)
	assert.Equal(t, asm.Geometry{WidthBytes: 2, Height: 3}, g)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
}

func TestGuessFormatHeaderAmbiguityOverride(t *testing.T) {
	// The first two bytes would make a fitting header, but a 2-byte
	// first row followed by a markedly longer one signals row data.
	rows := [][]byte{
		{2, 3},
		{1, 2, 3, 4, 5, 6},
	}
	flat := []byte{2, 3, 1, 2, 3, 4, 5, 6}

	f, _, _, err := asm.GuessFormat(rows, flat)
	require.NoError(t, err)
	assert.Equal(t, asm.FormatRows, f)
}

func TestGuessFormatRowsDropMetaRow(t *testing.T) {
	rows := [][]byte{
		{9, 9},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
		{1, 2, 3, 4},
	}
	var flat []byte
	for _, r := range rows {
		flat = append(flat, r...)
	}

	f, g, data, err := asm.GuessFormat(rows, flat)
	require.NoError(t, err)
	assert.Equal(t, asm.FormatRows, f)
	assert.Equal(t, asm.Geometry{WidthBytes: 4, Height: 3}, g)
	assert.Equal(t, []byte{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}, data)
}

func TestGuessFormatRowsNormalize(t *testing.T) {
	// First two bytes cannot be a fitting header, so row geometry is
	// used; ragged rows are truncated or zero padded to the dominant
	// width and the first row is kept since it is not shorter than it.
	rows := [][]byte{
		{200, 2, 3},
		{4, 5, 6},
		{7, 8},
		{9, 10, 11, 12},
	}
	var flat []byte
	for _, r := range rows {
		flat = append(flat, r...)
	}

	f, g, data, err := asm.GuessFormat(rows, flat)
	require.NoError(t, err)
	assert.Equal(t, asm.FormatRows, f)
	assert.Equal(t, asm.Geometry{WidthBytes: 3, Height: 4}, g)
	assert.Equal(t, []byte{200, 2, 3, 4, 5, 6, 7, 8, 0, 9, 10, 11}, data)
}

func TestGuessFormatNoData(t *testing.T) {
	_, _, _, err := asm.GuessFormat(nil, nil)
	assert.Equal(t, asm.ErrNoData, err)
}

func TestBlockGeometryHeader(t *testing.T) {
	b := &asm.Block{
		Label:    "SPRITE",
		Bytes:    []byte{2, 2, 1, 2, 3, 4, 99},
		PenToInk: map[int]ink.Ink{},
	}

	g, data, err := b.Geometry()
	require.NoError(t, err)
	assert.Equal(t, asm.Geometry{WidthBytes: 2, Height: 2}, g)
	// Excess bytes are ignored.
	assert.Equal(t, []byte{1, 2, 3, 4}, data)
}

func TestBlockGeometryMalformed(t *testing.T) {
	b := &asm.Block{Label: "SPRITE", Bytes: []byte{2}}
	_, _, err := b.Geometry()
	assert.True(t, errors.Is(err, asm.ErrMalformedBlock))

	b = &asm.Block{Label: "SPRITE", Bytes: []byte{2, 2, 1, 2}}
	_, _, err = b.Geometry()
	assert.True(t, errors.Is(err, asm.ErrMalformedBlock))
}

func TestBlockGeometryImplicit(t *testing.T) {
	b := &asm.Block{
		Label:    asm.ImplicitLabel,
		Bytes:    []byte{2, 3, 1, 2, 3, 4, 5, 6},
		Rows:     [][]byte{{2, 3, 1, 2, 3, 4, 5, 6}},
		Implicit: true,
	}

	g, data, err := b.Geometry()
	require.NoError(t, err)
	assert.Equal(t, asm.Geometry{WidthBytes: 2, Height: 3}, g)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, data)
}
