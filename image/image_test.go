package image_test

import (
	"errors"
	stdimage "image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodgit/cpcgfx/asm"
	cpcimage "github.com/bodgit/cpcgfx/image"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

func newBlock(penToInk map[int]ink.Ink) *asm.Block {
	if penToInk == nil {
		penToInk = make(map[int]ink.Ink)
	}
	return &asm.Block{Label: "TEST", PenToInk: penToInk}
}

func TestDecodeWithPalette(t *testing.T) {
	// One mode 2 byte, leftmost pixel set.
	b := newBlock(map[int]ink.Ink{0: 0, 1: 26})
	g := asm.Geometry{WidthBytes: 1, Height: 1}

	m, err := cpcimage.Decode(b, g, []byte{0x80}, mode.Mode2, nil)
	require.NoError(t, err)

	bounds := m.Bounds()
	assert.Equal(t, 8, bounds.Dx())
	assert.Equal(t, 1, bounds.Dy())

	white := ink.Ink(26).RGBA()
	black := ink.Ink(0).RGBA()
	assert.Equal(t, white, m.At(0, 0))
	for x := 1; x < 8; x++ {
		assert.Equal(t, black, m.At(x, 0))
	}
}

func TestDecodeIdentityFallback(t *testing.T) {
	// No INK hints: pen 3 decodes as ink 3.
	g := asm.Geometry{WidthBytes: 1, Height: 1}

	m, err := cpcimage.Decode(newBlock(nil), g, []byte{0xff}, mode.Mode1, nil)
	require.NoError(t, err)

	want := ink.Ink(3).RGBA()
	for x := 0; x < 4; x++ {
		assert.Equal(t, want, m.At(x, 0))
	}
}

func TestDecodeFallbackInk(t *testing.T) {
	fallback := ink.Ink(24)
	g := asm.Geometry{WidthBytes: 1, Height: 1}

	m, err := cpcimage.Decode(newBlock(nil), g, []byte{0x00}, mode.Mode2, &cpcimage.DecodeOptions{FallbackInk: &fallback})
	require.NoError(t, err)

	want := ink.Ink(24).RGBA()
	for x := 0; x < 8; x++ {
		assert.Equal(t, want, m.At(x, 0))
	}
}

func TestDecodeNotEnoughData(t *testing.T) {
	g := asm.Geometry{WidthBytes: 2, Height: 2}
	_, err := cpcimage.Decode(newBlock(nil), g, []byte{0x00}, mode.Mode2, nil)
	assert.Error(t, err)
}

func newRGBA(w, h int, c color.RGBA) *stdimage.RGBA {
	m := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.SetRGBA(x, y, c)
		}
	}
	return m
}

func TestEncodeRoundTrip(t *testing.T) {
	// Two exact palette colors under mode 2 survive an encode and
	// decode unchanged.
	src := newRGBA(8, 2, ink.Ink(0).RGBA())
	src.SetRGBA(0, 0, ink.Ink(26).RGBA())
	src.SetRGBA(3, 1, ink.Ink(26).RGBA())

	e, err := cpcimage.Encode(src, mode.Mode2, &cpcimage.EncodeOptions{Tolerance: 0})
	require.NoError(t, err)

	assert.Equal(t, asm.Geometry{WidthBytes: 1, Height: 2}, e.Geometry)
	assert.Equal(t, []ink.Ink{26, 0}, e.UsedInks)
	assert.False(t, e.Fallback)
	assert.Equal(t, [][]byte{{0x7f}, {0xef}}, e.Rows)

	// Re-decode with the pen assignment the encoder produced.
	penToInk := make(map[int]ink.Ink)
	for pen, i := range e.UsedInks {
		penToInk[pen] = i
	}
	var data []byte
	for _, row := range e.Rows {
		data = append(data, row...)
	}

	m, err := cpcimage.Decode(newBlock(penToInk), e.Geometry, data, mode.Mode2, nil)
	require.NoError(t, err)

	for y := 0; y < 2; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, src.RGBAAt(x, y), m.At(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestEncodePaletteOverflow(t *testing.T) {
	// Five distinct on-palette colors under mode 2 (2 pens).
	src := newRGBA(8, 1, ink.Ink(0).RGBA())
	for i, c := range []ink.Ink{2, 6, 18, 26} {
		src.SetRGBA(i+1, 0, c.RGBA())
	}

	_, err := cpcimage.Encode(src, mode.Mode2, &cpcimage.EncodeOptions{Tolerance: 0})
	assert.True(t, errors.Is(err, cpcimage.ErrPaletteOverflow))
}

func TestEncodeDimensionMismatch(t *testing.T) {
	src := newRGBA(3, 1, ink.Ink(0).RGBA())
	_, err := cpcimage.Encode(src, mode.Mode0, nil)
	assert.True(t, errors.Is(err, cpcimage.ErrDimensionMismatch))
}

func TestEncodeToleranceFallback(t *testing.T) {
	// Off-palette color with an exact tolerance triggers the retry and
	// flags the result, but does not fail.
	src := newRGBA(8, 1, color.RGBA{10, 10, 10, 0xff})

	e, err := cpcimage.Encode(src, mode.Mode2, &cpcimage.EncodeOptions{Tolerance: 0})
	require.NoError(t, err)
	assert.True(t, e.Fallback)
	assert.Equal(t, []ink.Ink{0}, e.UsedInks)
}

func TestEncodeTransparentInk(t *testing.T) {
	transparent := ink.Ink(13)
	src := newRGBA(8, 1, ink.Ink(0).RGBA())
	src.SetRGBA(7, 0, color.RGBA{})

	e, err := cpcimage.Encode(src, mode.Mode2, &cpcimage.EncodeOptions{Tolerance: 0, TransparentInk: &transparent})
	require.NoError(t, err)
	assert.Equal(t, []ink.Ink{0, 13}, e.UsedInks)
	assert.False(t, e.Fallback)
	assert.Equal(t, [][]byte{{0x01}}, e.Rows)
}

func TestEncodeQuantize(t *testing.T) {
	// Too many colors for mode 2, but quantizing first reduces them.
	src := newRGBA(8, 1, ink.Ink(0).RGBA())
	for i, c := range []ink.Ink{2, 6, 18, 26} {
		src.SetRGBA(i+1, 0, c.RGBA())
	}

	e, err := cpcimage.Encode(src, mode.Mode2, &cpcimage.EncodeOptions{Tolerance: -1, Quantize: true})
	require.NoError(t, err)
	assert.True(t, len(e.UsedInks) <= 2)
}
