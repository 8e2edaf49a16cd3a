package image

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"

	"github.com/bodgit/cpcgfx/asm"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

// DefaultTolerance is the per-channel match radius used when no options are
// supplied.
const DefaultTolerance = 8

// EncodeOptions control the pixel to ink matching.
type EncodeOptions struct {
	// Tolerance is the per-channel radius within which a pixel must
	// match its nearest palette entry. Zero demands an exact match and a
	// negative value always accepts the nearest entry.
	Tolerance int

	// TransparentInk, when set, is assigned to fully transparent pixels
	// instead of color matching them.
	TransparentInk *ink.Ink

	// Quantize reduces the image to the mode's pen count before ink
	// matching instead of failing on palette overflow.
	Quantize bool
}

// Encoded is the result of packing one image into raster rows.
type Encoded struct {
	Geometry asm.Geometry
	Rows     [][]byte

	// UsedInks lists every distinct ink in first occurrence order; a
	// pixel's pen is its ink's position in this list.
	UsedInks []ink.Ink

	// Fallback is set when at least one pixel only matched the palette
	// after the tolerance check was abandoned.
	Fallback bool
}

type encoder struct {
	m    image.Image
	mode mode.Mode
	opts EncodeOptions

	inkGrid  [][]ink.Ink
	inkToPen map[ink.Ink]int
	out      *Encoded
}

func (e *encoder) registerInk(i ink.Ink) {
	if _, ok := e.inkToPen[i]; !ok {
		e.inkToPen[i] = len(e.out.UsedInks)
		e.out.UsedInks = append(e.out.UsedInks, i)
	}
}

// matchPixels maps every pixel to an ink, building the used ink list as new
// inks appear. A pixel that misses the palette within tolerance is retried
// with the check disabled and flags the image as having used the fallback.
func (e *encoder) matchPixels() error {
	b := e.m.Bounds()
	w, h := b.Dx(), b.Dy()

	e.inkGrid = make([][]ink.Ink, h)
	for y := 0; y < h; y++ {
		e.inkGrid[y] = make([]ink.Ink, w)
		for x := 0; x < w; x++ {
			r, g, bl, a := e.m.At(b.Min.X+x, b.Min.Y+y).RGBA()

			var i ink.Ink
			if a == 0 && e.opts.TransparentInk != nil {
				i = ink.Clamp(*e.opts.TransparentInk)
			} else {
				var err error
				i, err = ink.Nearest(uint8(r>>8), uint8(g>>8), uint8(bl>>8), e.opts.Tolerance)
				if errors.Is(err, ink.ErrOutOfPalette) {
					i, _ = ink.Nearest(uint8(r>>8), uint8(g>>8), uint8(bl>>8), -1)
					e.out.Fallback = true
				} else if err != nil {
					return err
				}
			}

			e.inkGrid[y][x] = i
			e.registerInk(i)
		}
	}

	if len(e.out.UsedInks) > e.mode.MaxPens() {
		return fmt.Errorf("%w: %d inks used but %s allows %d", ErrPaletteOverflow, len(e.out.UsedInks), e.mode, e.mode.MaxPens())
	}

	return nil
}

func (e *encoder) packRows() {
	ppb := e.mode.PixelsPerByte()
	w := len(e.inkGrid[0])

	pens := make([]byte, ppb)
	for _, row := range e.inkGrid {
		line := make([]byte, 0, w/ppb)
		for x := 0; x < w; x += ppb {
			for i := 0; i < ppb; i++ {
				pens[i] = byte(e.inkToPen[row[x+i]])
			}
			line = append(line, e.mode.Pack(pens))
		}
		e.out.Rows = append(e.out.Rows, line)
	}
}

// quantized returns a copy of m reduced to at most colors entries.
func quantized(m image.Image, colors int) image.Image {
	b := m.Bounds()
	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)
	return pm
}

// Encode packs the image m into raster rows for the given mode. The image
// width must be divisible by the mode's pixels per byte and the image must
// not use more distinct inks than the mode has pens.
func Encode(m image.Image, md mode.Mode, opts *EncodeOptions) (*Encoded, error) {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()

	ppb := md.PixelsPerByte()
	if w%ppb != 0 {
		return nil, fmt.Errorf("%w: width %dpx, %s packs %d pixels per byte", ErrDimensionMismatch, w, md, ppb)
	}
	if w == 0 || h == 0 {
		return nil, errNotEnough
	}

	e := encoder{
		m:        m,
		mode:     md,
		opts:     EncodeOptions{Tolerance: DefaultTolerance},
		inkToPen: make(map[ink.Ink]int),
		out: &Encoded{
			Geometry: asm.Geometry{WidthBytes: w / ppb, Height: h},
		},
	}
	if opts != nil {
		e.opts = *opts
	}

	if e.opts.Quantize {
		e.m = quantized(e.m, md.MaxPens())
	}

	if err := e.matchPixels(); err != nil {
		return nil, err
	}
	e.packRows()

	return e.out, nil
}
