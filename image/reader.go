package image

import (
	"image"

	"github.com/bodgit/cpcgfx/asm"
	"github.com/bodgit/cpcgfx/ink"
	"github.com/bodgit/cpcgfx/mode"
)

// DecodeOptions control how pens without an explicit palette hint resolve.
type DecodeOptions struct {
	// FallbackInk is used for any pen missing from the block's palette
	// hints. When nil the pen number itself is used as the ink.
	FallbackInk *ink.Ink
}

type decoder struct {
	data       []byte
	widthBytes int
	height     int
	mode       mode.Mode

	penToInk map[int]ink.Ink
	fallback *ink.Ink

	image *image.RGBA
}

// resolve maps a pen to its ink: explicit hint first, then the fallback
// ink, then the pen itself, clamped into the palette either way.
func (d *decoder) resolve(pen int) ink.Ink {
	if i, ok := d.penToInk[pen]; ok {
		return ink.Clamp(i)
	}
	if d.fallback != nil {
		return ink.Clamp(*d.fallback)
	}
	return ink.Clamp(ink.Ink(pen))
}

func (d *decoder) decode() error {
	needed := d.widthBytes * d.height
	if len(d.data) < needed {
		return errNotEnough
	}

	ppb := d.mode.PixelsPerByte()
	maxPens := d.mode.MaxPens()

	d.image = image.NewRGBA(image.Rect(0, 0, d.widthBytes*ppb, d.height))

	i := 0
	for y := 0; y < d.height; y++ {
		x := 0
		for bx := 0; bx < d.widthBytes; bx++ {
			for _, pen := range d.mode.Unpack(d.data[i]) {
				p := int(pen)
				if p >= maxPens {
					p %= maxPens
				}
				d.image.SetRGBA(x, y, d.resolve(p).RGBA())
				x++
			}
			i++
		}
	}

	return nil
}

// Decode converts one block's raster data into a fully opaque RGBA image.
func Decode(b *asm.Block, g asm.Geometry, data []byte, m mode.Mode, opts *DecodeOptions) (image.Image, error) {
	d := decoder{
		data:       data,
		widthBytes: g.WidthBytes,
		height:     g.Height,
		mode:       m,
		penToInk:   b.PenToInk,
	}
	if opts != nil {
		d.fallback = opts.FallbackInk
	}

	if err := d.decode(); err != nil {
		return nil, err
	}
	return d.image, nil
}
