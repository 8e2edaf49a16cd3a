/*
Package image implements the conversion between CPC raster blocks and
standard RGBA images.

Decoding resolves each packed pen value to a firmware ink via the block's
palette hints and produces a fully opaque RGBA image. Encoding matches each
pixel to its nearest firmware ink, assigns pens in first use order and packs
the pixels back into screen bytes.
*/
package image

import "errors"

var (
	errNotEnough = errors.New("image: not enough raster data")

	// ErrPaletteOverflow is returned when an image uses more distinct
	// inks than the video mode has pens.
	ErrPaletteOverflow = errors.New("image: too many colors for mode")

	// ErrDimensionMismatch is returned when an image width is not
	// divisible by the mode's pixels per byte.
	ErrDimensionMismatch = errors.New("image: width not divisible by pixels per byte")
)
