/*
Package ink implements the fixed Amstrad CPC firmware palette of 27 colors.

The firmware defines each ink as a percentage triple over {0, 50, 100} for
the red, green and blue channels. The firmware convention maps these to the
8-bit values 0, 128 and 255 respectively rather than rounding linearly.
*/
package ink

import (
	"errors"
	"image/color"
	"math"
)

// NumInks is the number of firmware palette entries.
const NumInks = 27

// ErrOutOfPalette is returned by Nearest when the closest palette entry is
// further than the allowed tolerance on at least one channel.
var ErrOutOfPalette = errors.New("ink: color does not match palette within tolerance")

// Ink identifies one of the 27 firmware colors.
type Ink int

// Percentage triples as defined by the firmware, indexed by ink.
var palettePct = [NumInks][3]int{
	{0, 0, 0}, {0, 0, 50}, {0, 0, 100},
	{50, 0, 0}, {50, 0, 50}, {50, 0, 100},
	{100, 0, 0}, {100, 0, 50}, {100, 0, 100},
	{0, 50, 0}, {0, 50, 50}, {0, 50, 100},
	{50, 50, 0}, {50, 50, 50}, {50, 50, 100},
	{100, 50, 0}, {100, 50, 50}, {100, 50, 100},
	{0, 100, 0}, {0, 100, 50}, {0, 100, 100},
	{50, 100, 0}, {50, 100, 50}, {50, 100, 100},
	{100, 100, 0}, {100, 100, 50}, {100, 100, 100},
}

var palette [NumInks]color.RGBA

func init() {
	for i, pct := range palettePct {
		palette[i] = color.RGBA{
			pctTo8Bit(pct[0]),
			pctTo8Bit(pct[1]),
			pctTo8Bit(pct[2]),
			0xff,
		}
	}
}

// The firmware maps 0/50/100 to 0/128/255 exactly; anything else is a
// straight linear rounding.
func pctTo8Bit(p int) uint8 {
	switch p {
	case 0:
		return 0
	case 50:
		return 128
	case 100:
		return 255
	}
	return uint8(math.Round(float64(p) * 255 / 100))
}

// Clamp forces i into the valid ink range [0, NumInks-1].
func Clamp(i Ink) Ink {
	if i < 0 {
		return 0
	}
	if i >= NumInks {
		return NumInks - 1
	}
	return i
}

// RGBA returns the fully opaque color for the ink. The ink is clamped into
// range first.
func (i Ink) RGBA() color.RGBA {
	return palette[Clamp(i)]
}

func sqDiff(a, b uint8) int {
	d := int(a) - int(b)
	return d * d
}

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

// Nearest returns the ink whose color is closest to the given channels using
// squared Euclidean distance, scanning inks in ascending order so that ties
// resolve to the lowest index.
//
// If tolerance is non-negative the chosen ink must additionally be within
// tolerance of the input on every channel, otherwise ErrOutOfPalette is
// returned along with the ink that would have been chosen. A negative
// tolerance always accepts the nearest match.
func Nearest(r, g, b uint8, tolerance int) (Ink, error) {
	best := Ink(0)
	bestDist := 3*255*255 + 1

	for i := Ink(0); i < NumInks; i++ {
		c := palette[i]
		d := sqDiff(r, c.R) + sqDiff(g, c.G) + sqDiff(b, c.B)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}

	if tolerance >= 0 {
		c := palette[best]
		if absDiff(r, c.R) > tolerance || absDiff(g, c.G) > tolerance || absDiff(b, c.B) > tolerance {
			return best, ErrOutOfPalette
		}
	}

	return best, nil
}
