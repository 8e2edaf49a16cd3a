/*
Package mode implements the Amstrad CPC video mode pixel packing.

Each screen byte holds 2, 4 or 8 pixels depending on the video mode, with
the pen bits of every pixel interleaved across the byte in a fixed hardware
order. Mode 0 packs two 4-bit pens, mode 1 four 2-bit pens and mode 2 eight
1-bit pens.
*/
package mode

import "fmt"

// Mode is one of the three CPC video modes.
type Mode int

const (
	// Mode0 has 2 pixels per byte and up to 16 pens.
	Mode0 Mode = iota
	// Mode1 has 4 pixels per byte and up to 4 pens.
	Mode1
	// Mode2 has 8 pixels per byte and up to 2 pens.
	Mode2
)

// New returns the mode for the given number, which must be 0, 1 or 2.
func New(n int) (Mode, error) {
	if n < 0 || n > 2 {
		return 0, fmt.Errorf("mode: invalid mode %d", n)
	}
	return Mode(n), nil
}

func (m Mode) String() string {
	return fmt.Sprintf("MODE %d", int(m))
}

// PixelsPerByte returns how many pixels one screen byte holds.
func (m Mode) PixelsPerByte() int {
	switch m {
	case Mode0:
		return 2
	case Mode1:
		return 4
	default:
		return 8
	}
}

// MaxPens returns the number of simultaneous pens the mode supports.
func (m Mode) MaxPens() int {
	switch m {
	case Mode0:
		return 16
	case Mode1:
		return 4
	default:
		return 2
	}
}

// BitsPerPixel returns the pen width in bits.
func (m Mode) BitsPerPixel() int {
	return 8 / m.PixelsPerByte()
}

// Unpack splits a screen byte into its pen values, leftmost pixel first.
func (m Mode) Unpack(b byte) []byte {
	switch m {
	case Mode0:
		return unpackMode0(b)
	case Mode1:
		return unpackMode1(b)
	default:
		return unpackMode2(b)
	}
}

// Pack combines PixelsPerByte pen values, leftmost pixel first, into one
// screen byte. Pen bits above the mode's pen width are discarded.
func (m Mode) Pack(pens []byte) byte {
	switch m {
	case Mode0:
		return packMode0(pens[0], pens[1])
	case Mode1:
		return packMode1(pens[0], pens[1], pens[2], pens[3])
	default:
		return packMode2(pens)
	}
}

// Mode 0 interleaves the two 4-bit pens as
// bit 7..0 = p0.0 p1.0 p0.2 p1.2 p0.1 p1.1 p0.3 p1.3.
func unpackMode0(b byte) []byte {
	var p0, p1 byte
	p0 |= (b >> 7 & 1) << 0
	p1 |= (b >> 6 & 1) << 0
	p0 |= (b >> 5 & 1) << 2
	p1 |= (b >> 4 & 1) << 2
	p0 |= (b >> 3 & 1) << 1
	p1 |= (b >> 2 & 1) << 1
	p0 |= (b >> 1 & 1) << 3
	p1 |= (b >> 0 & 1) << 3
	return []byte{p0, p1}
}

func packMode0(p0, p1 byte) byte {
	var b byte
	b |= (p0 >> 0 & 1) << 7
	b |= (p1 >> 0 & 1) << 6
	b |= (p0 >> 2 & 1) << 5
	b |= (p1 >> 2 & 1) << 4
	b |= (p0 >> 1 & 1) << 3
	b |= (p1 >> 1 & 1) << 2
	b |= (p0 >> 3 & 1) << 1
	b |= (p1 >> 3 & 1) << 0
	return b
}

// Mode 1 stores the high bit of each 2-bit pen in bits 7..4 and the low bit
// in bits 3..0.
func unpackMode1(b byte) []byte {
	pens := make([]byte, 4)
	for i := uint(0); i < 4; i++ {
		pens[i] = (b>>(7-i)&1)<<1 | b>>(3-i)&1
	}
	return pens
}

func packMode1(p0, p1, p2, p3 byte) byte {
	var b byte
	b |= (p0 >> 1 & 1) << 7
	b |= (p1 >> 1 & 1) << 6
	b |= (p2 >> 1 & 1) << 5
	b |= (p3 >> 1 & 1) << 4
	b |= (p0 & 1) << 3
	b |= (p1 & 1) << 2
	b |= (p2 & 1) << 1
	b |= p3 & 1
	return b
}

// Mode 2 is one pen bit per pixel, leftmost pixel in bit 7.
func unpackMode2(b byte) []byte {
	pens := make([]byte, 8)
	for i := uint(0); i < 8; i++ {
		pens[i] = b >> (7 - i) & 1
	}
	return pens
}

func packMode2(pens []byte) byte {
	var b byte
	for i, p := range pens {
		b |= (p & 1) << uint(7-i)
	}
	return b
}
